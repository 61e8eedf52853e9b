package interfaces

type Observer interface {
	Notify(object interface{})
}

type Observable interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
}

type ObserverList map[Observer]Observer

// NotifyAll delivers object to every subscribed observer.
func (l ObserverList) NotifyAll(object interface{}) {
	for _, o := range l {
		o.Notify(object)
	}
}

// ObserverFunc adapts a plain function to an Observer. Subscribe a pointer to
// it so that it can be used as a map key.
type ObserverFunc func(object interface{})

func (f *ObserverFunc) Notify(object interface{}) { (*f)(object) }
