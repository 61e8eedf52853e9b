package cheats

// List holds cheat entries addressed by host-assigned slot index.
type List struct {
	entries []Entry
}

// Set stores e at index, filling any gap with disabled invalid entries.
func (l *List) Set(index int, e Entry) {
	if index < 0 {
		return
	}
	for len(l.entries) <= index {
		l.entries = append(l.entries, Entry{Backend: ActionReplay})
	}
	l.entries[index] = e
}

func (l *List) Reset() {
	l.entries = nil
}

func (l *List) Len() int {
	return len(l.entries)
}

func (l *List) Get(index int) (Entry, bool) {
	if index < 0 || index >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[index], true
}

// Collect splits the valid entries per backend and reports whether any of them is enabled.
func (l *List) Collect() (ar []ARCode, gecko []GeckoCode, anyEnabled bool) {
	for _, e := range l.entries {
		if !e.Valid {
			continue
		}
		if e.Enabled {
			anyEnabled = true
		}

		switch e.Backend {
		case ActionReplay:
			ar = append(ar, e.AR)
		case Gecko:
			gecko = append(gecko, e.Gecko)
		}
	}
	return
}
