package interfaces

// Capabilities supplied by the embedding host runtime. Each one is optional
// unless a consumer documents otherwise.

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogWarn:
		return "warn"
	case LogError:
		return "error"
	}
	return "unknown"
}

type LogSink interface {
	Log(level LogLevel, msg string)
}

type InputPoller interface {
	PollInput()
}

type VideoRefresher interface {
	// RefreshHardwareFrame presents the frame last rendered into the host's hardware framebuffer.
	RefreshHardwareFrame(width, height uint32)
	// RefreshDummyFrame keeps the host's frame pacing alive when nothing is rendered.
	RefreshDummyFrame()
}

type AudioBatchSink interface {
	// WriteAudioBatch consumes interleaved stereo frames and returns how many frames were accepted.
	WriteAudioBatch(frames []int16) int
}

type AudioSampleSink interface {
	WriteAudioSample(left, right int16)
}

// Variable is a host option definition or value. Definitions use the
// "Description; value1|value2" grammar.
type Variable struct {
	Key   string
	Value string
}

// OptionSource reads option values chosen by the user in the host.
type OptionSource interface {
	GetVariable(key string) (string, bool)
}

type Environment interface {
	OptionSource

	// VariablesUpdated reports whether any option changed since the last call.
	VariablesUpdated() bool
	SetVariables(vars []Variable) bool
	EnableHardwareRender() bool
	Username() (string, bool)
	SystemDirectory() string
	SaveDirectory() string
}

type MessageSink interface {
	ShowMessage(msg string, frames uint)
}
