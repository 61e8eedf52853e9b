package emucore

import (
	"dolphinretro/cheats"
	"dolphinretro/config"
	"dolphinretro/interfaces"
)

type State int

const (
	Uninitialized State = iota
	Paused
	Running
	Stopping
	Starting
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Starting:
		return "starting"
	}
	return "unknown"
}

// BootSession is opaque data a netplay client hands to the core when it
// starts a synchronized game.
type BootSession struct {
	ID   string
	Data []byte
}

type BootParameters struct {
	Path    string
	Session *BootSession
}

// Core is the emulation core. Observers subscribed through the embedded
// Observable receive State values, possibly from the core's own threads.
type Core interface {
	interfaces.Observable
	cheats.Decrypter

	// BootParameters builds the boot parameters for a game file.
	BootParameters(path string, session *BootSession) (*BootParameters, error)
	Boot(params *BootParameters) error
	IsUninitialized() bool
	Stop()
	Shutdown()

	// HostDispatchJobs runs work the core queued for the host thread.
	HostDispatchJobs()

	ApplySettings(settings config.CoreSettings)
	ApplyCheats(ar []cheats.ARCode, gecko []cheats.GeckoCode)
	SetAudioSink(sink interfaces.AudioBatchSink)

	SaveStateSize() int
	SaveState(buf []byte) error
	LoadState(buf []byte) error
}
