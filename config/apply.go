package config

import (
	"fmt"
	"strconv"
	"strings"

	"dolphinretro/interfaces"

	"github.com/rs/zerolog"
)

// applier copies host option values into settings. Values outside their
// domain leave the destination untouched and are recorded as errors.
type applier struct {
	src  interfaces.OptionSource
	errs []error
}

func (a *applier) value(key string) (string, bool) {
	if a.src == nil {
		return "", false
	}
	return a.src.GetVariable(key)
}

func (a *applier) reject(key, value, domain string) {
	a.errs = append(a.errs, fmt.Errorf("%s=%q: %w: want %s", key, value, ErrInvalidValue, domain))
}

func (a *applier) toggle(key string, dst *bool) {
	v, ok := a.value(key)
	if !ok {
		return
	}
	switch v {
	case Enabled:
		*dst = true
	case Disabled:
		*dst = false
	default:
		a.reject(key, v, "enabled|disabled")
	}
}

func (a *applier) str(key string, dst *string, allowed ...string) {
	v, ok := a.value(key)
	if !ok {
		return
	}
	if len(allowed) == 0 {
		*dst = v
		return
	}
	for _, al := range allowed {
		if v == al {
			*dst = v
			return
		}
	}
	a.reject(key, v, strings.Join(allowed, "|"))
}

func (a *applier) uint(key string, min, max uint64) (uint64, bool) {
	v, ok := a.value(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil || n < min || n > max {
		a.reject(key, v, fmt.Sprintf("[%d, %d]", min, max))
		return 0, false
	}
	return n, true
}

func (a *applier) u16(key string, dst *uint16, min, max uint16) {
	if n, ok := a.uint(key, uint64(min), uint64(max)); ok {
		*dst = uint16(n)
	}
}

func (a *applier) u32(key string, dst *uint32, min, max uint32) {
	if n, ok := a.uint(key, uint64(min), uint64(max)); ok {
		*dst = uint32(n)
	}
}

func (a *applier) resolution(key string, dst *int) {
	v, ok := a.value(key)
	if !ok {
		return
	}
	for _, r := range InternalResolutions {
		if v == r {
			*dst, _ = strconv.Atoi(strings.TrimSuffix(v, "x"))
			return
		}
	}
	a.reject(key, v, strings.Join(InternalResolutions, "|"))
}

func (a *applier) logRejected(log zerolog.Logger) {
	for _, err := range a.errs {
		log.Warn().Err(err).Msg("config: option rejected")
	}
}

// ApplyCoreOptions copies the emulation options from src into the store and
// saves on change. Rejected values are logged and returned.
func ApplyCoreOptions(log zerolog.Logger, s *Store, src interfaces.OptionSource) (changed bool, errs []error) {
	a := &applier{src: src}
	changed = s.UpdateAndSave(func(st *Settings) {
		c := &st.Core
		a.resolution(KeyInternalResolution, &c.EFBScale)
		a.toggle(KeyWidescreenHack, &c.WidescreenHack)
		a.toggle(KeyVSync, &c.VSync)
		a.toggle(KeyDualCore, &c.CPUThread)
		a.toggle(KeyDSPHLE, &c.DSPHLE)
		a.toggle(KeySyncOnSkipIdle, &c.SyncOnSkipIdle)
		a.toggle(KeyCheats, &c.EnableCheats)
		a.toggle(KeySaveStates, &c.EnableSaveStates)
		a.toggle(KeyWiimoteSpeaker, &c.WiimoteSpeaker)
		for i := range c.WiimoteSources {
			a.str(WiimoteKey(i), &c.WiimoteSources[i], WiimoteSources...)
		}
	})
	a.logRejected(log)
	return changed, a.errs
}

// ApplyNetPlayOptions copies the netplay options from src into the store and
// saves on change. Rejected values are logged and returned.
func ApplyNetPlayOptions(log zerolog.Logger, s *Store, src interfaces.OptionSource) (changed bool, errs []error) {
	a := &applier{src: src}
	changed = s.UpdateAndSave(func(st *Settings) {
		np := &st.NetPlay
		a.str(KeyNetPlayNickname, &np.Nickname)
		a.str(KeyNetPlayAddress, &np.Address)
		a.u16(KeyNetPlayConnectPort, &np.ConnectPort, 1, 65535)
		a.u16(KeyNetPlayHostPort, &np.HostPort, 1, 65535)
		a.u16(KeyNetPlayListenPort, &np.ListenPort, 1, 65535)
		a.str(KeyNetPlayHostCode, &np.HostCode)
		a.str(KeyNetPlayTraversalServer, &np.TraversalServer)
		a.u16(KeyNetPlayTraversalPort, &np.TraversalPort, 1, 65535)
		a.u16(KeyNetPlayTraversalPortAlt, &np.TraversalPortAlt, 1, 65535)
		a.toggle(KeyNetPlayLobbyAdvertise, &np.UseIndex)
		a.str(KeyNetPlayLobbyRegion, &np.IndexRegion, Regions...)
		a.toggle(KeyNetPlaySaveDataLoad, &np.SaveDataLoad)
		a.toggle(KeyNetPlaySaveDataWrite, &np.SaveDataWrite)
		a.toggle(KeyNetPlaySaveDataSyncAllWii, &np.SaveDataSyncAllWii)
		a.toggle(KeyNetPlaySyncCodes, &np.SyncCodes)
		a.toggle(KeyNetPlayStrictSettingsSync, &np.StrictSettingsSync)
		a.toggle(KeyNetPlayRecordInputs, &np.RecordInputs)
		a.toggle(KeyNetPlayGolfOverlay, &np.GolfModeOverlay)
		a.toggle(KeyNetPlayHideRemoteGBAs, &np.HideRemoteGBAs)
		a.toggle(KeyNetPlayUseUPnP, &np.UseUPnP)
		a.toggle(KeyNetPlayEnableQoS, &np.EnableQoS)
		a.str(KeyNetPlayNetworkMode, &np.NetworkMode, NetworkModes...)
		a.u32(KeyNetPlayBufferSize, &np.BufferSize, 1, 20)
		a.u32(KeyNetPlayClientBufferSize, &np.ClientBufferSize, 1, 5)
	})
	a.logRejected(log)
	return changed, a.errs
}
