//go:build !windows

package backend

// SetSystemSleepDisabled is a no-op; on Linux the MPRIS playback status
// lets the desktop environment inhibit idling.
func SetSystemSleepDisabled(bool) {}
