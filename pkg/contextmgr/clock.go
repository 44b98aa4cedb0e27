package contextmgr

import "time"

// nowMillis is the default Clock implementation, backing defaultClock in
// manager.go. Tests should inject their own Clock via WithClock instead of
// depending on wall-clock behavior.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
