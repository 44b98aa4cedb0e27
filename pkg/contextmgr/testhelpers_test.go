package contextmgr

import "contextwindow/pkg/logx"

// logxNoop returns a quiet logger for tests that exercise warn/error paths
// without wanting stderr noise in test output.
func logxNoop() *logx.Logger {
	return logx.Noop()
}
