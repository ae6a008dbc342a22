package tensor

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var pkgLogger atomic.Pointer[zap.Logger]

func init() {
	pkgLogger.Store(zap.NewNop())
}

// SetLogger sets the logger used for storage conversion and device sync events.
// A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger.Store(l)
}

func logger() *zap.Logger {
	return pkgLogger.Load()
}
