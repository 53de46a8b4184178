package memoset

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	pkgLogger  zerolog.Logger
)

// Logger returns this package's zerolog.Logger, configured the way gnark
// itself configures its own logger (With().Timestamp().Logger(), writing to
// stderr). Scope.FinalizeTranscript uses it to trace transcript
// construction at debug level. No level is set on the logger, so that debug
// output is written unless zerolog's global level is raised above debug.
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		pkgLogger = zerolog.New(os.Stderr).With().Timestamp().Str("pkg", "memoset").Logger()
	})
	return pkgLogger
}
