package store

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	pkgLogger  zerolog.Logger
)

// Logger returns this package's zerolog.Logger, in the same
// With().Timestamp().Logger() style gnark itself uses for its own logger.
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		pkgLogger = zerolog.New(os.Stderr).With().Timestamp().Str("pkg", "store").Logger()
	})
	return pkgLogger
}
