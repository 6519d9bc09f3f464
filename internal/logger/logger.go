package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var (
	log  zerolog.Logger
	once sync.Once
)

// Init configures the process logger and installs it as the zerolog global.
// Pretty console output is used unless production is true.
func Init(production bool) zerolog.Logger {
	once.Do(func() {
		var out io.Writer = os.Stderr
		level := zerolog.DebugLevel
		if production {
			level = zerolog.InfoLevel
		} else {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		}
		log = zerolog.New(out).Level(level).With().Timestamp().Logger()
		zlog.Logger = log
	})
	return log
}

// Get returns the process logger, initializing a development logger if Init
// was never called.
func Get() zerolog.Logger {
	return Init(false)
}
