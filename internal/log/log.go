package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Options configures the process-wide logger.
type Options struct {
	Level  Level
	Format string // "console" (default) or "json"
	Writer io.Writer
}

var (
	mu         sync.RWMutex
	logger     zerolog.Logger
	loggerOnce sync.Once
)

// initLogger installs the default console logger on stderr at INFO.
func initLogger() {
	loggerOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = build(Options{Level: LevelInfo})
	})
}

// Init replaces the global logger. Safe to call more than once; the last
// call wins.
func Init(opt Options) {
	initLogger()
	l := build(opt)
	mu.Lock()
	logger = l
	mu.Unlock()
}

func build(opt Options) zerolog.Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if !strings.EqualFold(opt.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}
	return zerolog.New(w).Level(toZerolog(opt.Level)).With().Timestamp().Logger()
}

func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	logger = logger.Level(toZerolog(l))
	mu.Unlock()
}

// ParseLevel maps config strings onto a Level. Unknown values yield INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "error", "fatal", "panic":
		return LevelError
	default:
		return LevelInfo
	}
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug(msg string, kv ...any) {
	get().Debug().Fields(pairs(kv)).Msg(msg)
}

func Info(msg string, kv ...any) {
	get().Info().Fields(pairs(kv)).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	get().Error().Err(err).Fields(pairs(kv)).Msg(msg)
}

func get() *zerolog.Logger {
	initLogger()
	mu.RLock()
	l := logger
	mu.RUnlock()
	return &l
}

// pairs turns key, value, key, value, ... into a field map. Non-string keys
// are skipped; an odd trailing value is ignored.
func pairs(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = safeValue(kv[i+1])
	}
	return out
}

func safeValue(v any) any {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return v
	}
}
