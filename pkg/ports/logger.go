package ports

// LogLevel orders log output. Messages below the configured level are
// dropped; LevelQuiet drops everything.
type LogLevel int

const (
	// LevelDebug covers per-frame traffic: submissions, stale results,
	// submit timeouts, camera read retries.
	LevelDebug LogLevel = iota
	// LevelInfo covers session events: mount, device switches, background
	// changes, outputs opened and closed.
	LevelInfo
	// LevelWarn covers frames that were lost but the session continues:
	// failed segmentation, a camera that stopped delivering.
	LevelWarn
	// LevelError covers failures that end the run.
	LevelError
	LevelQuiet
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the name accepted by ParseLogLevel.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel maps a config or flag value to a level. Unknown names
// fall back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger is the logging port. Messages are lexicon keys with printf
// arguments, translated by the implementation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger that prefixes every line with
	// component ("compositor", "segmenter", "camera", ...) and shares the
	// receiver's output and level.
	WithComponent(component string) Logger
}
