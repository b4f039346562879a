package log

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	debug  bool
	output io.Writer = os.Stderr
)

// Logger is a global interface for auditraq loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("AUDITRAQ_DEBUG"))
	if err != nil {
		debug = false
	}
}

// SetDebug enables debug level for loggers created after this call.
func SetDebug(v bool) {
	mu.Lock()
	debug = v
	mu.Unlock()
}

// SetOutput sets the writer for loggers created after this call.
// Nil resets it to stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	output = w
	mu.Unlock()
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logrus.New()
	l.SetOutput(output)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Component returns a logger entry tagged with component name.
func Component(name string) *logrus.Entry {
	return GetLogger().WithField("component", name)
}

// Discard returns a logger which drops everything. Used in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
