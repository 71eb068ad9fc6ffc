package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

var disabled bool

func init() {
	// Filtering is done per module, let everything through logrus.
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// SetOutput sets the destination of all log modules.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Disable silences all modules, whatever their level.
func Disable() {
	disabled = true
}

// Enable reverts Disable.
func Enable() {
	disabled = false
}

// A Context adds fields to every log entry. The emulator registers one to
// decorate messages with the current frame and CPU cycle.
type Context interface {
	AddLogContext(e *EntryZ)
}

var contexts []Context

func AddContext(ctx Context) {
	contexts = append(contexts, ctx)
}

func RemoveContext(ctx Context) {
	for i := range contexts {
		if contexts[i] == ctx {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}
