package atomsim

// Logger is the leveled logging sink the simulation core writes to.
// Binaries inject their own implementation; the core never logs directly.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debugf(format string, v ...any) {}
func (NoOpLogger) Infof(format string, v ...any)  {}
func (NoOpLogger) Warnf(format string, v ...any)  {}
func (NoOpLogger) Errorf(format string, v ...any) {}

func NewNoOpLogger() Logger {
	return NoOpLogger{}
}

// taggedLogger prefixes every line with the simulation it belongs to.
type taggedLogger struct {
	next Logger
	tag  string
}

func withSimulation(next Logger, id SimulationID) Logger {
	if next == nil {
		return NoOpLogger{}
	}
	if _, ok := next.(NoOpLogger); ok {
		return next
	}
	return taggedLogger{next: next, tag: "sim=" + string(id) + " "}
}

func (l taggedLogger) Debugf(format string, v ...any) { l.next.Debugf(l.tag+format, v...) }
func (l taggedLogger) Infof(format string, v ...any)  { l.next.Infof(l.tag+format, v...) }
func (l taggedLogger) Warnf(format string, v ...any)  { l.next.Warnf(l.tag+format, v...) }
func (l taggedLogger) Errorf(format string, v ...any) { l.next.Errorf(l.tag+format, v...) }
