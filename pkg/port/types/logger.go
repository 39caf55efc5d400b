package types

// Logger is the logging contract every component in this module takes,
// matching the teacher's pkg/mcast/definition.DefaultLogger method
// set so the default zap-backed implementation and any caller-supplied
// override are interchangeable.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Panic(v ...interface{})
	Panicf(format string, v ...interface{})
	ToggleDebug(value bool) bool
}
