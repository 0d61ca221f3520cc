package core

// Actor is an opaque reference to the person performing an operation;
// it is attached to audit records and error reports.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
