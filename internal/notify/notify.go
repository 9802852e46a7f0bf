// Package notify carries transient user-facing notices from the stores to the
// UI, filling the role of toast popups in a terminal context.
package notify

// Level is the severity of a notice
type Level int

const (
	Info Level = iota
	Success
	Error
)

// Notice is a single transient message
type Notice struct {
	Level   Level
	Message string
}

// Func receives notices. A nil Func is allowed and drops them.
type Func func(Notice)

// Emit sends a notice if a receiver is set
func (f Func) Emit(level Level, message string) {
	if f != nil {
		f(Notice{Level: level, Message: message})
	}
}
