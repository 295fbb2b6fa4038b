package services

// LogHandler is the logging seam used across the service. Debug output
// is suppressed unless the handler was created in debug mode.
type LogHandler interface {
	Debug(message string)
	Info(message string)
	Warn(message string)
	Error(message string, err error)
}
