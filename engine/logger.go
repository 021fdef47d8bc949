package engine

import "log"

// Logger is the observability hook threaded through every component. Nothing
// in the engine reaches for a global logger.
type Logger interface {
	Printf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// SimpleLogger writes through the standard library logger.
type SimpleLogger struct{}

func (sl *SimpleLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

func (sl *SimpleLogger) Errorf(format string, v ...interface{}) {
	log.Printf("ERROR: "+format, v...)
}
