package internal

import (
	"fmt"
	"log"
	"time"

	"checkout/entity"
	"checkout/services"
)

// Logger writes leveled messages to stdout and, when a database is
// attached, mirrors them into the log collection. Database writes are
// best effort and never block the caller.
type Logger struct {
	name     string
	debug    bool
	database services.Database
}

// NewLogger creates a logger for one service category. Pass nil for
// database to log to stdout only.
func NewLogger(name string, debug bool, database services.Database) services.LogHandler {
	return &Logger{
		name:     name,
		debug:    debug,
		database: database,
	}
}

func (l *Logger) Debug(message string) {
	if !l.debug {
		return
	}
	l.write("DEBUG", message, nil)
}

func (l *Logger) Info(message string) {
	l.write("INFO", message, nil)
}

func (l *Logger) Warn(message string) {
	l.write("WARN", message, nil)
}

func (l *Logger) Error(message string, err error) {
	l.write("ERROR", message, err)
}

func (l *Logger) write(level, message string, err error) {
	if err != nil {
		log.Printf("%s [%s] %s: %v", level, l.name, message, err)
	} else {
		log.Printf("%s [%s] %s", level, l.name, message)
	}

	if l.database == nil {
		return
	}
	record := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level,
		Category: l.name,
		Text:     message,
	}
	if err != nil {
		record.Error = fmt.Sprintf("%v", err)
	}
	go func() {
		if e := l.database.WriteLogMessage(record); e != nil {
			log.Printf("ERROR [%s] write log message: %v", l.name, e)
		}
	}()
}
