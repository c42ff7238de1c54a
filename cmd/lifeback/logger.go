package main

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/suyash-sneo/lifeback"
)

type stdLogger struct {
	out     *log.Logger
	verbose bool
}

func newStdLogger(w io.Writer, verbose bool) stdLogger {
	return stdLogger{out: log.New(w, "lifeback ", log.LstdFlags), verbose: verbose}
}

func (l stdLogger) Debug(msg string, fields ...lifeback.Field) {
	if l.verbose {
		l.out.Print("DEBUG: " + format(msg, fields...))
	}
}

func (l stdLogger) Info(msg string, fields ...lifeback.Field) { l.out.Print(format(msg, fields...)) }
func (l stdLogger) Warn(msg string, fields ...lifeback.Field) {
	l.out.Print("WARN: " + format(msg, fields...))
}
func (l stdLogger) Error(msg string, fields ...lifeback.Field) {
	l.out.Print("ERROR: " + format(msg, fields...))
}

func format(msg string, fields ...lifeback.Field) string {
	if len(fields) == 0 {
		return msg
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return msg + " " + strings.Join(parts, " ")
}
