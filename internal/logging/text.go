package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

var (
	infoLabel  = color.New(color.FgGreen).SprintFunc()
	debugLabel = color.New(color.FgCyan).SprintFunc()
	traceLabel = color.New(color.FgYellow).SprintFunc()
	errorLabel = color.New(color.FgRed).SprintFunc()
)

// TextSink is a logr.LogSink that writes one line per record:
//
//	[INFO] name: message key=value key=value
type TextSink struct {
	mu        *sync.Mutex
	w         io.Writer
	verbosity int
	name      string
	values    []any
	useColor  bool
}

// NewTextSink creates a sink writing records up to verbosity to w
// (os.Stderr when w is nil).
func NewTextSink(w io.Writer, verbosity int, useColor bool) *TextSink {
	if w == nil {
		w = os.Stderr
	}
	return &TextSink{
		mu:        &sync.Mutex{},
		w:         w,
		verbosity: verbosity,
		useColor:  useColor,
	}
}

// NewTextLogger returns a Logger backed by a TextSink.
func NewTextLogger(w io.Writer, verbosity int, useColor bool) *Logger {
	return New(logr.New(NewTextSink(w, verbosity, useColor)))
}

func (s *TextSink) Init(logr.RuntimeInfo) {}

func (s *TextSink) Enabled(level int) bool {
	return level <= s.verbosity
}

func (s *TextSink) Info(level int, msg string, keysAndValues ...any) {
	s.write(s.label(level), msg, keysAndValues)
}

func (s *TextSink) Error(err error, msg string, keysAndValues ...any) {
	label := "[ERROR]"
	if s.useColor {
		label = errorLabel(label)
	}
	s.write(label, msg, append(keysAndValues, "error", err))
}

func (s *TextSink) WithValues(keysAndValues ...any) logr.LogSink {
	c := s.clone()
	c.values = append(c.values, keysAndValues...)
	return c
}

func (s *TextSink) WithName(name string) logr.LogSink {
	c := s.clone()
	if c.name == "" {
		c.name = name
	} else {
		c.name = c.name + "." + name
	}
	return c
}

func (s *TextSink) clone() *TextSink {
	c := *s
	c.values = append([]any(nil), s.values...)
	return &c
}

func (s *TextSink) label(level int) string {
	var label string
	var paint func(...any) string
	switch level {
	case LevelInfo:
		label, paint = "[INFO]", infoLabel
	case LevelDebug:
		label, paint = "[DEBUG]", debugLabel
	case LevelTrace:
		label, paint = "[TRACE]", traceLabel
	default:
		return fmt.Sprintf("[V%d]", level)
	}
	if s.useColor {
		return paint(label)
	}
	return label
}

func (s *TextSink) write(label, msg string, keysAndValues []any) {
	var b strings.Builder
	b.WriteString(label)
	b.WriteByte(' ')
	if s.name != "" {
		b.WriteString(s.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	writePairs(&b, s.values)
	writePairs(&b, keysAndValues)
	b.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, b.String())
}

func writePairs(b *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("key%d", i/2)
		}
		var val any = "<missing>"
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		fmt.Fprintf(b, " %s=%v", key, val)
	}
}
