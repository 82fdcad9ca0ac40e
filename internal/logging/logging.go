package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Logger is the leveled logging capability injected into the scan
// components. *logrus.Logger and *logrus.Entry satisfy it.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Options controls where log lines go and how much is written.
type Options struct {
	Verbose int    // 0 = info, 1 = debug, 2+ = trace
	Silent  bool   // drop console output
	LogFile string // optional file that receives every line
	NoColor bool
	Console io.Writer // defaults to stdout
}

// New builds the process logger. The returned function closes the log file.
func New(opts Options) (*logrus.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var sinks []io.Writer
	if !opts.Silent {
		sinks = append(sinks, console)
	}

	closer := func() error { return nil }
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", opts.LogFile, err)
		}
		sinks = append(sinks, f)
		closer = f.Close
	}

	log := logrus.New()
	switch len(sinks) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(sinks[0])
	default:
		log.SetOutput(io.MultiWriter(sinks...))
	}
	log.SetLevel(LevelFor(opts.Verbose))
	// Color only when the console is the sole sink, so the file stays clean.
	log.SetFormatter(&LineFormatter{Color: !opts.NoColor && !opts.Silent && opts.LogFile == "" && isTerminal(console)})
	return log, closer, nil
}

// LevelFor maps a -v count to a logrus level.
func LevelFor(verbose int) logrus.Level {
	switch {
	case verbose >= 2:
		return logrus.TraceLevel
	case verbose == 1:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// LineFormatter renders "[15:04:05][INFO] message" lines.
type LineFormatter struct {
	Color bool
}

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	level := strings.ToUpper(e.Level.String())
	if level == "WARNING" {
		level = "WARN"
	}
	if f.Color {
		fmt.Fprintf(&b, "[%s][%s%s%s] ", e.Time.Format("15:04:05"), levelColor(e.Level), level, colorReset)
	} else {
		fmt.Fprintf(&b, "[%s][%s] ", e.Time.Format("15:04:05"), level)
	}
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelColor(l logrus.Level) string {
	switch l {
	case logrus.TraceLevel:
		return colorGray
	case logrus.DebugLevel:
		return colorCyan
	case logrus.InfoLevel:
		return colorGreen
	case logrus.WarnLevel:
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
