package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// ConsoleLogger writes log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer // nil means os.Stderr at write time
	mu      sync.Mutex

	verbosePrefix string
	errorPrefix   string
}

// Option configures a ConsoleLogger.
type Option func(*ConsoleLogger)

// WithWriter sends log output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(l *ConsoleLogger) { l.out = w }
}

// WithColor forces coloured level prefixes on or off. Without this option
// colour follows fatih/color's terminal and NO_COLOR detection.
func WithColor(enabled bool) Option {
	return func(l *ConsoleLogger) { l.setPrefixes(enabled) }
}

// NewConsoleLogger creates a new ConsoleLogger.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool, opts ...Option) *ConsoleLogger {
	l := &ConsoleLogger{verbose: verbose}
	l.setPrefixes(!color.NoColor)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ConsoleLogger) setPrefixes(colored bool) {
	verbose := color.New(color.FgHiBlack)
	errc := color.New(color.FgRed, color.Bold)
	if colored {
		verbose.EnableColor()
		errc.EnableColor()
	} else {
		verbose.DisableColor()
		errc.DisableColor()
	}
	l.verbosePrefix = verbose.Sprint("[VERBOSE]") + " "
	l.errorPrefix = errc.Sprint("[ERROR]") + " "
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if out == nil {
		out = os.Stderr
	}
	if len(args) > 0 {
		fmt.Fprintf(out, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(out, prefix+format+"\n")
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(l.verbosePrefix, format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(l.errorPrefix, format, args)
}

// IsVerbose reports whether Verbose output is enabled.
func (l *ConsoleLogger) IsVerbose() bool { return l.verbose }
