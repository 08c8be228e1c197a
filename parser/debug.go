package parser

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

var (
	debug_once    sync.Once
	debug_enabled bool

	// Debug output goes here when USN_DEBUG is set in the
	// environment.
	DebugWriter io.Writer = os.Stderr
)

// SetDebug overrides the USN_DEBUG environment variable.
func SetDebug(enabled bool) {
	debug_once.Do(func() {})
	debug_enabled = enabled
}

func IsDebug() bool {
	debug_once.Do(func() {
		_, debug_enabled = os.LookupEnv("USN_DEBUG")
	})
	return debug_enabled
}

// Debug dumps any value to stdout.
func Debug(arg interface{}) {
	spew.Dump(arg)
}

type Debugger interface {
	DebugString() string
}

// DebugString renders arg with its own DebugString() if it has one,
// otherwise with spew. Every line is prefixed with indent.
func DebugString(arg interface{}, indent string) string {
	var text string
	debugger, ok := arg.(Debugger)
	if ok {
		text = debugger.DebugString()
	} else {
		text = spew.Sdump(arg)
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for idx, line := range lines {
		lines[idx] = indent + line
	}
	return strings.Join(lines, "\n")
}

func DebugPrint(fmt_str string, v ...interface{}) {
	if IsDebug() {
		fmt.Fprintf(DebugWriter, fmt_str, v...)
	}
}
