package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps every message so it can be shown if the test fails. It is safe
// for concurrent use.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Dump writes each message, prefixing every line. Multi-line messages, such as captured
// program output, keep their line structure.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		stamp := m.Time.Format(timestampFormat)
		for i, line := range strings.Split(strings.TrimSuffix(m.Message, "\n"), "\n") {
			if i == 0 {
				fmt.Fprintf(dest, "%s[%s] %s\n", prefix, stamp, line)
			} else {
				fmt.Fprintf(dest, "%s%*s %s\n", prefix, len(stamp)+2, "", line)
			}
		}
	}
}
