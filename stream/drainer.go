// Package stream reads child-process output streams to completion in the background.
//
// A process that writes to both stdout and stderr can block forever if its parent reads
// one pipe to EOF before touching the other, since the unread pipe's buffer fills up. A
// Drainer consumes one stream on its own goroutine; callers start one per stream before
// waiting on the process.
package stream

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// DrainError is returned by Join when the underlying stream failed before reaching EOF.
type DrainError struct {
	Name string
	Err  error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("error reading %s: %s", e.Name, e.Err)
}

func (e *DrainError) Unwrap() error {
	return e.Err
}

// Drainer accumulates everything read from a stream until EOF.
type Drainer struct {
	name    string
	r       io.Reader
	buf     bytes.Buffer
	err     error
	done    chan struct{}
	started sync.Once
}

// NewDrainer creates a Drainer for r. The name is only used in error messages.
func NewDrainer(name string, r io.Reader) *Drainer {
	return &Drainer{
		name: name,
		r:    r,
		done: make(chan struct{}),
	}
}

// Start begins draining on a new goroutine and returns immediately. Calling it more than
// once has no further effect.
func (d *Drainer) Start() {
	d.started.Do(func() {
		go d.drain()
	})
}

func (d *Drainer) drain() {
	defer close(d.done)
	if _, err := io.Copy(&d.buf, d.r); err != nil {
		d.err = &DrainError{Name: d.name, Err: err}
	}
}

// Join blocks until the stream has been fully consumed and returns its contents as UTF-8
// text. Invalid byte sequences are replaced with U+FFFD. If Start was never called, Join
// starts the drain itself.
func (d *Drainer) Join() (string, error) {
	d.Start()
	<-d.done
	return strings.ToValidUTF8(d.buf.String(), "�"), d.err
}

// Len returns the number of raw bytes read, or -1 if the drain has not finished.
func (d *Drainer) Len() int {
	select {
	case <-d.done:
		return d.buf.Len()
	default:
		return -1
	}
}

// Done returns a channel that is closed once the stream reaches EOF or fails.
func (d *Drainer) Done() <-chan struct{} {
	return d.done
}
