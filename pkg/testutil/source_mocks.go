package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/Veraticus/highlite/pkg/source"
)

// Step is one scripted result of MockSource.Next.
type Step struct {
	Line string
	Err  error
}

// MockSource is a scripted implementation of source.Source for testing.
// After the script runs out it returns io.EOF, or blocks until the context
// ends when configured to follow.
type MockSource struct {
	mu        sync.Mutex
	kind      source.Kind
	steps     []Step
	pos       int
	follow    bool
	live      bool
	closed    bool
	nextCalls int
	closeErr  error
}

// NewMockSource creates a source that yields lines and then io.EOF
func NewMockSource(lines ...string) *MockSource {
	m := &MockSource{kind: source.KindStdin}
	for _, l := range lines {
		m.steps = append(m.steps, Step{Line: l})
	}
	return m
}

// AddStep appends a scripted result
func (m *MockSource) AddStep(line string, err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, Step{Line: line, Err: err})
	return m
}

// SetKind sets the kind reported by Kind
func (m *MockSource) SetKind(kind source.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = kind
}

// SetFollow makes Next block until the context ends once the script is used up
func (m *MockSource) SetFollow(follow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follow = follow
}

// SetLive makes Pending always report false, as for an interactive stream
func (m *MockSource) SetLive(live bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = live
}

// SetCloseError sets the error returned by Close
func (m *MockSource) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
}

// Next implements the Source interface
func (m *MockSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.nextCalls++
	if m.pos < len(m.steps) {
		step := m.steps[m.pos]
		m.pos++
		m.mu.Unlock()
		return step.Line, step.Err
	}
	follow := m.follow
	m.mu.Unlock()

	if follow {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "", io.EOF
}

// Pending implements the Source interface
func (m *MockSource) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.live && m.pos < len(m.steps)
}

// Kind implements the Source interface
func (m *MockSource) Kind() source.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind
}

// Close implements the Source interface
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

// GetNextCallCount returns how many times Next was called
func (m *MockSource) GetNextCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextCalls
}

// IsClosed returns whether Close was called
func (m *MockSource) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// RecordingWriter is a thread-safe writer that keeps every Write call
type RecordingWriter struct {
	mu     sync.Mutex
	writes [][]byte
	buf    bytes.Buffer
	err    error
}

// NewRecordingWriter creates a new recording writer
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{}
}

// Write implements io.Writer
func (w *RecordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return 0, w.err
	}
	w.writes = append(w.writes, append([]byte(nil), p...))
	return w.buf.Write(p)
}

// SetError makes every following Write fail with err
func (w *RecordingWriter) SetError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// String returns everything written so far
func (w *RecordingWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// GetWriteCount returns how many times Write succeeded
func (w *RecordingWriter) GetWriteCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}
