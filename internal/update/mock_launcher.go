package update

import (
	"context"
	"io"
	"sync"
	"time"
)

// LaunchRecord captures a launch seen by MockLauncher.
type LaunchRecord struct {
	Argv       []string
	LaunchedAt time.Time
}

// MockLauncher implements Launcher for tests, recording launches without
// spawning processes.
type MockLauncher struct {
	mu       sync.Mutex
	records  []LaunchRecord
	err      error
	exitCode int
	output   string
	block    bool
	started  chan struct{}
	nextPID  int
	onLaunch func()
}

// NewMockLauncher constructs a launcher stub whose processes exit with code 0.
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{
		nextPID: 1000,
		started: make(chan struct{}, 16),
	}
}

// SetError forces subsequent Launch calls to fail with the provided error.
func (m *MockLauncher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetExit configures the exit code and output of subsequent processes.
func (m *MockLauncher) SetExit(code int, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitCode = code
	m.output = output
}

// SetBlocking makes subsequent processes run until the launch context ends.
func (m *MockLauncher) SetBlocking(block bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

// OnLaunch registers fn to run inside Launch, before the handle is returned.
func (m *MockLauncher) OnLaunch(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLaunch = fn
}

// Started is signalled once per successful launch.
func (m *MockLauncher) Started() <-chan struct{} {
	return m.started
}

// Launch records the command and returns a controllable handle.
func (m *MockLauncher) Launch(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error) {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	m.records = append(m.records, LaunchRecord{
		Argv:       append([]string(nil), argv...),
		LaunchedAt: time.Now().UTC(),
	})
	handle := &mockHandle{
		ctx:      ctx,
		pid:      m.nextPID,
		exitCode: m.exitCode,
		block:    m.block,
	}
	output := m.output
	onLaunch := m.onLaunch
	m.nextPID++
	m.mu.Unlock()

	if onLaunch != nil {
		onLaunch()
	}
	if output != "" && out != nil {
		_, _ = io.WriteString(out, output)
	}
	m.started <- struct{}{}
	return handle, nil
}

// Records returns a copy of launch records for assertions.
func (m *MockLauncher) Records() []LaunchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LaunchRecord, len(m.records))
	copy(out, m.records)
	return out
}

type mockHandle struct {
	ctx      context.Context
	pid      int
	exitCode int
	block    bool
}

func (h *mockHandle) Wait() (int, error) {
	if h.block {
		<-h.ctx.Done()
		return -1, nil
	}
	return h.exitCode, nil
}

func (h *mockHandle) PID() int {
	return h.pid
}
