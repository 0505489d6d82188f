package batch

import "sync"

// Status is the lifecycle state of a download task. Transitions only move
// forward: Pending -> Running -> one of the terminal states.
type Status string

const (
	// StatusPending means the task has not been admitted yet.
	StatusPending Status = "pending"

	// StatusRunning means the task's child process is active.
	StatusRunning Status = "running"

	// StatusSucceeded means the child exited with code 0.
	StatusSucceeded Status = "succeeded"

	// StatusFailed means the child exited non-zero.
	StatusFailed Status = "failed"

	// StatusCancelled means the task was stopped by an interrupt.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Terminal returns true once the task can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Request is one download to perform. The filename is filled in by the
// resolver before launch and immutable afterwards.
type Request struct {
	URL      string
	Dir      string
	Filename string
}

// Task wraps a Request with runtime state owned by the orchestrator.
type Task struct {
	Request Request

	mu     sync.Mutex
	status Status
	err    error
}

func newTask(url, dir string) *Task {
	return &Task{
		Request: Request{URL: url, Dir: dir},
		status:  StatusPending,
	}
}

// Status returns the task's current state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Task) state() (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.err
}

func (t *Task) run() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPending {
		t.status = StatusRunning
	}
}

// settle moves the task into a terminal state. Settling twice is a no-op so
// transitions never move backward.
func (t *Task) settle(s Status, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = s
	t.err = err
}

// Outcome is the per-URL result reported after a batch settles.
type Outcome struct {
	URL    string
	Status Status
	Err    error
}
