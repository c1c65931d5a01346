// Package reassign drives the inline "change assignee" editor. At most
// one task is being reassigned at a time.
package reassign

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nissyi-gh/teamflow/internal/model"
)

// State is the editor state.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Reason explains a local validation failure.
type Reason int

const (
	EmptyEmail Reason = iota + 1
)

// ValidationError is raised before anything is sent.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return "Please enter an email for reassignment."
}

var (
	// ErrNotPermitted is returned by Start for a user who did not create
	// the task.
	ErrNotPermitted = errors.New("only the task creator can reassign it")

	// ErrNotEditing is returned by Save when no reassignment is open.
	ErrNotEditing = errors.New("no reassignment in progress")
)

// Submitter sends a reassignment to the store and refreshes the list.
type Submitter func(ctx context.Context, task model.Task, email string) error

// Request is a validated reassignment ready to submit.
type Request struct {
	Task  model.Task
	Email string
}

// Workflow is the reassignment state machine. Safe for concurrent use.
type Workflow struct {
	submit Submitter

	mu    sync.Mutex
	state State
	task  model.Task
	email string
	err   error
}

// New returns an idle Workflow that submits through submit.
func New(submit Submitter) *Workflow {
	return &Workflow{submit: submit}
}

// Start opens the editor on task with the current assignee's email.
// Any other open draft is discarded.
func (w *Workflow) Start(task model.Task, perms model.Permissions) error {
	if !perms.CanReassign {
		return ErrNotPermitted
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Editing
	w.task = task
	w.email = task.AssigneeEmail()
	w.err = nil
	return nil
}

// SetEmail updates the draft. Ignored while idle.
func (w *Workflow) SetEmail(email string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Editing {
		w.email = email
	}
}

// Cancel closes the editor and drops the draft.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

func (w *Workflow) reset() {
	w.state = Idle
	w.task = model.Task{}
	w.email = ""
	w.err = nil
}

// Begin validates the draft and returns the request to submit. An empty
// email fails with *ValidationError and the editor stays open.
func (w *Workflow) Begin() (Request, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Editing {
		return Request{}, ErrNotEditing
	}
	email := strings.TrimSpace(w.email)
	if email == "" {
		w.err = &ValidationError{Reason: EmptyEmail}
		return Request{}, w.err
	}
	w.err = nil
	return Request{Task: w.task, Email: email}, nil
}

// Finish records the outcome of submitting req. Success closes the
// editor; failure keeps it open with the error. Results for a draft
// that was cancelled or replaced meanwhile are ignored.
func (w *Workflow) Finish(req Request, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Editing || w.task.ID != req.Task.ID {
		return
	}
	if err != nil {
		w.err = err
		return
	}
	w.reset()
}

// Save validates and submits the draft, blocking until the store answers.
func (w *Workflow) Save(ctx context.Context) error {
	req, err := w.Begin()
	if err != nil {
		return err
	}
	err = w.submit(ctx, req.Task, req.Email)
	w.Finish(req, err)
	return err
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns the task id and email being edited; ok is false while
// idle.
func (w *Workflow) Draft() (taskID int, email string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Editing {
		return 0, "", false
	}
	return w.task.ID, w.email, true
}

// Editing reports whether taskID is the row being reassigned.
func (w *Workflow) Editing(taskID int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == Editing && w.task.ID == taskID
}

// Err returns the last validation or submit error for the open draft.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
