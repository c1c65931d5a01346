// Package tasks holds the client's view of the task list: it fetches
// with the current filter, gates mutations, and re-fetches after every
// change instead of patching the list locally.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nissyi-gh/teamflow/internal/model"
)

// Store is the remote task store.
type Store interface {
	ListTasks(ctx context.Context, filter model.Filter) ([]model.Task, error)
	GetTask(ctx context.Context, id int) (model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id int, in model.TaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, id int) error
	ToggleTask(ctx context.Context, id int) error
	ReassignTask(ctx context.Context, id int, email string) error
}

// Identity reports who is signed in; 0 means nobody.
type Identity interface {
	UserID() int
}

// Confirmer asks the user to confirm deleting task.
type Confirmer func(task model.Task) bool

// Controller owns the task list shown to the user. It is safe for
// concurrent use: loads and mutations may run on background goroutines.
type Controller struct {
	store    Store
	identity Identity
	logger   *slog.Logger

	mu       sync.Mutex
	filter   model.Filter
	tasks    []model.Task
	issued   uint64
	applied  uint64
	inflight int
	busy     bool
	closed   bool
	err      error
}

// New creates a Controller with an empty list and no filter.
func New(store Store, identity Identity, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{store: store, identity: identity, logger: logger}
}

// Load fetches tasks matching filter and makes filter current. The
// result replaces the list only if no newer fetch has completed first;
// otherwise ErrStale is returned and the list is left alone. On failure
// the previous list is kept and a *LoadError is returned.
func (c *Controller) Load(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	return c.fetch(ctx, func(model.Filter) model.Filter { return filter })
}

// Refresh re-fetches with the current filter.
func (c *Controller) Refresh(ctx context.Context) ([]model.Task, error) {
	return c.fetch(ctx, func(current model.Filter) model.Filter { return current })
}

// fetch picks the filter and takes a sequence number under one lock, so
// a filter change cannot land between the two.
func (c *Controller) fetch(ctx context.Context, pick func(current model.Filter) model.Filter) ([]model.Task, error) {
	c.mu.Lock()
	filter := pick(c.filter)
	c.filter = filter
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	tasks, err := c.store.ListTasks(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.closed || seq <= c.applied {
		c.logger.Debug("dropping stale task list", "seq", seq, "applied", c.applied)
		return c.snapshot(), ErrStale
	}
	c.applied = seq
	if err != nil {
		loadErr := classifyLoad(err)
		c.err = loadErr
		c.logger.Warn("task list fetch failed", "error", err)
		return c.snapshot(), loadErr
	}
	c.tasks = tasks
	c.err = nil
	return c.snapshot(), nil
}

// ResetFilter clears the filter and re-fetches.
func (c *Controller) ResetFilter(ctx context.Context) ([]model.Task, error) {
	return c.Load(ctx, model.Filter{})
}

// Close abandons the list; responses arriving later are not applied.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Reset empties the list and filter, e.g. on sign-out. Fetches still in
// flight are treated as stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = model.Filter{}
	c.tasks = nil
	c.err = nil
	c.applied = c.issued
}

// Tasks returns a copy of the current list.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() []model.Task {
	return append([]model.Task(nil), c.tasks...)
}

// Filter returns the current filter.
func (c *Controller) Filter() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Loading reports whether any fetch is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Busy reports whether a mutation is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Err returns the last load or mutation error, cleared by the next
// successful load.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Permissions returns what the signed-in user may do with task.
func (c *Controller) Permissions(task model.Task) model.Permissions {
	return model.PermissionsFor(c.identity.UserID(), task)
}

// Get fetches a single task, e.g. to fill the edit form.
func (c *Controller) Get(ctx context.Context, id int) (model.Task, error) {
	task, err := c.store.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, classifyLoad(err)
	}
	return task, nil
}

// Toggle flips completion. Only the assignee may.
func (c *Controller) Toggle(ctx context.Context, task model.Task) error {
	return c.mutate(ctx, "toggle", c.Permissions(task).CanToggle, func(ctx context.Context) error {
		return c.store.ToggleTask(ctx, task.ID)
	})
}

// Delete removes task after confirm approves. A nil confirm counts as
// declined. The user is not asked while another mutation is in flight.
// Deletes are never retried.
func (c *Controller) Delete(ctx context.Context, task model.Task, confirm Confirmer) error {
	if !c.Permissions(task).CanDelete {
		return notPermitted("delete")
	}
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()
	if confirm == nil || !confirm(task) {
		return ErrNotConfirmed
	}
	return c.run(ctx, "delete", func(ctx context.Context) error {
		return c.store.DeleteTask(ctx, task.ID)
	})
}

// Reassign hands task to the user with email. Only the creator may.
func (c *Controller) Reassign(ctx context.Context, task model.Task, email string) error {
	return c.mutate(ctx, "reassign", c.Permissions(task).CanReassign, func(ctx context.Context) error {
		return c.store.ReassignTask(ctx, task.ID, email)
	})
}

// Update replaces the editable fields of task. Only the assignee may.
func (c *Controller) Update(ctx context.Context, task model.Task, in model.TaskInput) (model.Task, error) {
	var updated model.Task
	err := c.mutate(ctx, "update", c.Permissions(task).CanEdit, func(ctx context.Context) error {
		var err error
		updated, err = c.store.UpdateTask(ctx, task.ID, in)
		return err
	})
	return updated, err
}

// Create files a new task.
func (c *Controller) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var created model.Task
	err := c.mutate(ctx, "create", c.identity.UserID() != 0, func(ctx context.Context) error {
		var err error
		created, err = c.store.CreateTask(ctx, in)
		return err
	})
	return created, err
}

// mutate runs one remote change followed by a refresh of the list.
// The local permission check is advisory and short-circuits before any
// network call; the store has the final word.
func (c *Controller) mutate(ctx context.Context, op string, allowed bool, call func(context.Context) error) error {
	if !allowed {
		return notPermitted(op)
	}
	if !c.begin() {
		return ErrBusy
	}
	defer c.end()
	return c.run(ctx, op, call)
}

// run issues call and then refreshes. The result is the remote call's
// alone: a change the store accepted is never reported as failed because
// the refresh after it failed. That failure is left in Err for the list.
func (c *Controller) run(ctx context.Context, op string, call func(context.Context) error) error {
	err := call(ctx)
	if _, refreshErr := c.Refresh(ctx); refreshErr != nil && !errors.Is(refreshErr, ErrStale) {
		c.logger.Warn("refresh after mutation failed", "op", op, "error", refreshErr)
	}

	if err != nil {
		mutErr := classifyMutation(op, err)
		c.mu.Lock()
		c.err = mutErr
		c.mu.Unlock()
		c.logger.Warn("task mutation failed", "op", op, "error", err)
		return mutErr
	}
	return nil
}

func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func notPermitted(op string) *MutationError {
	return &MutationError{Op: op, Kind: Unauthorized, Message: "You are not allowed to " + op + " this task."}
}
