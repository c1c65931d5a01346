package reassign

import (
	"context"
	"errors"
	"testing"

	"github.com/nissyi-gh/teamflow/internal/model"
	"github.com/nissyi-gh/teamflow/internal/tasks"
)

var (
	taskA = model.Task{ID: 1, CreatorID: 1, Assignee: &model.Assignee{ID: 2, Email: "kai@example.com"}}
	taskB = model.Task{ID: 2, CreatorID: 1}

	creator = model.Permissions{CanReassign: true, CanDelete: true}
)

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) submit(ctx context.Context, task model.Task, email string) error {
	r.calls = append(r.calls, email)
	return r.err
}

func TestStartPrefillsAssigneeEmail(t *testing.T) {
	w := New((&recorder{}).submit)
	if err := w.Start(taskA, creator); err != nil {
		t.Fatal(err)
	}
	id, email, ok := w.Draft()
	if !ok || id != 1 || email != "kai@example.com" || w.State() != Editing {
		t.Errorf("draft = %d %q %v", id, email, ok)
	}
	if !w.Editing(1) || w.Editing(2) {
		t.Error("Editing reports wrong row")
	}
}

func TestStartRequiresCreator(t *testing.T) {
	w := New((&recorder{}).submit)
	assignee := model.Permissions{CanEdit: true, CanToggle: true, CanDelete: true}
	if err := w.Start(taskA, assignee); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("err = %v", err)
	}
	if w.State() != Idle {
		t.Error("workflow left idle state")
	}
}

func TestStartOnAnotherRowDiscardsDraft(t *testing.T) {
	w := New((&recorder{}).submit)
	w.Start(taskA, creator)
	w.SetEmail("typed@example.com")
	w.Start(taskB, creator)

	id, email, ok := w.Draft()
	if !ok || id != 2 || email != "" {
		t.Errorf("draft = %d %q %v, want task B with empty email", id, email, ok)
	}
	if w.Editing(1) {
		t.Error("task A still editing")
	}
}

func TestCancelReturnsToIdle(t *testing.T) {
	w := New((&recorder{}).submit)
	w.Start(taskA, creator)
	w.SetEmail("lee@example.com")
	w.Cancel()
	if _, _, ok := w.Draft(); ok || w.State() != Idle {
		t.Error("draft survived cancel")
	}
	w.SetEmail("ignored@example.com")
	if _, _, ok := w.Draft(); ok {
		t.Error("SetEmail reopened the editor")
	}
	w.Cancel()
	if w.State() != Idle {
		t.Error("cancel from idle changed state")
	}
}

func TestSaveEmptyEmailNeverSubmits(t *testing.T) {
	rec := &recorder{}
	w := New(rec.submit)
	w.Start(taskB, creator)
	for _, email := range []string{"", "   "} {
		w.SetEmail(email)
		err := w.Save(context.Background())
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Reason != EmptyEmail {
			t.Fatalf("Save(%q) err = %v", email, err)
		}
		if w.State() != Editing {
			t.Error("validation failure left the editor")
		}
		if w.Err() == nil || w.Err().Error() != "Please enter an email for reassignment." {
			t.Errorf("Err() = %v", w.Err())
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("submitted %v", rec.calls)
	}
}

func TestSaveSuccess(t *testing.T) {
	rec := &recorder{}
	w := New(rec.submit)
	w.Start(taskA, creator)
	w.SetEmail("  lee@example.com ")
	if err := w.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "lee@example.com" {
		t.Errorf("calls = %v", rec.calls)
	}
	if w.State() != Idle || w.Err() != nil {
		t.Errorf("state = %s err = %v", w.State(), w.Err())
	}
}

func TestSaveRemoteFailureStaysEditing(t *testing.T) {
	rec := &recorder{err: errors.New("The selected email is invalid.")}
	w := New(rec.submit)
	w.Start(taskA, creator)
	w.SetEmail("ghost@example.com")
	if err := w.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	id, email, ok := w.Draft()
	if !ok || id != 1 || email != "ghost@example.com" {
		t.Errorf("draft = %d %q %v", id, email, ok)
	}
	if w.Err() != rec.err {
		t.Errorf("Err() = %v", w.Err())
	}
}

func TestSaveWhileIdle(t *testing.T) {
	w := New((&recorder{}).submit)
	if err := w.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Errorf("err = %v", err)
	}
}

func TestFinishIgnoresReplacedDraft(t *testing.T) {
	w := New((&recorder{}).submit)
	w.Start(taskA, creator)
	req, err := w.Begin()
	if err != nil {
		t.Fatal(err)
	}
	w.Start(taskB, creator)
	w.Finish(req, nil)
	if !w.Editing(2) {
		t.Error("result for task A closed the editor on task B")
	}

	w.Cancel()
	w.Finish(Request{Task: taskB}, errors.New("late failure"))
	if w.State() != Idle || w.Err() != nil {
		t.Error("late result reopened a cancelled editor")
	}
}

// offlineListStore accepts reassignments but cannot serve the list.
type offlineListStore struct {
	reassigned []string
}

func (s *offlineListStore) ListTasks(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	return nil, errors.New("connection reset")
}

func (s *offlineListStore) GetTask(ctx context.Context, id int) (model.Task, error) {
	return model.Task{}, errors.New("unused")
}

func (s *offlineListStore) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	return model.Task{}, errors.New("unused")
}

func (s *offlineListStore) UpdateTask(ctx context.Context, id int, in model.TaskInput) (model.Task, error) {
	return model.Task{}, errors.New("unused")
}

func (s *offlineListStore) DeleteTask(ctx context.Context, id int) error { return errors.New("unused") }
func (s *offlineListStore) ToggleTask(ctx context.Context, id int) error { return errors.New("unused") }

func (s *offlineListStore) ReassignTask(ctx context.Context, id int, email string) error {
	s.reassigned = append(s.reassigned, email)
	return nil
}

type userID int

func (id userID) UserID() int { return int(id) }

func TestSaveSucceedsWhenListRefreshFails(t *testing.T) {
	store := &offlineListStore{}
	c := tasks.New(store, userID(1), nil)
	w := New(c.Reassign)

	if err := w.Start(taskA, c.Permissions(taskA)); err != nil {
		t.Fatal(err)
	}
	w.SetEmail("lee@example.com")
	if err := w.Save(context.Background()); err != nil {
		t.Fatalf("Save err = %v", err)
	}
	if w.State() != Idle {
		t.Errorf("state = %s, want idle", w.State())
	}
	if err := w.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Errorf("second Save err = %v, want ErrNotEditing", err)
	}
	if len(store.reassigned) != 1 {
		t.Errorf("reassign sent %d times: %v", len(store.reassigned), store.reassigned)
	}
}
