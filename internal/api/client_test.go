package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nissyi-gh/teamflow/internal/model"
)

type staticTokens struct {
	token    string
	acquired int
	released int
}

func (s *staticTokens) Acquire() (string, func()) {
	s.acquired++
	return s.token, func() { s.released++ }
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL + "/api", Tokens: tokens})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := New(Config{BaseURL: raw}); err == nil {
			t.Errorf("New(%q) succeeded", raw)
		}
	}
}

func TestListTasksSendsBearerAndFilter(t *testing.T) {
	tokens := &staticTokens{token: "1|secret"}
	var gotAuth, gotPath, gotQuery, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotRequestID = r.Header.Get("X-Request-ID")
		io.WriteString(w, `{"data":[
			{"id":1,"title":"Write report","due_date":"2026-10-17","priority":"high","is_completed":0,"creator_id":7,"assignee":{"id":8,"email":"kai@example.com"}},
			{"id":2,"title":"Review","is_completed":true,"creator_id":8,"assignee_id":7}
		]}`)
	}, tokens)

	tasks, err := client.ListTasks(context.Background(), model.Filter{Status: model.StatusDueToday, Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if gotAuth != "Bearer 1|secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/api/tasks" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "priority=high&status=Due+Today" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotRequestID == "" {
		t.Error("missing X-Request-ID")
	}
	if len(tasks) != 2 || tasks[0].Title != "Write report" || tasks[0].Assignee.Email != "kai@example.com" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if !tasks[1].IsCompleted || tasks[1].AssigneeRef() != 7 {
		t.Errorf("second task = %+v", tasks[1])
	}
	if tokens.acquired != 1 || tokens.released != 1 {
		t.Errorf("lease acquired %d released %d", tokens.acquired, tokens.released)
	}
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
		io.WriteString(w, `[]`)
	}, &staticTokens{})
	tasks, err := client.ListTasks(context.Background(), model.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("tasks = %#v", tasks)
	}
}

func TestMutationRoutes(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, strings.TrimSpace(string(body))})
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/tasks":
			io.WriteString(w, `{"data":{"id":5,"title":"New"}}`)
		case r.Method == http.MethodPut:
			io.WriteString(w, `{"id":5,"title":"Edited"}`)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}, nil)
	ctx := context.Background()

	created, err := client.CreateTask(ctx, model.TaskInput{Title: "New", Priority: model.PriorityLow, AssigneeEmail: "kai@example.com"})
	if err != nil || created.ID != 5 {
		t.Fatalf("CreateTask = %+v, %v", created, err)
	}
	updated, err := client.UpdateTask(ctx, 5, model.TaskInput{Title: "Edited"})
	if err != nil || updated.Title != "Edited" {
		t.Fatalf("UpdateTask = %+v, %v", updated, err)
	}
	if err := client.ToggleTask(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := client.ReassignTask(ctx, 5, "lee@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := client.DeleteTask(ctx, 5); err != nil {
		t.Fatal(err)
	}

	want := []call{
		{http.MethodPost, "/api/tasks", `{"title":"New","description":"","due_date":"","priority":"low","assignee_email":"kai@example.com"}`},
		{http.MethodPut, "/api/tasks/5", `{"title":"Edited","description":"","due_date":"","priority":"","assignee_email":""}`},
		{http.MethodPost, "/api/tasks/5/toggle", ""},
		{http.MethodPost, "/api/tasks/5/reassign", `{"email":"lee@example.com"}`},
		{http.MethodDelete, "/api/tasks/5", ""},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestErrorDecodingKeepsFieldOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"message":"The given data was invalid.","errors":{
			"password":["The password confirmation does not match.","The password must be 8 characters."],
			"email":["The email has already been taken."]
		}}`)
	}, nil)

	_, err := client.Signup(context.Background(), "Mona", "mona@example.com", "pw", "pw2")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not *Error", err)
	}
	if !apiErr.Validation() || apiErr.Unauthorized() {
		t.Errorf("classification wrong for %d", apiErr.StatusCode)
	}
	first, ok := apiErr.FirstField()
	if !ok || first.Field != "password" || first.Message != "The password confirmation does not match." {
		t.Errorf("FirstField = %+v, %v", first, ok)
	}
	if len(apiErr.Fields) != 3 || apiErr.Fields[2].Field != "email" {
		t.Errorf("Fields = %+v", apiErr.Fields)
	}
	if got := apiErr.UserMessage("x"); got != "The password confirmation does not match." {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestErrorDecodingFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message only", http.StatusForbidden, `{"message":"This action is unauthorized."}`, "This action is unauthorized."},
		{"nested errors", http.StatusUnprocessableEntity, `{"data":{"errors":{"email":"No such user."}}}`, "No such user."},
		{"plain text", http.StatusInternalServerError, `upstream exploded`, "upstream exploded"},
		{"empty", http.StatusBadGateway, ``, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}, nil)
			err := client.ToggleTask(context.Background(), 1)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not *Error", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d", apiErr.StatusCode)
			}
			if got := apiErr.UserMessage("fallback"); got != tt.message {
				t.Errorf("UserMessage = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(Config{BaseURL: url})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Login(context.Background(), "a@example.com", "pw")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error %v is not *TransportError", err)
	}
	if transportErr.Op != "login" {
		t.Errorf("Op = %q", transportErr.Op)
	}
}

func TestLoginRequiresTokenAndUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email != "a@example.com" {
			t.Errorf("login body = %+v, %v", req, err)
		}
		io.WriteString(w, `{"token":"abc"}`)
	}, nil)
	if _, err := client.Login(context.Background(), "a@example.com", "pw"); err == nil {
		t.Error("Login accepted a response without a user")
	}
}
