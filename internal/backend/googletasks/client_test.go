package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tasklist/internal/service"
)

// fakeAPI serves the subset of the Google Tasks REST API the client uses.
type fakeAPI struct {
	mu       sync.Mutex
	lists    []map[string]string
	inserted []map[string]interface{}
	status   int // forced status for every request when non-zero
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": f.status, "message": http.StatusText(f.status)},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/users/@me/lists/@default"):
		json.NewEncoder(w).Encode(f.lists[0])
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/users/@me/lists"):
		json.NewEncoder(w).Encode(map[string]interface{}{"items": f.lists})
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/users/@me/lists"):
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		created := map[string]string{"id": "new-list", "title": body["title"]}
		f.lists = append(f.lists, created)
		json.NewEncoder(w).Encode(created)
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/tasks/v1/lists/") && strings.HasSuffix(path, "/tasks"):
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		body["list"] = strings.TrimSuffix(strings.TrimPrefix(path, "/tasks/v1/lists/"), "/tasks")
		f.inserted = append(f.inserted, body)
		json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	c, err := NewWithHTTPClient(context.Background(), server.Client(), server.URL+"/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func defaultAPI() *fakeAPI {
	return &fakeAPI{lists: []map[string]string{
		{"id": "real-default", "title": "My Tasks"},
		{"id": "groceries", "title": "Groceries"},
		{"id": "dup1", "title": "Work"},
		{"id": "dup2", "title": " work "},
	}}
}

func TestListLists_NormalizesDefault(t *testing.T) {
	c := newTestClient(t, defaultAPI())

	lists, err := c.ListLists(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 4 {
		t.Fatalf("expected 4 lists, got %d", len(lists))
	}
	if lists[0].ID != DefaultListID || !lists[0].IsDefault {
		t.Errorf("expected default list normalized, got %+v", lists[0])
	}
	if lists[1].IsDefault {
		t.Errorf("expected Groceries not default, got %+v", lists[1])
	}
}

func TestResolveList(t *testing.T) {
	c := newTestClient(t, defaultAPI())
	ctx := context.Background()

	list, err := c.ResolveList(ctx, "  GROCERIES ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.ID != "groceries" {
		t.Errorf("expected groceries, got %+v", list)
	}

	if _, err := c.ResolveList(ctx, "Holidays"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.ResolveList(ctx, "work"); !errors.Is(err, service.ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestCreateListAndTask(t *testing.T) {
	api := defaultAPI()
	c := newTestClient(t, api)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Exported")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if list.ID != "new-list" || list.Title != "Exported" {
		t.Errorf("unexpected list %+v", list)
	}

	if err := c.CreateTask(ctx, list.ID, service.Task{Title: "Buy milk", Completed: true}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := c.CreateTask(ctx, list.ID, service.Task{Title: "Walk dog"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if len(api.inserted) != 2 {
		t.Fatalf("expected 2 inserted tasks, got %d", len(api.inserted))
	}
	first := api.inserted[0]
	if first["title"] != "Buy milk" || first["status"] != "completed" || first["list"] != "new-list" {
		t.Errorf("unexpected first task %+v", first)
	}
	if api.inserted[1]["status"] != "needsAction" {
		t.Errorf("expected needsAction, got %+v", api.inserted[1])
	}
}

func TestWrapError_Auth(t *testing.T) {
	api := defaultAPI()
	api.status = http.StatusUnauthorized
	c := newTestClient(t, api)

	_, err := c.DefaultList(context.Background())
	if !errors.Is(err, ErrAuth) || !strings.Contains(err.Error(), "token expired") {
		t.Errorf("expected token error, got %v", err)
	}
}

func TestWrapError_ServerError(t *testing.T) {
	api := defaultAPI()
	api.status = http.StatusInternalServerError
	c := newTestClient(t, api)

	_, err := c.CreateList(context.Background(), "x")
	if err == nil || !strings.HasPrefix(err.Error(), "google tasks: 500") {
		t.Errorf("expected wrapped server error, got %v", err)
	}
}

func TestWrapError_NotFound(t *testing.T) {
	api := defaultAPI()
	api.status = http.StatusNotFound
	c := newTestClient(t, api)

	err := c.CreateTask(context.Background(), "gone", service.Task{Title: "x"})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMatchList(t *testing.T) {
	lists := []service.TaskList{{ID: "a", Title: "Home"}, {ID: "b", Title: "Office"}}
	got, err := MatchList(lists, "office")
	if err != nil || got.ID != "b" {
		t.Errorf("expected Office, got %+v (%v)", got, err)
	}
}
