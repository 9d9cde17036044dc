package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/tasklist-GO/internal/localstore"
)

func newTestServer(t *testing.T) (*chi.Mux, *Store) {
	t.Helper()
	store := NewStore(localstore.NewMemory())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPostTasks_Success(t *testing.T) {
	r, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", `{"text":"  learn chi ","priority":"Urgent"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var got Task
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if got.ID == 0 {
		t.Errorf("expected non-zero ID")
	}
	if got.Text != "learn chi" {
		t.Errorf("expected Text=learn chi, got %q", got.Text)
	}
	if got.Priority != PriorityUrgent {
		t.Errorf("expected Urgent, got %q", got.Priority)
	}
	if got.Completed {
		t.Errorf("new tasks should default to Completed=false")
	}
}

func TestPostTasks_DefaultsToMedium(t *testing.T) {
	r, _ := newTestServer(t)
	rec := do(r, http.MethodPost, "/tasks", `{"text":"x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got Task
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Priority != PriorityMedium {
		t.Fatalf("expected Medium, got %q", got.Priority)
	}
}

func TestPostTasks_TextRequired(t *testing.T) {
	r, store := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", `{"text":"   ","priority":"Low"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var errResp errResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to parse error JSON: %v", err)
	}
	if errResp.Error != "validation_error" || len(errResp.Details) != 1 || errResp.Details[0].Field != "text" {
		t.Errorf("unexpected error body %+v", errResp)
	}
	if len(store.Tasks()) != 0 {
		t.Fatalf("rejected add changed the collection")
	}
}

func TestPostTasks_BadPriority(t *testing.T) {
	r, _ := newTestServer(t)
	rec := do(r, http.MethodPost, "/tasks", `{"text":"x","priority":"Basse"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPostTasks_InvalidJSON(t *testing.T) {
	r, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/tasks", `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var errResp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to parse error JSON: %v", err)
	}
	if errResp["error"] != "invalid_json" {
		t.Errorf("expected error 'invalid_json', got %q", errResp["error"])
	}
}

func TestGetTasks_FilterAndCounts(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "u", PriorityUrgent); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Add(ctx, "l", PriorityLow); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := do(r, http.MethodGet, "/tasks?filter=Urgent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Text != "u" {
		t.Fatalf("unexpected tasks %+v", resp.Tasks)
	}
	if resp.Counts.Total != 2 || resp.Counts.Urgent != 1 || resp.Counts.Low != 1 {
		t.Fatalf("unexpected counts %+v", resp.Counts)
	}
	if resp.Filter != FilterUrgent {
		t.Fatalf("expected filter Urgent, got %q", resp.Filter)
	}
	if store.Filter() != FilterAll {
		t.Fatalf("query filter must not change the active filter")
	}

	if rec := do(r, http.MethodGet, "/tasks?filter=Tous", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown filter, got %d", rec.Code)
	}
}

func TestPatchTask(t *testing.T) {
	r, store := newTestServer(t)
	task, _ := store.Add(context.Background(), "old", PriorityLow)
	path := "/tasks/" + strconv.FormatInt(task.ID, 10)

	if rec := do(r, http.MethodPatch, path, `{"text":"  "}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank text, got %d", rec.Code)
	}
	if store.Tasks()[0].Text != "old" {
		t.Fatalf("blank edit changed text")
	}

	rec := do(r, http.MethodPatch, path, `{"text":" new "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var got Task
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Text != "new" {
		t.Fatalf("expected new, got %q", got.Text)
	}

	if rec := do(r, http.MethodPatch, "/tasks/12345", `{"text":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(r, http.MethodPatch, "/tasks/abc", `{"text":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	r, store := newTestServer(t)
	task, _ := store.Add(context.Background(), "bye", PriorityLow)

	if rec := do(r, http.MethodDelete, "/tasks/"+strconv.FormatInt(task.ID, 10), ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.Tasks()) != 0 {
		t.Fatalf("task not deleted")
	}
	if rec := do(r, http.MethodDelete, "/tasks/99", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("missing id should still be 204, got %d", rec.Code)
	}
}

func TestSelectAndFinish(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()
	a, _ := store.Add(ctx, "a", PriorityLow)
	b, _ := store.Add(ctx, "b", PriorityLow)

	rec := do(r, http.MethodPost, "/tasks/"+strconv.FormatInt(a.ID, 10)+"/select", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sel map[string]bool
	_ = json.Unmarshal(rec.Body.Bytes(), &sel)
	if !sel["selected"] {
		t.Fatalf("expected selected=true")
	}

	rec = do(r, http.MethodPost, "/tasks/finish", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var fin map[string]int
	_ = json.Unmarshal(rec.Body.Bytes(), &fin)
	if fin["completed"] != 1 {
		t.Fatalf("expected 1 completed, got %v", fin)
	}
	for _, task := range store.Tasks() {
		if task.ID == b.ID && task.Completed {
			t.Fatalf("unselected task completed")
		}
	}

	// completed tasks cannot be selected
	rec = do(r, http.MethodPost, "/tasks/"+strconv.FormatInt(a.ID, 10)+"/select", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = do(r, http.MethodPost, "/tasks/finish", `{"ids":[`+strconv.FormatInt(b.ID, 10)+`]}`)
	_ = json.Unmarshal(rec.Body.Bytes(), &fin)
	if fin["completed"] != 1 {
		t.Fatalf("expected explicit finish to complete 1, got %v", fin)
	}
}

func TestFinishByIDs_DropsSelection(t *testing.T) {
	r, store := newTestServer(t)
	a, _ := store.Add(context.Background(), "a", PriorityUrgent)
	if err := store.ToggleSelect(a.ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	rec := do(r, http.MethodPost, "/tasks/finish", `{"ids":[`+strconv.FormatInt(a.ID, 10)+`]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if sel := store.Selection(); len(sel) != 0 {
		t.Fatalf("completed task %d still in selection %v", a.ID, sel)
	}

	rec = do(r, http.MethodGet, "/tasks", "")
	var list listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Selection) != 0 {
		t.Fatalf("list reports selection %v after finish", list.Selection)
	}
}

func TestPutFilter(t *testing.T) {
	r, store := newTestServer(t)
	if rec := do(r, http.MethodPut, "/filter", `{"filter":"Completed"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.Filter() != FilterCompleted {
		t.Fatalf("filter not applied")
	}
	if rec := do(r, http.MethodPut, "/filter", `{"filter":"Terminés"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
