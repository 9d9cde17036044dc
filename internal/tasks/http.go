package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

const maxTextLen = 200

type createTaskRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

type editTaskRequest struct {
	Text string `json:"text"`
}

type finishRequest struct {
	IDs []int64 `json:"ids"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

type listResponse struct {
	Tasks     []Task  `json:"tasks"`
	Counts    Counts  `json:"counts"`
	Selection []int64 `json:"selection"`
	Filter    Filter  `json:"filter"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

// RegisterRoutes mounts the JSON API on r.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/tasks", listTasks(store))
	r.Post("/tasks", createTask(store))
	r.Post("/tasks/finish", finishTasks(store))
	r.Patch("/tasks/{id}", editTask(store))
	r.Delete("/tasks/{id}", deleteTask(store))
	r.Post("/tasks/{id}/select", toggleSelect(store))
	r.Put("/filter", setFilter(store))
}

func listTasks(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Snapshot()
		visible := snap.Visible
		if q := r.URL.Query().Get("filter"); q != "" {
			f, err := ParseFilter(q)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, errResponse{
					Error:   "validation_error",
					Details: []fieldError{{Field: "filter", Message: err.Error()}},
				})
				return
			}
			visible = filterTasks(snap.Tasks, f)
			snap.Filter = f
		}
		writeJSON(w, http.StatusOK, listResponse{
			Tasks:     visible,
			Counts:    snap.Counts,
			Selection: snap.Selection,
			Filter:    snap.Filter,
		})
	}
}

func createTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Priority == "" {
			req.Priority = string(DefaultPriority)
		}

		if vErrs := validateCreateTask(req, maxTextLen); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := store.Add(r.Context(), req.Text, Priority(req.Priority))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func editTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}
		var req editTaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if utf8.RuneCountInString(strings.TrimSpace(req.Text)) > maxTextLen {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: []fieldError{{Field: "text", Message: fmt.Sprintf("text must be at most %d characters", maxTextLen)}},
			})
			return
		}

		res, err := store.Edit(r.Context(), id, req.Text)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		switch res {
		case EditSaved:
			for _, t := range store.Tasks() {
				if t.ID == id {
					writeJSON(w, http.StatusOK, t)
					return
				}
			}
			// deleted between the edit and the read
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
		case EditRejectedEmpty:
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: []fieldError{{Field: "text", Message: "text is required"}},
			})
		case EditRejectedCompleted:
			writeJSON(w, http.StatusConflict, errResponse{Error: "task_completed"})
		case EditNotFound:
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
		}
	}
}

func deleteTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleSelect(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}
		if err := store.ToggleSelect(id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"selected": store.IsSelected(id)})
	}
}

// finishTasks completes the ids in the body, or the store's selection when
// the body is empty or carries no ids.
func finishTasks(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req finishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		var (
			n   int
			err error
		)
		if len(req.IDs) > 0 {
			n, err = store.Finish(r.Context(), req.IDs)
		} else {
			n, err = store.FinishSelected(r.Context())
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"completed": n})
	}
}

func setFilter(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req filterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := store.SetFilter(Filter(req.Filter)); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]Filter{"filter": store.Filter()})
	}
}

func validateCreateTask(req createTaskRequest, maxLen int) []fieldError {
	var errs []fieldError
	text := strings.TrimSpace(req.Text)
	if text == "" {
		errs = append(errs, fieldError{
			Field:   "text",
			Message: "text is required",
		})
	}
	if l := utf8.RuneCountInString(text); l > maxLen {
		errs = append(errs, fieldError{
			Field:   "text",
			Message: fmt.Sprintf("text must be at most %d characters", maxLen),
		})
	}
	if !Priority(req.Priority).Valid() {
		errs = append(errs, fieldError{
			Field:   "priority",
			Message: "priority must be one of Urgent, Medium, Low",
		})
	}
	return errs
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_id"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTextRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: []fieldError{{Field: "text", Message: "text is required"}},
		})
	case errors.Is(err, ErrInvalidPriority):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: []fieldError{{Field: "priority", Message: err.Error()}},
		})
	case errors.Is(err, ErrInvalidFilter):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: []fieldError{{Field: "filter", Message: err.Error()}},
		})
	case errors.Is(err, ErrTaskCompleted):
		writeJSON(w, http.StatusConflict, errResponse{Error: "task_completed"})
	default:
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
