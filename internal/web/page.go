// Package web serves the task list as a server-rendered single page. Every
// control is a small form that posts back and redirects to "/".
package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/tasklist-GO/internal/tasks"
	"github.com/s1natex/tasklist-GO/internal/view"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var notices = map[string]string{
	"text-required":  "Task text cannot be empty.",
	"edit-empty":     "Task text cannot be empty; keep editing or cancel.",
	"task-completed": "Completed tasks cannot be selected or edited.",
	"save-failed":    "The change was applied but could not be saved to disk.",
	"task-missing":   "That task no longer exists.",
}

type pageData struct {
	List            view.List
	Priorities      []tasks.Priority
	DefaultPriority tasks.Priority
	Notice          string
}

// Page renders the list and handles its form posts.
type Page struct {
	store  *tasks.Store
	rows   *view.RowStates
	logger *slog.Logger
}

func NewPage(store *tasks.Store, logger *slog.Logger) *Page {
	p := &Page{
		store:  store,
		rows:   view.NewRowStates(),
		logger: logger,
	}
	store.AddListener(p.rows.Prune)
	return p
}

func (p *Page) Routes(r chi.Router) {
	r.Get("/", p.render)
	r.Post("/add", p.add)
	r.Post("/finish", p.finish)
	r.Post("/filter/{name}", p.filter)
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Post("/delete", p.delete)
		r.Post("/select", p.toggle)
		r.Post("/edit", p.beginEdit)
		r.Post("/save", p.save)
		r.Post("/cancel", p.cancel)
	})
}

func (p *Page) render(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		List:            view.BuildList(p.store.Snapshot(), p.rows),
		Priorities:      tasks.Priorities(),
		DefaultPriority: tasks.DefaultPriority,
		Notice:          notices[r.URL.Query().Get("notice")],
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		p.logger.Error("page_render_failed", slog.String("error", err.Error()))
	}
}

func (p *Page) add(w http.ResponseWriter, r *http.Request) {
	form := view.NewAddForm()
	form.Text = r.FormValue("text")
	if pr, err := tasks.ParsePriority(r.FormValue("priority")); err == nil {
		form.Priority = pr
	}
	_, err := form.Submit(r.Context(), p.store)
	p.back(w, r, err)
}

func (p *Page) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := p.taskID(w, r)
	if !ok {
		return
	}
	p.back(w, r, p.store.Delete(r.Context(), id))
}

func (p *Page) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := p.taskID(w, r)
	if !ok {
		return
	}
	p.back(w, r, p.store.ToggleSelect(id))
}

func (p *Page) finish(w http.ResponseWriter, r *http.Request) {
	_, err := p.store.FinishSelected(r.Context())
	p.back(w, r, err)
}

func (p *Page) filter(w http.ResponseWriter, r *http.Request) {
	f, err := tasks.ParseFilter(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, "unknown filter", http.StatusNotFound)
		return
	}
	p.back(w, r, p.store.SetFilter(f))
}

func (p *Page) beginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := p.taskID(w, r)
	if !ok {
		return
	}
	t, found := p.task(id)
	switch {
	case !found:
		p.redirect(w, r, "task-missing")
	case !p.rows.Begin(t):
		p.back(w, r, tasks.ErrTaskCompleted)
	default:
		p.back(w, r, nil)
	}
}

func (p *Page) save(w http.ResponseWriter, r *http.Request) {
	id, ok := p.taskID(w, r)
	if !ok {
		return
	}
	// a form posted after a restart or from another tab has no edit state;
	// reopen the row so the submitted text still goes through Commit
	if _, editing := p.rows.Editing(id); !editing {
		t, found := p.task(id)
		if !found {
			p.redirect(w, r, "task-missing")
			return
		}
		if !p.rows.Begin(t) {
			p.back(w, r, tasks.ErrTaskCompleted)
			return
		}
	}
	p.rows.SetDraft(id, r.FormValue("text"))
	res, err := p.rows.Commit(r.Context(), p.store, id)
	if err == nil {
		switch res {
		case tasks.EditRejectedEmpty:
			p.redirect(w, r, "edit-empty")
			return
		case tasks.EditRejectedCompleted:
			p.back(w, r, tasks.ErrTaskCompleted)
			return
		case tasks.EditNotFound:
			p.redirect(w, r, "task-missing")
			return
		}
	}
	p.back(w, r, err)
}

func (p *Page) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := p.taskID(w, r)
	if !ok {
		return
	}
	p.rows.Cancel(id)
	p.back(w, r, nil)
}

// back redirects to the page, carrying a notice for errors the user can act on.
func (p *Page) back(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		p.redirect(w, r, "")
	case errors.Is(err, tasks.ErrTextRequired):
		p.redirect(w, r, "text-required")
	case errors.Is(err, tasks.ErrTaskCompleted):
		p.redirect(w, r, "task-completed")
	default:
		p.logger.Error("page_action_failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		p.redirect(w, r, "save-failed")
	}
}

func (p *Page) redirect(w http.ResponseWriter, r *http.Request, notice string) {
	target := "/"
	if notice != "" {
		target += "?" + url.Values{"notice": {notice}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (p *Page) task(id int64) (tasks.Task, bool) {
	for _, t := range p.store.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return tasks.Task{}, false
}

func (p *Page) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
