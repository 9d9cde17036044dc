package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/s1natex/tasklist-GO/internal/localstore"
)

// DefaultKey is the storage key the collection lives under.
const DefaultKey = "todos"

var tracer = otel.Tracer("github.com/s1natex/tasklist-GO/internal/tasks")

// Snapshot is a consistent copy of the store state, handed to listeners and
// views. Visible is the collection narrowed by Filter.
type Snapshot struct {
	Tasks     []Task
	Visible   []Task
	Counts    Counts
	Selection []int64
	Filter    Filter
}

func (s Snapshot) IsSelected(id int64) bool {
	_, found := slices.BinarySearch(s.Selection, id)
	return found
}

// Listener is called after every committed change.
type Listener func(Snapshot)

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to mint ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// Store owns the ordered task collection (newest first), the selection set
// and the active filter. Every mutation is written through to storage before
// listeners are told about it.
type Store struct {
	mu      sync.Mutex
	storage localstore.Storage
	key     string
	logger  *slog.Logger
	now     func() time.Time

	tasks    []Task
	selected map[int64]struct{}
	filter   Filter
	lastID   int64

	lmu          sync.Mutex
	listeners    []listenerEntry
	nextListener int
}

type listenerEntry struct {
	id int
	fn Listener
}

func NewStore(storage localstore.Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		key:      DefaultKey,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		tasks:    []Task{},
		selected: make(map[int64]struct{}),
		filter:   FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the collection from storage. A missing entry starts an empty
// list. An undecodable entry also starts an empty list: the bad value is
// copied to "<key>.corrupt", replaced with an empty collection, and a
// *CorruptDataError is returned so the caller can report it. Any other error
// means storage itself failed.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "tasks.Load")
	defer span.End()

	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("load %q: %w", s.key, err)
	}

	s.mu.Lock()
	s.tasks = []Task{}
	s.selected = make(map[int64]struct{})
	s.lastID = 0

	var loadErr error
	if ok {
		list, err := Decode(data)
		if err != nil {
			loadErr = &CorruptDataError{Key: s.key, Err: err}
			s.logger.Warn("store_corrupt",
				slog.String("key", s.key),
				slog.Int("bytes", len(data)),
				slog.String("error", err.Error()),
			)
			if err := s.storage.Set(ctx, s.key+".corrupt", data); err != nil {
				s.logger.Error("store_backup_failed", slog.String("error", err.Error()))
			}
			if err := s.persistLocked(ctx); err != nil {
				s.logger.Error("store_reset_failed", slog.String("error", err.Error()))
			}
		} else {
			s.tasks = list
			for _, t := range list {
				s.lastID = max(s.lastID, t.ID)
			}
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("tasks.count", len(snap.Tasks)))
	s.logger.Info("store_loaded",
		slog.String("key", s.key),
		slog.Bool("found", ok),
		slog.Int("tasks", len(snap.Tasks)),
	)
	s.notify(snap)
	return loadErr
}

// Add prepends a new, not yet completed task.
func (s *Store) Add(ctx context.Context, text string, priority Priority) (Task, error) {
	ctx, span := tracer.Start(ctx, "tasks.Add")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrTextRequired
	}
	if !priority.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	s.mu.Lock()
	t := Task{
		ID:        s.nextIDLocked(),
		Text:      text,
		Priority:  priority,
		Completed: false,
	}
	s.tasks = slices.Insert(s.tasks, 0, t)
	err := s.persistLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int64("task.id", t.ID), attribute.String("task.priority", string(priority)))
	recordErr(span, err)
	s.notify(snap)
	return t, err
}

// Delete removes the task with id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "tasks.Delete", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer span.End()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	delete(s.selected, id)
	err := s.persistLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	recordErr(span, err)
	s.notify(snap)
	return err
}

// Edit replaces the text of task id with the trimmed newText. Nothing
// changes unless the result is EditSaved.
func (s *Store) Edit(ctx context.Context, id int64, newText string) (EditResult, error) {
	ctx, span := tracer.Start(ctx, "tasks.Edit", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer span.End()

	newText = strings.TrimSpace(newText)

	s.mu.Lock()
	i := s.indexLocked(id)
	switch {
	case i < 0:
		s.mu.Unlock()
		return EditNotFound, nil
	case s.tasks[i].Completed:
		s.mu.Unlock()
		return EditRejectedCompleted, nil
	case newText == "":
		s.mu.Unlock()
		return EditRejectedEmpty, nil
	}
	s.tasks[i].Text = newText
	err := s.persistLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	recordErr(span, err)
	s.notify(snap)
	return EditSaved, err
}

// ToggleSelect flips id's membership in the selection set. Unknown ids are
// ignored; completed tasks cannot be added.
func (s *Store) ToggleSelect(id int64) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		if s.tasks[i].Completed {
			s.mu.Unlock()
			return ErrTaskCompleted
		}
		s.selected[id] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// ClearSelection empties the selection set.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return
	}
	s.selected = make(map[int64]struct{})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Finish marks every task whose id is in ids as completed and returns how
// many changed. Completed tasks drop out of the selection.
func (s *Store) Finish(ctx context.Context, ids []int64) (int, error) {
	ctx, span := tracer.Start(ctx, "tasks.Finish")
	defer span.End()

	s.mu.Lock()
	n, err := s.finishLocked(ctx, ids)
	if n == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("tasks.completed", n))
	recordErr(span, err)
	s.notify(snap)
	return n, err
}

// FinishSelected completes every selected task, which leaves the selection
// empty.
func (s *Store) FinishSelected(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "tasks.FinishSelected")
	defer span.End()

	s.mu.Lock()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	n, err := s.finishLocked(ctx, s.selectionLocked())
	snap := s.snapshotLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("tasks.completed", n))
	recordErr(span, err)
	s.notify(snap)
	return n, err
}

func (s *Store) finishLocked(ctx context.Context, ids []int64) (int, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	for i := range s.tasks {
		if _, ok := want[s.tasks[i].ID]; ok && !s.tasks[i].Completed {
			s.tasks[i].Completed = true
			delete(s.selected, s.tasks[i].ID)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.persistLocked(ctx)
}

func (s *Store) SetFilter(f Filter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}
	s.mu.Lock()
	if s.filter == f {
		s.mu.Unlock()
		return nil
	}
	s.filter = f
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Tasks returns a copy of the full collection, newest first.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Visible returns the collection narrowed by the active filter.
func (s *Store) Visible() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterTasks(s.tasks, s.filter)
}

// FilterTasks returns the collection narrowed by f, ignoring the active filter.
func (s *Store) FilterTasks(f Filter) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterTasks(s.tasks, f)
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countTasks(s.tasks)
}

func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Selection returns the selected ids in ascending order.
func (s *Store) Selection() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Store) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddListener registers fn and returns an id for RemoveListener.
func (s *Store) AddListener(fn Listener) int {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextListener, fn: fn})
	return s.nextListener
}

func (s *Store) RemoveListener(id int) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool {
		return e.id == id
	})
}

func (s *Store) notify(snap Snapshot) {
	s.lmu.Lock()
	ls := slices.Clone(s.listeners)
	s.lmu.Unlock()

	for _, l := range ls {
		l.fn(snap)
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := Encode(s.tasks)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.Error("store_persist_failed",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("persist: %w", err)
	}
	s.logger.Debug("store_persisted", slog.String("key", s.key), slog.Int("tasks", len(s.tasks)))
	return nil
}

// nextIDLocked mints a millisecond timestamp id, bumped past the last one
// issued so ids stay unique and increasing.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

func (s *Store) selectionLocked() []int64 {
	out := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Tasks:     slices.Clone(s.tasks),
		Visible:   filterTasks(s.tasks, s.filter),
		Counts:    countTasks(s.tasks),
		Selection: s.selectionLocked(),
		Filter:    s.filter,
	}
}

func recordErr(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
