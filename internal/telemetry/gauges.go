package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/s1natex/tasklist-GO/internal/tasks"
)

// TaskGauges mirrors the store into Prometheus. Attach it with Watch.
type TaskGauges struct {
	tasks    *prometheus.GaugeVec
	selected prometheus.Gauge
}

func NewTaskGauges(reg prometheus.Registerer) *TaskGauges {
	g := &TaskGauges{
		tasks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tasklist_tasks",
				Help: "Number of tasks by priority and state",
			},
			[]string{"priority", "state"},
		),
		selected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tasklist_selected_tasks",
			Help: "Number of tasks in the current selection",
		}),
	}
	reg.MustRegister(g.tasks, g.selected)
	return g
}

// Watch seeds the gauges from the current state and keeps them updated.
// The returned func detaches the listener.
func (g *TaskGauges) Watch(store *tasks.Store) func() {
	g.Update(store.Snapshot())
	id := store.AddListener(g.Update)
	return func() { store.RemoveListener(id) }
}

func (g *TaskGauges) Update(snap tasks.Snapshot) {
	type key struct {
		p     tasks.Priority
		state string
	}
	counts := make(map[key]int)
	for _, t := range snap.Tasks {
		state := "active"
		if t.Completed {
			state = "completed"
		}
		counts[key{t.Priority, state}]++
	}
	for _, p := range tasks.Priorities() {
		for _, state := range []string{"active", "completed"} {
			g.tasks.WithLabelValues(string(p), state).Set(float64(counts[key{p, state}]))
		}
	}
	g.selected.Set(float64(len(snap.Selection)))
}
