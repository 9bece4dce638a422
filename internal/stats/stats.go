package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater keeps counters in an expvar map. Updates flow through a
// buffered channel so hot paths never block on metric bookkeeping; a full
// channel drops the update rather than stalling a room goroutine.
type StatsUpdater struct {
	vars    *expvar.Map
	updates chan metricDelta
	done    chan struct{}
}

type metricDelta struct {
	name  string
	delta int64
}

func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:    expvar.NewMap("gameroom-stats"),
		updates: make(chan metricDelta, 512),
		done:    make(chan struct{}),
	}

	started := time.Now()
	su.vars.Set("UptimeSeconds", expvar.Func(func() any {
		return int64(time.Since(started).Seconds())
	}))

	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))

	return su
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	data := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		data[kv.Key] = value
	})

	json.NewEncoder(w).Encode(data)
}

// RegisterMetric publishes a counter at zero so it is visible before the
// first update. Updates to unregistered names are dropped.
func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, expvar.NewInt(name))
}

func (su *StatsUpdater) Incr(name string) {
	su.record(name, 1)
}

func (su *StatsUpdater) Decr(name string) {
	su.record(name, -1)
}

func (su *StatsUpdater) record(name string, delta int64) {
	select {
	case su.updates <- metricDelta{name: name, delta: delta}:
	default:
	}
}

func (su *StatsUpdater) Run() {
	go func() {
		for {
			select {
			case upd := <-su.updates:
				if v, ok := su.vars.Get(upd.name).(*expvar.Int); ok {
					v.Add(upd.delta)
				}
			case <-su.done:
				return
			}
		}
	}()
}

func (su *StatsUpdater) Stop() {
	close(su.done)
}
