package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// workflow is the sequence every mock job walks through.
var workflow = []string{"Pending", "Processing", "Submitted", "Delivered"}

// mockJob tracks the stage and next transition time for a single job.
type mockJob struct {
	stage        int
	nextChangeAt time.Time
}

// jobPage renders a job's status in a table cell and refreshes it from the
// JSON endpoint, so the same job can be watched with a page profile.
const jobPage = `<!doctype html>
<html><body>
<h1>Job %[1]s</h1>
<table><tr><td class="id">%[1]s</td><td class="status">Loading</td></tr></table>
<script>
  async function refresh() {
    const resp = await fetch("/jobs/%[1]s");
    const body = await resp.json();
    document.querySelector("td.status").textContent = body.data.status;
  }
  refresh();
  setInterval(refresh, 500);
</script>
</body></html>`

// StartMockJobServer runs a mock job API that advances each job through
// the workflow, one stage every 1-3 seconds, stopping at the last stage.
// Call this in a goroutine before polling.
func StartMockJobServer(addr string) {
	var (
		jobs = make(map[string]*mockJob)
		mu   sync.Mutex
	)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		mu.Lock()
		job, exists := jobs[id]
		if !exists {
			job = &mockJob{nextChangeAt: time.Now().Add(nextStageDelay())}
			jobs[id] = job
		}

		if job.stage < len(workflow)-1 && time.Now().After(job.nextChangeAt) {
			job.stage++
			job.nextChangeAt = time.Now().Add(nextStageDelay())
			slog.Info("job advanced", "job", id, "status", workflow[job.stage])
		}
		status := workflow[job.stage]
		mu.Unlock()

		// occasional hiccup so the poller's failure handling shows up
		if rand.Intn(10) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":   id,
			"data": map[string]string{"status": status},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	mux.HandleFunc("GET /ui/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, jobPage, r.PathValue("id"))
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func nextStageDelay() time.Duration {
	return time.Duration(1000+rand.Intn(2000)) * time.Millisecond
}
