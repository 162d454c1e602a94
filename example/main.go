package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/statuspoll"
	"github.com/jpalmerr/statuspoll/internal/source"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockJobServer(":9999")
	time.Sleep(100 * time.Millisecond)

	job, err := source.NewHTTP("http://localhost:9999/jobs/invoice-1042", "data.status")
	if err != nil {
		slog.Error("failed to create status source", "error", err)
		os.Exit(1)
	}
	defer job.Close()

	fmt.Println()
	fmt.Println("  statuspoll demo")
	fmt.Println("  Waiting for job invoice-1042 to be delivered.")
	fmt.Println("  The same job is visible at http://localhost:9999/ui/jobs/invoice-1042")
	fmt.Println("  Try: statuspoll watch -c example/statuspoll.yaml -p invoice-ui")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := statuspoll.PollUntil(ctx, job.Accessor(),
		statuspoll.WithName("invoice-1042"),
		statuspoll.WithTargets("delivered"),
		statuspoll.WithInterval(500*time.Millisecond),
		statuspoll.WithTimeout(time.Minute),
		statuspoll.WithObserver(func(s statuspoll.Snapshot) {
			fmt.Printf("  %s  %s\n", s.ObservedAt.Format(time.TimeOnly), s.Status)
		}),
	)

	fmt.Println()
	fmt.Printf("  Statuses seen: %s\n", result.History)

	if err != nil {
		var pollErr *statuspoll.PollError
		if errors.As(err, &pollErr) {
			slog.Error("job did not finish", "state", pollErr.State.String(), "error", err)
		} else {
			slog.Error("poll error", "error", err)
		}
		os.Exit(1)
	}
}
