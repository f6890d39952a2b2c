package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/shopledger/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    jobs.Enqueuer
	inspector jobs.QueueInspector
	closers   []io.Closer
	Stdout    io.Writer
	Stderr    io.Writer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string, stdout, stderr io.Writer) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client := jobs.NewClient(opts)
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{
		client:    client,
		inspector: inspector,
		closers:   []io.Closer{client, inspector},
		Stdout:    stdout,
		Stderr:    stderr,
	}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// Run handles "jobs trigger <task>" and "jobs queue".
func (c *JobsCLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.Stderr, "usage: jobs trigger <task> | jobs queue")
		return 1
	}
	switch args[0] {
	case "trigger":
		if len(args) != 2 {
			fmt.Fprintln(c.Stderr, "usage: jobs trigger <task>")
			return 1
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(c.Stderr, "jobs: %v\n", err)
			return 1
		}
		fmt.Fprintf(c.Stdout, "enqueued %s as %s\n", info.Type, info.ID)
	case "queue":
		stats, err := c.InspectQueue()
		if err != nil {
			fmt.Fprintf(c.Stderr, "jobs: %v\n", err)
			return 1
		}
		fmt.Fprintf(c.Stdout, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprintf(c.Stderr, "jobs: unknown subcommand %q\n", args[0])
		return 1
	}
	return 0
}

// Trigger enqueues a supported task by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.Enqueue(ctx, name, "cli")
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}
