package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Hour

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// Interval between runs. The first run happens one interval after Start.
	Interval time.Duration

	// Timeout bounds a single task execution. Zero means no bound.
	Timeout time.Duration
}

// TaskRunner executes a fixed set of tasks on a ticker until stopped.
type TaskRunner struct {
	tasks      []Task
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger, tasks ...Task) *TaskRunner {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	return &TaskRunner{
		tasks:  tasks,
		config: config,
		logger: logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				slog.String("task_type", task.Type()),
				slog.String("error", err.Error()))
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Start launches the ticker loop. Calling Start on a running runner is an error.
func (r *TaskRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelFunc != nil {
		return errors.New("task runner already started")
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), r.logger))
	r.cancelFunc = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("task runner started",
		slog.Duration("interval", r.config.Interval),
		slog.Int("tasks", len(r.tasks)))
	return nil
}

// Stop cancels the loop, including any in-flight task, and waits for it to exit.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	cancel := r.cancelFunc
	r.cancelFunc = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// RunOnce executes every task once, in order. A failing task does not stop
// the others; the joined errors are returned.
func (r *TaskRunner) RunOnce(ctx context.Context) error {
	var errs []error
	for _, task := range r.tasks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.execute(ctx, task); err != nil {
			r.errHandler(task, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *TaskRunner) execute(ctx context.Context, task Task) error {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	return task.Execute(ctx)
}

func (r *TaskRunner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}
