// Package tasks implements the operations that change or report on the task collection.
package tasks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bryan-cox/tasktrack/internal/codec"
	"github.com/bryan-cox/tasktrack/internal/lib/logger/sl"
	"github.com/bryan-cox/tasktrack/internal/metrics"
	"github.com/bryan-cox/tasktrack/internal/model"
	"github.com/bryan-cox/tasktrack/internal/report"
	"github.com/bryan-cox/tasktrack/internal/store"
)

var (
	ErrValidation    = errors.New("invalid input")
	ErrForbidden     = errors.New("operation is restricted to the administrator")
	ErrNotOwner      = errors.New("task does not belong to you")
	ErrOutOfRange    = errors.New("invalid task number")
	ErrTaskCompleted = errors.New("completed tasks cannot be edited")
)

// TaskRepoIface is the persistence the service works against.
type TaskRepoIface interface {
	Snapshot() []model.Task
	SaveAll(tasks []model.Task) error
	AppendOne(task model.Task) error
}

// UserRepoIface provides the registered usernames for the user overview.
type UserRepoIface interface {
	Usernames() ([]string, error)
}

// ReportPaths names the two derived report files.
type ReportPaths struct {
	TaskOverview string
	UserOverview string
}

type TaskService struct {
	log       *slog.Logger
	repo      TaskRepoIface
	users     UserRepoIface
	metrics   *metrics.Metrics
	reports   ReportPaths
	adminUser string
	now       func() time.Time
}

// Option customises a TaskService.
type Option func(*TaskService)

// WithClock replaces time.Now, which decides "today" for new tasks and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(ts *TaskService) { ts.now = now }
}

// WithMetrics records report generations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ts *TaskService) { ts.metrics = m }
}

func NewTaskService(log *slog.Logger,
	repo TaskRepoIface,
	users UserRepoIface,
	reports ReportPaths,
	adminUser string,
	opts ...Option,
) *TaskService {
	ts := &TaskService{
		log:       log,
		repo:      repo,
		users:     users,
		reports:   reports,
		adminUser: adminUser,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

func (ts *TaskService) initLogger(opn string) *slog.Logger {
	return ts.log.With(
		slog.String("op", opn),
		slog.String("division", "task"),
	)
}

// CaptureInput carries the user supplied fields of a new task.
type CaptureInput struct {
	AssignedTo  string
	Title       string
	Description string
	DueDate     string
}

// Capture validates in, builds a task dated today with completion "No" and appends it.
// Nothing is written when validation fails.
func (ts *TaskService) Capture(in CaptureInput) (model.Task, error) {
	const opn = "Tasks.Capture"
	log := ts.initLogger(opn)

	task := model.Task{
		AssignedTo:  strings.TrimSpace(in.AssignedTo),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DateAdded:   model.FormatDate(ts.now()),
		DueDate:     strings.TrimSpace(in.DueDate),
		Completion:  model.CompletionNo,
	}

	if task.AssignedTo == "" || task.Title == "" || task.DueDate == "" {
		return model.Task{}, fmt.Errorf("%w: assignee, title and due date are required", ErrValidation)
	}
	if _, err := model.ParseDate(task.DueDate); err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := codec.Valid(task); err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := ts.repo.AppendOne(task); err != nil {
		return model.Task{}, fmt.Errorf("failed to add task: %w", err)
	}

	log.Info("task added", "assigned_to", task.AssignedTo, "title", task.Title)
	return task, nil
}

// Delete removes the task at the 1-based position. Only the administrator may delete.
func (ts *TaskService) Delete(actor string, position int) (model.Task, error) {
	const opn = "Tasks.Delete"
	log := ts.initLogger(opn)

	if actor != ts.adminUser {
		return model.Task{}, ErrForbidden
	}

	tasks := ts.repo.Snapshot()
	if err := checkPosition(position, len(tasks)); err != nil {
		return model.Task{}, err
	}

	deleted := tasks[position-1]
	remaining := append(tasks[:position-1:position-1], tasks[position:]...)
	if err := ts.repo.SaveAll(remaining); err != nil {
		return model.Task{}, fmt.Errorf("failed to delete task %d: %w", position, err)
	}

	log.Info("task deleted", "position", position, "title", deleted.Title)
	return deleted, nil
}

// MarkComplete sets the task at position to "Yes". It returns false without writing
// anything when the task was already complete.
func (ts *TaskService) MarkComplete(actor string, position int) (bool, error) {
	const opn = "Tasks.MarkComplete"
	log := ts.initLogger(opn)

	tasks, err := ts.owned(actor, position)
	if err != nil {
		return false, err
	}

	task := &tasks[position-1]
	if task.IsComplete() {
		log.Debug("task already complete", "position", position)
		return false, nil
	}

	task.Completion = model.CompletionYes
	if err := ts.repo.SaveAll(tasks); err != nil {
		return false, fmt.Errorf("failed to mark task %d complete: %w", position, err)
	}

	log.Info("task marked complete", "position", position)
	return true, nil
}

// EditInput carries the new values of an edit. Empty fields are left unchanged.
type EditInput struct {
	AssignedTo string
	DueDate    string
}

// Edit reassigns and/or reschedules an open task. It returns false without writing
// anything when no field changed.
func (ts *TaskService) Edit(actor string, position int, in EditInput) (bool, error) {
	const opn = "Tasks.Edit"
	log := ts.initLogger(opn)

	tasks, err := ts.owned(actor, position)
	if err != nil {
		return false, err
	}

	task := &tasks[position-1]
	if task.IsComplete() {
		return false, ErrTaskCompleted
	}

	assignee := strings.TrimSpace(in.AssignedTo)
	due := strings.TrimSpace(in.DueDate)
	if assignee != "" {
		if err := codec.ValidField("assigned to", assignee); err != nil {
			return false, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if due != "" {
		if _, err := model.ParseDate(due); err != nil {
			return false, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	changed := false
	if assignee != "" && assignee != task.AssignedTo {
		task.AssignedTo = assignee
		changed = true
	}
	if due != "" && due != task.DueDate {
		task.DueDate = due
		changed = true
	}
	if !changed {
		return false, nil
	}

	if err := ts.repo.SaveAll(tasks); err != nil {
		return false, fmt.Errorf("failed to edit task %d: %w", position, err)
	}

	log.Info("task updated", "position", position, "assigned_to", task.AssignedTo, "due_date", task.DueDate)
	return true, nil
}

// owned returns a snapshot after checking that position exists and belongs to actor.
func (ts *TaskService) owned(actor string, position int) ([]model.Task, error) {
	tasks := ts.repo.Snapshot()
	if err := checkPosition(position, len(tasks)); err != nil {
		return nil, err
	}
	if tasks[position-1].AssignedTo != actor {
		return nil, ErrNotOwner
	}
	return tasks, nil
}

func checkPosition(position, total int) error {
	if position < 1 || position > total {
		return fmt.Errorf("%w: %d (have %d tasks)", ErrOutOfRange, position, total)
	}
	return nil
}

// All returns every task with its position.
func (ts *TaskService) All() []model.NumberedTask {
	return ts.filter(func(model.Task) bool { return true })
}

// Mine returns the tasks assigned to actor, keeping their file positions.
func (ts *TaskService) Mine(actor string) []model.NumberedTask {
	return ts.filter(func(t model.Task) bool { return t.AssignedTo == actor })
}

// Completed returns the completed tasks, keeping their file positions.
func (ts *TaskService) Completed() []model.NumberedTask {
	return ts.filter(func(t model.Task) bool { return t.IsComplete() })
}

func (ts *TaskService) filter(keep func(model.Task) bool) []model.NumberedTask {
	var out []model.NumberedTask
	for i, t := range ts.repo.Snapshot() {
		if keep(t) {
			out = append(out, model.NumberedTask{Task: t, Position: i + 1})
		}
	}
	return out
}

// Overviews computes both statistics over the current snapshot.
func (ts *TaskService) Overviews() (report.TaskOverview, report.UserOverview, error) {
	usernames, err := ts.users.Usernames()
	if err != nil {
		return report.TaskOverview{}, report.UserOverview{}, fmt.Errorf("could not load users: %w", err)
	}
	tasks := ts.repo.Snapshot()
	today := ts.now()
	return report.ComputeTaskOverview(tasks, today), report.ComputeUserOverview(tasks, usernames, today), nil
}

// GenerateReports regenerates both report files from the current snapshot.
func (ts *TaskService) GenerateReports() error {
	const opn = "Tasks.GenerateReports"
	log := ts.initLogger(opn)

	taskOverview, userOverview, err := ts.Overviews()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteTaskOverview(&buf, taskOverview); err != nil {
		return fmt.Errorf("could not render task overview: %w", err)
	}
	if err := store.WriteFileAtomic(ts.reports.TaskOverview, buf.Bytes(), 0o644); err != nil {
		log.Error("failed to write task overview", sl.Err(err))
		return fmt.Errorf("could not write task overview: %w", err)
	}

	buf.Reset()
	if err := report.WriteUserOverview(&buf, userOverview); err != nil {
		return fmt.Errorf("could not render user overview: %w", err)
	}
	if err := store.WriteFileAtomic(ts.reports.UserOverview, buf.Bytes(), 0o644); err != nil {
		log.Error("failed to write user overview", sl.Err(err))
		return fmt.Errorf("could not write user overview: %w", err)
	}

	if ts.metrics != nil {
		ts.metrics.ReportsGenerated.Inc()
	}
	log.Info("reports generated", "task_overview", ts.reports.TaskOverview, "user_overview", ts.reports.UserOverview)
	return nil
}

// DisplayStatistics prints both overviews, generating the report files first if either
// is missing.
func (ts *TaskService) DisplayStatistics(out io.Writer) error {
	if !exists(ts.reports.TaskOverview) || !exists(ts.reports.UserOverview) {
		if err := ts.GenerateReports(); err != nil {
			return err
		}
	}

	taskOverview, userOverview, err := ts.Overviews()
	if err != nil {
		return err
	}
	return report.PrintStatistics(out, taskOverview, userOverview)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
