// Package store keeps the task and credential files and the in-memory state loaded from them.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/bryan-cox/tasktrack/internal/codec"
	"github.com/bryan-cox/tasktrack/internal/lib/logger/sl"
	"github.com/bryan-cox/tasktrack/internal/metrics"
	"github.com/bryan-cox/tasktrack/internal/model"
)

const filePerm = 0o644

// TaskStore owns the ordered task collection and the task file backing it.
// The collection only changes after the corresponding write has succeeded.
type TaskStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics

	tasks   []model.Task
	skipped int
}

// NewTaskStore creates a store for the task file at path. metrics may be nil.
func NewTaskStore(path string, log *slog.Logger, m *metrics.Metrics) *TaskStore {
	return &TaskStore{path: path, log: log, metrics: m}
}

// Path returns the location of the task file.
func (s *TaskStore) Path() string {
	return s.path
}

// LoadAll reads the task file and replaces the in-memory collection with its records.
// A missing file is an empty collection. Malformed records are logged and skipped.
func (s *TaskStore) LoadAll() ([]model.Task, error) {
	const op = "TaskStore.LoadAll"
	log := s.log.With(slog.String("op", op), slog.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("task file not found, starting with an empty task list")
			s.tasks, s.skipped = nil, 0
			return nil, nil
		}
		return nil, fmt.Errorf("could not read file '%s': %w", s.path, err)
	}

	tasks, skipped := codec.DecodeAll(data)
	for _, derr := range skipped {
		log.Warn("skipping malformed task record",
			"record", derr.Record, "first_line", derr.FirstLine, "last_line", derr.LastLine, sl.Err(derr.Err))
	}

	if s.metrics != nil {
		s.metrics.RecordsLoaded.WithLabelValues("tasks").Add(float64(len(tasks)))
		s.metrics.RecordsSkipped.WithLabelValues("tasks").Add(float64(len(skipped)))
	}
	log.Debug("loaded tasks", "count", len(tasks), "skipped", len(skipped))

	s.tasks, s.skipped = tasks, len(skipped)
	return s.Snapshot(), nil
}

// Skipped returns how many malformed records the last LoadAll dropped.
func (s *TaskStore) Skipped() int {
	return s.skipped
}

// Snapshot returns a copy of the collection in display order.
func (s *TaskStore) Snapshot() []model.Task {
	if len(s.tasks) == 0 {
		return nil
	}
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks in the collection.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// SaveAll rewrites the whole task file from tasks and makes tasks the new collection.
// The rewrite is atomic: on failure both the file and the collection keep their old content.
func (s *TaskStore) SaveAll(tasks []model.Task) error {
	const op = "TaskStore.SaveAll"
	log := s.log.With(slog.String("op", op), slog.String("path", s.path))

	start := time.Now()
	err := WriteFileAtomic(s.path, codec.EncodeAll(tasks), filePerm)
	s.observe("save_all", start, err)
	if err != nil {
		log.Error("failed to save tasks", sl.Err(err))
		return fmt.Errorf("could not save tasks: %w", err)
	}

	s.tasks = make([]model.Task, len(tasks))
	copy(s.tasks, tasks)
	log.Debug("saved tasks", "count", len(tasks))
	return nil
}

// AppendOne writes task at the end of the task file and adds it to the collection.
func (s *TaskStore) AppendOne(task model.Task) error {
	const op = "TaskStore.AppendOne"
	log := s.log.With(slog.String("op", op), slog.String("path", s.path))

	start := time.Now()
	err := appendFile(s.path, codec.Encode(task), filePerm)
	s.observe("append_one", start, err)
	if err != nil {
		log.Error("failed to append task", sl.Err(err))
		return fmt.Errorf("could not append task: %w", err)
	}

	s.tasks = append(s.tasks, task)
	return nil
}

func (s *TaskStore) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.StoreWrites.WithLabelValues(op, status).Inc()
	s.metrics.StoreWriteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
