// Package model defines the core data structures for tasktrack.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form of every date stored in the task file ("DD Mon YYYY").
const DateLayout = "02 Jan 2006"

// shortDateLayout accepts hand-edited dates without a leading zero on the day.
const shortDateLayout = "2 Jan 2006"

// Completion is the completion status of a task.
type Completion string

// Completion status constants.
const (
	CompletionYes Completion = "Yes"
	CompletionNo  Completion = "No"
)

// ParseCompletion normalises a completion value read from disk. The comparison is
// case-insensitive; anything other than yes/no is rejected.
func ParseCompletion(s string) (Completion, error) {
	switch {
	case strings.EqualFold(s, string(CompletionYes)):
		return CompletionYes, nil
	case strings.EqualFold(s, string(CompletionNo)):
		return CompletionNo, nil
	default:
		return "", fmt.Errorf("invalid completion status %q", s)
	}
}

// Task represents a single work item.
type Task struct {
	AssignedTo  string     `yaml:"assigned_to"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	DateAdded   string     `yaml:"date_added"`
	DueDate     string     `yaml:"due_date"`
	Completion  Completion `yaml:"completion"`
}

// IsComplete reports whether the task has been marked as done.
func (t *Task) IsComplete() bool {
	return strings.EqualFold(string(t.Completion), string(CompletionYes))
}

// NumberedTask is a task together with its 1-based position in the task file.
// Positions are what the CLI shows as "Task 1", "Task 2", ...
type NumberedTask struct {
	Task
	Position int
}

// User is a single entry of the credential file.
type User struct {
	Username string
	Password string
}

// ParseDate parses a date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err == nil {
		return d, nil
	}
	if d, errShort := time.Parse(shortDateLayout, s); errShort == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("date %q is not in the format DD Mon YYYY: %w", s, err)
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to a calendar date, dropping the clock and the location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
