// Package codec converts tasks to and from the six-line block stored in the task file.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bryan-cox/tasktrack/internal/model"
)

// LinesPerRecord is the number of non-blank lines making up one task.
const LinesPerRecord = 6

// Field prefixes, in the order they appear in a record.
const (
	PrefixAssignedTo  = "Assigned to: "
	PrefixTitle       = "Task Title: "
	PrefixDescription = "Description: "
	PrefixDateAdded   = "Date of Assignment: "
	PrefixDueDate     = "Task Due Date: "
	PrefixCompletion  = "Task Completion: "
)

var (
	// ErrShortRecord is returned when fewer than six lines remain for a record.
	ErrShortRecord = errors.New("incomplete record")
	// ErrMalformedRecord is returned when a line lacks its prefix or holds an invalid value.
	ErrMalformedRecord = errors.New("malformed record")
)

// DecodeError describes a record that was skipped while decoding a whole file.
// FirstLine and LastLine are 1-based positions among the non-blank lines.
type DecodeError struct {
	Record    int
	FirstLine int
	LastLine  int
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record %d (lines %d to %d): %v", e.Record, e.FirstLine, e.LastLine, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode renders a task as its six-line block. Every field but the completion status
// carries a trailing comma.
func Encode(t model.Task) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s%s,\n", PrefixAssignedTo, t.AssignedTo)
	fmt.Fprintf(&b, "%s%s,\n", PrefixTitle, t.Title)
	fmt.Fprintf(&b, "%s%s,\n", PrefixDescription, t.Description)
	fmt.Fprintf(&b, "%s%s,\n", PrefixDateAdded, t.DateAdded)
	fmt.Fprintf(&b, "%s%s,\n", PrefixDueDate, t.DueDate)
	fmt.Fprintf(&b, "%s%s\n", PrefixCompletion, t.Completion)
	return b.Bytes()
}

// EncodeAll renders tasks back to back, in order.
func EncodeAll(tasks []model.Task) []byte {
	var b bytes.Buffer
	for _, t := range tasks {
		b.Write(Encode(t))
	}
	return b.Bytes()
}

// Decode parses the first six lines of lines into a task.
func Decode(lines []string) (model.Task, error) {
	if len(lines) < LinesPerRecord {
		return model.Task{}, fmt.Errorf("%w: expected %d lines, got %d", ErrShortRecord, LinesPerRecord, len(lines))
	}

	var (
		task   model.Task
		err    error
		fields = []struct {
			prefix string
			dst    *string
		}{
			{PrefixAssignedTo, &task.AssignedTo},
			{PrefixTitle, &task.Title},
			{PrefixDescription, &task.Description},
			{PrefixDateAdded, &task.DateAdded},
			{PrefixDueDate, &task.DueDate},
		}
	)

	for i, f := range fields {
		value, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), f.prefix)
		if !ok {
			return model.Task{}, fmt.Errorf("%w: line %d does not start with %q", ErrMalformedRecord, i+1, f.prefix)
		}
		*f.dst = strings.TrimRight(value, ",")
	}

	value, ok := strings.CutPrefix(strings.TrimSpace(lines[5]), PrefixCompletion)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: line 6 does not start with %q", ErrMalformedRecord, PrefixCompletion)
	}
	task.Completion, err = model.ParseCompletion(value)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	return task, nil
}

// DecodeAll parses a whole task file. Blank lines are dropped, the remaining lines are
// grouped into records of six, and records that fail to decode are skipped and reported.
func DecodeAll(data []byte) ([]model.Task, []*DecodeError) {
	lines := nonBlankLines(data)

	var (
		tasks   []model.Task
		skipped []*DecodeError
	)
	for i := 0; i < len(lines); i += LinesPerRecord {
		end := min(i+LinesPerRecord, len(lines))
		task, err := Decode(lines[i:end])
		if err != nil {
			skipped = append(skipped, &DecodeError{
				Record:    i/LinesPerRecord + 1,
				FirstLine: i + 1,
				LastLine:  end,
				Err:       err,
			})
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped
}

// Valid reports whether t would survive an Encode/Decode round trip unchanged.
func Valid(t model.Task) error {
	fields := []struct {
		name, value string
	}{
		{"assigned to", t.AssignedTo},
		{"title", t.Title},
		{"description", t.Description},
		{"date of assignment", t.DateAdded},
		{"due date", t.DueDate},
	}
	for _, f := range fields {
		if err := ValidField(f.name, f.value); err != nil {
			return err
		}
	}
	if t.Completion != model.CompletionYes && t.Completion != model.CompletionNo {
		return fmt.Errorf("completion must be %q or %q, got %q", model.CompletionYes, model.CompletionNo, t.Completion)
	}
	return nil
}

// ValidField checks a single text field against the record format.
func ValidField(name, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%s must be a single line", name)
	}
	if strings.HasSuffix(value, ",") {
		return fmt.Errorf("%s must not end with a comma", name)
	}
	return nil
}

func nonBlankLines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
