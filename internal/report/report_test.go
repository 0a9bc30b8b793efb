package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/tasktrack/internal/model"
	"github.com/bryan-cox/tasktrack/internal/report"
)

var today = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.Local)

func task(user, due string, completion model.Completion) model.Task {
	return model.Task{
		AssignedTo:  user,
		Title:       "Task for " + user,
		Description: "Something to do",
		DateAdded:   "01 Mar 2024",
		DueDate:     due,
		Completion:  completion,
	}
}

func TestComputeTaskOverview_Empty(t *testing.T) {
	t.Parallel()

	o := report.ComputeTaskOverview(nil, today)

	assert.Equal(t, report.TaskOverview{}, o)
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		task     model.Task
		expected bool
	}{
		{name: "due yesterday", task: task("AliceB", "14 Mar 2024", model.CompletionNo), expected: true},
		{name: "due today", task: task("AliceB", "15 Mar 2024", model.CompletionNo), expected: false},
		{name: "due tomorrow", task: task("AliceB", "16 Mar 2024", model.CompletionNo), expected: false},
		{name: "completed and past due", task: task("AliceB", "01 Jan 2020", model.CompletionYes), expected: false},
		{name: "lower case completion", task: task("AliceB", "01 Jan 2020", "yes"), expected: false},
		{name: "unparseable date", task: task("AliceB", "sometime soon", model.CompletionNo), expected: false},
		{name: "day without leading zero", task: task("AliceB", "1 Mar 2024", model.CompletionNo), expected: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, report.IsOverdue(tt.task, today))
		})
	}
}

func TestComputeTaskOverview(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		task("AliceB", "14 Mar 2024", model.CompletionNo),  // overdue
		task("AliceB", "15 Mar 2024", model.CompletionNo),  // due today
		task("Bobby", "01 Jan 2024", model.CompletionYes),  // done
		task("Bobby", "not a date", model.CompletionNo),    // excluded from overdue
		task("Ghost", "01 Feb 2024", model.CompletionNo),   // overdue, unregistered
		task("Ghost", "01 Feb 2024", model.CompletionYes),  // done
	}

	o := report.ComputeTaskOverview(tasks, today)

	assert.Equal(t, 6, o.Total)
	assert.Equal(t, 2, o.Completed)
	assert.Equal(t, 4, o.Uncompleted)
	assert.Equal(t, 2, o.Overdue)
	assert.InDelta(t, 66.6666, o.PctIncomplete, 0.001)
	assert.InDelta(t, 33.3333, o.PctOverdue, 0.001)
}

func TestComputeUserOverview(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		task("AliceB", "14 Mar 2024", model.CompletionNo),
		task("AliceB", "20 Mar 2024", model.CompletionYes),
		task("Bobby", "20 Mar 2024", model.CompletionNo),
		task("Ghost", "01 Feb 2024", model.CompletionNo),
	}

	o := report.ComputeUserOverview(tasks, []string{"AliceB", "Carol", "AliceB", "Bobby"}, today)

	assert.Equal(t, 3, o.TotalUsers)
	assert.Equal(t, 4, o.TotalTasks)
	require.Len(t, o.Rows, 3)

	assert.Equal(t, report.UserStats{
		Username: "AliceB", Assigned: 2, PctOfTotal: 50, PctCompleted: 50, PctIncomplete: 50, PctOverdue: 50,
	}, o.Rows[0])
	assert.Equal(t, report.UserStats{Username: "Carol"}, o.Rows[1])
	assert.Equal(t, report.UserStats{
		Username: "Bobby", Assigned: 1, PctOfTotal: 25, PctCompleted: 0, PctIncomplete: 100, PctOverdue: 0,
	}, o.Rows[2])
}

func TestComputeUserOverview_SingleUser(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{task("AliceB", "20 Mar 2024", model.CompletionNo)}

	o := report.ComputeUserOverview(tasks, []string{"AliceB"}, today)

	require.Len(t, o.Rows, 1)
	assert.Equal(t, "AliceB", o.Rows[0].Username)
	assert.InDelta(t, 100, o.Rows[0].PctOfTotal, 0)
}

func TestWriteTaskOverview(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := report.TaskOverview{Total: 3, Completed: 1, Uncompleted: 2, Overdue: 1,
		PctIncomplete: 200.0 / 3, PctOverdue: 100.0 / 3}

	require.NoError(t, report.WriteTaskOverview(&buf, o))

	expected := "Total number of tasks: 3\n" +
		"Total number of completed tasks: 1\n" +
		"Total number of uncompleted tasks: 2\n" +
		"Total number of overdue tasks: 1\n" +
		"Percentage of tasks incomplete: 66.67%\n" +
		"Percentage of tasks overdue: 33.33%\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteUserOverview(t *testing.T) {
	t.Parallel()

	o := report.UserOverview{
		TotalUsers: 2,
		TotalTasks: 1,
		Rows: []report.UserStats{
			{Username: "AliceB", Assigned: 1, PctOfTotal: 100, PctIncomplete: 100},
			{Username: "Bobby"},
		},
	}

	var first, second bytes.Buffer
	require.NoError(t, report.WriteUserOverview(&first, o))
	require.NoError(t, report.WriteUserOverview(&second, o))

	expected := "Total number of users: 2\n" +
		"Total number of tasks: 1\n" +
		"\nUser: AliceB\n" +
		"  Total tasks assigned: 1\n" +
		"  % of total tasks assigned: 100.00%\n" +
		"  % of tasks completed: 0.00%\n" +
		"  % of tasks incomplete: 100.00%\n" +
		"  % of tasks overdue: 0.00%\n" +
		"\nUser: Bobby\n" +
		"  Total tasks assigned: 0\n" +
		"  % of total tasks assigned: 0.00%\n" +
		"  % of tasks completed: 0.00%\n" +
		"  % of tasks incomplete: 0.00%\n" +
		"  % of tasks overdue: 0.00%\n"
	assert.Equal(t, expected, first.String())
	assert.Equal(t, first.String(), second.String())
}

func TestPrintStatistics(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{task("AliceB", "14 Mar 2024", model.CompletionNo)}
	var buf bytes.Buffer

	err := report.PrintStatistics(&buf,
		report.ComputeTaskOverview(tasks, today),
		report.ComputeUserOverview(tasks, []string{"AliceB"}, today))

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "TASK OVERVIEW REPORT:")
	assert.Contains(t, output, "USER OVERVIEW REPORT:")
	assert.Contains(t, output, "100.00%")
	assert.True(t, strings.Contains(output, "AliceB"))
}

func TestPrintTasks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.PrintTasks(&buf, nil))
	assert.Equal(t, "There are no tasks to display.\n", buf.String())

	buf.Reset()
	tasks := []model.NumberedTask{{Task: task("Bobby", "20 Mar 2024", model.CompletionNo), Position: 3}}
	require.NoError(t, report.PrintTasks(&buf, tasks))
	assert.Contains(t, buf.String(), "Task No.")
	assert.Contains(t, buf.String(), "Task for Bobby")
	assert.Regexp(t, `(?m)^3\s+Bobby`, buf.String())
}
