// Package report computes task statistics and renders the overview reports.
package report

import (
	"time"

	"github.com/bryan-cox/tasktrack/internal/model"
)

// TaskOverview holds the statistics over the whole task collection.
type TaskOverview struct {
	Total         int
	Completed     int
	Uncompleted   int
	Overdue       int
	PctIncomplete float64
	PctOverdue    float64
}

// UserStats holds the statistics for the tasks assigned to one user.
type UserStats struct {
	Username      string
	Assigned      int
	PctOfTotal    float64
	PctCompleted  float64
	PctIncomplete float64
	PctOverdue    float64
}

// UserOverview holds one row per registered user, in registration order.
type UserOverview struct {
	TotalUsers int
	TotalTasks int
	Rows       []UserStats
}

// IsOverdue returns true if the task is still open and its due date lies strictly before
// today. A due date that does not parse never makes a task overdue.
func IsOverdue(task model.Task, today time.Time) bool {
	if task.IsComplete() {
		return false
	}
	due, err := model.ParseDate(task.DueDate)
	if err != nil {
		return false
	}
	return model.Day(due).Before(model.Day(today))
}

// ComputeTaskOverview aggregates counts and percentages over tasks.
func ComputeTaskOverview(tasks []model.Task, today time.Time) TaskOverview {
	overview := TaskOverview{Total: len(tasks)}
	for _, task := range tasks {
		if task.IsComplete() {
			overview.Completed++
		}
		if IsOverdue(task, today) {
			overview.Overdue++
		}
	}
	overview.Uncompleted = overview.Total - overview.Completed
	overview.PctIncomplete = percent(overview.Uncompleted, overview.Total)
	overview.PctOverdue = percent(overview.Overdue, overview.Total)
	return overview
}

// ComputeUserOverview builds one row per distinct username, in the order given.
// Tasks assigned to names missing from usernames are not reported on.
func ComputeUserOverview(tasks []model.Task, usernames []string, today time.Time) UserOverview {
	seen := make(map[string]bool, len(usernames))
	var users []string
	for _, u := range usernames {
		if seen[u] {
			continue
		}
		seen[u] = true
		users = append(users, u)
	}

	overview := UserOverview{
		TotalUsers: len(users),
		TotalTasks: len(tasks),
		Rows:       make([]UserStats, 0, len(users)),
	}

	for _, u := range users {
		var assigned, completed, overdue int
		for _, task := range tasks {
			if task.AssignedTo != u {
				continue
			}
			assigned++
			if task.IsComplete() {
				completed++
			}
			if IsOverdue(task, today) {
				overdue++
			}
		}
		overview.Rows = append(overview.Rows, UserStats{
			Username:      u,
			Assigned:      assigned,
			PctOfTotal:    percent(assigned, len(tasks)),
			PctCompleted:  percent(completed, assigned),
			PctIncomplete: percent(assigned-completed, assigned),
			PctOverdue:    percent(overdue, assigned),
		})
	}
	return overview
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
