package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bryan-cox/tasktrack/internal/model"
)

// Section headers for terminal output.
const (
	TextHeaderTaskOverview = "\nTASK OVERVIEW REPORT:"
	TextHeaderUserOverview = "\nUSER OVERVIEW REPORT:"
)

// WriteTaskOverview writes the task overview report in its file format.
func WriteTaskOverview(out io.Writer, o TaskOverview) error {
	_, err := fmt.Fprintf(out,
		"Total number of tasks: %d\n"+
			"Total number of completed tasks: %d\n"+
			"Total number of uncompleted tasks: %d\n"+
			"Total number of overdue tasks: %d\n"+
			"Percentage of tasks incomplete: %.2f%%\n"+
			"Percentage of tasks overdue: %.2f%%\n",
		o.Total, o.Completed, o.Uncompleted, o.Overdue, o.PctIncomplete, o.PctOverdue)
	return err
}

// WriteUserOverview writes the user overview report in its file format: a two line header
// followed by one block per user, each block preceded by a blank line.
func WriteUserOverview(out io.Writer, o UserOverview) error {
	if _, err := fmt.Fprintf(out, "Total number of users: %d\nTotal number of tasks: %d\n",
		o.TotalUsers, o.TotalTasks); err != nil {
		return err
	}
	for _, row := range o.Rows {
		_, err := fmt.Fprintf(out,
			"\nUser: %s\n"+
				"  Total tasks assigned: %d\n"+
				"  %% of total tasks assigned: %.2f%%\n"+
				"  %% of tasks completed: %.2f%%\n"+
				"  %% of tasks incomplete: %.2f%%\n"+
				"  %% of tasks overdue: %.2f%%\n",
			row.Username, row.Assigned, row.PctOfTotal, row.PctCompleted, row.PctIncomplete, row.PctOverdue)
		if err != nil {
			return err
		}
	}
	return nil
}

// PrintStatistics prints both overviews as tables.
func PrintStatistics(out io.Writer, tasks TaskOverview, users UserOverview) error {
	fmt.Fprintln(out, TextHeaderTaskOverview)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Metric\tValue")
	fmt.Fprintf(tw, "Total Tasks\t%d\n", tasks.Total)
	fmt.Fprintf(tw, "Completed Tasks\t%d\n", tasks.Completed)
	fmt.Fprintf(tw, "Uncompleted Tasks\t%d\n", tasks.Uncompleted)
	fmt.Fprintf(tw, "Overdue Tasks\t%d\n", tasks.Overdue)
	fmt.Fprintf(tw, "%% Incomplete\t%.2f%%\n", tasks.PctIncomplete)
	fmt.Fprintf(tw, "%% Overdue\t%.2f%%\n", tasks.PctOverdue)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, TextHeaderUserOverview)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Username\tTasks Assigned\t% of Total Tasks\t% Completed\t% Incomplete\t% Overdue")
	for _, row := range users.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f%%\n",
			row.Username, row.Assigned, row.PctOfTotal, row.PctCompleted, row.PctIncomplete, row.PctOverdue)
	}
	return tw.Flush()
}

// PrintTasks prints a numbered task listing. Numbers are positions in the task file.
func PrintTasks(out io.Writer, tasks []model.NumberedTask) error {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "There are no tasks to display.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Task No.\tAssigned to\tTask Title\tDescription\tDate of Assignment\tTask Due Date\tTask Completion")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Position, t.AssignedTo, t.Title, t.Description, t.DateAdded, t.DueDate, t.Completion)
	}
	return tw.Flush()
}
