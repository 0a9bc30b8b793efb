package store_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/tasktrack/internal/codec"
	"github.com/bryan-cox/tasktrack/internal/metrics"
	"github.com/bryan-cox/tasktrack/internal/model"
	"github.com/bryan-cox/tasktrack/internal/store"
)

const taskFile = `Assigned to: admin,
Task Title: Add functionality to task manager,
Description: Add additional options and refactor the code.,
Date of Assignment: 25 Nov 2022,
Task Due Date: 25 Dec 2022,
Task Completion: No

Assigned to: AliceB,
Task Title: Register users with taskManager.py,
Description: Use taskManager.py to add the usernames and passwords for all team members.,
Date of Assignment: 10 Oct 2019,
Task Due Date: 20 Oct 2019,
Task Completion: yes
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTaskStore(t *testing.T, content string) (*store.TaskStore, string) {
	t.Helper()
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "tasks.txt")
	if content != "" {
		filet.File(t, path, content)
	}
	return store.NewTaskStore(path, discardLogger(), nil), path
}

func TestTaskStore_LoadAll(t *testing.T) {
	defer filet.CleanUp(t)
	s, _ := newTaskStore(t, taskFile)

	tasks, err := s.LoadAll()

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "admin", tasks[0].AssignedTo)
	assert.Equal(t, "Register users with taskManager.py", tasks[1].Title)
	assert.Equal(t, model.CompletionYes, tasks[1].Completion)
	assert.Equal(t, 2, s.Len())
	assert.Zero(t, s.Skipped())
}

func TestTaskStore_LoadAll_MissingFile(t *testing.T) {
	defer filet.CleanUp(t)
	s, _ := newTaskStore(t, "")

	tasks, err := s.LoadAll()

	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, s.Len())
}

func TestTaskStore_LoadAll_SkipsMalformed(t *testing.T) {
	defer filet.CleanUp(t)

	corrupt := "Assigned to: Bob,\nTitle: oops,\nDescription: x,\nDate of Assignment: 01 Jan 2024,\n" +
		"Task Due Date: 02 Jan 2024,\nTask Completion: No\n"
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "tasks.txt")
	filet.File(t, path, corrupt+"\n"+taskFile)
	s := store.NewTaskStore(path, discardLogger(), m)

	tasks, err := s.LoadAll()

	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, 1, s.Skipped())
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("tasks")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RecordsLoaded.WithLabelValues("tasks")), 0)
}

func TestTaskStore_SaveAll_Idempotent(t *testing.T) {
	defer filet.CleanUp(t)
	s, path := newTaskStore(t, taskFile)

	tasks, err := s.LoadAll()
	require.NoError(t, err)
	require.NoError(t, s.SaveAll(tasks))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	tasks, err = s.LoadAll()
	require.NoError(t, err)
	require.NoError(t, s.SaveAll(tasks))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(codec.EncodeAll(tasks)), string(second))
	assert.Contains(t, string(second), "Task Completion: Yes\n")
}

func TestTaskStore_SaveAll_ReplacesCollection(t *testing.T) {
	defer filet.CleanUp(t)
	s, _ := newTaskStore(t, taskFile)

	tasks, err := s.LoadAll()
	require.NoError(t, err)

	require.NoError(t, s.SaveAll(tasks[1:]))

	assert.Equal(t, tasks[1:], s.Snapshot())
	reloaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, tasks[1:], reloaded)
}

func TestTaskStore_SaveAll_FailureKeepsCollection(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := store.NewTaskStore(filepath.Join(blocker, "tasks.txt"), discardLogger(), nil)

	err := s.SaveAll([]model.Task{{AssignedTo: "AliceB", Completion: model.CompletionNo}})

	require.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestTaskStore_AppendOne(t *testing.T) {
	defer filet.CleanUp(t)
	// The file deliberately lacks a final newline.
	s, path := newTaskStore(t, taskFile[:len(taskFile)-1])

	_, err := s.LoadAll()
	require.NoError(t, err)

	task := model.Task{
		AssignedTo:  "Bobby",
		Title:       "New task",
		Description: "Appended",
		DateAdded:   "01 Jan 2025",
		DueDate:     "05 Jan 2025",
		Completion:  model.CompletionNo,
	}
	require.NoError(t, s.AppendOne(task))

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, task, snapshot[2])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, filet.Exists(t, path))
	assert.Contains(t, string(data), "Task Completion: yes\n"+string(codec.Encode(task)))

	reloaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, snapshot, reloaded)
}

func TestTaskStore_AppendOne_CreatesFile(t *testing.T) {
	defer filet.CleanUp(t)
	s, path := newTaskStore(t, "")

	task := model.Task{AssignedTo: "Bobby", Title: "T", DateAdded: "01 Jan 2025", DueDate: "02 Jan 2025",
		Completion: model.CompletionNo}
	require.NoError(t, s.AppendOne(task))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(codec.Encode(task)), string(data))
}

func TestTaskStore_SnapshotIsACopy(t *testing.T) {
	defer filet.CleanUp(t)
	s, _ := newTaskStore(t, taskFile)
	_, err := s.LoadAll()
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[0].Title = "changed"

	assert.Equal(t, "Add functionality to task manager", s.Snapshot()[0].Title)
}

func TestUserStore(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "user.txt")
	filet.File(t, path, "admin, password\nAliceB, Passw0rd!\n\nbroken line\nadmin, other\nBobby, a, b\n")

	s := store.NewUserStore(path, discardLogger(), nil)

	users, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []model.User{
		{Username: "admin", Password: "password"},
		{Username: "AliceB", Password: "Passw0rd!"},
		{Username: "admin", Password: "other"},
	}, users)

	names, err := s.Usernames()
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "AliceB"}, names)

	ok, err := s.Exists("AliceB")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists("Bobby")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserStore_MissingFile(t *testing.T) {
	s := store.NewUserStore(filepath.Join(t.TempDir(), "user.txt"), discardLogger(), nil)

	names, err := s.Usernames()

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUserStore_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.txt")
	s := store.NewUserStore(path, discardLogger(), nil)

	require.NoError(t, s.Append(model.User{Username: "AliceB", Password: "Passw0rd!"}))
	require.NoError(t, s.Append(model.User{Username: "Bobby", Password: "S3cret!x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AliceB, Passw0rd!\nBobby, S3cret!x\n", string(data))

	require.Error(t, s.Append(model.User{Username: "Carol", Password: "a, b"}))
	require.Error(t, s.Append(model.User{Username: "Carol\nx", Password: "ab"}))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.txt")

	require.NoError(t, store.WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, store.WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
