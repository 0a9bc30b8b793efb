package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bryan-cox/tasktrack/internal/auth"
	"github.com/bryan-cox/tasktrack/internal/clipboard"
	"github.com/bryan-cox/tasktrack/internal/codec"
	"github.com/bryan-cox/tasktrack/internal/config"
	"github.com/bryan-cox/tasktrack/internal/lib/logger/sl"
	"github.com/bryan-cox/tasktrack/internal/metrics"
	"github.com/bryan-cox/tasktrack/internal/report"
	"github.com/bryan-cox/tasktrack/internal/store"
	"github.com/bryan-cox/tasktrack/internal/tasks"
)

// --- Cobra Command Definitions ---

var (
	// Used for flags.
	configPath string
	username   string
	password   string

	newUsername     string
	newPassword     string
	confirmPassword string

	assignee    string
	title       string
	description string
	dueDate     string

	onlyMine      bool
	onlyCompleted bool
	copyOverview  bool
	exportFormat  string
	exportOutput  string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:           "tasktrack",
		Short:         "A CLI task tracker that keeps its data in plain-text files.",
		Long:          `tasktrack records tasks and users in plain-text files, lets team members add and update their tasks, and generates task and user overview reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Register a new user (administrator only).",
		Long:  `Adds a username and password to the credential file. When the file is empty, the administrator account can be registered without logging in.`,
		Args:  cobra.NoArgs,
		RunE:  withApp(runRegisterCommand),
	}

	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a new task.",
		Long:  `Adds a task assigned to a user. The date of assignment is today and the task starts out incomplete.`,
		Args:  cobra.NoArgs,
		RunE:  withApp(runAddCommand),
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List tasks.",
		Long:  `Lists all tasks, only your tasks (--mine) or only completed tasks (--completed, administrator only).`,
		Args:  cobra.NoArgs,
		RunE:  withApp(runListCommand),
	}

	deleteCmd = &cobra.Command{
		Use:   "delete TASK_NUMBER",
		Short: "Delete a task (administrator only).",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runDeleteCommand),
	}

	completeCmd = &cobra.Command{
		Use:   "complete TASK_NUMBER",
		Short: "Mark one of your tasks as complete.",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCompleteCommand),
	}

	editCmd = &cobra.Command{
		Use:   "edit TASK_NUMBER",
		Short: "Reassign or reschedule one of your open tasks.",
		Long:  `Changes the assignee and/or the due date of an incomplete task assigned to you. Flags left empty keep their current value.`,
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runEditCommand),
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Generate the task and user overview reports (administrator only).",
		Args:  cobra.NoArgs,
		RunE:  withApp(runReportCommand),
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Display task and user statistics (administrator only).",
		Long:  `Prints the task and user overviews as tables, generating the report files first if they are missing.`,
		Args:  cobra.NoArgs,
		RunE:  withApp(runStatsCommand),
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export all tasks in a structured format.",
		Args:  cobra.NoArgs,
		RunE:  withApp(runExportCommand),
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", sl.Err(err))
		os.Exit(1)
	}
}

func init() {
	// Add persistent flags to the root command (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults to $TASKTRACK_CONFIG).")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "Username to log in with (defaults to $TASKTRACK_USER).")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Password to log in with (defaults to $TASKTRACK_PASSWORD).")

	registerCmd.Flags().StringVar(&newUsername, "username", "", "Username of the new user.")
	registerCmd.Flags().StringVar(&newPassword, "new-password", "", "Password of the new user.")
	registerCmd.Flags().StringVar(&confirmPassword, "confirm-password", "", "The new password again.")

	addCmd.Flags().StringVar(&assignee, "assignee", "", "Username of the person the task is assigned to.")
	addCmd.Flags().StringVar(&title, "title", "", "Title of the task.")
	addCmd.Flags().StringVar(&description, "description", "", "Description of the task.")
	addCmd.Flags().StringVar(&dueDate, "due", "", "Due date (DD Mon YYYY, e.g. 05 Jan 2025).")

	listCmd.Flags().BoolVar(&onlyMine, "mine", false, "Only show tasks assigned to you.")
	listCmd.Flags().BoolVar(&onlyCompleted, "completed", false, "Only show completed tasks.")

	editCmd.Flags().StringVar(&assignee, "assignee", "", "New assignee.")
	editCmd.Flags().StringVar(&dueDate, "due", "", "New due date (DD Mon YYYY).")

	statsCmd.Flags().BoolVar(&copyOverview, "copy", false, "Copy the task overview report to the clipboard.")

	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Export format (yaml or text).")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of standard output.")

	// Add subcommands to the root command
	rootCmd.AddCommand(registerCmd, addCmd, listCmd, deleteCmd, completeCmd, editCmd, reportCmd, statsCmd, exportCmd)
}

// --- Main Application Entry Point ---

func main() {
	// Setup structured JSON logger for errors.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	Execute()
}

// --- Application Wiring ---

// application holds everything one command invocation works with.
type application struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	taskRepo *store.TaskStore
	userRepo *store.UserStore
	auth     *auth.Authenticator
	tasks    *tasks.TaskService
}

func newApplication(cmd *cobra.Command) (*application, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	logger := sl.New(cfg.Env, cmd.ErrOrStderr())
	registry := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(registry)

	taskRepo := store.NewTaskStore(cfg.TasksPath(), logger, appMetrics)
	if _, err := taskRepo.LoadAll(); err != nil {
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}
	if n := taskRepo.Skipped(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d malformed task record(s) in %s\n", n, taskRepo.Path())
	}
	userRepo := store.NewUserStore(cfg.UsersPath(), logger, appMetrics)

	return &application{
		cfg:      cfg,
		log:      logger,
		registry: registry,
		taskRepo: taskRepo,
		userRepo: userRepo,
		auth:     auth.NewAuthenticator(logger, userRepo, cfg.AdminUser),
		tasks: tasks.NewTaskService(logger, taskRepo, userRepo,
			tasks.ReportPaths{TaskOverview: cfg.TaskOverviewPath(), UserOverview: cfg.UserOverviewPath()},
			cfg.AdminUser,
			tasks.WithMetrics(appMetrics),
		),
	}, nil
}

// withApp builds the application before running fn and flushes metrics afterwards.
func withApp(fn func(cmd *cobra.Command, app *application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cmd)
		if err != nil {
			return err
		}
		runErr := fn(cmd, app, args)
		if app.cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(app.cfg.Metrics.Textfile, app.registry); err != nil {
				app.log.Warn("failed to write metrics", sl.Err(err))
			}
		}
		return runErr
	}
}

// login authenticates the --user/--password pair and returns the username.
func (app *application) login() (string, error) {
	user, pass := username, password
	if user == "" {
		user = os.Getenv("TASKTRACK_USER")
	}
	if pass == "" {
		pass = os.Getenv("TASKTRACK_PASSWORD")
	}
	if user == "" {
		return "", errors.New("no user given: use --user/--password or TASKTRACK_USER/TASKTRACK_PASSWORD")
	}
	if err := app.auth.Login(user, pass); err != nil {
		return "", err
	}
	return user, nil
}

func (app *application) loginAdmin() (string, error) {
	user, err := app.login()
	if err != nil {
		return "", err
	}
	if !app.auth.IsAdmin(user) {
		return "", tasks.ErrForbidden
	}
	return user, nil
}

// --- Command Execution Logic ---

func runRegisterCommand(cmd *cobra.Command, app *application, _ []string) error {
	users, err := app.userRepo.LoadAll()
	if err != nil {
		return err
	}

	// An empty credential file can only be seeded with the administrator account.
	var actor string
	if len(users) > 0 {
		if actor, err = app.loginAdmin(); err != nil {
			return err
		}
	}

	if err := app.auth.Register(actor, auth.RegisterInput{
		Username:        newUsername,
		Password:        newPassword,
		ConfirmPassword: confirmPassword,
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "You have successfully registered %s.\n", newUsername)
	return nil
}

func runAddCommand(cmd *cobra.Command, app *application, _ []string) error {
	if _, err := app.login(); err != nil {
		return err
	}

	task, err := app.tasks.Capture(tasks.CaptureInput{
		AssignedTo:  assignee,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %d '%s' has been successfully added.\n", app.taskRepo.Len(), task.Title)
	return nil
}

func runListCommand(cmd *cobra.Command, app *application, _ []string) error {
	user, err := app.login()
	if err != nil {
		return err
	}

	switch {
	case onlyCompleted:
		if !app.auth.IsAdmin(user) {
			return tasks.ErrForbidden
		}
		return report.PrintTasks(cmd.OutOrStdout(), app.tasks.Completed())
	case onlyMine:
		return report.PrintTasks(cmd.OutOrStdout(), app.tasks.Mine(user))
	default:
		return report.PrintTasks(cmd.OutOrStdout(), app.tasks.All())
	}
}

func runDeleteCommand(cmd *cobra.Command, app *application, args []string) error {
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	user, err := app.loginAdmin()
	if err != nil {
		return err
	}

	deleted, err := app.tasks.Delete(user, position)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' deleted successfully.\n", deleted.Title)
	return nil
}

func runCompleteCommand(cmd *cobra.Command, app *application, args []string) error {
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	user, err := app.login()
	if err != nil {
		return err
	}

	changed, err := app.tasks.MarkComplete(user, position)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "Task is already marked as complete.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task marked as complete.")
	return nil
}

func runEditCommand(cmd *cobra.Command, app *application, args []string) error {
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	user, err := app.login()
	if err != nil {
		return err
	}

	changed, err := app.tasks.Edit(user, position, tasks.EditInput{AssignedTo: assignee, DueDate: dueDate})
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes made.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task updated successfully.")
	return nil
}

func runReportCommand(cmd *cobra.Command, app *application, _ []string) error {
	if _, err := app.loginAdmin(); err != nil {
		return err
	}
	if err := app.tasks.GenerateReports(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Reports generated successfully.")
	return nil
}

func runStatsCommand(cmd *cobra.Command, app *application, _ []string) error {
	if _, err := app.loginAdmin(); err != nil {
		return err
	}
	if err := app.tasks.DisplayStatistics(cmd.OutOrStdout()); err != nil {
		return err
	}

	if copyOverview {
		taskOverview, _, err := app.tasks.Overviews()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := report.WriteTaskOverview(&buf, taskOverview); err != nil {
			return err
		}
		if err := clipboard.CopyText(buf.String()); err != nil {
			app.log.Warn("could not copy to clipboard", sl.Err(err))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Task overview copied to clipboard.")
	}
	return nil
}

func runExportCommand(cmd *cobra.Command, app *application, _ []string) error {
	if _, err := app.login(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch exportFormat {
	case "yaml":
		data, err = codec.EncodeYAML(app.taskRepo.Snapshot())
	case "text":
		data = codec.EncodeAll(app.taskRepo.Snapshot())
	default:
		err = fmt.Errorf("unknown export format %q", exportFormat)
	}
	if err != nil {
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return store.WriteFileAtomic(exportOutput, data, 0o644)
}

// --- Helper Functions ---

func parsePosition(arg string) (int, error) {
	position, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", tasks.ErrOutOfRange, arg)
	}
	return position, nil
}
