package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g. TASKTRACK_DATA_DIR.
const EnvPrefix = "TASKTRACK"

type Config struct {
	Env       string        `yaml:"env"`        // Env is the current environment: local, development, production.
	DataDir   string        `yaml:"data_dir"`   // DataDir is the directory relative file paths are resolved against.
	AdminUser string        `yaml:"admin_user"` // AdminUser may register users, delete tasks and see reports.
	Files     FilesConfig   `yaml:"files"`      // Files holds the names of the backing and report files.
	Metrics   MetricsConfig `yaml:"metrics"`    // Metrics holds the optional metrics export settings.
}

// FilesConfig struct holds the locations of every file the tracker reads or writes.
type FilesConfig struct {
	Tasks        string `yaml:"tasks"`         // Tasks is the six-line-per-record task file.
	Users        string `yaml:"users"`         // Users is the `username, password` credential file.
	TaskOverview string `yaml:"task_overview"` // TaskOverview is the derived task statistics report.
	UserOverview string `yaml:"user_overview"` // UserOverview is the derived per-user statistics report.
}

// MetricsConfig struct holds the metrics export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // Textfile is where metrics are dumped after every run; empty disables it.
}

// Load reads the configuration from configPath (optional) and the environment.
// Environment variables take precedence over the file, the file over the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("env", "production")
	v.SetDefault("data_dir", ".")
	v.SetDefault("admin_user", "Administrator")
	v.SetDefault("files.tasks", "tasks.txt")
	v.SetDefault("files.users", "user.txt")
	v.SetDefault("files.task_overview", "task_overview.txt")
	v.SetDefault("files.user_overview", "user_overview.txt")
	v.SetDefault("metrics.textfile", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	cfg := &Config{
		Env:       v.GetString("env"),
		DataDir:   v.GetString("data_dir"),
		AdminUser: v.GetString("admin_user"),
		Files: FilesConfig{
			Tasks:        v.GetString("files.tasks"),
			Users:        v.GetString("files.users"),
			TaskOverview: v.GetString("files.task_overview"),
			UserOverview: v.GetString("files.user_overview"),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
	}

	if strings.TrimSpace(cfg.AdminUser) == "" {
		return nil, errors.New("admin_user must not be empty")
	}

	return cfg, nil
}

// MustLoad loads the configuration from the file named by TASKTRACK_CONFIG, if any,
// and panics on error.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv(EnvPrefix + "_CONFIG"))
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Path resolves a configured file name against DataDir.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *Config) TasksPath() string        { return c.Path(c.Files.Tasks) }
func (c *Config) UsersPath() string        { return c.Path(c.Files.Users) }
func (c *Config) TaskOverviewPath() string { return c.Path(c.Files.TaskOverview) }
func (c *Config) UserOverviewPath() string { return c.Path(c.Files.UserOverview) }
