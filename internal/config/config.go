// Package config provides layered configuration types and loading for
// bouncer: defaults, global file, project file, explicit file, environment,
// and flags, in ascending precedence.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all configuration for bouncer.
type Config struct {
	Child     ChildConfig     `yaml:"child" mapstructure:"child"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Ban       BanConfig       `yaml:"ban" mapstructure:"ban"`
	Vote      VoteConfig      `yaml:"vote" mapstructure:"vote"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
}

// ChildConfig controls the supervised shell command.
type ChildConfig struct {
	Command       string `yaml:"command" mapstructure:"command"`
	RestartOnExit bool   `yaml:"restart_on_exit" mapstructure:"restart_on_exit"`
}

// HTTPConfig controls the admin HTTP API.
type HTTPConfig struct {
	Port      int    `yaml:"port" mapstructure:"port"`
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// BanConfig holds ban-sweep and LineBuffer compaction settings. Neither
// field is read by the rest of the program: the ban sweeper runs every
// bans.SweepInterval and the child's LineBuffers use
// linebuf.DefaultCompactionThreshold.
type BanConfig struct {
	SweepInterval       time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	CompactionThreshold int           `yaml:"compaction_threshold" mapstructure:"compaction_threshold"`
}

// VoteConfig holds vote-engine settings. Only Threshold is passed to the
// engine; ExecutorInterval and ExpiryWindow are not read, and the engine
// uses votes.ExecutorSweepInterval and votes.ExpiryWindow instead.
type VoteConfig struct {
	Threshold        int           `yaml:"threshold" mapstructure:"threshold"`
	ExecutorInterval time.Duration `yaml:"executor_interval" mapstructure:"executor_interval"`
	ExpiryWindow     time.Duration `yaml:"expiry_window" mapstructure:"expiry_window"`
	// UnexecutedTTL records a lifetime for unexecuted requests, default 0.
	// The vote engine does not read it: unexecuted requests never expire,
	// whatever its value.
	UnexecutedTTL time.Duration `yaml:"unexecuted_ttl" mapstructure:"unexecuted_ttl"`
}

// PathsConfig holds all on-disk locations.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" mapstructure:"data_dir"`
	UploadDir     string `yaml:"upload_dir" mapstructure:"upload_dir"`
	OpsFile       string `yaml:"ops_file" mapstructure:"ops_file"`
	ForbiddenList string `yaml:"forbidden_list" mapstructure:"forbidden_list"`
	Socket        string `yaml:"socket" mapstructure:"socket"`
	PID           string `yaml:"pid" mapstructure:"pid"`
}

// PlayersFile returns the path to the known-players record, under DataDir.
func (p PathsConfig) PlayersFile() string { return filepath.Join(p.DataDir, "players.list") }

// BannedFile returns the path to the active-bans record, under DataDir.
func (p PathsConfig) BannedFile() string { return filepath.Join(p.DataDir, "banned.list") }

// RequestsFile returns the path to the command-request queue, under DataDir.
func (p PathsConfig) RequestsFile() string { return filepath.Join(p.DataDir, "requests.dat") }

// LogConfig controls structured logging and rotation.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DashboardConfig controls the optional terminal dashboard.
type DashboardConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	AutoDetect bool `yaml:"auto_detect" mapstructure:"auto_detect"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Child: ChildConfig{
			RestartOnExit: false,
		},
		HTTP: HTTPConfig{
			Port:      8080,
			StaticDir: "web",
		},
		Ban: BanConfig{
			SweepInterval:       30 * time.Second,
			CompactionThreshold: 4096,
		},
		Vote: VoteConfig{
			Threshold:        3,
			ExecutorInterval: 10 * time.Second,
			ExpiryWindow:     24 * time.Hour,
			UnexecutedTTL:    0,
		},
		Paths: PathsConfig{
			DataDir:       "data",
			UploadDir:     "data/uploads",
			OpsFile:       "server/ops.json",
			ForbiddenList: "data/forbidden_commands.list",
			Socket:        ".bouncer/bouncer.sock",
			PID:           ".bouncer/bouncer.pid",
		},
		Log: LogConfig{
			Level:      "info",
			File:       ".bouncer/bouncer.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Dashboard: DashboardConfig{
			Enabled:    true,
			AutoDetect: true,
		},
	}
}
