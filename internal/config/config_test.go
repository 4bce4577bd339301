package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
}

func TestDefaultHTTPConfig(t *testing.T) {
	cfg := Default()
	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.HTTP.StaticDir != "web" {
		t.Errorf("HTTP.StaticDir = %q, want %q", cfg.HTTP.StaticDir, "web")
	}
}

func TestDefaultBanConfig(t *testing.T) {
	cfg := Default()
	if cfg.Ban.SweepInterval != 30*time.Second {
		t.Errorf("Ban.SweepInterval = %v, want %v", cfg.Ban.SweepInterval, 30*time.Second)
	}
	if cfg.Ban.CompactionThreshold != 4096 {
		t.Errorf("Ban.CompactionThreshold = %d, want 4096", cfg.Ban.CompactionThreshold)
	}
}

func TestDefaultVoteConfig(t *testing.T) {
	cfg := Default()
	if cfg.Vote.Threshold != 3 {
		t.Errorf("Vote.Threshold = %d, want 3", cfg.Vote.Threshold)
	}
	if cfg.Vote.ExecutorInterval != 10*time.Second {
		t.Errorf("Vote.ExecutorInterval = %v, want %v", cfg.Vote.ExecutorInterval, 10*time.Second)
	}
	if cfg.Vote.ExpiryWindow != 24*time.Hour {
		t.Errorf("Vote.ExpiryWindow = %v, want %v", cfg.Vote.ExpiryWindow, 24*time.Hour)
	}
	if cfg.Vote.UnexecutedTTL != 0 {
		t.Errorf("Vote.UnexecutedTTL = %v, want 0 (disabled by default)", cfg.Vote.UnexecutedTTL)
	}
}

func TestDefaultPathsConfig(t *testing.T) {
	cfg := Default()
	if cfg.Paths.DataDir != "data" {
		t.Errorf("Paths.DataDir = %q, want %q", cfg.Paths.DataDir, "data")
	}
	if cfg.Paths.Socket != ".bouncer/bouncer.sock" {
		t.Errorf("Paths.Socket = %q, want %q", cfg.Paths.Socket, ".bouncer/bouncer.sock")
	}
}

func TestPathsConfig_RecordFilesJoinDataDir(t *testing.T) {
	p := PathsConfig{DataDir: "somedir"}
	if got, want := p.PlayersFile(), filepath.Join("somedir", "players.list"); got != want {
		t.Errorf("PlayersFile() = %q, want %q", got, want)
	}
	if got, want := p.BannedFile(), filepath.Join("somedir", "banned.list"); got != want {
		t.Errorf("BannedFile() = %q, want %q", got, want)
	}
	if got, want := p.RequestsFile(), filepath.Join("somedir", "requests.dat"); got != want {
		t.Errorf("RequestsFile() = %q, want %q", got, want)
	}
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := Default()
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.MaxSizeMB != 100 {
		t.Errorf("Log.MaxSizeMB = %d, want 100", cfg.Log.MaxSizeMB)
	}
}

func TestDefaultDashboardConfig(t *testing.T) {
	cfg := Default()
	if !cfg.Dashboard.Enabled || !cfg.Dashboard.AutoDetect {
		t.Errorf("expected dashboard enabled and auto-detect by default, got %+v", cfg.Dashboard)
	}
}
