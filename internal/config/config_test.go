package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "plancal/internal/errors"
)

func TestLoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != defaultListen || cfg.RefreshCron != defaultRefresh {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("perm %v", st.Mode().Perm())
	}

	// The written default must load back unchanged.
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.DefaultRange != cfg.DefaultRange || again.MaxOccurrences != cfg.MaxOccurrences {
		t.Fatalf("reloaded %+v", again)
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "files:\n  - path: plan.txt\n  - path: https://example.com/team.plan\n    id: team\nlog_level: DEBUG\nbasic_auth:\n  username: admin\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Parallel != 4 || cfg.BasicAuth != nil {
		t.Fatalf("normalized %+v", cfg)
	}

	srcs := cfg.Sources("/plans")
	if len(srcs) != 2 {
		t.Fatalf("sources %v", srcs)
	}
	if srcs[0].ID != "plan.txt" || srcs[0].Location != filepath.Join("/plans", "plan.txt") {
		t.Fatalf("local source %+v", srcs[0])
	}
	if srcs[1].ID != "team" || srcs[1].Location != "https://example.com/team.plan" {
		t.Fatalf("remote source %+v", srcs[1])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"bad cron", func(c *Config) { c.RefreshCron = "every minute" }, "RefreshCron"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "Timezone"},
		{"bad listen", func(c *Config) { c.Listen = "localhost" }, "Listen"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "LogLevel"},
		{"empty file path", func(c *Config) { c.Files = []FileConfig{{ID: "x"}} }, "Path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !perr.IsKind(err, perr.KindConfig) || !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error %v", err)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location("Europe/Berlin")
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("fallback zone %v %v", loc, err)
	}
	cfg.Timezone = "Asia/Seoul"
	if loc, _ := cfg.Location("Europe/Berlin"); loc.String() != "Asia/Seoul" {
		t.Fatalf("configured zone %v", loc)
	}
	cfg.Timezone = "Nowhere/Else"
	if _, err := cfg.Location(""); !perr.IsKind(err, perr.KindConfig) {
		t.Fatalf("unknown zone %v", err)
	}
}
