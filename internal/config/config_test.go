package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		AccountID:    "acc-1",
		APIToken:     "tok",
		DatabaseID:   "db-1",
		BatchSize:    DefaultBatchSize,
		VectorBatch:  DefaultVectorBatch,
		PollInterval: DefaultPollInterval,
		UserAgent:    DefaultUserAgent,
	}
}

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, iss := range issues {
		if iss.Path == path {
			return iss, true
		}
	}
	return Issue{}, false
}

func TestValidate_OK(t *testing.T) {
	if issues := validConfig().Validate(); len(issues) != 0 {
		t.Fatalf("valid config produced issues: %v", issues)
	}
}

/*
TestValidate_Errors exercises each error-severity finding individually by
breaking one field at a time.
*/
func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		path string
	}{
		{"missing account", func(c *Config) { c.AccountID = "" }, EnvAccountID},
		{"missing token", func(c *Config) { c.APIToken = "" }, EnvAPIToken},
		{"missing database", func(c *Config) { c.DatabaseID = "" }, EnvDatabase},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, "batch-size"},
		{"negative vector batch", func(c *Config) { c.VectorBatch = -1 }, "vector-batch"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "poll-interval"},
		{"mirror without DSN", func(c *Config) { c.MirrorKind = "sqlite" }, "mirror-dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mod(&cfg)
			issues := cfg.Validate()
			iss, ok := findIssue(issues, tt.path)
			if !ok {
				t.Fatalf("no issue for path %q in %v", tt.path, issues)
			}
			if iss.Severity != SeverityError {
				t.Fatalf("severity=%s; want error", iss.Severity)
			}
		})
	}
}

/*
TestValidate_LargeBatchWarning verifies that an oversized batch is a warning,
not a blocker: a batch of 6000 is flagged but produces no error-severity
issue.
*/
func TestValidate_LargeBatchWarning(t *testing.T) {
	cfg := validConfig()
	cfg.BatchSize = 6000

	issues := cfg.Validate()
	iss, ok := findIssue(issues, "batch-size")
	if !ok {
		t.Fatalf("no batch-size issue in %v", issues)
	}
	if iss.Severity != SeverityWarning {
		t.Fatalf("severity=%s; want warning", iss.Severity)
	}
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			t.Fatalf("unexpected error issue: %v", iss)
		}
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "batch-size", Message: "must be positive"}
	if got, want := iss.Error(), "error at batch-size: must be positive"; got != want {
		t.Fatalf("Error()=%q; want %q", got, want)
	}
}

/*
TestFromEnv verifies environment lookup and defaulting. The .env merge is
exercised indirectly: process variables always win, so setting them via
t.Setenv is authoritative.
*/
func TestFromEnv(t *testing.T) {
	t.Setenv(EnvAccountID, "acc-env")
	t.Setenv(EnvAPIToken, "tok-env")
	t.Setenv(EnvDatabase, "db-env")

	cfg := FromEnv()
	if cfg.AccountID != "acc-env" || cfg.APIToken != "tok-env" || cfg.DatabaseID != "db-env" {
		t.Fatalf("credentials not read from environment: %+v", cfg)
	}
	if cfg.BatchSize != DefaultBatchSize || cfg.VectorBatch != DefaultVectorBatch {
		t.Fatalf("batch defaults not applied: %+v", cfg)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval=%v; want 2s", cfg.PollInterval)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Fatalf("UserAgent=%q", cfg.UserAgent)
	}
}
