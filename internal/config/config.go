// Package config centralizes configuration for the ingestion commands:
// Cloudflare credentials and resource IDs, batch sizes, poll timing and the
// optional local mirror.
//
// Credentials come from the environment (optionally seeded from a .env file);
// everything else comes from flags on the individual commands and is filled
// into a Config value there. The package holds no globals: commands pass the
// Config to whatever needs it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names for credentials and resource identifiers.
const (
	EnvAccountID = "CLOUDFLARE_ACCOUNT_ID"
	EnvAPIToken  = "CLOUDFLARE_API_TOKEN"
	EnvDatabase  = "D1_DATABASE_ID"
)

// Defaults used when a flag or variable is unset.
const (
	DefaultBatchSize    = 2000
	DefaultVectorBatch  = 50
	DefaultPollInterval = 2 * time.Second
	DefaultUserAgent    = "route-quebec-worker/1.0"
)

// Config carries everything an ingestion command needs to talk to the
// control plane and shape a run.
type Config struct {
	AccountID  string
	APIToken   string
	DatabaseID string

	VectorIndex string // Vectorize index for embeddings

	BatchSize    int
	VectorBatch  int
	PollInterval time.Duration
	MaxWait      time.Duration // 0 = no budget
	UserAgent    string

	MirrorKind string // "" disables the mirror
	MirrorDSN  string
}

// FromEnv loads credentials and resource IDs from the environment. A .env
// file in the working directory is merged in first when present; real
// environment variables win over file entries.
func FromEnv() Config {
	// godotenv.Load never overrides variables already set in the process.
	_ = godotenv.Load()

	return Config{
		AccountID:    os.Getenv(EnvAccountID),
		APIToken:     os.Getenv(EnvAPIToken),
		DatabaseID:   os.Getenv(EnvDatabase),
		BatchSize:    DefaultBatchSize,
		VectorBatch:  DefaultVectorBatch,
		PollInterval: DefaultPollInterval,
		UserAgent:    DefaultUserAgent,
	}
}

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path names the offending field or environment variable; Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config and returns a list of
// issues. Callers decide whether warnings are fatal; most commands call
// MustValidate instead.
func (c Config) Validate() []Issue {
	var issues []Issue

	if c.AccountID == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvAccountID,
			Message:  "account ID is required before any ingestion can start",
		})
	}
	if c.APIToken == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvAPIToken,
			Message:  "API token is required before any ingestion can start",
		})
	}
	if c.DatabaseID == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvDatabase,
			Message:  "database ID is required for bulk imports",
		})
	}
	if c.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch-size",
			Message:  "batch size must be positive",
		})
	}
	if c.VectorBatch <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "vector-batch",
			Message:  "vector batch size must be positive",
		})
	}
	if c.PollInterval <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "poll-interval",
			Message:  "poll interval must be positive",
		})
	}
	if c.BatchSize > 5000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "batch-size",
			Message:  "very large batches produce payloads the import endpoint may reject",
		})
	}
	if c.MirrorKind != "" && c.MirrorDSN == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mirror-dsn",
			Message:  fmt.Sprintf("mirror backend %q needs a DSN", c.MirrorKind),
		})
	}

	return issues
}

// MustValidate prints every issue to stderr and exits non-zero when any
// error-severity issue is present. Warnings are printed but do not block.
func (c Config) MustValidate() {
	issues := c.Validate()
	fatal := false
	for _, iss := range issues {
		fmt.Fprintln(os.Stderr, iss.Error())
		if iss.Severity == SeverityError {
			fatal = true
		}
	}
	if fatal {
		os.Exit(2)
	}
}
