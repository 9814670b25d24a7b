package testvotes

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/slopguard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the vote test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Slopguard Vote Test Tool
========================

Plays random scan renders and votes against a running slopguard service, then
checks the ledger over HTTP: biases stay within [-1, 1], a creator is nudged at
most once per content item, and /v1/creators is ordered by absolute bias.
The service should have no other writers while the test runs.

Usage:
  go run cmd/test-votes/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -votes int
        Number of votes to generate and submit (default 2000)
  -creators int
        Number of distinct creators (default 25)
  -content int
        Content items per creator (default 8)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -seed uint
        Seed for the vote plan, 0 picks one (default 0)
  -output string
        Output file for the vote plan (default: generated_votes_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-votes/main.go

  # Replay a plan shape against another port
  go run cmd/test-votes/main.go -votes 10000 -seed 42 -url http://localhost:9090
`)
}
