package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/slopguard/internal/testvotes"
)

// Default configuration constants.
const (
	defaultNumVotes          = 2000
	defaultNumCreators       = 25
	defaultContentPerCreator = 8
	defaultWorkers           = 2 // multiplier for runtime.NumCPU()
	defaultTimeout           = 10 * time.Second
	defaultTestTimeout       = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numVotes   = flag.Int("votes", defaultNumVotes, "Number of votes to generate and submit")
		creators   = flag.Int("creators", defaultNumCreators, "Number of distinct creators")
		content    = flag.Int("content", defaultContentPerCreator, "Content items per creator")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Seed for the vote plan, 0 picks one")
		outputFile = flag.String("output", "", "Output file for the vote plan (default: generated_votes_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testvotes.ShowHelp()
		return
	}

	if err := testvotes.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testvotes.Config{
		BaseURL:           *baseURL,
		NumVotes:          *numVotes,
		NumCreators:       *creators,
		ContentPerCreator: *content,
		Workers:           *workers,
		Timeout:           *timeout,
		Seed:              *seed,
		OutputFile:        *outputFile,
		LogFile:           *logFile,
		Verbose:           *verbose,
	}

	if err := testvotes.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
