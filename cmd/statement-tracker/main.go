package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/mfinn/statement-tracker/internal/extraction"
	"github.com/mfinn/statement-tracker/internal/statement"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("statement-tracker")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "statement-tracker.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./statements", "Statement storage directory")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llama3.2", "Ollama model name")
		enableMock     = fs.BoolLong("enable-mock", "Register the mock provider as a last-resort fallback")
		processTimeout = fs.DurationLong("process-timeout", 3*time.Minute, "Maximum duration of one extraction run")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("STATEMENT_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := statement.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...")
	store, err := statement.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Providers are probed in registration order: Gemini when a key is
	// configured, then Ollama, then the mock fallback if enabled
	var providers []extraction.Provider

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		slog.Info("Registering Gemini provider", "model", *geminiModel)
		gemini, err := extraction.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		providers = append(providers, gemini)
	}

	slog.Info("Registering Ollama provider", "url", *ollamaURL, "model", *ollamaModel)
	ollama, err := extraction.NewOllama(*ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize Ollama", "error", err)
		os.Exit(1)
	}
	providers = append(providers, ollama)

	if *enableMock {
		slog.Info("Registering mock provider")
		providers = append(providers, extraction.NewMock())
	}

	selector := extraction.NewSelector(providers...)
	defer selector.Close()

	service := statement.NewService(db, store, selector)
	service.SetProcessTimeout(*processTimeout)

	basicAuth := statement.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := statement.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
