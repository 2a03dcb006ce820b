package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/zombor/fuel-logger/internal/fuel"
	"github.com/zombor/fuel-logger/internal/ledger"
	"github.com/zombor/fuel-logger/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("fuel-logger")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "fuel-logger.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./receipts", "Storage directory path")
		engineName    = fs.StringLong("engine", "tesseract", "Default OCR engine: 'tesseract', 'gemini' or 'ollama'")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Tesseract language")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var); enables the gemini engine")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		enableOllama  = fs.BoolLong("enable-ollama", "Enable the ollama engine")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		sheetsID      = fs.StringLong("sheets-id", "", "Google Sheets spreadsheet ID for the fuel log (optional)")
		sheetsRange   = fs.StringLong("sheets-range", "Sheet1", "Sheet name or A1 range rows are appended to")
		sheetsCreds   = fs.StringLong("sheets-credentials", "", "Service account JSON file for Google Sheets")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_LOGGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	defaultEngine, err := scanning.ParseEngine(*engineName)
	if err != nil {
		slog.Error("Invalid OCR engine", "engine", *engineName, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := fuel.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR engines. Tesseract is always tried; the vision models
	// only when configured.
	openers := map[scanning.Engine]scanning.Opener{
		scanning.EngineTesseract: func() (scanning.Scanner, error) {
			slog.Info("Initializing Tesseract scanner...", "language", *tesseractLang)
			return scanning.NewTesseract(*tesseractLang)
		},
	}

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		openers[scanning.EngineGemini] = func() (scanning.Scanner, error) {
			slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
			return scanning.NewGemini(apiKey, *geminiModel)
		}
	}

	if *enableOllama {
		openers[scanning.EngineOllama] = func() (scanning.Scanner, error) {
			slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
			return scanning.NewOllama(*ollamaURL, *ollamaModel)
		}
	}

	scanners, err := scanning.Load(openers, defaultEngine)
	if err != nil {
		slog.Error("Failed to initialize OCR engines", "error", err)
		os.Exit(1)
	}
	defer func() {
		for _, sc := range scanners {
			sc.Close()
		}
	}()

	// Initialize ledger
	var sink ledger.Sink = ledger.Discard{}
	if *sheetsID != "" {
		opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
		if *sheetsCreds != "" {
			opts = append(opts, option.WithCredentialsFile(*sheetsCreds))
		}
		slog.Info("Initializing Google Sheets ledger...", "spreadsheet", *sheetsID, "range", *sheetsRange)
		sink, err = ledger.NewSheets(*sheetsID, *sheetsRange, opts...)
		if err != nil {
			slog.Error("Failed to initialize Google Sheets", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("No spreadsheet configured, receipts will not be logged")
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := fuel.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := fuel.NewService(db, scanners, defaultEngine, store, sink)

	basicAuth := fuel.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := fuel.NewServer(service, basicAuth)

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}
	slog.Info("OCR engines ready", "engines", service.Engines(), "default", defaultEngine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shut down")
}
