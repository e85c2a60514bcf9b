package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	_ "embed"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/dariusmat/kvitoscan/internal/enhance"
	"github.com/dariusmat/kvitoscan/internal/receipt"
	"github.com/dariusmat/kvitoscan/internal/recognize"
	"github.com/dariusmat/kvitoscan/internal/verify"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("kvitoscan")
	var (
		imagePath   = fs.StringLong("image", "", "Single receipt image to process")
		receiptsDir = fs.StringLong("receipts", "./receipts", "Directory of receipt images to process")
		dbPath      = fs.StringLong("db", "kvitoscan.db", "Record database file path")
		addressPath = fs.StringLong("addresses", "addresses.json", "Address registry file path")
		snapshotDir = fs.StringLong("snapshots", "", "Directory for enhanced-variant snapshots (disabled when empty)")
		clipLimits  = fs.StringLong("clip-limits", "", "Comma-separated enhancement parameters (default 0.5..4.5 step 0.5)")
		recognizer  = fs.StringLong("recognizer", "tesseract", "OCR backend: 'tesseract', 'gemini' or 'ollama'")
		languages   = fs.StringLong("languages", "lit,eng", "Tesseract languages in fallback order")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		noPrompt    = fs.BoolLong("no-prompt", "Never prompt for address corrections (headless mode)")
		noVerify    = fs.BoolLong("no-verify", "Skip fetching the QR verification page")
		serve       = fs.BoolLong("serve", "Serve the record store over HTTP after processing")
		port        = fs.IntLong("port", 8080, "HTTP server port (with --serve)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("KVITOSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := receipt.DefaultConfig()
	if *clipLimits != "" {
		limits, err := parseClipLimits(*clipLimits)
		if err != nil {
			slog.Error("Invalid clip limits", "value", *clipLimits, "error", err)
			os.Exit(1)
		}
		cfg.ClipLimits = limits
	}

	slog.Info("Opening record database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registry, err := receipt.NewFileRegistry(*addressPath)
	if err != nil {
		slog.Error("Failed to open address registry", "error", err)
		os.Exit(1)
	}

	var enhancerOpts []enhance.Option
	if *snapshotDir != "" {
		store, err := enhance.NewLocalStorage(*snapshotDir)
		if err != nil {
			slog.Error("Failed to create snapshot storage", "error", err)
			os.Exit(1)
		}
		enhancerOpts = append(enhancerOpts, enhance.WithSnapshots(store))
	}
	enhancer := enhance.New(enhancerOpts...)

	rec, err := newRecognizer(*recognizer, *languages, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize recognizer", "error", err)
		os.Exit(1)
	}
	defer rec.Close()

	deps := receipt.Deps{
		DB:         db,
		Enhancer:   enhancer,
		Recognizer: rec,
		Registry:   registry,
		Config:     cfg,
		Events:     receipt.SlogEvents(slog.Default()),
	}
	if !*noPrompt {
		deps.Corrections = &terminalCorrections{in: bufio.NewReader(os.Stdin)}
	}
	if !*noVerify {
		deps.Verifier = verify.NewClient()
	}

	service, err := receipt.NewService(deps)
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	paths, err := discoverReceipts(*imagePath, *receiptsDir)
	if err != nil {
		slog.Error("Failed to discover receipts", "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 && !*serve {
		slog.Error("No receipt images found", "dir", *receiptsDir)
		os.Exit(1)
	}

	for _, path := range paths {
		result, err := service.Process(ctx, path)
		if err != nil {
			// Unreadable input fails only this receipt.
			slog.Error("Failed to process receipt", "path", path, "error", err)
			continue
		}
		report(result)
	}

	if *serve {
		server := receipt.NewServer(db, receipt.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		})
		addr := fmt.Sprintf(":%d", *port)
		go func() {
			if err := server.Start(addr); err != nil {
				slog.Error("Server error", "error", err)
				os.Exit(1)
			}
		}()
		slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("Shutting down...")
	}
}

// snapshotRe matches the enhanced-variant snapshots the pipeline itself
// writes, so reprocessing a directory does not pick them up as inputs.
var snapshotRe = regexp.MustCompile(`-p\d+(\.\d+)?\.png$`)

func discoverReceipts(imagePath, receiptsDir string) ([]string, error) {
	if imagePath != "" {
		return []string{imagePath}, nil
	}
	entries, err := os.ReadDir(receiptsDir)
	if err != nil {
		return nil, fmt.Errorf("reading receipts directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !enhance.IsReceiptFile(entry.Name()) {
			continue
		}
		if snapshotRe.MatchString(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(receiptsDir, entry.Name()))
	}
	return paths, nil
}

func parseClipLimits(s string) ([]float64, error) {
	var limits []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		limits = append(limits, v)
	}
	return limits, nil
}

func newRecognizer(kind, languages, geminiKey, geminiModel, ollamaURL, ollamaModel string) (recognize.Recognizer, error) {
	switch kind {
	case "tesseract":
		return recognize.NewTesseract(strings.Split(languages, ",")...), nil
	case "gemini":
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		return recognize.NewGemini(apiKey, geminiModel)
	case "ollama":
		return recognize.NewOllama(ollamaURL, ollamaModel)
	default:
		return nil, fmt.Errorf("invalid recognizer %q: want tesseract, gemini or ollama", kind)
	}
}

// terminalCorrections asks the operator for the correct address and
// station when the registry has no match.
type terminalCorrections struct {
	in *bufio.Reader
}

func (t *terminalCorrections) Correct(ctx context.Context, extracted string) (receipt.AddressEntry, error) {
	fmt.Printf("Address not found in registry: %q\n", extracted)
	fmt.Print("Enter correct address (empty to skip): ")
	address, err := t.readLine(ctx)
	if err != nil {
		return receipt.AddressEntry{}, err
	}
	if address == "" {
		return receipt.AddressEntry{}, receipt.ErrUnresolved
	}
	fmt.Print("Enter station name: ")
	station, err := t.readLine(ctx)
	if err != nil {
		return receipt.AddressEntry{}, err
	}
	return receipt.AddressEntry{Address: address, Station: station}, nil
}

func (t *terminalCorrections) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", receipt.ErrUnresolved
	}
	return strings.TrimSpace(line), nil
}

func report(result *receipt.Result) {
	r := result.Record
	if result.Stored {
		slog.Info("Receipt processed",
			"id", r.ID,
			"date", r.Date,
			"time", r.Time,
			"amount", r.Amount,
			"fuel_type", r.FuelType,
			"liters", r.FuelLiters,
			"price_per_liter", r.FuelPricePerLiter,
			"address", r.Address,
			"station", r.Station,
		)
		return
	}
	slog.Info("Receipt already recorded; differences against stored record", "id", r.ID, "count", len(result.Diffs))
	for _, d := range result.Diffs {
		slog.Info("Field difference", "id", r.ID, "field", d.Field, "old", d.Old, "new", d.New)
	}
}
