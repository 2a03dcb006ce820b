package fuel

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/fuel-logger/internal/extraction"
	"github.com/zombor/fuel-logger/internal/ledger"
	"github.com/zombor/fuel-logger/internal/scanning"
)

// ErrUnreadable means OCR produced text but no field could be extracted from it
var ErrUnreadable = errors.New("could not read this receipt")

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Service reads fuel receipts and logs them
type Service struct {
	db            DB
	scanners      map[scanning.Engine]scanning.Scanner
	defaultEngine scanning.Engine
	storage       Storage
	ledger        ledger.Sink
	idGenerator   IDGenerator
	timeSource    TimeSource

	// unsaved holds receipts already appended to the ledger whose logged
	// state could not be saved, keyed by ID, with the LoggedAt that was written
	mu      sync.Mutex
	unsaved map[string]time.Time
}

// NewService creates a Service with UUID receipt IDs and the system clock.
// defaultEngine must be one of the keys of scanners.
func NewService(db DB, scanners map[scanning.Engine]scanning.Scanner, defaultEngine scanning.Engine, storage Storage, sink ledger.Sink) *Service {
	return NewServiceWithDeps(db, scanners, defaultEngine, storage, sink, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanners map[scanning.Engine]scanning.Scanner, defaultEngine scanning.Engine, storage Storage, sink ledger.Sink, idGen IDGenerator, timeSrc TimeSource) *Service {
	if sink == nil {
		sink = ledger.Discard{}
	}
	return &Service{
		db:            db,
		scanners:      scanners,
		defaultEngine: defaultEngine,
		storage:       storage,
		ledger:        sink,
		idGenerator:   idGen,
		timeSource:    timeSrc,
		unsaved:       make(map[string]time.Time),
	}
}

var (
	unsafeNameRE = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRunRE   = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps phone-generated file names short and filesystem safe
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeNameRE.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRunRE.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// Engines returns the configured OCR engines in name order
func (s *Service) Engines() []scanning.Engine {
	engines := make([]scanning.Engine, 0, len(s.scanners))
	for e := range s.scanners {
		engines = append(engines, e)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	return engines
}

// DefaultEngine returns the engine used when an upload names none
func (s *Service) DefaultEngine() scanning.Engine {
	return s.defaultEngine
}

// scanner picks the OCR engine for an upload. An empty name selects the default.
func (s *Service) scanner(name string) (scanning.Engine, scanning.Scanner, error) {
	engine := s.defaultEngine
	if strings.TrimSpace(name) != "" {
		parsed, err := scanning.ParseEngine(name)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", err, name)
		}
		engine = parsed
	}

	sc, ok := s.scanners[engine]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s is not configured", scanning.ErrUnknownEngine, engine)
	}
	return engine, sc, nil
}

// ParseText extracts a record from already-recognised text
func (s *Service) ParseText(text string) extraction.Record {
	return extraction.ExtractAndResolve(text)
}

// ProcessReceipt stores an uploaded image, reads it with the chosen OCR
// engine, extracts the fuel fields and logs the result to the ledger.
// A ledger failure is logged and leaves the receipt unlogged; it does not fail the upload.
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string, engineName string) (*Receipt, error) {
	engine, sc, err := s.scanner(engineName)
	if err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := sc.ReadText(data, contentType)
	if err != nil {
		slog.Error("Failed to read receipt text",
			"filename", filename,
			"engine", engine,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.discardFile(savedPath)
		return nil, fmt.Errorf("reading receipt text: %w", err)
	}

	record := s.ParseText(text)
	if record.Present() == 0 {
		slog.Warn("No fields extracted from receipt", "filename", filename, "engine", engine, "text_length", len(text))
		s.discardFile(savedPath)
		return nil, ErrUnreadable
	}

	receipt := &Receipt{
		ID:          id,
		Engine:      engine,
		Filename:    savedPath,
		ContentType: contentType,
		RawText:     text,
		Fields:      record,
		Derived:     record.DerivedFields(),
		Missing:     record.Missing(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.discardFile(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	if err := s.appendToLedger(receipt); err != nil {
		slog.Warn("Failed to log receipt to ledger", "id", id, "error", err)
	}

	return receipt, nil
}

// LogReceipt retries the ledger write for a receipt that is not yet logged
func (s *Service) LogReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	if receipt.Logged {
		return receipt, nil
	}
	if err := s.appendToLedger(receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// appendToLedger writes the receipt with a timestamp taken at write time and
// records the outcome on the stored receipt. A receipt whose row was written
// but not saved as logged only has the save retried.
func (s *Service) appendToLedger(receipt *Receipt) error {
	loggedAt, appended := s.unsavedLog(receipt.ID)
	if !appended {
		loggedAt = s.timeSource.Now()
		if err := s.ledger.Append(ledger.Entry{Record: receipt.Fields, LoggedAt: loggedAt}); err != nil {
			return fmt.Errorf("appending to ledger: %w", err)
		}
		s.setUnsavedLog(receipt.ID, loggedAt)
	}

	before := *receipt
	receipt.Logged = true
	receipt.LoggedAt = loggedAt
	receipt.UpdatedAt = loggedAt
	if err := s.db.SaveReceipt(receipt); err != nil {
		*receipt = before
		return fmt.Errorf("marking receipt logged: %w", err)
	}
	s.clearUnsavedLog(receipt.ID)
	return nil
}

func (s *Service) unsavedLog(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.unsaved[id]
	return t, ok
}

func (s *Service) setUnsavedLog(id string, loggedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved[id] = loggedAt
}

func (s *Service) clearUnsavedLog(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unsaved, id)
}

func (s *Service) discardFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file. Ledger rows are left alone.
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	// Log error but continue with database deletion
	s.discardFile(receipt.Filename)

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	s.clearUnsavedLog(id)
	return nil
}

// GetReceiptFile retrieves the image data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
