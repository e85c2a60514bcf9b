package receipt

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dariusmat/kvitoscan/internal/enhance"
)

// Enhancer produces one deterministic enhancement variant of the source
// image, selected by parameter, and reports any QR payload decoded from
// that variant. A failed pass returns an error and is skipped by the
// pipeline; an unreadable source wraps enhance.ErrUnreadable and fails
// the whole receipt.
type Enhancer interface {
	Enhance(path string, parameter float64) (image.Image, string, error)
}

// Recognizer turns an image into raw OCR text. "No text found" is an
// empty string, not an error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// ErrUnresolved is returned by a CorrectionProvider that cannot supply
// a correction, e.g. in a headless deployment. The pipeline then keeps
// the raw extracted address and assigns no station.
var ErrUnresolved = errors.New("address unresolved")

// CorrectionProvider supplies the correct address and station when the
// registry has no match. Implementations may block (interactive prompt)
// or return ErrUnresolved immediately; ctx cancellation is treated the
// same as ErrUnresolved.
type CorrectionProvider interface {
	Correct(ctx context.Context, extracted string) (AddressEntry, error)
}

// Verification is what the receipt-verification page declares.
type Verification struct {
	Amount  string
	Address string
}

// Verifier fetches the verification page behind a decoded QR URL.
type Verifier interface {
	Verify(ctx context.Context, url string) (*Verification, error)
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time { return time.Now() }

// Config carries the pipeline tunables. Zero values are replaced with
// the documented defaults by NewService.
type Config struct {
	// ClipLimits is the fixed, ordered list of enhancement parameters
	// tried per receipt. Default: 0.5 through 4.5 in steps of 0.5.
	ClipLimits []float64

	// Tolerance is the allowed |amount - liters*price| before a
	// consistency warning is raised. Default: 0.02.
	Tolerance float64

	// MatchThreshold is the maximum edit distance for an address to
	// resolve against the registry. Default: 3.
	MatchThreshold int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ClipLimits:     []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5},
		Tolerance:      0.02,
		MatchThreshold: 3,
	}
}

// Deps wires the pipeline's collaborators. DB, Enhancer, Recognizer and
// Registry are required; the rest have working defaults.
type Deps struct {
	DB          DB
	Enhancer    Enhancer
	Recognizer  Recognizer
	Registry    Registry
	Corrections CorrectionProvider
	Verifier    Verifier
	TimeSource  TimeSource
	Config      Config
	Events      EventFunc
}

// Service drives the per-receipt pipeline: N enhancement passes through
// OCR and extraction, consensus aggregation, arithmetic reconciliation,
// address resolution and persistence.
type Service struct {
	db          DB
	enhancer    Enhancer
	recognizer  Recognizer
	registry    Registry
	corrections CorrectionProvider
	verifier    Verifier
	timeSource  TimeSource
	cfg         Config
	events      EventFunc
}

// unresolvedCorrections is the default provider: it never supplies a
// correction, so batch deployments degrade to the unresolved path.
type unresolvedCorrections struct{}

func (unresolvedCorrections) Correct(context.Context, string) (AddressEntry, error) {
	return AddressEntry{}, ErrUnresolved
}

// NewService creates a Service, filling unset optional dependencies and
// config defaults.
func NewService(deps Deps) (*Service, error) {
	if deps.DB == nil || deps.Enhancer == nil || deps.Recognizer == nil || deps.Registry == nil {
		return nil, fmt.Errorf("db, enhancer, recognizer and registry are required")
	}
	if deps.Corrections == nil {
		deps.Corrections = unresolvedCorrections{}
	}
	if deps.TimeSource == nil {
		deps.TimeSource = defaultTimeSource{}
	}
	if deps.Events == nil {
		deps.Events = func(Event) {}
	}
	def := DefaultConfig()
	if len(deps.Config.ClipLimits) == 0 {
		deps.Config.ClipLimits = def.ClipLimits
	}
	if deps.Config.Tolerance == 0 {
		deps.Config.Tolerance = def.Tolerance
	}
	if deps.Config.MatchThreshold == 0 {
		deps.Config.MatchThreshold = def.MatchThreshold
	}
	return &Service{
		db:          deps.DB,
		enhancer:    deps.Enhancer,
		recognizer:  deps.Recognizer,
		registry:    deps.Registry,
		corrections: deps.Corrections,
		verifier:    deps.Verifier,
		timeSource:  deps.TimeSource,
		cfg:         deps.Config,
		events:      deps.Events,
	}, nil
}

// Result is the terminal output of processing one receipt. When a prior
// record existed, Stored is false and Diffs reports the per-field
// differences against it; the stored record stays authoritative.
type Result struct {
	Record *Record
	Diffs  []FieldDiff
	Stored bool
}

var idSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// DeriveID turns a receipt file path into its stable record identifier:
// the filename stem with filesystem-unsafe characters stripped.
func DeriveID(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	id := idSanitizeRe.ReplaceAllString(stem, "")
	if id == "" {
		id = "receipt"
	}
	return id
}

// Process runs the full pipeline for one receipt image.
func (s *Service) Process(ctx context.Context, path string) (*Result, error) {
	id := DeriveID(path)
	s.setState(id, StatePending)

	record := &Record{ID: id, CreatedAt: s.timeSource.Now()}

	passes, qrURL, err := s.runPasses(ctx, id, path)
	if err != nil {
		s.setState(id, StateFailed)
		return nil, err
	}
	record.QRURL = qrURL

	s.setState(id, StateAggregating)
	record.Fields = Aggregate(passes)
	record.NormalizeDate()

	s.setState(id, StateReconciling)
	s.reconcile(id, record)

	s.setState(id, StateAddressResolving)
	if err := s.resolveAddress(ctx, id, record); err != nil {
		s.setState(id, StateFailed)
		return nil, err
	}

	s.verify(ctx, id, record)

	s.setState(id, StateDiffing)
	existing, err := s.db.GetRecord(id)
	switch {
	case err == nil:
		// First write wins: the stored record stays authoritative,
		// reprocessing only reports what would change.
		diffs := DiffFields(existing.Fields, record.Fields)
		s.events(Event{Type: EventRecordDiffed, ReceiptID: id, Diffs: diffs})
		s.setState(id, StatePersisted)
		return &Result{Record: record, Diffs: diffs}, nil
	case errors.Is(err, ErrNotFound):
		if err := s.db.SaveRecord(record); err != nil {
			s.setState(id, StateFailed)
			return nil, fmt.Errorf("saving record: %w", err)
		}
		s.events(Event{Type: EventRecordStored, ReceiptID: id})
		s.setState(id, StatePersisted)
		return &Result{Record: record, Stored: true}, nil
	default:
		s.setState(id, StateFailed)
		return nil, fmt.Errorf("looking up record: %w", err)
	}
}

// runPasses runs one enhance+recognize+extract cycle per configured
// parameter. A pass that fails is dropped; an unreadable source image
// aborts the receipt. The first non-empty QR payload wins.
func (s *Service) runPasses(ctx context.Context, id, path string) ([]Fields, string, error) {
	s.setState(id, StatePreprocessing)

	var passes []Fields
	var qrURL string
	for _, param := range s.cfg.ClipLimits {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		s.events(Event{Type: EventPassStarted, ReceiptID: id, Parameter: param})

		img, qr, err := s.enhancer.Enhance(path, param)
		if err != nil {
			if errors.Is(err, enhance.ErrUnreadable) {
				return nil, "", fmt.Errorf("reading receipt image: %w", err)
			}
			s.events(Event{Type: EventPassFailed, ReceiptID: id, Parameter: param, Err: err})
			continue
		}
		if qr != "" && qrURL == "" {
			qrURL = qr
			s.events(Event{Type: EventQRFound, ReceiptID: id, Value: qr})
		}

		text, err := s.recognizer.Recognize(ctx, img)
		if err != nil {
			s.events(Event{Type: EventPassFailed, ReceiptID: id, Parameter: param, Err: err})
			continue
		}

		passes = append(passes, Extract(text))
		s.events(Event{Type: EventPassCompleted, ReceiptID: id, Parameter: param})
	}
	return passes, qrURL, nil
}

func (s *Service) reconcile(id string, record *Record) {
	rec := Reconcile(&record.Fields, s.cfg.Tolerance)
	if rec.DerivedField != "" {
		s.events(Event{
			Type:      EventFieldDerived,
			ReceiptID: id,
			Field:     rec.DerivedField,
			Value:     formatDecimal(rec.DerivedValue),
		})
	}
	if w := rec.Warning; w != nil {
		s.events(Event{
			Type:      EventConsistencyWarning,
			ReceiptID: id,
			Value:     fmt.Sprintf("amount %.2f does not match liters*price %.2f", w.Amount, w.Computed),
		})
	}
}

// resolveAddress matches the extracted address against the registry.
// On a miss the correction provider is consulted; a supplied correction
// is appended to the registry and becomes the resolved result. When no
// correction is available the raw address stays and no station is set.
func (s *Service) resolveAddress(ctx context.Context, id string, record *Record) error {
	entries, err := s.registry.LoadAll()
	if err != nil {
		return fmt.Errorf("loading address registry: %w", err)
	}

	if entry, ok := ResolveAddress(record.Address, entries, s.cfg.MatchThreshold); ok {
		record.Address = entry.Address
		record.Station = entry.Station
		s.events(Event{Type: EventAddressResolved, ReceiptID: id, Value: entry.Address})
		return nil
	}

	corrected, err := s.corrections.Correct(ctx, record.Address)
	if err != nil {
		if errors.Is(err, ErrUnresolved) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.events(Event{Type: EventAddressUnresolved, ReceiptID: id, Value: record.Address})
			return nil
		}
		return fmt.Errorf("obtaining address correction: %w", err)
	}
	if err := s.registry.Append(corrected); err != nil {
		return fmt.Errorf("appending address to registry: %w", err)
	}
	record.Address = corrected.Address
	record.Station = corrected.Station
	s.events(Event{Type: EventAddressCorrected, ReceiptID: id, Value: corrected.Address})
	return nil
}

// verify cross-checks the aggregated amount against the verification
// page behind the QR URL. Best effort: failures are reported as events
// and never block persistence.
func (s *Service) verify(ctx context.Context, id string, record *Record) {
	if s.verifier == nil || record.QRURL == "" {
		return
	}
	v, err := s.verifier.Verify(ctx, record.QRURL)
	if err != nil {
		s.events(Event{Type: EventVerified, ReceiptID: id, Value: "unavailable", Err: err})
		return
	}
	detail := fmt.Sprintf("declared %s, extracted %s", v.Amount, record.Amount)
	s.events(Event{Type: EventVerified, ReceiptID: id, Value: detail})
}

func (s *Service) setState(id string, state State) {
	s.events(Event{Type: EventStateChanged, ReceiptID: id, State: state})
}
