package receipt

import "log/slog"

// State names the stages a receipt moves through in the pipeline.
type State string

const (
	StatePending          State = "PENDING"
	StatePreprocessing    State = "PREPROCESSING"
	StateAggregating      State = "AGGREGATING"
	StateReconciling      State = "RECONCILING"
	StateAddressResolving State = "ADDRESS_RESOLVING"
	StateDiffing          State = "DIFFING"
	StatePersisted        State = "PERSISTED"
	StateFailed           State = "FAILED"
)

// EventType identifies what happened in the pipeline.
type EventType string

const (
	EventStateChanged       EventType = "state_changed"
	EventPassStarted        EventType = "pass_started"
	EventPassFailed         EventType = "pass_failed"
	EventPassCompleted      EventType = "pass_completed"
	EventQRFound            EventType = "qr_found"
	EventFieldDerived       EventType = "field_derived"
	EventConsistencyWarning EventType = "consistency_warning"
	EventAddressResolved    EventType = "address_resolved"
	EventAddressCorrected   EventType = "address_corrected"
	EventAddressUnresolved  EventType = "address_unresolved"
	EventVerified           EventType = "verified"
	EventRecordStored       EventType = "record_stored"
	EventRecordDiffed       EventType = "record_diffed"
)

// Event is one observation emitted by the pipeline. The core stays
// silent otherwise: observers decide what to do with events, the
// default observer renders them through slog.
type Event struct {
	Type      EventType
	ReceiptID string
	State     State
	// Parameter is the enhancement parameter of the pass the event
	// belongs to, for pass-scoped events.
	Parameter float64
	Field     string
	Value     string
	Diffs     []FieldDiff
	Err       error
}

// EventFunc receives pipeline events. Implementations must not block.
type EventFunc func(Event)

// SlogEvents returns an EventFunc that renders events through logger.
func SlogEvents(logger *slog.Logger) EventFunc {
	return func(e Event) {
		attrs := []any{"receipt", e.ReceiptID}
		switch e.Type {
		case EventStateChanged:
			attrs = append(attrs, "state", string(e.State))
		case EventPassStarted, EventPassCompleted:
			attrs = append(attrs, "parameter", e.Parameter)
		case EventPassFailed:
			attrs = append(attrs, "parameter", e.Parameter, "error", e.Err)
		case EventQRFound, EventAddressResolved, EventAddressCorrected, EventAddressUnresolved, EventVerified:
			attrs = append(attrs, "value", e.Value)
		case EventFieldDerived:
			attrs = append(attrs, "field", e.Field, "value", e.Value)
		case EventConsistencyWarning:
			attrs = append(attrs, "detail", e.Value)
		case EventRecordDiffed:
			attrs = append(attrs, "diffs", len(e.Diffs))
		}
		if e.Type == EventConsistencyWarning || e.Type == EventPassFailed {
			logger.Warn(string(e.Type), attrs...)
			return
		}
		logger.Info(string(e.Type), attrs...)
	}
}
