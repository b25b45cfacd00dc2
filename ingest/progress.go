package ingest

// Phase names a stage of the ingestion protocol for progress reporting.
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseConverting Phase = "converting"
	PhaseEmbedding  Phase = "embedding"
	PhaseStoring    Phase = "storing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
	PhaseCancelled  Phase = "cancelled"
)

// ProgressEvent is one update on an in-flight ingestion.
type ProgressEvent struct {
	SessionID   string
	Phase       Phase
	Current     int
	Total       int
	CurrentFile string
}

// progressSink wraps the caller's channel with a lossy/blocking split:
// intermediate events use a non-blocking send so a slow consumer never
// stalls the pipeline, but the terminal event always blocks until
// delivered. Every event it emits is stamped with the owning session's id.
type progressSink struct {
	ch        chan<- ProgressEvent
	sessionID string
}

func newProgressSink(ch chan<- ProgressEvent, sessionID string) progressSink {
	return progressSink{ch: ch, sessionID: sessionID}
}

func (s progressSink) emit(ev ProgressEvent) {
	if s.ch == nil {
		return
	}
	ev.SessionID = s.sessionID
	select {
	case s.ch <- ev:
	default:
	}
}

func (s progressSink) emitTerminal(ev ProgressEvent) {
	if s.ch == nil {
		return
	}
	ev.SessionID = s.sessionID
	s.ch <- ev
}
