package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Kind names an audit event. The set is closed: the dispatcher keeps one drop
// counter per Kind and folds anything else into KindOther.
type Kind string

const (
	KindCSRFIssued         Kind = "csrf_issued"
	KindAnonymousRejected  Kind = "anonymous_csrf_rejected"
	KindAuthorizedRejected Kind = "authorized_csrf_rejected"
	KindRefreshRejected    Kind = "refresh_rejected"
	KindSessionEstablished Kind = "session_established"
	KindSessionRefreshed   Kind = "session_refreshed"
	KindSessionRevoked     Kind = "session_revoked"
	KindAccessRejected     Kind = "access_rejected"
	KindAccountCreated     Kind = "account_created"
	KindAccountDuplicate   Kind = "account_duplicate"
	KindLoginSuccess       Kind = "login_success"
	KindLoginFailure       Kind = "login_failure"
	KindRateLimitTriggered Kind = "rate_limit_triggered"
	KindOther              Kind = "other"
)

// Kinds lists every Kind in a stable order.
var Kinds = []Kind{
	KindCSRFIssued,
	KindAnonymousRejected,
	KindAuthorizedRejected,
	KindRefreshRejected,
	KindSessionEstablished,
	KindSessionRefreshed,
	KindSessionRevoked,
	KindAccessRejected,
	KindAccountCreated,
	KindAccountDuplicate,
	KindLoginSuccess,
	KindLoginFailure,
	KindRateLimitTriggered,
	KindOther,
}

// Stage is the protocol step that produced an event.
type Stage string

const (
	StageAnonymous  Stage = "anonymous"
	StageAuthorized Stage = "authorized"
	StageAccess     Stage = "access"
	StageAccount    Stage = "account"
)

// Stage maps k to the step of the session lifecycle it belongs to.
func (k Kind) Stage() Stage {
	switch k {
	case KindCSRFIssued, KindAnonymousRejected, KindSessionEstablished:
		return StageAnonymous
	case KindAuthorizedRejected, KindRefreshRejected, KindSessionRefreshed, KindSessionRevoked:
		return StageAuthorized
	case KindAccessRejected:
		return StageAccess
	default:
		return StageAccount
	}
}

// Event is one audit record. Credentials (CSRF tokens, commitments, JWTs,
// passwords) never appear in any field.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Kind      Kind              `json:"event"`
	Stage     Stage             `json:"stage"`
	UserID    string            `json:"user_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
