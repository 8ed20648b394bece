package goGuard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

func enableAudit(cfg *Config) {
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
}

func nextEvent(t *testing.T, sink *ChannelSink, kind AuditKind) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected %s audit event", kind)
		}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	h := newEngineHarnessWithSink(t, nil, sink)

	h.login(t, "alice@example.com")
	_, _ = h.engine.Login(context.Background(), "alice@example.com", "wrong")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
	if h.engine.AuditDropped() != 0 {
		t.Fatal("disabled dispatcher should report no drops")
	}
	if byEvent := h.engine.AuditDroppedByEvent(); byEvent["csrf_issued"] != 0 || len(byEvent) == 0 {
		t.Fatalf("unexpected per-event drops %v", byEvent)
	}
}

func TestAuditSessionLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(64)
	h := newEngineHarnessWithSink(t, enableAudit, sink)
	ctx := WithRequestID(context.Background(), "req-1")

	issued, sess := h.login(t, "alice@example.com")
	nextEvent(t, sink, auditEventAccountCreated)
	nextEvent(t, sink, auditEventCSRFIssued)
	nextEvent(t, sink, auditEventLoginSuccess)
	established := nextEvent(t, sink, auditEventSessionEstablished)
	if established.UserID == "" || established.Metadata["store"] != "redis" {
		t.Fatalf("unexpected session_established event %+v", established)
	}

	if _, err := h.engine.VerifyAuthorized(ctx, issued.Commitment, "swapped", sess.RefreshToken); err == nil {
		t.Fatal("expected mismatch")
	}
	rejected := nextEvent(t, sink, auditEventAuthorizedRejected)
	if rejected.Success || rejected.Error != string(auditErrCommitmentMismatch) {
		t.Fatalf("unexpected authorized rejection %+v", rejected)
	}
	if rejected.Stage != internalaudit.StageAuthorized {
		t.Fatalf("expected authorized stage, got %q", rejected.Stage)
	}
	if rejected.RequestID != "req-1" {
		t.Fatalf("expected request id req-1, got %q", rejected.RequestID)
	}

	if err := h.engine.RevokeSession(ctx, sess.RefreshToken); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	nextEvent(t, sink, auditEventSessionRevoked)
}

func TestAuditLoginFailureFields(t *testing.T) {
	sink := NewChannelSink(64)
	h := newEngineHarnessWithSink(t, enableAudit, sink)
	h.login(t, "alice@example.com")

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	_, _ = h.engine.Login(ctx, "alice@example.com", "super-secret-password")

	ev := nextEvent(t, sink, auditEventLoginFailure)
	if ev.IP != "198.51.100.33" {
		t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("expected invalid_credentials, got %q", ev.Error)
	}
	for _, v := range ev.Metadata {
		if v == "super-secret-password" {
			t.Fatal("sensitive password leaked in metadata")
		}
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	var buf syncBuffer
	h := newEngineHarnessWithSink(t, enableAudit, NewJSONWriterSink(&buf))

	issued, sess := h.login(t, "alice@example.com")
	h.engine.Close()

	out := buf.String()
	for _, secret := range []string{issued.Token, issued.Commitment, sess.AccessToken, sess.RefreshToken, testPassword} {
		if strings.Contains(out, secret) {
			t.Fatalf("audit output leaked a credential: %q", secret)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 4 {
		t.Fatalf("expected at least 4 JSON lines, got %d", len(lines))
	}
	for _, line := range lines {
		var ev AuditEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := map[error]AuditErrorCode{
		nil:                   "",
		ErrMissingCredential:  auditErrMissingCredential,
		ErrRefreshInvalid:     auditErrInvalidToken,
		ErrTokenExpired:       auditErrTokenExpired,
		ErrLoginRateLimited:   auditErrRateLimited,
		ErrStoreUnavailable:   auditErrUnavailable,
		ErrSigningFailed:      auditErrInternal,
		ErrAccountExists:      auditErrDuplicate,
		ErrCommitmentMismatch: auditErrCommitmentMismatch,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuditAnonymousRejectionCarriesStage(t *testing.T) {
	sink := NewChannelSink(16)
	h := newEngineHarnessWithSink(t, enableAudit, sink)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	issued := h.issue(t)
	if _, err := h.engine.VerifyAnonymous(ctx, strings.Repeat("0", 64), issued.Token); !errors.Is(err, ErrCommitmentMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	ev := nextEvent(t, sink, auditEventAnonymousRejected)
	if ev.Stage != internalaudit.StageAnonymous || ev.IP != "203.0.113.9" {
		t.Fatalf("unexpected anonymous rejection %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Fatal("dispatcher must stamp the event time")
	}
}
