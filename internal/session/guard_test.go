package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type fakeBackend struct {
	hasSession bool
	err        error
	signOuts   int
}

func (b *fakeBackend) HasSession(context.Context) (bool, error) {
	return b.hasSession, b.err
}

func (b *fakeBackend) SignOut(context.Context) error {
	b.signOuts++
	return nil
}

func newTestGuard(b *fakeBackend) (*Guard, *MemoryStore, *MemoryStore) {
	durable := NewMemoryStore()
	scoped := NewMemoryStore()
	g := NewGuard(b, durable, scoped)
	return g, durable, scoped
}

func TestValidNoBackendSession(t *testing.T) {
	g, durable, _ := newTestGuard(&fakeBackend{hasSession: false})
	g.RecordLogin(true)

	if g.Valid(context.Background()) {
		t.Fatal("no backend session must fail closed")
	}
	if _, _, ok := durable.ReadLogin(); ok {
		t.Fatal("local state must be cleared when backend session is gone")
	}
}

func TestValidBackendError(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: true, err: errors.New("boom")})
	if g.Valid(context.Background()) {
		t.Fatal("backend error must fail closed")
	}
}

func TestValidFirstRunGrace(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: true})
	if !g.Valid(context.Background()) {
		t.Fatal("backend session without stored instant is valid")
	}
}

func TestValidWithinBudget(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: true})
	t0 := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return t0 }
	g.RecordLogin(false)

	g.now = func() time.Time { return t0.Add(Budget - time.Minute) }
	if !g.Valid(context.Background()) {
		t.Fatal("session within budget must stay valid")
	}
}

func TestValidExpiredClearsState(t *testing.T) {
	g, durable, scoped := newTestGuard(&fakeBackend{hasSession: true})
	t0 := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return t0 }
	g.RecordLogin(true)

	g.now = func() time.Time { return t0.Add(7 * time.Hour) }
	if g.Valid(context.Background()) {
		t.Fatal("session past the 6h budget must be invalid")
	}
	if _, _, ok := durable.ReadLogin(); ok {
		t.Fatal("durable tier must be cleared on expiry")
	}
	if _, _, ok := scoped.ReadLogin(); ok {
		t.Fatal("scoped tier must be cleared on expiry")
	}
}

func TestEnforceSignsOutBackend(t *testing.T) {
	b := &fakeBackend{hasSession: true}
	g, _, _ := newTestGuard(b)
	t0 := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return t0 }
	g.RecordLogin(true)

	g.now = func() time.Time { return t0.Add(Budget + time.Second) }
	if g.Enforce(context.Background()) {
		t.Fatal("enforce must return false on expiry")
	}
	if b.signOuts != 1 {
		t.Fatalf("expected one backend sign-out, got %d", b.signOuts)
	}

	g.now = func() time.Time { return t0 }
	g.RecordLogin(true)
	if !g.Enforce(context.Background()) {
		t.Fatal("fresh session must pass enforce")
	}
}

func TestRecordLoginPicksTier(t *testing.T) {
	g, durable, scoped := newTestGuard(&fakeBackend{hasSession: true})

	g.RecordLogin(true)
	if _, remember, ok := durable.ReadLogin(); !ok || !remember {
		t.Fatal("persistent login must land in the durable tier")
	}
	if _, _, ok := scoped.ReadLogin(); ok {
		t.Fatal("persistent login must not touch the scoped tier")
	}

	g.Clear()
	g.RecordLogin(false)
	if _, _, ok := durable.ReadLogin(); ok {
		t.Fatal("session-scoped login must not touch the durable tier")
	}
	if _, remember, ok := scoped.ReadLogin(); !ok || remember {
		t.Fatal("session-scoped login must land in the scoped tier")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: true})
	g.RecordLogin(true)
	g.Clear()
	g.Clear()
	if _, found := g.readLogin(); found {
		t.Fatal("clear must remove all login state")
	}
}

func TestNonInteractiveGuard(t *testing.T) {
	g := NewGuard(&fakeBackend{hasSession: true}, nil, nil)

	g.RecordLogin(true) // must not panic
	g.Clear()
	if g.Valid(context.Background()) {
		t.Fatal("non-interactive guard must answer false")
	}
}

func TestSubscribeSignedOut(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: true})

	fired := 0
	sub, err := g.SubscribeSignedOut(func() { fired++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := g.SubscribeSignedOut(func() {}); err != ErrListenerActive {
		t.Fatalf("duplicate registration must be rejected, got %v", err)
	}

	g.RecordLogin(true)
	g.HandleSignedOut()
	if fired != 1 {
		t.Fatalf("listener must fire exactly once per event, fired %d", fired)
	}
	if _, found := g.readLogin(); found {
		t.Fatal("signed-out event must clear local state")
	}

	g.HandleSignedOut()
	if fired != 2 {
		t.Fatalf("each termination event fires once, fired %d", fired)
	}

	sub.Cancel()
	sub.Cancel() // safe to repeat
	g.HandleSignedOut()
	if fired != 2 {
		t.Fatal("canceled listener must not fire")
	}

	if _, err := g.SubscribeSignedOut(func() {}); err != nil {
		t.Fatalf("re-registration after cancel must succeed, got %v", err)
	}
}

func TestValidNotifiesOnExternalTermination(t *testing.T) {
	b := &fakeBackend{hasSession: true}
	g, _, _ := newTestGuard(b)

	fired := 0
	if _, err := g.SubscribeSignedOut(func() { fired++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	g.RecordLogin(true)

	b.hasSession = false
	if g.Valid(context.Background()) {
		t.Fatal("vanished backend session must fail closed")
	}
	if fired != 1 {
		t.Fatalf("listener must fire once on external termination, fired %d", fired)
	}
	if _, found := g.readLogin(); found {
		t.Fatal("termination must clear local state")
	}

	// The instant is gone now, so further checks stay quiet.
	if g.Valid(context.Background()) {
		t.Fatal("still no backend session")
	}
	if fired != 1 {
		t.Fatalf("one termination event fires one notification, fired %d", fired)
	}
}

func TestValidNeverSignedInStaysQuiet(t *testing.T) {
	g, _, _ := newTestGuard(&fakeBackend{hasSession: false})

	fired := 0
	if _, err := g.SubscribeSignedOut(func() { fired++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if g.Valid(context.Background()) {
		t.Fatal("no backend session must fail closed")
	}
	if fired != 0 {
		t.Fatal("absence of a session is not a termination event")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	at := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	if err := store.WriteLogin(at, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, remember, ok := store.ReadLogin()
	if !ok || !remember || !got.Equal(at) {
		t.Fatalf("read back mismatch: %v %v %v", got, remember, ok)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, _, ok := store.ReadLogin(); ok {
		t.Fatal("cleared store must be empty")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear must be a no-op: %v", err)
	}
}
