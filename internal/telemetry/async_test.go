package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teamhub/backend/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	done    chan struct{}
}

func newMockEmitter(expected int) *mockEventEmitter {
	return &mockEventEmitter{done: make(chan struct{}, expected)}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func (m *mockEventEmitter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d/%d", i+1, n)
		}
	}
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, context.Background(), domain.NewEvent("test", "ws-1", "", nil))
	emitter := newMockEmitter(1)
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := newMockEmitter(1)
	EmitAsync(emitter, context.Background(), domain.NewEvent(domain.EventUserLogin, "ws-1", "user-1", map[string]string{"provider": "EMAIL"}))
	emitter.wait(t, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.WorkspaceID != "ws-1" || e.UserID != "user-1" || e.EventType != domain.EventUserLogin {
		t.Errorf("event = %+v", e)
	}
	if e.Source != domain.Source || e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("event not stamped: %+v", e)
	}
	if string(e.Metadata) != `{"provider":"EMAIL"}` {
		t.Errorf("metadata = %s", e.Metadata)
	}
}

func TestEmitAsync_SurvivesCancelledContext(t *testing.T) {
	emitter := newMockEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	EmitAsync(emitter, ctx, domain.NewEvent("test", "ws-1", "", nil))
	emitter.wait(t, 1)
}

func TestEmitAsync_MultipleEvents(t *testing.T) {
	emitter := newMockEmitter(10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), domain.NewEvent("test", "ws-1", "", nil))
		}()
	}
	wg.Wait()
	emitter.wait(t, 10)
	if n := len(emitter.getEvents()); n != 10 {
		t.Errorf("expected 10 events, got %d", n)
	}
}

func TestMulti(t *testing.T) {
	a := newMockEmitter(1)
	b := &mockEventEmitter{emitErr: errors.New("down")}
	m := Multi(a, nil, b)
	err := m.Emit(context.Background(), domain.NewEvent("test", "", "", nil))
	if err == nil {
		t.Fatal("Multi should return the failing emitter's error")
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Error("every emitter should receive the event")
	}
}
