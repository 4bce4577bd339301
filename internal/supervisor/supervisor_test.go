package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/sable-ops/bouncer/internal/childproc"
	"github.com/sable-ops/bouncer/internal/classifier"
	"github.com/sable-ops/bouncer/internal/eventbus"
)

type fakeChild struct {
	mu    sync.Mutex
	lines []string
	done  chan struct{}
}

func newFakeChild(lines []string) *fakeChild {
	return &fakeChild{lines: lines, done: make(chan struct{})}
}

func (c *fakeChild) ReadLine(stream childproc.Stream) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line
}

func (c *fakeChild) Running() bool       { return true }
func (c *fakeChild) Done() <-chan struct{} { return c.done }
func (c *fakeChild) Stop() error          { return nil }

type fakeRegistry struct {
	mu     sync.Mutex
	events []classifier.Event
}

func (r *fakeRegistry) OnEvent(ev classifier.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *fakeRegistry) FindKnown(content string) string { return "" }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestSupervisor_ClassifiesAndDispatches(t *testing.T) {
	child := newFakeChild([]string{
		"[12:00:00] [Server thread/INFO]: Player Alice joined with vanilla 1.0\n",
		"[12:00:01] [Server thread/INFO]: Alice left the game\n",
	})
	reg := &fakeRegistry{}
	sup := New(nil, child, reg)
	sup.Start()
	defer sup.Shutdown()

	waitFor(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		return len(reg.events) == 2
	})

	entries := sup.AuditEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Kind != "join" || entries[1].Kind != "leave" {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}

func TestSupervisor_OtherLinesGoToSystemRingNotAudit(t *testing.T) {
	child := newFakeChild([]string{
		"just some startup banner with no bracket-colon-space marker\n",
	})
	reg := &fakeRegistry{}
	sup := New(nil, child, reg)
	sup.Start()
	defer sup.Shutdown()

	// two system entries: the "supervisor started" notice and the banner
	waitFor(t, func() bool {
		return len(sup.SystemEntries()) == 2
	})

	if len(sup.AuditEntries()) != 0 {
		t.Fatalf("expected no audit entries from Other line, got %d", len(sup.AuditEntries()))
	}
}

func TestSupervisor_EmitsToRouterWhenSet(t *testing.T) {
	child := newFakeChild([]string{
		"[12:00:00] [Server thread/INFO]: Player Alice joined with vanilla 1.0\n",
	})
	reg := &fakeRegistry{}
	sup := New(nil, child, reg)
	router := eventbus.NewRouter(nil, 10)
	defer router.Close()
	sup.SetRouter(router)

	ch := router.Subscribe()
	sup.Start()
	defer sup.Shutdown()

	// The pump first emits the "supervisor started" system notice, then
	// the audit event for the join line.
	select {
	case ev := <-ch:
		if ev.Type() != eventbus.TypeSystem {
			t.Fatalf("expected system event, got %s", ev.Type())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emitted event")
	}
	select {
	case ev := <-ch:
		if ev.Type() != eventbus.TypeAudit {
			t.Fatalf("expected audit event, got %s", ev.Type())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emitted event")
	}
}

func TestSupervisor_EmptyLineIsIgnored(t *testing.T) {
	child := newFakeChild(nil)
	reg := &fakeRegistry{}
	sup := New(nil, child, reg)
	sup.Start()
	time.Sleep(30 * time.Millisecond)
	sup.Shutdown()

	if len(sup.AuditEntries()) != 0 || len(sup.SystemEntries()) != 1 {
		// exactly one system entry: the "supervisor started" notice
		t.Fatalf("unexpected entries: audit=%d system=%d", len(sup.AuditEntries()), len(sup.SystemEntries()))
	}
}
