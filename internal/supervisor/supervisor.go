package supervisor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sable-ops/bouncer/internal/childproc"
	"github.com/sable-ops/bouncer/internal/classifier"
	"github.com/sable-ops/bouncer/internal/eventbus"
)

// Registry is the subset of bans.Registry the Supervisor drives.
type Registry interface {
	OnEvent(ev classifier.Event)
	FindKnown(content string) string
}

// Child is the subset of childproc.ChildProcess the Supervisor drives.
type Child interface {
	ReadLine(stream childproc.Stream) string
	Running() bool
	Done() <-chan struct{}
	Stop() error
}

// Supervisor pumps classified lines from the child into the audit and
// system rings and dispatches Join/Leave/Command events to Registry.
type Supervisor struct {
	log      *slog.Logger
	child    Child
	registry Registry

	audit  *auditRing
	system *systemRing

	router *eventbus.Router

	stop chan struct{}
	wg   sync.WaitGroup
}

// SetRouter attaches an eventbus.Router that mirrors every audit and
// system entry for live consumers like the Dashboard. Optional — nil is
// a valid state and Emit calls become no-ops.
func (s *Supervisor) SetRouter(router *eventbus.Router) {
	s.router = router
}

func (s *Supervisor) emit(event eventbus.Event) {
	if s.router != nil {
		s.router.Emit(event)
	}
}

// New creates a Supervisor over an already-running child and registry.
func New(log *slog.Logger, child Child, registry Registry) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		log:      log,
		child:    child,
		registry: registry,
		audit:    newAuditRing(RingCap),
		system:   newSystemRing(RingCap),
		stop:     make(chan struct{}),
	}
}

// Start launches the log pump task.
func (s *Supervisor) Start() {
	s.wg.Add(1)
	go s.pumpLoop()
}

// Shutdown stops the log pump, waits for it to exit, then stops the
// child.
func (s *Supervisor) Shutdown() {
	close(s.stop)
	s.wg.Wait()
	if err := s.child.Stop(); err != nil {
		s.log.Warn("failed to stop child process", "error", err)
	}
}

func (s *Supervisor) pumpLoop() {
	defer s.wg.Done()
	s.recordSystem("supervisor started")
	for {
		select {
		case <-s.stop:
			return
		case <-s.child.Done():
			s.recordSystem("child process exited")
			return
		default:
		}

		line := s.child.ReadLine(childproc.Stdout)
		if line == "" {
			time.Sleep(IdlePollInterval)
			continue
		}
		s.handleLine(line)
	}
}

func (s *Supervisor) handleLine(line string) {
	ev := classifier.Classify(line, time.Now(), resolverFunc(s.registry.FindKnown))

	if ev.Kind == classifier.KindOther {
		s.recordSystem(line)
		return
	}

	s.registry.OnEvent(ev)

	entry := AuditEntry{Timestamp: time.Now(), Kind: ev.Kind.String(), Player: ev.Player}
	switch ev.Kind {
	case classifier.KindJoin:
		entry.Content = ev.ClientInfo
	case classifier.KindCommand:
		entry.Content = ev.Content
	case classifier.KindChat:
		entry.Content = ev.Text
	}
	s.audit.Append(entry)
	s.emit(eventbus.NewAuditEvent(entry.Timestamp, entry.Kind, entry.Player, entry.Content))
}

func (s *Supervisor) recordSystem(message string) {
	entry := SystemEntry{Timestamp: time.Now(), Message: message}
	s.system.Append(entry)
	s.emit(eventbus.NewSystemEvent(entry.Timestamp, entry.Message))
}

// AuditEntries returns a snapshot of the audit ring.
func (s *Supervisor) AuditEntries() []AuditEntry {
	return s.audit.Snapshot()
}

// SystemEntries returns a snapshot of the system ring.
func (s *Supervisor) SystemEntries() []SystemEntry {
	return s.system.Snapshot()
}

// resolverFunc adapts a plain function to classifier.KnownPlayerResolver.
type resolverFunc func(content string) string

func (f resolverFunc) FindKnown(content string) string { return f(content) }
