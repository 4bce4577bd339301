package votes

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sable-ops/bouncer/internal/eventbus"
)

// ExecutorSweepInterval is how often pending requests are checked for
// having crossed the vote threshold.
const ExecutorSweepInterval = 10 * time.Second

// ExpiryWindow is how long an executed request is retained before it and
// its uploaded image (if any) are removed.
const ExpiryWindow = 24 * time.Hour

// Engine holds the in-flight command-request queue.
type Engine struct {
	log       *slog.Logger
	executor  Executor
	threshold int
	dataFile  string
	uploadDir string

	mu       sync.Mutex
	requests map[string]*CommandRequest

	router *eventbus.Router

	stop chan struct{}
	wg   sync.WaitGroup
}

// SetRouter attaches an eventbus.Router that mirrors request creation,
// votes, and executions for live consumers like the Dashboard. Optional.
func (e *Engine) SetRouter(router *eventbus.Router) {
	e.router = router
}

func (e *Engine) emit(event eventbus.Event) {
	if e.router != nil {
		e.router.Emit(event)
	}
}

// New creates an Engine backed by dataFile for persistence and uploadDir
// for attached images, loading any existing requests.
func New(log *slog.Logger, executor Executor, threshold int, dataFile, uploadDir string) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log:       log,
		executor:  executor,
		threshold: threshold,
		dataFile:  dataFile,
		uploadDir: uploadDir,
		requests:  make(map[string]*CommandRequest),
		stop:      make(chan struct{}),
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("votes: upload dir: %w", err)
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Start launches the executor/expiry sweeper.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.sweepLoop()
}

// Shutdown stops the sweeper and waits for it to exit.
func (e *Engine) Shutdown() {
	close(e.stop)
	e.wg.Wait()
}

// Create registers a new command request and returns its id. If
// imageBytes is non-empty it is written to uploadDir/<id><imageExt>.
func (e *Engine) Create(applicant, command, reason string, imageBytes []byte, imageExt string) (string, error) {
	id := newRequestID()
	req := &CommandRequest{
		ID:        id,
		Applicant: applicant,
		Command:   command,
		Reason:    reason,
		VotedIPs:  make(map[string]struct{}),
		CreatedAt: time.Now(),
	}

	if len(imageBytes) > 0 {
		name := id + imageExt
		path := filepath.Join(e.uploadDir, name)
		if err := os.WriteFile(path, imageBytes, 0644); err != nil {
			return "", fmt.Errorf("votes: write image: %w", err)
		}
		req.ImageRef = name
	}

	e.mu.Lock()
	e.requests[id] = req
	e.mu.Unlock()

	if err := e.save(); err != nil {
		e.log.Warn("failed to persist requests file", "error", err)
	}
	e.emit(eventbus.NewVoteEvent(req.CreatedAt, id, applicant, command, "created"))
	return id, nil
}

// Vote records ip's vote for id. The outcome is strictly observable: on
// any non-OK outcome the record is left unchanged.
func (e *Engine) Vote(id, ip string) VoteStatus {
	e.mu.Lock()
	req, ok := e.requests[id]
	if !ok {
		e.mu.Unlock()
		return VoteNoSuchRequest
	}
	if req.Executed {
		e.mu.Unlock()
		return VoteAlreadyExecuted
	}
	if _, voted := req.VotedIPs[ip]; voted {
		e.mu.Unlock()
		return VoteDuplicateIP
	}
	req.VotedIPs[ip] = struct{}{}
	applicant, command := req.Applicant, req.Command
	e.mu.Unlock()

	if err := e.save(); err != nil {
		e.log.Warn("failed to persist requests file", "error", err)
	}
	e.emit(eventbus.NewVoteEvent(time.Now(), id, applicant, command, "voted"))
	return VoteOK
}

// List returns a snapshot of all requests, sorted newest-first by
// CreatedAt.
func (e *Engine) List() []CommandRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]CommandRequest, 0, len(e.requests))
	for _, req := range e.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Get returns a single request by id.
func (e *Engine) Get(id string) (CommandRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	req, ok := e.requests[id]
	if !ok {
		return CommandRequest{}, false
	}
	return *req, true
}

// Threshold returns the configured vote threshold.
func (e *Engine) Threshold() int {
	return e.threshold
}

// IsSelfPardon reports whether command, once case-folded and
// whitespace-stripped with any leading slash dropped, begins with
// "pardon" and the remainder contains applicant's case-folded name.
func IsSelfPardon(applicant, command string) bool {
	c := strings.ToLower(strings.Join(strings.Fields(command), ""))
	c = strings.TrimPrefix(c, "/")
	if !strings.HasPrefix(c, "pardon") {
		return false
	}
	rest := c[len("pardon"):]
	name := strings.ToLower(strings.Join(strings.Fields(applicant), ""))
	return name != "" && strings.Contains(rest, name)
}

func newRequestID() string {
	ms := time.Now().UnixMilli()
	n := 1000 + rand.IntN(9000)
	return fmt.Sprintf("%x-%d", ms, n)
}

func (e *Engine) sweepLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(ExecutorSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.executeReady()
			e.expireOld()
		}
	}
}

func (e *Engine) executeReady() {
	e.mu.Lock()
	var toRun []CommandRequest
	changed := false
	for _, req := range e.requests {
		if !req.Executed && len(req.VotedIPs) >= e.threshold {
			req.Executed = true
			req.ExecutedAt = time.Now()
			toRun = append(toRun, *req)
			changed = true
		}
	}
	e.mu.Unlock()

	for _, req := range toRun {
		e.executor.Execute(req.Command, req.Applicant)
		e.emit(eventbus.NewVoteEvent(req.ExecutedAt, req.ID, req.Applicant, req.Command, "executed"))
	}
	if changed {
		if err := e.save(); err != nil {
			e.log.Warn("failed to persist requests file", "error", err)
		}
	}
}

func (e *Engine) expireOld() {
	now := time.Now()
	e.mu.Lock()
	var removed []CommandRequest
	for id, req := range e.requests {
		if req.Executed && now.Sub(req.ExecutedAt) >= ExpiryWindow {
			removed = append(removed, *req)
			delete(e.requests, id)
		}
	}
	e.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	for _, req := range removed {
		if req.ImageRef != "" {
			path := filepath.Join(e.uploadDir, req.ImageRef)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				e.log.Warn("failed to delete expired request image", "path", path, "error", err)
			}
		}
	}
	if err := e.save(); err != nil {
		e.log.Warn("failed to persist requests file", "error", err)
	}
}

// load reads the "=== REQUEST === ... === END ===" block file. Malformed
// blocks are skipped silently, preserving the rest.
func (e *Engine) load() error {
	data, err := os.ReadFile(e.dataFile)
	if os.IsNotExist(err) {
		return e.save()
	}
	if err != nil {
		return err
	}

	requests := make(map[string]*CommandRequest)
	lines := strings.Split(string(data), "\n")
	var block map[string]string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "=== REQUEST ===":
			block = make(map[string]string)
		case line == "=== END ===":
			if block != nil {
				if req := blockToRequest(block); req != nil {
					requests[req.ID] = req
				}
			}
			block = nil
		case block != nil:
			kv := strings.SplitN(line, "|", 2)
			if len(kv) == 2 {
				block[kv[0]] = kv[1]
			}
		}
	}

	e.mu.Lock()
	e.requests = requests
	e.mu.Unlock()
	return nil
}

func blockToRequest(block map[string]string) *CommandRequest {
	id := block["id"]
	if id == "" {
		return nil
	}
	created, err := strconv.ParseInt(block["created"], 10, 64)
	if err != nil {
		return nil
	}
	req := &CommandRequest{
		ID:        id,
		Applicant: block["applicant"],
		Command:   block["command"],
		Reason:    block["reason"],
		ImageRef:  block["image"],
		CreatedAt: time.UnixMilli(created),
		VotedIPs:  make(map[string]struct{}),
	}
	if block["votes"] != "" {
		for _, ip := range strings.Split(block["votes"], ",") {
			if ip != "" {
				req.VotedIPs[ip] = struct{}{}
			}
		}
	}
	if block["executed"] == "true" {
		req.Executed = true
		if ms, err := strconv.ParseInt(block["executed_at"], 10, 64); err == nil {
			req.ExecutedAt = time.UnixMilli(ms)
		}
	}
	return req
}

func (e *Engine) save() error {
	e.mu.Lock()
	reqs := make([]*CommandRequest, 0, len(e.requests))
	for _, req := range e.requests {
		reqs = append(reqs, req)
	}
	e.mu.Unlock()

	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID < reqs[j].ID })

	var b strings.Builder
	for _, req := range reqs {
		b.WriteString("=== REQUEST ===\n")
		fmt.Fprintf(&b, "id|%s\n", req.ID)
		fmt.Fprintf(&b, "applicant|%s\n", req.Applicant)
		fmt.Fprintf(&b, "command|%s\n", req.Command)
		fmt.Fprintf(&b, "reason|%s\n", req.Reason)
		fmt.Fprintf(&b, "image|%s\n", req.ImageRef)
		fmt.Fprintf(&b, "created|%d\n", req.CreatedAt.UnixMilli())
		fmt.Fprintf(&b, "executed|%t\n", req.Executed)
		if req.Executed {
			fmt.Fprintf(&b, "executed_at|%d\n", req.ExecutedAt.UnixMilli())
		}
		ips := make([]string, 0, len(req.VotedIPs))
		for ip := range req.VotedIPs {
			ips = append(ips, ip)
		}
		sort.Strings(ips)
		fmt.Fprintf(&b, "votes|%s\n", strings.Join(ips, ","))
		b.WriteString("=== END ===\n")
	}
	return os.WriteFile(e.dataFile, []byte(b.String()), 0644)
}
