package bans

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sable-ops/bouncer/internal/classifier"
	"github.com/sable-ops/bouncer/internal/eventbus"
)

// SweepInterval is how often the sweeper checks for bans whose unbansAt
// has passed.
const SweepInterval = 30 * time.Second

const timeLayout = "2006-01-02 15:04:05"
const sentinelText = "0000-00-00 00:00:00"

// Registry holds known players, online players, active bans, and the
// forbidden-command table (replaced wholesale by SetRules), and enforces
// bans against classified commands.
type Registry struct {
	log  *slog.Logger
	send Sender

	playersFile string
	bannedFile  string

	mu     sync.Mutex
	known  map[string]struct{}
	online map[string]OnlinePlayer
	banned map[string]BanRecord
	rules  []ForbiddenRule

	router *eventbus.Router

	stop chan struct{}
	wg   sync.WaitGroup
}

// SetRouter attaches an eventbus.Router that mirrors every ban and
// pardon for live consumers like the Dashboard. Optional.
func (r *Registry) SetRouter(router *eventbus.Router) {
	r.router = router
}

func (r *Registry) emit(event eventbus.Event) {
	if r.router != nil {
		r.router.Emit(event)
	}
}

// New creates a Registry backed by the given persistence files and rule
// table, loading any existing players/banned records.
func New(log *slog.Logger, send Sender, playersFile, bannedFile string, rules []ForbiddenRule) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		log:         log,
		send:        send,
		playersFile: playersFile,
		bannedFile:  bannedFile,
		known:       make(map[string]struct{}),
		online:      make(map[string]OnlinePlayer),
		banned:      make(map[string]BanRecord),
		rules:       rules,
		stop:        make(chan struct{}),
	}
	if err := r.loadPlayers(); err != nil {
		return nil, err
	}
	if err := r.loadBanned(); err != nil {
		return nil, err
	}
	return r, nil
}

// Start launches the pardon sweeper.
func (r *Registry) Start() {
	r.wg.Add(1)
	go r.sweepLoop()
}

// Shutdown stops the sweeper and waits for it to exit.
func (r *Registry) Shutdown() {
	close(r.stop)
	r.wg.Wait()
}

// OnEvent applies a classified Join/Leave/Command event's side effects.
func (r *Registry) OnEvent(ev classifier.Event) {
	switch ev.Kind {
	case classifier.KindJoin:
		r.mu.Lock()
		_, already := r.known[ev.Player]
		r.known[ev.Player] = struct{}{}
		r.online[ev.Player] = OnlinePlayer{Name: ev.Player, JoinedAt: time.Now(), ClientInfo: ev.ClientInfo}
		r.mu.Unlock()
		if !already {
			if err := r.savePlayers(); err != nil {
				r.log.Warn("failed to persist players file", "error", err)
			}
		}
	case classifier.KindLeave:
		r.mu.Lock()
		delete(r.online, ev.Player)
		r.mu.Unlock()
	case classifier.KindCommand:
		r.enforce(ev)
	}
}

// enforce checks a command's content against the forbidden-command table
// in load order, banning the player on the first rule match.
func (r *Registry) enforce(ev classifier.Event) {
	if ev.Player == "" {
		return
	}
	match := foldAndStrip(ev.Content)

	r.mu.Lock()
	var hit *ForbiddenRule
	for i := range r.rules {
		if strings.Contains(match, foldAndStrip(r.rules[i].SubstringKey)) {
			hit = &r.rules[i]
			break
		}
	}
	r.mu.Unlock()

	if hit == nil {
		return
	}
	var reason string
	if hit.BanHours == 0 {
		reason = fmt.Sprintf("%s (banned permanently)", ev.Content)
	} else {
		unbansAt := time.Now().Add(time.Duration(hit.BanHours) * time.Hour)
		reason = fmt.Sprintf("%s (banned until %s)", ev.Content, unbansAt.Format(timeLayout))
	}
	r.Ban(ev.Player, reason, hit.BanHours)
}

func foldAndStrip(s string) string {
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), "")
}

// SetRules replaces the forbidden-command table in place, for hot reload.
func (r *Registry) SetRules(rules []ForbiddenRule) {
	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()
}

// Ban upserts a ban record. hours == 0 means permanent.
func (r *Registry) Ban(name, reason string, hours int) {
	now := time.Now()
	rec := BanRecord{Name: name, Reason: reason, BannedAt: now}
	if hours == 0 {
		rec.Permanent = true
		rec.UnbansAt = NeverUnban
	} else {
		rec.UnbansAt = now.Add(time.Duration(hours) * time.Hour)
	}

	r.mu.Lock()
	r.banned[name] = rec
	r.mu.Unlock()

	if err := r.send.Send([]byte(fmt.Sprintf("ban %s %s\n", name, reason))); err != nil {
		r.log.Warn("failed to send ban command to child", "player", name, "error", err)
	}
	if err := r.saveBanned(); err != nil {
		r.log.Warn("failed to persist banned file", "error", err)
	}
	r.emit(eventbus.NewBanEvent(rec.BannedAt, name, reason))
}

// Pardon removes name's ban record if present. Returns false if there was
// none.
func (r *Registry) Pardon(name string) bool {
	r.mu.Lock()
	_, ok := r.banned[name]
	if ok {
		delete(r.banned, name)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	if err := r.send.Send([]byte(fmt.Sprintf("pardon %s\n", name))); err != nil {
		r.log.Warn("failed to send pardon command to child", "player", name, "error", err)
	}
	if err := r.saveBanned(); err != nil {
		r.log.Warn("failed to persist banned file", "error", err)
	}
	r.emit(eventbus.NewPardonEvent(time.Now(), name))
	return true
}

// Players returns every known player name.
func (r *Registry) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.known))
	for name := range r.known {
		out = append(out, name)
	}
	return out
}

// Banned returns a snapshot of all active ban records.
func (r *Registry) Banned() []BanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BanRecord, 0, len(r.banned))
	for _, rec := range r.banned {
		out = append(out, rec)
	}
	return out
}

// Online returns a snapshot of currently online players.
func (r *Registry) Online() []OnlinePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OnlinePlayer, 0, len(r.online))
	for _, p := range r.online {
		out = append(out, p)
	}
	return out
}

// IsBanned reports whether name currently has an active ban record.
func (r *Registry) IsBanned(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.banned[name]
	return ok
}

// IsOnline reports whether name is currently online.
func (r *Registry) IsOnline(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[name]
	return ok
}

// FindKnown implements classifier.KnownPlayerResolver: it returns the
// first known player name that appears as a substring of content.
func (r *Registry) FindKnown(content string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.known {
		if strings.Contains(content, name) {
			return name
		}
	}
	return ""
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	now := time.Now()
	r.mu.Lock()
	var expired []string
	for name, rec := range r.banned {
		if !rec.Permanent && !rec.UnbansAt.After(now) {
			expired = append(expired, name)
		}
	}
	r.mu.Unlock()

	for _, name := range expired {
		r.Pardon(name)
	}
}

// loadPlayers reads the players file, one name per line, tolerating blank and
// comment lines. A missing file is treated as empty.
func (r *Registry) loadPlayers() error {
	f, err := os.Open(r.playersFile)
	if os.IsNotExist(err) {
		return r.savePlayers()
	}
	if err != nil {
		return err
	}
	defer f.Close()

	names := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names[line] = struct{}{}
	}
	r.mu.Lock()
	r.known = names
	r.mu.Unlock()
	return nil
}

func (r *Registry) savePlayers() error {
	r.mu.Lock()
	names := make([]string, 0, len(r.known))
	for name := range r.known {
		names = append(names, name)
	}
	r.mu.Unlock()

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return os.WriteFile(r.playersFile, []byte(b.String()), 0644)
}

// loadBanned reads the pipe-delimited banned file:
// name|reason|bannedAt|unbansAt. Malformed lines are skipped silently.
func (r *Registry) loadBanned() error {
	f, err := os.Open(r.bannedFile)
	if os.IsNotExist(err) {
		return r.saveBanned()
	}
	if err != nil {
		return err
	}
	defer f.Close()

	records := make(map[string]BanRecord)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		bannedAt, err1 := time.Parse(timeLayout, parts[2])
		unbansAt, err2 := time.Parse(timeLayout, parts[3])
		if err1 != nil || err2 != nil {
			continue
		}
		rec := BanRecord{
			Name:     parts[0],
			Reason:   parts[1],
			BannedAt: bannedAt,
			UnbansAt: unbansAt,
		}
		if parts[3] == sentinelText {
			rec.Permanent = true
			rec.UnbansAt = NeverUnban
		}
		records[rec.Name] = rec
	}
	r.mu.Lock()
	r.banned = records
	r.mu.Unlock()
	return nil
}

func (r *Registry) saveBanned() error {
	r.mu.Lock()
	records := make([]BanRecord, 0, len(r.banned))
	for _, rec := range r.banned {
		records = append(records, rec)
	}
	r.mu.Unlock()

	var b strings.Builder
	for _, rec := range records {
		unbans := sentinelText
		if !rec.Permanent {
			unbans = rec.UnbansAt.Format(timeLayout)
		}
		b.WriteString(fmt.Sprintf("%s|%s|%s|%s\n", rec.Name, rec.Reason, rec.BannedAt.Format(timeLayout), unbans))
	}
	return os.WriteFile(r.bannedFile, []byte(b.String()), 0644)
}

// LoadForbiddenRules parses a "keyword <hours>" whitespace-separated
// forbidden-command list, one rule per line, with "#" comments and blank
// lines permitted. A missing file yields an empty table.
func LoadForbiddenRules(path string) ([]ForbiddenRule, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rules []ForbiddenRule
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		hours, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		key := strings.Join(fields[:len(fields)-1], " ")
		rules = append(rules, ForbiddenRule{SubstringKey: key, BanHours: hours})
	}
	return rules, nil
}
