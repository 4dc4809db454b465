// Package manager holds the process-wide agent registry: lifecycle
// (spawn/stop), concurrency caps, retention garbage collection, and the
// task/parent-session lookups the RPC layer fans requests out over.
//
// The manager is single-threaded-cooperative per spec: every public
// method is expected to run from one dispatch goroutine (the RPC
// server's request loop), so the agent map itself has no lock of its own
// and is not designed for free-threaded access; callers must not invoke
// Manager methods concurrently from multiple goroutines without external
// serialization.
package manager

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/apierr"
	"github.com/agentmux/agentmux/internal/config"
	"github.com/agentmux/agentmux/internal/pathutil"
	"github.com/agentmux/agentmux/internal/store"
)

const (
	defaultMaxConcurrent = 10
	defaultMaxCompleted  = 50
)

// Options configures a Manager. See WithMaxConcurrent, WithMaxCompleted,
// WithHomeDir, WithRalphDisabled.
type Options struct {
	MaxConcurrent int
	MaxCompleted  int
	HomeDir       string
	DefaultMode   agentcli.Mode
	RalphDisabled bool
	PriorCrash    bool
}

// Option sets one Options field.
type Option func(*Options)

// WithMaxConcurrent overrides the running-agent cap (default 10).
func WithMaxConcurrent(n int) Option { return func(o *Options) { o.MaxConcurrent = n } }

// WithMaxCompleted overrides the retained-completed-records cap (default 50).
func WithMaxCompleted(n int) Option { return func(o *Options) { o.MaxCompleted = n } }

// WithHomeDir overrides the $HOME used for the dangerous-path check.
func WithHomeDir(dir string) Option { return func(o *Options) { o.HomeDir = dir } }

// WithDefaultMode overrides the mode applied when a spawn request leaves
// mode blank (default edit).
func WithDefaultMode(m agentcli.Mode) Option { return func(o *Options) { o.DefaultMode = m } }

// WithRalphDisabled refuses ralph-mode spawns regardless of the
// AGENTS_MCP_DISABLE_RALPH environment variable.
func WithRalphDisabled(v bool) Option { return func(o *Options) { o.RalphDisabled = v } }

// WithPriorCrash marks that the previous process to own this base dir
// exited without leaving the clean-shutdown marker (store.
// ConsumeCleanShutdownMarker returned false). Rehydration then
// re-validates every "running" record's command line strictly: a PID
// whose /proc/<pid>/cmdline can't be read is treated as not matching
// rather than given the benefit of the doubt, since an unwatched crash
// is exactly when a PID is likely to have been recycled.
func WithPriorCrash(v bool) Option { return func(o *Options) { o.PriorCrash = v } }

// Manager owns the agent registry for one process.
type Manager struct {
	baseDir string
	cfg     config.Config
	opts    Options

	agents     map[string]*agentcli.Process
	overrides  modelOverrides
	rehydrated bool
}

// modelOverrides is a vendor→effort→model table layered over cfg's
// per-vendor defaults: resolve(effort, vendor) = overrides[vendor][effort]
// ?? cfg.Model(vendor, effort).
type modelOverrides map[string]map[agentcli.Effort]string

// New creates a Manager rooted at baseDir with the given vendor config.
func New(baseDir string, cfg config.Config, opts ...Option) *Manager {
	o := Options{MaxConcurrent: defaultMaxConcurrent, MaxCompleted: defaultMaxCompleted, DefaultMode: agentcli.ModeEdit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.HomeDir == "" {
		o.HomeDir, _ = os.UserHomeDir()
	}
	return &Manager{
		baseDir:   baseDir,
		cfg:       cfg,
		opts:      o,
		agents:    map[string]*agentcli.Process{},
		overrides: modelOverrides{},
	}
}

// SpawnRequest carries the arguments to Spawn.
type SpawnRequest struct {
	TaskName        string
	AgentType       string
	Prompt          string
	CWD             string
	Mode            agentcli.Mode
	Effort          agentcli.Effort
	ParentSessionID string
	WorkspaceDir    string
}

// Spawn validates the request, checks the concurrency cap and CLI
// availability, and delegates to agentcli.Spawn. On success the new
// agent is registered and a retention sweep runs.
func (m *Manager) Spawn(req SpawnRequest) (*agentcli.Process, error) {
	m.ensureRehydrated()

	if req.TaskName == "" || req.AgentType == "" || req.Prompt == "" {
		return nil, apierr.New(apierr.InvalidArgument, "task_name, agent_type, and prompt are required")
	}
	if req.Mode == "" {
		req.Mode = m.opts.DefaultMode
	}
	if !req.Mode.Valid() {
		return nil, apierr.New(apierr.InvalidArgument, "invalid mode %q", req.Mode)
	}
	if req.Effort == "" {
		req.Effort = agentcli.EffortDefault
	}
	if !req.Effort.Valid() {
		return nil, apierr.New(apierr.InvalidArgument, "invalid effort %q", req.Effort)
	}
	if req.CWD == "" {
		return nil, apierr.New(apierr.InvalidArgument, "cwd is required")
	}

	vendor, ok := agentcli.Lookup(req.AgentType)
	if !ok || !m.vendorEnabled(req.AgentType) {
		return nil, apierr.New(apierr.CLIMissing, "agent_type %q is not available", req.AgentType)
	}
	if !m.cliAvailable(req.AgentType) {
		return nil, apierr.New(apierr.CLIMissing, "%s CLI not found on PATH", req.AgentType)
	}

	if m.runningCountLocked() >= m.opts.MaxConcurrent {
		return nil, apierr.New(apierr.ResourceExhausted, "max_concurrent (%d) reached", m.opts.MaxConcurrent)
	}

	model := m.ResolveModel(req.Effort, req.AgentType)
	rec := agentcli.Record{
		AgentID:         req.AgentType + "-" + shortUUID(),
		TaskName:        req.TaskName,
		AgentType:       req.AgentType,
		Prompt:          req.Prompt,
		CWD:             req.CWD,
		Mode:            req.Mode,
		Effort:          req.Effort,
		ParentSessionID: req.ParentSessionID,
		WorkspaceDir:    req.WorkspaceDir,
		BaseDir:         m.baseDir,
	}

	ralphDisabled := m.opts.RalphDisabled
	p, err := agentcli.Spawn(m.baseDir, rec, vendor, model, m.opts.HomeDir, ralphDisabled)
	if err != nil {
		switch {
		case errors.Is(err, agentcli.ErrDangerousPath):
			return nil, apierr.Wrap(apierr.DangerousPath, err)
		case errors.Is(err, agentcli.ErrRalphDisabled), errors.Is(err, agentcli.ErrInvalidMode), errors.Is(err, agentcli.ErrInvalidEffort):
			return nil, apierr.Wrap(apierr.InvalidArgument, err)
		default:
			return nil, apierr.Wrap(apierr.ResourceExhausted, err)
		}
	}

	m.agents[rec.AgentID] = p
	p.StartTailer()
	m.evictCompleted()
	return p, nil
}

// shortUUID returns the first segment of a random UUID, matching the
// `<agent_type>-<short-uuid>` agent_id shape.
func shortUUID() string {
	id := uuid.New().String()
	return id[:8]
}

// vendorEnabled reports whether agentType is both registered (a Backend
// exists) and enabled in cfg.
func (m *Manager) vendorEnabled(agentType string) bool {
	a, ok := m.cfg.Agents[agentType]
	return ok && a.Enabled
}

// cliAvailable reports whether the vendor's configured binary resolves
// on PATH. Spawn errors are also capable of surfacing a PATH miss (the
// binary can disappear between this check and the actual exec.Command
// call), but this check gives Spawn a distinct cli_missing error instead
// of a generic resource_exhausted one for the common case.
func (m *Manager) cliAvailable(agentType string) bool {
	a, ok := m.cfg.Agents[agentType]
	if !ok || a.Command == "" {
		return false
	}
	_, err := exec.LookPath(a.Command)
	return err == nil
}

// ResolveModel applies the overrides-over-defaults layering: an
// override for (vendor, effort) wins; otherwise cfg's built-in mapping;
// empty string falls through to the vendor CLI's own default. Exported
// so callers (e.g. the RPC layer's tool descriptions) can display the
// effective model without duplicating the layering rule.
func (m *Manager) ResolveModel(effort agentcli.Effort, vendor string) string {
	if byEffort, ok := m.overrides[vendor]; ok {
		if model, ok := byEffort[effort]; ok && model != "" {
			return model
		}
	}
	return m.cfg.Model(vendor, effort)
}

// SetModelOverrides installs a layered override table. Empty strings are
// ignored (they fall through to cfg's defaults rather than clearing them).
func (m *Manager) SetModelOverrides(table map[string]map[agentcli.Effort]string) {
	out := modelOverrides{}
	for vendor, byEffort := range table {
		filtered := map[agentcli.Effort]string{}
		for effort, model := range byEffort {
			if model != "" {
				filtered[effort] = model
			}
		}
		if len(filtered) > 0 {
			out[vendor] = filtered
		}
	}
	m.overrides = out
}

// Get returns the agent registered under id, or false if unknown.
func (m *Manager) Get(id string) (*agentcli.Process, bool) {
	m.ensureRehydrated()
	p, ok := m.agents[id]
	return p, ok
}

// ListAll returns every registered agent, refreshing each one's status
// from its OS process first. Order is unspecified.
func (m *Manager) ListAll(ctx context.Context) []*agentcli.Process {
	m.ensureRehydrated()
	out := make([]*agentcli.Process, 0, len(m.agents))
	for _, p := range m.agents {
		out = append(out, p)
	}
	m.refreshAll(ctx, out)
	return out
}

// refreshAll fans UpdateStatusFromProcess and ReadNewEvents out across
// agents concurrently via errgroup, bounding the wall-clock cost of a
// Status/Tasks call to the slowest single agent's I/O rather than the
// sum over all of them.
func (m *Manager) refreshAll(ctx context.Context, agents []*agentcli.Process) {
	g, _ := errgroup.WithContext(ctx)
	for _, p := range agents {
		p := p
		g.Go(func() error {
			_ = p.ReadNewEvents()
			p.UpdateStatusFromProcess()
			return nil
		})
	}
	_ = g.Wait()
}

// ListRunning returns agents with status running.
func (m *Manager) ListRunning(ctx context.Context) []*agentcli.Process {
	return filterStatus(m.ListAll(ctx), agentcli.StatusRunning)
}

// ListCompleted returns agents with a terminal status.
func (m *Manager) ListCompleted(ctx context.Context) []*agentcli.Process {
	all := m.ListAll(ctx)
	out := make([]*agentcli.Process, 0, len(all))
	for _, p := range all {
		if p.Record().Status != agentcli.StatusRunning {
			out = append(out, p)
		}
	}
	return out
}

// ListByTask returns every agent whose TaskName matches name.
func (m *Manager) ListByTask(ctx context.Context, name string) []*agentcli.Process {
	out := make([]*agentcli.Process, 0)
	for _, p := range m.ListAll(ctx) {
		if p.Record().TaskName == name {
			out = append(out, p)
		}
	}
	return out
}

// ListByParentSession returns every agent spawned on behalf of sid.
func (m *Manager) ListByParentSession(ctx context.Context, sid string) []*agentcli.Process {
	out := make([]*agentcli.Process, 0)
	for _, p := range m.ListAll(ctx) {
		if p.Record().ParentSessionID == sid {
			out = append(out, p)
		}
	}
	return out
}

func filterStatus(agents []*agentcli.Process, status agentcli.Status) []*agentcli.Process {
	out := make([]*agentcli.Process, 0, len(agents))
	for _, p := range agents {
		if p.Record().Status == status {
			out = append(out, p)
		}
	}
	return out
}

// StopResult groups outcomes across a broadcast Stop.
type StopResult struct {
	Stopped        []string `json:"stopped"`
	AlreadyStopped []string `json:"already_stopped"`
	NotFound       []string `json:"not_found"`
}

// Stop stops a single agent by id.
func (m *Manager) Stop(id string) (StopResult, error) {
	m.ensureRehydrated()
	p, ok := m.agents[id]
	if !ok {
		return StopResult{}, apierr.New(apierr.NotFound, "no such agent %q", id)
	}
	return m.stopOne(p), nil
}

// StopByTask broadcasts Stop across every agent in task name.
func (m *Manager) StopByTask(ctx context.Context, name string) StopResult {
	var res StopResult
	for _, p := range m.ListByTask(ctx, name) {
		r := m.stopOne(p)
		res.Stopped = append(res.Stopped, r.Stopped...)
		res.AlreadyStopped = append(res.AlreadyStopped, r.AlreadyStopped...)
	}
	return res
}

func (m *Manager) stopOne(p *agentcli.Process) StopResult {
	stopped, err := p.Stop()
	id := p.Record().AgentID
	if err != nil {
		return StopResult{AlreadyStopped: []string{id}}
	}
	if stopped {
		return StopResult{Stopped: []string{id}}
	}
	return StopResult{AlreadyStopped: []string{id}}
}

// evictCompleted removes the oldest completed agent directories beyond
// MaxCompleted, never touching running agents. Called after every
// successful Spawn.
func (m *Manager) evictCompleted() {
	type entry struct {
		id          string
		completedAt time.Time
	}
	var completed []entry
	for id, p := range m.agents {
		rec := p.Record()
		if rec.Status == agentcli.StatusRunning {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, rec.CompletedAt)
		completed = append(completed, entry{id: id, completedAt: ts})
	}
	if len(completed) <= m.opts.MaxCompleted {
		return
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].completedAt.Before(completed[j].completedAt) })
	evict := completed[:len(completed)-m.opts.MaxCompleted]
	for _, e := range evict {
		delete(m.agents, e.id)
		_ = os.RemoveAll(store.AgentDir(m.baseDir, e.id))
	}
}

// runningCountLocked counts currently-running agents without refreshing
// status first; Spawn's cap check must be cheap and synchronous.
func (m *Manager) runningCountLocked() int {
	n := 0
	for _, p := range m.agents {
		if p.Record().Status == agentcli.StatusRunning {
			n++
		}
	}
	return n
}

// ComputePathLCA returns the longest common ancestor of paths, used to
// populate WorkspaceDir when a host groups agents by shared cwd.
func ComputePathLCA(paths []string) string {
	return pathutil.LongestCommonAncestor(paths)
}

// ensureRehydrated scans baseDir/agents/* on first use (or after
// Initialize) and loads every on-disk record not already registered,
// reattaching to a live PID when one still matches.
func (m *Manager) ensureRehydrated() {
	if m.rehydrated {
		return
	}
	m.Initialize()
}

// Initialize forces a rescan of the on-disk agent directory, picking up
// any record not already in the in-memory map. Safe to call more than
// once; already-registered agents are left untouched.
func (m *Manager) Initialize() {
	m.rehydrated = true
	dir := filepath.Join(m.baseDir, store.AgentsSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		id := ent.Name()
		if _, exists := m.agents[id]; exists {
			continue
		}
		vendor, ok := agentcli.Lookup(inferVendor(id))
		if !ok {
			continue
		}
		p := agentcli.LoadFromDisk(m.baseDir, id, vendor, m.opts.PriorCrash)
		if p == nil {
			continue
		}
		m.agents[id] = p
		p.StartTailer()
	}
}

// inferVendor recovers the agent_type prefix from an agent_id of the
// form "<agent_type>-<short-uuid>".
func inferVendor(agentID string) string {
	for i := len(agentID) - 1; i >= 0; i-- {
		if agentID[i] == '-' {
			return agentID[:i]
		}
	}
	return agentID
}
