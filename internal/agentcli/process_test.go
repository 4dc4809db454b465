//go:build !windows

package agentcli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/agentmux/agentmux/internal/events"
)

// echoVendor spawns /bin/echo with a fixed argument and never parses any
// output, enough to exercise Spawn/Stop/meta persistence without
// depending on a real coding-CLI binary being installed.
type echoVendor struct{}

func (echoVendor) SpawnArgs(rec Record, model string) (string, []string, error) {
	return "/bin/echo", []string{"hello"}, nil
}

func (echoVendor) ParseLine(line string) []events.Event { return nil }

// sleepVendor spawns a process that stays alive long enough for
// reattachment tests to observe it mid-run, rather than racing a
// near-instant exit like echoVendor.
type sleepVendor struct{}

func (sleepVendor) SpawnArgs(rec Record, model string) (string, []string, error) {
	return "/bin/sleep", []string{"5"}, nil
}

func (sleepVendor) ParseLine(line string) []events.Event { return nil }

// jsonVendor parses each complete line as a small JSON object, emitting
// one message event per line, so tail tests can observe events
// materialize as the log grows.
type jsonVendor struct{}

func (jsonVendor) SpawnArgs(rec Record, model string) (string, []string, error) {
	return "/bin/echo", nil, nil
}

func (jsonVendor) ParseLine(line string) []events.Event {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return []events.Event{{Type: events.TypeRaw, Raw: line}}
	}
	content, _ := raw["content"].(string)
	return []events.Event{{Type: events.TypeMessage, Content: content, Complete: true}}
}

func newTestRecord(cwd string) Record {
	return Record{
		AgentID:   "a1",
		TaskName:  "t1",
		AgentType: "echo",
		Prompt:    "hi",
		CWD:       cwd,
		Mode:      ModeEdit,
		Effort:    EffortDefault,
	}
}

func TestSpawnWritesMetaAndCompletes(t *testing.T) {
	base := t.TempDir()
	cwd := t.TempDir()

	p, err := Spawn(base, newTestRecord(cwd), Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, "", "/nonexistent-home", false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if p.Record().PID == 0 {
		t.Fatal("expected non-zero PID")
	}

	metaPath := filepath.Join(base, "agents", "a1", "meta.json")
	if _, err := os.Stat(metaPath); err != nil {
		t.Fatalf("meta.json not written: %v", err)
	}

	// Give the child a moment to exit; echo returns almost instantly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.UpdateStatusFromProcess()
		if p.Record().Status != StatusRunning {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := p.Record().Status; got != StatusCompleted {
		t.Errorf("Status = %v, want completed (plain-text stdout)", got)
	}
}

func TestSpawnRejectsDangerousPath(t *testing.T) {
	base := t.TempDir()
	rec := newTestRecord("/etc")
	if _, err := Spawn(base, rec, Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, "", "/root", false); err == nil {
		t.Error("expected dangerous path rejection")
	}
	if entries, _ := os.ReadDir(filepath.Join(base, "agents")); len(entries) != 0 {
		t.Error("expected no agent directory left behind on spawn failure")
	}
}

func TestSpawnRejectsRalphWhenDisabled(t *testing.T) {
	base := t.TempDir()
	cwd := t.TempDir()
	rec := newTestRecord(cwd)
	rec.Mode = ModeRalph
	if _, err := Spawn(base, rec, Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, "", "/nonexistent-home", true); err == nil {
		t.Error("expected ralph-disabled rejection")
	}
}

func TestSaveMetaLoadFromDiskRoundTrip(t *testing.T) {
	base := t.TempDir()
	cwd := t.TempDir()

	p, err := Spawn(base, newTestRecord(cwd), Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, "", "/nonexistent-home", false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	loaded := LoadFromDisk(base, "a1", Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, false)
	if loaded == nil {
		t.Fatal("LoadFromDisk returned nil")
	}
	if loaded.Record().AgentID != p.Record().AgentID {
		t.Errorf("AgentID = %q, want %q", loaded.Record().AgentID, p.Record().AgentID)
	}
}

func TestLoadFromDiskMissingReturnsNil(t *testing.T) {
	base := t.TempDir()
	if p := LoadFromDisk(base, "does-not-exist", Vendor{Backend: echoVendor{}, Parser: echoVendor{}}, false); p != nil {
		t.Error("expected nil for missing agent directory")
	}
}

// TestReadNewEventsPartialLineRetry covers the tailer's two core
// guarantees: a line without a trailing newline is not parsed until the
// newline arrives, and a read with no intervening writes adds nothing
// and leaves the offset where it was.
func TestReadNewEventsPartialLineRetry(t *testing.T) {
	dir := t.TempDir()
	p := &Process{record: newTestRecord(dir), vendor: Vendor{Backend: jsonVendor{}, Parser: jsonVendor{}}, dir: dir}

	logPath := filepath.Join(dir, stdoutFileName)
	if err := os.WriteFile(logPath, []byte("{\"content\":\"a\"}\n{\"content\":\"b\""), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.ReadNewEvents(); err != nil {
		t.Fatalf("ReadNewEvents: %v", err)
	}
	if got := p.Events(); len(got) != 1 || got[0].Content != "a" {
		t.Fatalf("got %+v, want only the complete first line parsed", got)
	}

	offset := p.offset
	if err := p.ReadNewEvents(); err != nil {
		t.Fatalf("ReadNewEvents: %v", err)
	}
	if len(p.Events()) != 1 {
		t.Error("second read with no writes must add zero events")
	}
	if p.offset != offset {
		t.Errorf("offset moved from %d to %d with no writes", offset, p.offset)
	}

	// Complete the partial line; it should now parse whole.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("}\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := p.ReadNewEvents(); err != nil {
		t.Fatalf("ReadNewEvents: %v", err)
	}
	got := p.Events()
	if len(got) != 2 || got[1].Content != "b" {
		t.Fatalf("got %+v, want the retried line parsed whole as b", got)
	}
}

func TestSplitNonEmptyLines(t *testing.T) {
	got := splitNonEmptyLines([]byte("a\n\nb\nc"))
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := newTestRecord("/tmp")
	rec.PID = 123
	rec.Status = StatusRunning
	rec.CommandLine = []string{"/usr/bin/claude", "--prompt", "hi"}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, rec) {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, rec)
	}
}

// TestProcessMatchesCommandLineMismatch exercises the
// status=running ⇔ pid-exists-AND-cmdline-matches invariant directly: a
// live PID whose recorded command line no longer matches its actual
// /proc/<pid>/cmdline must not be accepted as a match, regardless of
// strictness.
func TestProcessMatchesCommandLineMismatch(t *testing.T) {
	base := t.TempDir()
	cwd := t.TempDir()

	p, err := Spawn(base, newTestRecord(cwd), Vendor{Backend: sleepVendor{}, Parser: sleepVendor{}}, "", "/nonexistent-home", false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() { _, _ = p.Stop() }()

	pid := p.Record().PID
	if !processMatches(pid, []string{"/bin/sleep", "5"}, false) {
		t.Error("expected the recorded command line to match the live process")
	}
	if processMatches(pid, []string{"/usr/bin/something-else"}, false) {
		t.Error("expected a mismatched command line to be rejected even leniently")
	}
	if processMatches(pid, []string{"/usr/bin/something-else"}, true) {
		t.Error("expected a mismatched command line to be rejected strictly")
	}
}

// TestLoadFromDiskStrictRejectsMismatchedCommandLine simulates
// rehydration after an unclean shutdown: when the recorded argv no longer
// matches the live process behind the same PID, strict mode must not
// leave the agent classified as running.
func TestLoadFromDiskStrictRejectsMismatchedCommandLine(t *testing.T) {
	base := t.TempDir()
	cwd := t.TempDir()

	p, err := Spawn(base, newTestRecord(cwd), Vendor{Backend: sleepVendor{}, Parser: sleepVendor{}}, "", "/nonexistent-home", false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() { _, _ = p.Stop() }()

	// Corrupt the persisted command line to simulate a PID that now
	// belongs to an unrelated process.
	metaPath := filepath.Join(base, "agents", "a1", metaFileName)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	rec.CommandLine = []string{"/usr/bin/something-else"}
	rewritten, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(metaPath, rewritten, 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	loaded := LoadFromDisk(base, "a1", Vendor{Backend: sleepVendor{}, Parser: sleepVendor{}}, true)
	if loaded == nil {
		t.Fatal("LoadFromDisk returned nil")
	}
	if got := loaded.Record().Status; got == StatusRunning {
		t.Errorf("strict reattach accepted a mismatched command line, status = %v", got)
	}
}
