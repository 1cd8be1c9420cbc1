package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim/debugsimtest"
)

func TestActivityLogRecordsEvents(t *testing.T) {
	log := NewActivityLog(10, debugsimtest.NewClock().Now)

	log.StageChanged("s", debugsim.StageIdle, debugsim.StageScanning)
	log.IssueDiscovered("s", debugsim.Issue{Name: "Data validation error"})
	log.IssueFixed("s", debugsim.Issue{Name: "Data validation error"}, false)
	log.IssueFixed("s", debugsim.Issue{Name: "API rate limiting issue"}, true)
	log.FaultInjected("s", debugsim.StageFixing, debugsim.FixFaultMessage)

	want := []string{
		"12:00:00.000 [stage] idle → scanning",
		"12:00:00.000 [found] Data validation error",
		"12:00:00.000 [fixed] Data validation error",
		"12:00:00.000 [closed] API rate limiting issue",
		"12:00:00.000 [fault] fixing: " + debugsim.FixFaultMessage,
	}
	got := log.Lines()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestActivityLogKeepsNewest(t *testing.T) {
	log := NewActivityLog(3, func() time.Time { return debugsimtest.Epoch })
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		log.AddEvent("found", name)
	}
	lines := log.Lines()
	if len(lines) != 3 || !strings.HasSuffix(lines[0], "c") || !strings.HasSuffix(lines[2], "e") {
		t.Errorf("unexpected buffer: %q", lines)
	}
}

func TestActivityLogRender(t *testing.T) {
	log := NewActivityLog(10, debugsimtest.NewClock().Now)
	log.AddEvent("found", strings.Repeat("x", 200))

	out := log.Render(40, 8)
	if !strings.Contains(out, "ACTIVITY") || !strings.Contains(out, "...") {
		t.Errorf("render should show title and truncate long lines:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestSchedulerDropsStoppedTicker(t *testing.T) {
	s := NewScheduler()
	calls := 0
	tk := s.Every(time.Second, func() { calls++ })
	if s.Flush() == nil {
		t.Fatal("Every should arm a tick")
	}

	if cmd := s.Fire(tickMsg{t: tk.(*teaTicker)}); cmd == nil {
		t.Error("a live ticker should be re-armed")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	tk.Stop()
	if cmd := s.Fire(tickMsg{t: tk.(*teaTicker)}); cmd != nil {
		t.Error("a stopped ticker must not be re-armed")
	}
	if calls != 1 {
		t.Errorf("stopped ticker ran: calls = %d", calls)
	}
	if s.Live() != 0 {
		t.Errorf("live = %d, want 0", s.Live())
	}
}

func TestSchedulerTickerStoppingItself(t *testing.T) {
	s := NewScheduler()
	var tk debugsim.Ticker
	tk = s.Every(time.Second, func() { tk.Stop() })
	s.Flush()

	if cmd := s.Fire(tickMsg{t: tk.(*teaTicker)}); cmd != nil {
		t.Error("ticker stopped during its own tick must not be re-armed")
	}
}
