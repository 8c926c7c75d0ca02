package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/icexbuddy/buddyterm/internal/service"
	"github.com/icexbuddy/buddyterm/internal/testutil"
)

func TestTaskActionLabelIsContextSensitive(t *testing.T) {
	if got := taskActionLabel(service.StatusPending); got != "Complete" {
		t.Fatalf("pending task must expose Complete, got %q", got)
	}
	if got := taskActionLabel(service.StatusCompleted); got != "Reopen" {
		t.Fatalf("completed task must expose Reopen, got %q", got)
	}
}

func TestFilterTabsMarkExactlyOneActive(t *testing.T) {
	for _, f := range []service.Filter{service.FilterAll, service.FilterPending, service.FilterCompleted} {
		tabs := renderFilterTabs(f)
		if got := strings.Count(tabs, "["); got != 1 {
			t.Fatalf("filter %s: expected exactly one active tab, got %d in %q", f, got, tabs)
		}
		if !strings.Contains(tabs, "["+titleCase(string(f))+"]") {
			t.Fatalf("filter %s not marked active in %q", f, tabs)
		}
	}
}

func TestFilterCycleVisitsAllStates(t *testing.T) {
	f := service.FilterAll
	seen := map[service.Filter]bool{}
	for i := 0; i < 3; i++ {
		seen[f] = true
		f = f.Next()
	}
	if f != service.FilterAll {
		t.Fatalf("cycle must return to all, got %s", f)
	}
	if len(seen) != 3 {
		t.Fatalf("cycle must visit all three filters, saw %v", seen)
	}
}

func TestTaskCardLinesGolden(t *testing.T) {
	now := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)
	pending := service.Task{
		ID:          "1",
		Description: "water the plants",
		Status:      service.StatusPending,
		CreatedAt:   time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
	completed := service.Task{
		ID:          "2",
		Description: "call dentist",
		Status:      service.StatusCompleted,
		CreatedAt:   time.Date(2026, 8, 22, 9, 30, 0, 0, time.UTC),
	}
	testutil.GoldenString(t, "task_card_pending", strings.Join(taskCardLines(pending, now), "\n"))
	testutil.GoldenString(t, "task_card_completed", strings.Join(taskCardLines(completed, now), "\n"))
}

func TestTaskCardOmitsAgeWithoutTimestamp(t *testing.T) {
	lines := taskCardLines(service.Task{ID: "3", Description: "x", Status: service.StatusPending}, time.Now())
	if strings.Contains(lines[1], "added") {
		t.Fatalf("zero created_at must omit the age, got %q", lines[1])
	}
}

func TestHumanizeAge(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
	}
	for _, tc := range cases {
		if got := humanizeAge(tc.d); got != tc.want {
			t.Errorf("humanizeAge(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestRenderMessagesShowsPromptWhenEmpty(t *testing.T) {
	out := renderMessages(nil, 60)
	if !strings.Contains(out, "Say hello") {
		t.Fatalf("unexpected empty-history prompt %q", out)
	}
}

func TestRenderMessagesKeepsArrivalOrder(t *testing.T) {
	msgs := []message{
		{sender: senderUser, text: "first"},
		{sender: senderAssistant, text: "second"},
	}
	out := renderMessages(msgs, 60)
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Fatalf("messages rendered out of order:\n%s", out)
	}
	if !strings.Contains(out, "You") || !strings.Contains(out, "Buddy") {
		t.Fatalf("speaker labels missing:\n%s", out)
	}
}
