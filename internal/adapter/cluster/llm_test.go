package cluster

import (
	"fmt"
	"testing"

	"semcluster/internal/adapter/chat"
	"semcluster/internal/domain"
)

func makeUnits(n int) []domain.TextUnit {
	units := make([]domain.TextUnit, n)
	for i := range units {
		units[i] = domain.TextUnit{
			ID:   fmt.Sprintf("seq_%03d", i+1),
			Text: fmt.Sprintf("record number %d", i+1),
		}
	}
	return units
}

func TestClusterRejectsInvalidK(t *testing.T) {
	stub := &chat.Stub{}
	c := NewLLMClusterer(stub, 0, 0)

	for _, k := range []int{0, -1} {
		if _, _, err := c.Cluster(makeUnits(3), k); err == nil {
			t.Errorf("expected error for k=%d", k)
		}
	}
	if stub.Calls != 0 {
		t.Errorf("expected no API calls for invalid k, got %d", stub.Calls)
	}
}

func TestThemeFallbackOnError(t *testing.T) {
	stub := &chat.Stub{Err: fmt.Errorf("connection refused")}
	c := NewLLMClusterer(stub, 0, 0)

	assignments, themes, err := c.Cluster(makeUnits(3), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(themes) != 5 {
		t.Fatalf("expected 5 themes, got %d", len(themes))
	}
	for i, theme := range themes {
		want := fmt.Sprintf("Cluster %d", i+1)
		if theme.Label != want {
			t.Errorf("theme %d: expected %q, got %q", i, want, theme.Label)
		}
		if theme.Index != i {
			t.Errorf("theme %d: expected index %d, got %d", i, i, theme.Index)
		}
	}

	// Assignment calls also failed, so every unit lands on the fallback.
	for _, a := range assignments {
		if a.Cluster != FallbackCluster {
			t.Errorf("unit %s: expected fallback cluster, got %d", a.UnitID, a.Cluster)
		}
		if a.Outcome != domain.OutcomeFallback {
			t.Errorf("unit %s: expected fallback outcome", a.UnitID)
		}
	}
}

func TestThemePadding(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters": ["Billing", "Delivery"]}`,
		"0",
	}}
	c := NewLLMClusterer(stub, 0, 0)

	_, themes, err := c.Cluster(makeUnits(1), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(themes) != 3 {
		t.Fatalf("expected 3 themes, got %d", len(themes))
	}
	if themes[0].Label != "Billing" || themes[1].Label != "Delivery" {
		t.Errorf("expected model labels first, got %v", themes)
	}
	if themes[2].Label != "Cluster 3" {
		t.Errorf("expected generic third label, got %q", themes[2].Label)
	}
}

func TestThemeTruncation(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters": ["A", "B", "C", "D"]}`,
		"0",
	}}
	c := NewLLMClusterer(stub, 0, 0)

	_, themes, err := c.Cluster(makeUnits(1), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(themes))
	}
	if themes[0].Label != "A" || themes[1].Label != "B" {
		t.Errorf("expected first two labels preserved in order, got %v", themes)
	}
}

func TestAssignmentOutOfRangeFallsBack(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters": ["A", "B", "C"]}`,
		"7",
	}}
	c := NewLLMClusterer(stub, 0, 0)

	assignments, _, err := c.Cluster(makeUnits(1), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments[0].Cluster != 0 {
		t.Errorf("expected fallback index 0, got %d", assignments[0].Cluster)
	}
	if assignments[0].Outcome != domain.OutcomeFallback {
		t.Error("expected fallback outcome")
	}
}

func TestParseClusterIndex(t *testing.T) {
	tests := []struct {
		raw  string
		k    int
		want int
		ok   bool
	}{
		{"1", 3, 1, true},
		{" 2 \n", 3, 2, true},
		{"2.", 3, 2, true},
		{"1 because it matches", 3, 1, true},
		{"7", 3, 0, false},
		{"-1", 3, 0, false},
		{"two", 3, 0, false},
		{"", 3, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseClusterIndex(tt.raw, tt.k)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseClusterIndex(%q, %d) = (%d, %v), want (%d, %v)",
				tt.raw, tt.k, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClusterEndToEnd(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters":["Billing","Delivery"]}`,
		"0", "1", "0", "1", "0", "1",
	}}
	c := NewLLMClusterer(stub, 0, 0)

	units := makeUnits(6)
	assignments, themes, err := c.Cluster(units, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assignments) != 6 {
		t.Fatalf("expected 6 assignments, got %d", len(assignments))
	}

	want := []int{0, 1, 0, 1, 0, 1}
	for i, a := range assignments {
		if a.UnitID != units[i].ID {
			t.Errorf("assignment %d: expected unit %s, got %s", i, units[i].ID, a.UnitID)
		}
		if a.Cluster != want[i] {
			t.Errorf("assignment %d: expected cluster %d, got %d", i, want[i], a.Cluster)
		}
		if a.Outcome != domain.OutcomeParsed {
			t.Errorf("assignment %d: expected parsed outcome", i)
		}
	}

	if themes[0].Label != "Billing" || themes[1].Label != "Delivery" {
		t.Errorf("unexpected themes: %v", themes)
	}

	// One theme call plus one assignment call per unit.
	if stub.Calls != 7 {
		t.Errorf("expected 7 API calls, got %d", stub.Calls)
	}
}

func TestClusterProgress(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters":["A","B"]}`,
		"0",
	}}
	c := NewLLMClusterer(stub, 0, 2)

	var steps []int
	c.OnProgress = func(done, total int) {
		steps = append(steps, done)
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
	}

	if _, _, err := c.Cluster(makeUnits(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Batches of 2 over 5 units report after 2, 4 and 5.
	if len(steps) != 3 || steps[0] != 2 || steps[1] != 4 || steps[2] != 5 {
		t.Errorf("unexpected progress steps: %v", steps)
	}
}
