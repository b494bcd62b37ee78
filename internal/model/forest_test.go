package model

import (
	"testing"
	"time"
)

func TestClassifyTreeStepFunction(t *testing.T) {
	cases := []struct {
		minutes int
		want    TreeType
	}{
		{10, TreeSapling},
		{29, TreeSapling},
		{30, TreeYoung},
		{59, TreeYoung},
		{60, TreeMature},
		{119, TreeMature},
		{120, TreeAncient},
		{500, TreeAncient},
	}
	for _, tc := range cases {
		if got := ClassifyTree(tc.minutes); got != tc.want {
			t.Fatalf("ClassifyTree(%d) got %s want %s", tc.minutes, got, tc.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		trees int
		want  int
	}{
		{0, 1}, {9, 1}, {10, 2}, {19, 2}, {20, 3}, {100, 11},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.trees); got != tc.want {
			t.Fatalf("LevelFor(%d) got %d want %d", tc.trees, got, tc.want)
		}
	}
}

func TestTreeIDDeterministic(t *testing.T) {
	if TreeID("abc") != "tree_abc" || TreeID("abc") != TreeID("abc") {
		t.Fatalf("unexpected tree id: %s", TreeID("abc"))
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	if got := DayKey(ts); got != "2026-03-02" {
		t.Fatalf("DayKey got %s", got)
	}
}

func TestFocusSessionValidate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	session := FocusSession{
		ID:        "sess-1",
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Duration:  45,
		Completed: true,
		Date:      "2026-03-02",
	}
	if err := session.Validate(); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}

	session.Date = "03/02/2026"
	if err := session.Validate(); err == nil {
		t.Fatal("malformed date accepted")
	}
}

func TestNewForestStatsStartsAtLevelOne(t *testing.T) {
	stats := NewForestStats()
	if stats.ForestLevel != 1 || stats.TreesPlanted != 0 {
		t.Fatalf("unexpected initial stats: %#v", stats)
	}
}
