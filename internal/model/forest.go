package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type TreeType string

const (
	TreeSapling TreeType = "sapling"
	TreeYoung   TreeType = "young"
	TreeMature  TreeType = "mature"
	TreeAncient TreeType = "ancient"
)

// DayFormat is the calendar-day key used for streaks and forest grouping.
const DayFormat = "2006-01-02"

// DayKey derives the calendar-day key from a timestamp in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// ClassifyTree maps a completed session duration in minutes to a tree tier.
// Fixed thresholds: 120+ ancient, 60+ mature, 30+ young, below 30 sapling.
func ClassifyTree(minutes int) TreeType {
	switch {
	case minutes >= 120:
		return TreeAncient
	case minutes >= 60:
		return TreeMature
	case minutes >= 30:
		return TreeYoung
	default:
		return TreeSapling
	}
}

// TreeID is deterministic so a session can never plant twice.
func TreeID(sessionID string) string {
	return "tree_" + sessionID
}

// LevelFor computes the forest level: every ten trees advances one level.
func LevelFor(treesPlanted int) int {
	return treesPlanted/10 + 1
}

type FocusSession struct {
	ID          string
	StartTime   time.Time
	EndTime     time.Time
	Duration    int
	Completed   bool
	Date        string
	WorkspaceID string
	TaskID      string
}

func (s FocusSession) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: focus session id is required")
	}
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return errors.New("model: focus session start and end times are required")
	}
	if s.EndTime.Before(s.StartTime) {
		return errors.New("model: focus session end precedes start")
	}
	if s.Duration < 0 {
		return errors.New("model: focus session duration must not be negative")
	}
	if _, err := time.Parse(DayFormat, s.Date); err != nil {
		return fmt.Errorf("model: invalid focus session date %q", s.Date)
	}
	return nil
}

type ForestTree struct {
	ID          string
	Type        TreeType
	SessionID   string
	PlantedDate string
	Duration    int
}

func (t ForestTree) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: tree id is required")
	}
	if strings.TrimSpace(t.SessionID) == "" {
		return errors.New("model: tree session_id is required")
	}
	switch t.Type {
	case TreeSapling, TreeYoung, TreeMature, TreeAncient:
	default:
		return fmt.Errorf("model: invalid tree type %q", t.Type)
	}
	if _, err := time.Parse(DayFormat, t.PlantedDate); err != nil {
		return fmt.Errorf("model: invalid planted date %q", t.PlantedDate)
	}
	return nil
}

type ForestStats struct {
	TotalSessions int
	TotalMinutes  int
	CurrentStreak int
	LongestStreak int
	TreesPlanted  int
	ForestLevel   int
}

func NewForestStats() ForestStats {
	return ForestStats{ForestLevel: 1}
}
