package domain

import (
	"testing"
	"time"
)

func TestNewStep(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		duration time.Duration
		wantErr  error
	}{
		{"valid", "Write report", 25 * time.Minute, nil},
		{"empty label", "  ", time.Minute, ErrEmptyLabel},
		{"negative duration", "x", -time.Second, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := NewStep(tt.label, tt.duration)
			if err != tt.wantErr {
				t.Fatalf("NewStep() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && step.ID == "" {
				t.Error("NewStep() should assign an ID")
			}
		})
	}
}

func TestStep_AccrueActualNeverDecreases(t *testing.T) {
	s := &Step{Duration: time.Hour}
	s.AccrueActual(10 * time.Minute)
	s.AccrueActual(-5 * time.Minute)
	s.AccrueActual(0)

	if s.ActualDuration != 10*time.Minute {
		t.Errorf("ActualDuration = %v, want 10m", s.ActualDuration)
	}
	if s.RemainingDuration() != 50*time.Minute {
		t.Errorf("RemainingDuration() = %v, want 50m", s.RemainingDuration())
	}
}

func TestStep_Copy(t *testing.T) {
	tz := "Europe/Paris"
	orig := &Step{
		ID:                         "orig",
		TaskListID:                 "list",
		Label:                      "Draft",
		Duration:                   time.Hour,
		Completed:                  true,
		Timezone:                   &tz,
		PositionWhenAllListsActive: pos(3),
		Breaths:                    []Breath{{ID: "b1", Name: "one"}},
	}

	dup := orig.Copy()

	if dup.ID == orig.ID {
		t.Error("copy should have a new identity")
	}
	if dup.Label != "Draft (Copy)" {
		t.Errorf("Label = %q, want %q", dup.Label, "Draft (Copy)")
	}
	if dup.Completed {
		t.Error("copy should be pending")
	}
	if dup.TaskListID != "list" {
		t.Error("copy should stay in the same list")
	}
	if dup.Breaths[0].ID == "b1" {
		t.Error("copied breaths should get new IDs")
	}
	*dup.Timezone = "UTC"
	if *orig.Timezone != "Europe/Paris" {
		t.Error("copy should not alias the source timezone")
	}
}

func TestStep_EnsureFirstBreath(t *testing.T) {
	s := &Step{Duration: 20 * time.Minute}
	if !s.EnsureFirstBreath() {
		t.Fatal("EnsureFirstBreath() should seed an empty step")
	}
	if s.Breaths[0].TimeEstimationSeconds != 1200 {
		t.Errorf("TimeEstimationSeconds = %d, want 1200", s.Breaths[0].TimeEstimationSeconds)
	}
	if s.EnsureFirstBreath() {
		t.Error("EnsureFirstBreath() should not seed twice")
	}
}

func TestTaskList_MoveStep(t *testing.T) {
	l := &TaskList{Steps: []*Step{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}

	if err := l.MoveStep(0, 2); err != nil {
		t.Fatalf("MoveStep() error = %v", err)
	}
	if got := idsOf(l.Steps); !equalIDs(got, []string{"b", "c", "a", "d"}) {
		t.Errorf("after MoveStep(0,2) = %v", got)
	}

	if err := l.MoveStep(3, 0); err != nil {
		t.Fatalf("MoveStep() error = %v", err)
	}
	if got := idsOf(l.Steps); !equalIDs(got, []string{"d", "b", "c", "a"}) {
		t.Errorf("after MoveStep(3,0) = %v", got)
	}

	if err := l.MoveStep(0, 9); err != ErrIndexOutOfRange {
		t.Errorf("MoveStep(0,9) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestIsSentinelListID(t *testing.T) {
	for _, id := range []string{NoListSelectedID, AllActiveTasksID, OneOffTaskID, ""} {
		if !IsSentinelListID(id) {
			t.Errorf("IsSentinelListID(%q) = false", id)
		}
	}
	if IsSentinelListID("real") {
		t.Error("IsSentinelListID(real) = true")
	}
}

func TestNewBreathID(t *testing.T) {
	a, b := NewBreathID(), NewBreathID()
	if a == "" || a == b {
		t.Errorf("NewBreathID() should return unique ids, got %q and %q", a, b)
	}
	if first := NewFirstBreath(time.Minute); first.ID == "" || first.ID == a {
		t.Errorf("first breath id = %q", first.ID)
	}
}
