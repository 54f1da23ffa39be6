package domain

import (
	"testing"
)

func pos(n int) *int { return &n }

func testStep(id string, p *int, completed bool) *Step {
	return &Step{ID: id, Label: id, PositionWhenAllListsActive: p, Completed: completed}
}

func idsOf(steps []*Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueueModeFor(t *testing.T) {
	tests := []struct {
		id   string
		want QueueMode
	}{
		{AllActiveTasksID, QueueAllActive},
		{NoListSelectedID, QueueNone},
		{OneOffTaskID, QueueNone},
		{"", QueueNone},
		{"list-1", QueueSingleList},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := QueueModeFor(tt.id); got != tt.want {
				t.Errorf("QueueModeFor(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolveQueue(t *testing.T) {
	work := &TaskList{ID: "work", Name: "Work", Steps: []*Step{
		testStep("w1", pos(3), false),
		testStep("w2", nil, false),
		testStep("w3", pos(1), true),
	}}
	home := &TaskList{ID: "home", Name: "Home", Steps: []*Step{
		testStep("h1", pos(2), false),
		testStep("h2", pos(1), false),
	}}
	archive := &TaskList{ID: "done", Name: CompletedTasksListName, Steps: []*Step{
		testStep("a1", pos(0), false),
	}}
	lists := []*TaskList{work, home, archive}

	tests := []struct {
		name     string
		mode     QueueMode
		selected string
		want     []string
	}{
		{"single list keeps stored order and drops completed", QueueSingleList, "work", []string{"w1", "w2"}},
		{"all active sorts by global position", QueueAllActive, AllActiveTasksID, []string{"h2", "h1", "w1", "w2"}},
		{"no list selected", QueueNone, NoListSelectedID, []string{}},
		{"unknown list is empty", QueueSingleList, "missing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(ResolveQueue(lists, tt.mode, tt.selected))
			if !equalIDs(got, tt.want) {
				t.Errorf("ResolveQueue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveQueue_NeverIncludesCompleted(t *testing.T) {
	lists := []*TaskList{
		{ID: "a", Steps: []*Step{testStep("1", pos(1), true), testStep("2", pos(2), false)}},
		{ID: "b", Steps: []*Step{testStep("3", nil, true), testStep("4", nil, false)}},
	}

	for _, mode := range []QueueMode{QueueSingleList, QueueAllActive} {
		for _, sel := range []string{"a", "b", AllActiveTasksID} {
			for _, s := range ResolveQueue(lists, mode, sel) {
				if s.Completed {
					t.Errorf("mode %v selected %q returned completed step %s", mode, sel, s.ID)
				}
			}
		}
	}
}

func TestAllActiveQueue_OrderingIsInputIndependent(t *testing.T) {
	a := testStep("A", pos(1), false)
	b := testStep("B", pos(2), false)

	forward := []*TaskList{{ID: "x", Steps: []*Step{a}}, {ID: "y", Steps: []*Step{b}}}
	reverse := []*TaskList{{ID: "y", Steps: []*Step{b}}, {ID: "x", Steps: []*Step{a}}}

	for _, lists := range [][]*TaskList{forward, reverse} {
		got := idsOf(AllActiveQueue(lists))
		if !equalIDs(got, []string{"A", "B"}) {
			t.Errorf("AllActiveQueue() = %v, want [A B]", got)
		}
	}
}

func TestAllActiveQueue_MissingPositionSortsLastAndStable(t *testing.T) {
	lists := []*TaskList{{ID: "x", Steps: []*Step{
		testStep("n1", nil, false),
		testStep("p5", pos(5), false),
		testStep("n2", nil, false),
		testStep("big", pos(500), false),
	}}}

	got := idsOf(AllActiveQueue(lists))
	want := []string{"p5", "big", "n1", "n2"}
	if !equalIDs(got, want) {
		t.Errorf("AllActiveQueue() = %v, want %v", got, want)
	}
}

func TestResolveQueue_DoesNotMutateInput(t *testing.T) {
	list := &TaskList{ID: "x", Steps: []*Step{testStep("b", pos(2), false), testStep("a", pos(1), false)}}
	_ = ResolveQueue([]*TaskList{list}, QueueAllActive, AllActiveTasksID)

	if list.Steps[0].ID != "b" || list.Steps[1].ID != "a" {
		t.Error("ResolveQueue() reordered the stored list")
	}
}

func TestTopMost(t *testing.T) {
	if TopMost(nil) != nil {
		t.Error("TopMost(nil) should be nil")
	}
	q := []*Step{testStep("a", nil, false), testStep("b", nil, false)}
	if got := TopMost(q); got.ID != "a" {
		t.Errorf("TopMost() = %s, want a", got.ID)
	}
}
