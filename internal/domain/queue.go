package domain

import "sort"

// QueueMode selects how the pending queue is derived from the task lists.
type QueueMode string

const (
	QueueNone       QueueMode = "none"
	QueueSingleList QueueMode = "single"
	QueueAllActive  QueueMode = "all_active"
)

// QueueModeFor maps a selected list id to its queue mode.
func QueueModeFor(selectedListID string) QueueMode {
	switch selectedListID {
	case AllActiveTasksID:
		return QueueAllActive
	case NoListSelectedID, OneOffTaskID, "":
		return QueueNone
	default:
		return QueueSingleList
	}
}

// ResolveQueue returns the pending steps for the given mode in queue order.
// An unknown selected list yields an empty queue. The input is not modified.
func ResolveQueue(lists []*TaskList, mode QueueMode, selectedListID string) []*Step {
	switch mode {
	case QueueSingleList:
		list := FindList(lists, selectedListID)
		if list == nil {
			return nil
		}
		return pending(list.Steps)
	case QueueAllActive:
		return AllActiveQueue(lists)
	default:
		return nil
	}
}

// AllActiveQueue flattens every real, non-archive list and orders the pending
// steps by all-active position. Steps without a position sort last and ties
// keep encounter order.
func AllActiveQueue(lists []*TaskList) []*Step {
	var steps []*Step
	for _, l := range lists {
		if IsSentinelListID(l.ID) || l.IsArchive() {
			continue
		}
		steps = append(steps, pending(l.Steps)...)
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].SortPosition() < steps[j].SortPosition()
	})
	return steps
}

// TopMost returns the first step of the queue, or nil.
func TopMost(queue []*Step) *Step {
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

// IndexOf returns the index of the step with the given id, or -1.
func IndexOf(queue []*Step, id string) int {
	for i, s := range queue {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func pending(steps []*Step) []*Step {
	out := make([]*Step, 0, len(steps))
	for _, s := range steps {
		if !s.Completed {
			out = append(out, s)
		}
	}
	return out
}
