package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/focus-cli/internal/domain"
)

// resolveStep finds a queued task by id, 1-based queue number or label.
// Labels match exactly first (case-insensitive), then by fuzzy score.
func resolveStep(queue []domain.Step, ref string) (*domain.Step, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty task reference")
	}

	for i := range queue {
		if queue[i].ID == ref {
			return &queue[i], nil
		}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n < 1 || n > len(queue) {
			return nil, fmt.Errorf("task #%d does not exist (queue has %d tasks)", n, len(queue))
		}
		return &queue[n-1], nil
	}

	labels := make([]string, len(queue))
	for i := range queue {
		if strings.EqualFold(queue[i].Label, ref) {
			return &queue[i], nil
		}
		labels[i] = queue[i].Label
	}
	matches := fuzzy.Find(ref, labels)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no task matches %q", ref)
	}
	return &queue[matches[0].Index], nil
}

// resolveList finds a task list by id or name. "all" selects the
// all-active aggregate.
func resolveList(lists []domain.ListSummary, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", nil
	case strings.EqualFold(ref, "all"), ref == domain.AllActiveTasksID:
		return domain.AllActiveTasksID, nil
	}

	names := make([]string, len(lists))
	for i, l := range lists {
		if l.ID == ref || strings.EqualFold(l.Name, ref) {
			return l.ID, nil
		}
		names[i] = l.Name
	}
	matches := fuzzy.Find(ref, names)
	if len(matches) == 0 {
		return "", fmt.Errorf("no task list matches %q", ref)
	}
	return lists[matches[0].Index].ID, nil
}
