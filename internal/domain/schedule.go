package domain

import "time"

// CalculateSchedule forward-chains estimated start and end times through the
// queue. The step at currentIdx starts at now and lasts currentRemaining;
// every later step starts at the previous estimated end and lasts its planned
// duration. Steps ahead of currentIdx lose their estimate. A negative
// currentIdx chains the whole queue from now using planned durations.
//
// Nothing is written when every recomputed value equals the stored one; the
// returned flag reports whether any step changed.
func CalculateSchedule(queue []*Step, currentIdx int, currentRemaining time.Duration, now time.Time) bool {
	if len(queue) == 0 {
		return false
	}

	// Estimates are display values; drop the monotonic reading and sub-second noise.
	now = now.Round(0).Truncate(time.Second)

	starts := make([]*time.Time, len(queue))
	ends := make([]*time.Time, len(queue))

	first := currentIdx
	if first < 0 {
		first = 0
	}
	cursor := now
	for i := first; i < len(queue); i++ {
		d := queue[i].Duration
		if i == currentIdx {
			d = currentRemaining
		}
		if d < 0 {
			d = 0
		}
		start := cursor
		end := start.Add(d)
		starts[i] = &start
		ends[i] = &end
		cursor = end
	}

	changed := false
	for i, s := range queue {
		if !sameTime(s.EstimatedStartTime, starts[i]) || !sameTime(s.EstimatedEndTime, ends[i]) {
			changed = true
			break
		}
	}
	if !changed {
		return false
	}

	for i, s := range queue {
		s.EstimatedStartTime = starts[i]
		s.EstimatedEndTime = ends[i]
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
