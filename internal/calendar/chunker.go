package calendar

import "time"

// chunkSizes lists the block durations tried in order when decomposing a slot
// template into calendar friendly sub-blocks.
var chunkSizes = []time.Duration{2 * time.Hour, time.Hour, 30 * time.Minute}

// chunk is one contiguous sub-block of a template's duration.
type chunk struct {
	Start time.Time
	End   time.Time
}

// decompose greedily covers [start, end) with 2 hour, then 1 hour, then 30
// minute blocks. The external calendar has no concept of the platform's
// recurrence kinds, so each block is mirrored as its own unique slot. A
// trailing remainder shorter than 30 minutes becomes one final short block so
// the template's full duration stays covered.
func decompose(start, end time.Time) []chunk {
	if !end.After(start) {
		return nil
	}

	chunks := make([]chunk, 0)
	cursor := start
	for cursor.Before(end) {
		placed := false
		for _, size := range chunkSizes {
			next := cursor.Add(size)
			if !next.After(end) {
				chunks = append(chunks, chunk{Start: cursor, End: next})
				cursor = next
				placed = true
				break
			}
		}
		if !placed {
			chunks = append(chunks, chunk{Start: cursor, End: end})
			break
		}
	}
	return chunks
}
