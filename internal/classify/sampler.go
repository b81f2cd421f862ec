package classify

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// segmentLabels name the sampling positions, in selection priority order.
// Slots beyond the four fixed positions are filled from the random source.
var segmentLabels = [4]string{"start", "early", "middle", "end"}

type segment struct {
	label  string
	offset int
	text   string
}

// Sample reduces text to at most budget characters by selecting a handful
// of representative excerpts: the absolute start, an early offset, the
// middle, the end, and random fill positions. Text that already fits the
// budget is returned unchanged.
//
// randFn must return values in [0,1); it is a parameter so tests can pin
// exact segment placement. chunkCount is clamped to [3,8].
func Sample(text string, budget, chunkCount int, randFn func() float64) string {
	if len(text) <= budget {
		return text
	}
	if randFn == nil {
		randFn = rand.Float64
	}

	if chunkCount < 3 {
		chunkCount = 3
	}
	if chunkCount > 8 {
		chunkCount = 8
	}

	chunkSize := budget / chunkCount
	if chunkSize < 200 {
		chunkSize = 200
	}
	// A floored chunk can exceed the text when the budget knob is set very
	// low; one chunk would already cover everything, so sampling adds nothing.
	if chunkSize >= len(text) {
		return text
	}
	maxStart := len(text) - chunkSize

	var chosen []segment
	place := func(label string, offset int) {
		offset = clamp(offset, 0, maxStart)
		// Nudge forward past near-duplicates. Bounded: after 10 attempts
		// the offset is accepted as-is, overlap and all.
		for attempt := 0; attempt < 10 && tooClose(chosen, offset, chunkSize/2); attempt++ {
			offset = clamp(offset+chunkSize, 0, maxStart)
		}
		chosen = append(chosen, segment{
			label:  label,
			offset: offset,
			text:   text[offset : offset+chunkSize],
		})
	}

	fixed := [4]int{0, chunkSize, len(text)/2 - chunkSize/2, maxStart}
	for i, offset := range fixed {
		if len(chosen) >= chunkCount {
			break
		}
		place(segmentLabels[i], offset)
	}

	for len(chosen) < chunkCount {
		place("random", int(randFn()*float64(maxStart)))
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].offset < chosen[j].offset })

	parts := make([]string, len(chosen))
	for i, s := range chosen {
		parts[i] = fmt.Sprintf("[%s @ %d]\n%s", s.label, s.offset, s.text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func tooClose(chosen []segment, offset, minDistance int) bool {
	for _, s := range chosen {
		d := offset - s.offset
		if d < 0 {
			d = -d
		}
		if d < minDistance {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
