package aspen

import (
	"time"

	"github.com/tanema/gween/ease"
)

// keyframe is a (value, timestamp) pair an Animation interpolates
// between.
type keyframe struct {
	value     float32
	timestamp time.Time
}

// Animation computes the value of a single scalar field at a given time
// from a sequence of keyframes. The Compositor uses it to animate Actor
// fields; each animated field owns at most one Animation at a time.
//
// Between keyframes, values ease with a raised-cosine curve (zero
// velocity at both endpoints). NaN values and the behavior of
// AppendKeyframe with a non-positive delay are undefined; the actor
// mutators never reach that path because a zero duration bypasses
// Animation entirely.
type Animation struct {
	// Start and end points. Both hold the starting keyframe until the
	// first AppendKeyframe, optimizing the common two-keyframe case.
	start, end keyframe

	// Keyframes strictly between start and end. Nil until there are
	// more keyframes than the two above.
	mid []keyframe
}

// NewAnimation returns an animation that starts (and, until keyframes
// are appended, ends) at value at startTime.
func NewAnimation(value float32, startTime time.Time) *Animation {
	return &Animation{
		start: keyframe{value: value, timestamp: startTime},
		end:   keyframe{value: value, timestamp: startTime},
	}
}

// AppendKeyframe schedules the animation to reach value delay after the
// last keyframe. delay must be positive; keyframe timestamps are
// strictly increasing.
func (a *Animation) AppendKeyframe(value float32, delay time.Duration) {
	if delay <= 0 {
		panic("aspen: animation keyframe delay must be positive")
	}

	// start and end initially both contain the starting keyframe. Once a
	// keyframe has been added, the previous end moves to the middle
	// sequence before the new end replaces it.
	if a.end.timestamp.After(a.start.timestamp) {
		a.mid = append(a.mid, a.end)
	}
	a.end.value = value
	a.end.timestamp = a.end.timestamp.Add(delay)
}

// IsDone reports whether the animation has reached its final keyframe.
func (a *Animation) IsDone(now time.Time) bool {
	return !now.Before(a.end.timestamp)
}

// EndValue returns the value at the end of the animation, regardless of
// the current time.
func (a *Animation) EndValue() float32 {
	return a.end.value
}

// GetValue returns the animated value at the given time. Times at or
// before the first keyframe clamp to the starting value, times at or
// after the last clamp to the final value.
func (a *Animation) GetValue(now time.Time) float32 {
	if !now.After(a.start.timestamp) {
		return a.start.value
	}
	if !now.Before(a.end.timestamp) {
		return a.end.value
	}

	// Walk the keyframes in order until one starts later than now; the
	// current position falls between that keyframe and the one before.
	prev := a.start
	next := a.end
	if len(a.mid) > 0 {
		next = a.mid[0]
	}
	nextIndex := 1
	for now.After(next.timestamp) {
		prev = next
		if nextIndex < len(a.mid) {
			next = a.mid[nextIndex]
		} else {
			next = a.end
		}
		nextIndex++
	}

	elapsed := float32(now.Sub(prev.timestamp).Seconds())
	total := float32(next.timestamp.Sub(prev.timestamp).Seconds())
	// InOutSine is the raised-cosine ease (1-cos(pi*t/d))/2 scaled onto
	// [prev, next].
	return ease.InOutSine(elapsed, prev.value, next.value-prev.value, total)
}

// AnimationPair keyframes two animations in lockstep. Actors use it for
// coordinated X/Y move animations.
type AnimationPair struct {
	first, second *Animation
}

// NewAnimationPair combines two animations whose keyframes should land
// at the same times.
func NewAnimationPair(first, second *Animation) *AnimationPair {
	return &AnimationPair{first: first, second: second}
}

// First returns the first animation of the pair.
func (p *AnimationPair) First() *Animation { return p.first }

// Second returns the second animation of the pair.
func (p *AnimationPair) Second() *Animation { return p.second }

// AppendKeyframe appends a keyframe to both animations, scheduled to
// land at the same time.
func (p *AnimationPair) AppendKeyframe(firstValue, secondValue float32, delay time.Duration) {
	p.first.AppendKeyframe(firstValue, delay)
	p.second.AppendKeyframe(secondValue, delay)
}
