package player

// ManualClock reconstructs playback position for the decode-buffer strategy,
// where scheduled segments expose no readable position of their own. It
// tracks the offset at which the current segment began and the graph-clock
// time it was scheduled; position is offset plus elapsed graph time.
//
// Callers must snapshot the position (Stop or Seek) before discarding a
// running segment, or tracking silently desyncs. Not safe for concurrent
// use; the owning strategy serializes access.
type ManualClock struct {
	startOffset float64 // seconds into the track where the segment began
	startedAt   float64 // graph-clock seconds when the segment was scheduled
	running     bool
}

// Start marks a segment as scheduled at the current graph time, playing from
// the stored offset.
func (c *ManualClock) Start(graphNow float64) {
	c.startedAt = graphNow
	c.running = true
}

// Stop freezes the clock, folding elapsed time into the stored offset.
// duration bounds the result.
func (c *ManualClock) Stop(graphNow, duration float64) {
	c.startOffset = c.Pos(graphNow, duration)
	c.running = false
}

// Seek repositions the clock. While running, the segment is assumed to be
// rescheduled at the same moment.
func (c *ManualClock) Seek(graphNow, offset float64) {
	c.startOffset = offset
	c.startedAt = graphNow
}

// Pos returns the current position in seconds, clamped to [0, duration].
func (c *ManualClock) Pos(graphNow, duration float64) float64 {
	pos := c.startOffset
	if c.running {
		pos += graphNow - c.startedAt
	}
	if pos < 0 {
		return 0
	}
	if pos > duration {
		return duration
	}
	return pos
}

// Reset rewinds to the start of the track, used on natural end.
func (c *ManualClock) Reset() {
	c.startOffset = 0
	c.running = false
}

// Offset returns the stored segment-start offset.
func (c *ManualClock) Offset() float64 { return c.startOffset }

// Running reports whether a segment is currently accounted as playing.
func (c *ManualClock) Running() bool { return c.running }
