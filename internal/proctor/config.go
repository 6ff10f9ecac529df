package proctor

import "time"

// Config tunes the session controller. Zero values fall back to the
// same limits the candidate UI enforces.
type Config struct {
	// MaxFullscreenWarnings is the number of fullscreen exits tolerated
	// before termination. Exceeding it terminates the attempt.
	MaxFullscreenWarnings int
	// MaxTabSwitches terminates the attempt once reached.
	MaxTabSwitches int

	// SnapshotMin and SnapshotMax bound the number of webcam snapshots
	// scheduled at random offsets over the attempt duration.
	SnapshotMin int
	SnapshotMax int

	// TransitionDelay is how long feedback stays on screen before the
	// next question is fetched.
	TransitionDelay time.Duration
	// TickInterval is the countdown resolution.
	TickInterval time.Duration

	// ResultsURLFormat builds the post-assessment results location from
	// the attempt id.
	ResultsURLFormat string
}

// DefaultConfig returns the limits used by the candidate UI.
func DefaultConfig() Config {
	return Config{
		MaxFullscreenWarnings: 2,
		MaxTabSwitches:        3,
		SnapshotMin:           3,
		SnapshotMax:           5,
		TransitionDelay:       1500 * time.Millisecond,
		TickInterval:          time.Second,
		ResultsURLFormat:      "/candidate/assessment/%d/results",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxFullscreenWarnings <= 0 {
		c.MaxFullscreenWarnings = d.MaxFullscreenWarnings
	}
	if c.MaxTabSwitches <= 0 {
		c.MaxTabSwitches = d.MaxTabSwitches
	}
	if c.SnapshotMin <= 0 {
		c.SnapshotMin = d.SnapshotMin
	}
	if c.SnapshotMax < c.SnapshotMin {
		c.SnapshotMax = c.SnapshotMin
	}
	if c.TransitionDelay <= 0 {
		c.TransitionDelay = d.TransitionDelay
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.ResultsURLFormat == "" {
		c.ResultsURLFormat = d.ResultsURLFormat
	}
	return c
}
