package proctor

import (
	"context"
	"errors"
)

// ErrCameraDenied is returned by Camera.Acquire when the candidate
// refuses webcam access. It is terminal for the session.
var ErrCameraDenied = errors.New("webcam access denied")

// Signal is a proctoring observation raised by the platform layer.
type Signal int

const (
	// SignalFullscreenExit fires when the candidate leaves fullscreen.
	SignalFullscreenExit Signal = iota
	// SignalTabHidden fires when the assessment surface loses visibility.
	SignalTabHidden
	// SignalClipboard fires when a copy or paste was blocked.
	SignalClipboard
)

// Camera grants access to the candidate's webcam.
type Camera interface {
	Acquire(ctx context.Context) (CameraStream, error)
}

// CameraStream is a live webcam feed. CaptureFrame returns one encoded
// frame and its MIME type.
type CameraStream interface {
	CaptureFrame() (frame []byte, contentType string, err error)
	Stop()
}

// Display controls the fullscreen state of the assessment surface.
// RequestFullscreen failure is non-fatal; ExitFullscreen must tolerate
// not being in fullscreen.
type Display interface {
	RequestFullscreen() error
	ExitFullscreen()
}

// Signals delivers proctoring signals to a handler. Attach replaces any
// previous handler; Detach stops delivery.
type Signals interface {
	Attach(handler func(Signal))
	Detach()
}

// Notifier receives user-facing events from the controller. All calls
// happen on the controller's own goroutine and must not block.
type Notifier interface {
	ShowQuestion(number, total int, skill, text string, options []string)
	ShowFeedback(feedback string)
	FullscreenWarning(count, max int)
	TabSwitchWarning(count, max int)
	SnapshotTaken()
	SessionEnded(resultsURL string)
	SessionFailed(message string)
}

// NopNotifier discards every notification. Useful for headless drivers.
type NopNotifier struct{}

func (NopNotifier) ShowQuestion(int, int, string, string, []string) {}
func (NopNotifier) ShowFeedback(string)                             {}
func (NopNotifier) FullscreenWarning(int, int)                      {}
func (NopNotifier) TabSwitchWarning(int, int)                       {}
func (NopNotifier) SnapshotTaken()                                  {}
func (NopNotifier) SessionEnded(string)                             {}
func (NopNotifier) SessionFailed(string)                            {}
