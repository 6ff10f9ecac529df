package proctor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hirelens/hirelens/internal/model"
)

// fakeClock drives the controller's ticker and timers manually.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 256), interval: d, next: f.now.Add(d)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{deadline: f.now.Add(d), delay: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers and ticker beats
// in order.
func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.now = target
	var fire []func()
	for _, t := range f.timers {
		if !t.fired && !t.stopped && !t.deadline.After(target) {
			t.fired = true
			fire = append(fire, t.fn)
		}
	}
	for _, tk := range f.tickers {
		for !tk.stopped && !tk.next.After(target) {
			select {
			case tk.ch <- tk.next:
			default:
			}
			tk.next = tk.next.Add(tk.interval)
		}
	}
	f.mu.Unlock()
	for _, fn := range fire {
		fn()
	}
}

// pendingDelays returns the delays of all timers armed so far.
func (f *fakeClock) pendingDelays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, 0, len(f.timers))
	for _, t := range f.timers {
		out = append(out, t.delay)
	}
	return out
}

func (f *fakeClock) stoppedTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if t.stopped {
			n++
		}
	}
	return n
}

type fakeTimer struct {
	deadline time.Time
	delay    time.Duration
	fn       func()
	fired    bool
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return !t.fired
}

type fakeTicker struct {
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped = true }

// fakeBackend serves scripted questions and records every call.
type fakeBackend struct {
	mu sync.Mutex

	startResp *model.StartAssessmentResponse
	startErr  error

	questions  []*model.NextQuestionResponse
	completion *model.CompletionResponse
	fetchErr   error
	fetchGate  chan struct{}

	submitResp *model.SubmitAnswerResponse
	submitErr  error

	snapshotErr error

	startCalls int
	fetchUsed  [][]int
	submits    []model.SubmitAnswerRequest
	snapshots  int
	ends       []model.ClientProctoringData
}

func (b *fakeBackend) Start(_ context.Context, _ int) (*model.StartAssessmentResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startCalls++
	if b.startErr != nil {
		return nil, b.startErr
	}
	return b.startResp, nil
}

func (b *fakeBackend) NextQuestion(_ context.Context, _ int, used []int) (*model.NextQuestionResponse, *model.CompletionResponse, error) {
	b.mu.Lock()
	gate := b.fetchGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetchUsed = append(b.fetchUsed, append([]int(nil), used...))
	if b.fetchErr != nil {
		return nil, nil, b.fetchErr
	}
	if len(b.questions) == 0 {
		if b.completion != nil {
			return nil, b.completion, nil
		}
		return nil, &model.CompletionResponse{Message: "Assessment completed"}, nil
	}
	q := b.questions[0]
	b.questions = b.questions[1:]
	return q, nil, nil
}

func (b *fakeBackend) SubmitAnswer(_ context.Context, _ int, req *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits = append(b.submits, *req)
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	if b.submitResp != nil {
		return b.submitResp, nil
	}
	return &model.SubmitAnswerResponse{Feedback: "✅ Nice one! That was spot on."}, nil
}

func (b *fakeBackend) CaptureSnapshot(_ context.Context, _ int, _ []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snapshotErr != nil {
		return b.snapshotErr
	}
	b.snapshots++
	return nil
}

func (b *fakeBackend) End(_ context.Context, _ int, data *model.ClientProctoringData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends = append(b.ends, *data)
	return nil
}

func (b *fakeBackend) endCalls() []model.ClientProctoringData {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ClientProctoringData(nil), b.ends...)
}

func (b *fakeBackend) submitCalls() []model.SubmitAnswerRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.SubmitAnswerRequest(nil), b.submits...)
}

func (b *fakeBackend) fetchCalls() [][]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]int(nil), b.fetchUsed...)
}

func (b *fakeBackend) snapshotCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots
}

type fakeStream struct {
	mu         sync.Mutex
	captureErr error
	captures   int
	stops      int
}

func (s *fakeStream) CaptureFrame() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureErr != nil {
		return nil, "", s.captureErr
	}
	s.captures++
	return []byte{0xff, 0xd8}, "image/jpeg", nil
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *fakeStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type fakeCamera struct {
	mu     sync.Mutex
	stream *fakeStream
	err    error
}

func (c *fakeCamera) Acquire(context.Context) (CameraStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

func (c *fakeCamera) allow(s *fakeStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	c.stream = s
}

var errFullscreenDenied = errors.New("fullscreen request rejected")

type fakeDisplay struct {
	mu         sync.Mutex
	failEnter  bool
	enterCalls int
	exitCalls  int
}

func (d *fakeDisplay) RequestFullscreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enterCalls++
	if d.failEnter {
		return errFullscreenDenied
	}
	return nil
}

func (d *fakeDisplay) ExitFullscreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exitCalls++
}

func (d *fakeDisplay) exits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exitCalls
}

type fakeSignals struct {
	mu       sync.Mutex
	handler  func(Signal)
	detached int
}

func (s *fakeSignals) Attach(h func(Signal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *fakeSignals) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	s.detached++
}

func (s *fakeSignals) Emit(sig Signal) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(sig)
	}
}

func (s *fakeSignals) detachCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

type recNotifier struct {
	mu        sync.Mutex
	feedbacks []string
	warnings  []int
	tabWarns  []int
	endedURL  string
	failedMsg string
}

func (n *recNotifier) ShowQuestion(int, int, string, string, []string) {}

func (n *recNotifier) ShowFeedback(f string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.feedbacks = append(n.feedbacks, f)
}

func (n *recNotifier) FullscreenWarning(count, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, count)
}

func (n *recNotifier) TabSwitchWarning(count, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tabWarns = append(n.tabWarns, count)
}

func (n *recNotifier) SnapshotTaken() {}

func (n *recNotifier) SessionEnded(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.endedURL = url
}

func (n *recNotifier) SessionFailed(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failedMsg = msg
}

func (n *recNotifier) resultsURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.endedURL
}

func (n *recNotifier) failure() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failedMsg
}
