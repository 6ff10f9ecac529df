package proctor

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hirelens/hirelens/internal/model"
)

// Phase is the coarse lifecycle of a proctored session.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseStarting    Phase = "starting"
	PhaseActive      Phase = "active"
	PhaseCompleted   Phase = "completed"
	PhaseWebcamError Phase = "webcam_error"
	PhaseFailed      Phase = "failed"
)

// FlowState tracks where the question flow is within a single
// question cycle. Fetch and submit are mutually exclusive: a submit is
// only accepted while a question is displayed, and a fetch is never
// issued while a submit is in flight.
type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowFetching   FlowState = "fetching"
	FlowDisplayed  FlowState = "displayed"
	FlowSubmitting FlowState = "submitting"
	FlowDelay      FlowState = "delay"
)

// State is an observable snapshot of the controller. Copies are safe to
// retain.
type State struct {
	Phase Phase
	Flow  FlowState

	TimeLeft       int
	QuestionNumber int
	TotalQuestions int
	Skill          string
	Question       *model.QuestionBody

	FullscreenWarnings       int
	TabSwitches              int
	ShowingFullscreenWarning bool
	Remarks                  []string
	UsedMCQIDs               []int
	SnapshotsTaken           int

	EndCalls          int
	ForcedTermination bool
	TerminationReason string
	ResultsURL        string

	ErrorMessage string
}

type eventKind int

const (
	evCameraResult eventKind = iota
	evStartResult
	evTick
	evSignal
	evSnapshotDue
	evSnapshotResult
	evFetchResult
	evSubmitResult
	evEndResult
	evDelayElapsed
	evSubmitAnswer
	evEndRequested
	evAckFullscreen
	evRetry
	evStop
)

type event struct {
	kind eventKind

	sig        Signal
	answer     string
	err        error
	stream     CameraStream
	start      *model.StartAssessmentResponse
	question   *model.NextQuestionResponse
	completion *model.CompletionResponse
	feedback   *model.SubmitAnswerResponse
}

// Controller runs a full proctored assessment session: countdown,
// proctoring signal thresholds, randomized webcam snapshots, and the
// question flow. All state transitions happen on one internal
// goroutine; public methods only post events.
type Controller struct {
	cfg       Config
	attemptID int

	backend  Backend
	camera   Camera
	display  Display
	signals  Signals
	notifier Notifier
	clock    Clock
	rng      *rand.Rand

	events   chan event
	done     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	state State

	// Everything below is owned by the run goroutine.
	ctx             context.Context
	stream          CameraStream
	ticker          Ticker
	snapshotTimers  []Timer
	delayTimer      Timer
	questionShownAt time.Time
	inFullscreen    bool
	timerFired      bool
	endInFlight     bool
	ended           bool
}

// New builds a Controller for one assessment attempt. Run must be
// called to drive it.
func New(cfg Config, attemptID int, backend Backend, camera Camera, display Display, signals Signals, notifier Notifier, clock Clock) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Controller{
		cfg:       cfg.withDefaults(),
		attemptID: attemptID,
		backend:   backend,
		camera:    camera,
		display:   display,
		signals:   signals,
		notifier:  notifier,
		clock:     clock,
		rng:       rand.New(rand.NewSource(clock.Now().UnixNano())),
		events:    make(chan event, 64),
		done:      make(chan struct{}),
		state:     State{Phase: PhaseIdle, Flow: FlowIdle},
	}
}

// Run starts the session and processes events until Stop is called or
// ctx is cancelled. It blocks; run it on its own goroutine.
func (c *Controller) Run(ctx context.Context) {
	c.ctx = ctx
	c.begin()
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return
		case <-c.done:
			return
		case ev := <-c.events:
			c.handle(ev)
			if ev.kind == evStop {
				return
			}
		}
	}
}

// Snapshot returns a copy of the current observable state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Remarks = append([]string(nil), c.state.Remarks...)
	s.UsedMCQIDs = append([]int(nil), c.state.UsedMCQIDs...)
	return s
}

// SubmitAnswer submits the chosen option ("1".."4") for the displayed
// question. Ignored unless a question is on screen.
func (c *Controller) SubmitAnswer(answer string) {
	c.post(event{kind: evSubmitAnswer, answer: answer})
}

// EndAssessment finishes the attempt voluntarily.
func (c *Controller) EndAssessment() {
	c.post(event{kind: evEndRequested})
}

// AcknowledgeFullscreenWarning dismisses the warning and re-enters
// fullscreen.
func (c *Controller) AcknowledgeFullscreenWarning() {
	c.post(event{kind: evAckFullscreen})
}

// Retry restarts the session from scratch after a failure.
func (c *Controller) Retry() {
	c.post(event{kind: evRetry})
}

// Stop tears the session down without ending the attempt server-side.
func (c *Controller) Stop() {
	c.post(event{kind: evStop})
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case evCameraResult:
		c.onCameraResult(ev)
	case evStartResult:
		c.onStartResult(ev)
	case evTick:
		c.onTick()
	case evSignal:
		c.onSignal(ev.sig)
	case evSnapshotDue:
		c.onSnapshotDue()
	case evSnapshotResult:
		c.onSnapshotResult(ev.err)
	case evFetchResult:
		c.onFetchResult(ev)
	case evSubmitResult:
		c.onSubmitResult(ev)
	case evEndResult:
		c.onEndResult(ev.err)
	case evDelayElapsed:
		c.onDelayElapsed()
	case evSubmitAnswer:
		c.onSubmitAnswer(ev.answer)
	case evEndRequested:
		c.finish(false, "")
	case evAckFullscreen:
		c.onAckFullscreen()
	case evRetry:
		c.onRetry()
	case evStop:
		c.teardown()
		c.stopOnce.Do(func() { close(c.done) })
	}
}

func (c *Controller) setState(mutate func(*State)) {
	c.mu.Lock()
	mutate(&c.state)
	c.mu.Unlock()
}

func (c *Controller) begin() {
	c.setState(func(s *State) {
		*s = State{Phase: PhaseStarting, Flow: FlowIdle}
	})
	go func() {
		stream, err := c.camera.Acquire(c.ctx)
		c.post(event{kind: evCameraResult, stream: stream, err: err})
	}()
}

func (c *Controller) onCameraResult(ev event) {
	if c.ended {
		if ev.stream != nil {
			ev.stream.Stop()
		}
		return
	}
	if ev.err != nil {
		c.setState(func(s *State) {
			s.Phase = PhaseWebcamError
			s.ErrorMessage = "Webcam access is required to take the assessment."
		})
		c.notifier.SessionFailed("Webcam access is required to take the assessment.")
		return
	}
	c.stream = ev.stream
	go func() {
		resp, err := c.backend.Start(c.ctx, c.attemptID)
		c.post(event{kind: evStartResult, start: resp, err: err})
	}()
}

func (c *Controller) onStartResult(ev event) {
	if c.ended {
		return
	}
	if ev.err != nil {
		c.fail(fmt.Sprintf("Failed to start assessment: %v", ev.err))
		return
	}
	if ev.start.TestDuration <= 0 {
		c.fail("Test duration not provided by server.")
		return
	}

	duration := ev.start.TestDuration
	c.setState(func(s *State) {
		s.Phase = PhaseActive
		s.TimeLeft = duration
		s.TotalQuestions = ev.start.TotalQuestions
	})

	c.scheduleSnapshots(duration)

	if err := c.display.RequestFullscreen(); err != nil {
		// Not fatal. Surface the warning so the candidate can re-enter.
		c.setState(func(s *State) { s.ShowingFullscreenWarning = true })
		c.notifier.FullscreenWarning(0, c.cfg.MaxFullscreenWarnings)
	} else {
		c.inFullscreen = true
	}

	c.signals.Attach(func(sig Signal) {
		c.post(event{kind: evSignal, sig: sig})
	})

	c.ticker = c.clock.NewTicker(c.cfg.TickInterval)
	go c.pumpTicks(c.ticker)

	c.fetchNext()
}

func (c *Controller) pumpTicks(t Ticker) {
	for {
		select {
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		case _, ok := <-t.C():
			if !ok {
				return
			}
			c.post(event{kind: evTick})
		}
	}
}

func (c *Controller) onTick() {
	if c.ended || c.snapshotPhase() != PhaseActive {
		return
	}
	expired := false
	c.setState(func(s *State) {
		if s.TimeLeft > 0 {
			s.TimeLeft--
		}
		expired = s.TimeLeft <= 0
	})
	if expired && !c.timerFired {
		c.timerFired = true
		c.finish(false, "")
	}
}

func (c *Controller) scheduleSnapshots(durationSeconds int) {
	span := c.cfg.SnapshotMax - c.cfg.SnapshotMin + 1
	count := c.rng.Intn(span) + c.cfg.SnapshotMin
	offsets := make([]time.Duration, count)
	total := time.Duration(durationSeconds) * time.Second
	for i := range offsets {
		offsets[i] = time.Duration(c.rng.Float64() * float64(total))
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	for _, off := range offsets {
		timer := c.clock.AfterFunc(off, func() {
			c.post(event{kind: evSnapshotDue})
		})
		c.snapshotTimers = append(c.snapshotTimers, timer)
	}
}

func (c *Controller) onSnapshotDue() {
	if c.ended || c.stream == nil {
		return
	}
	stream := c.stream
	go func() {
		frame, contentType, err := stream.CaptureFrame()
		if err == nil {
			err = c.backend.CaptureSnapshot(c.ctx, c.attemptID, frame, contentType)
		}
		c.post(event{kind: evSnapshotResult, err: err})
	}()
}

func (c *Controller) onSnapshotResult(err error) {
	if c.ended {
		return
	}
	if err != nil {
		log.Warn().Err(err).Int("attempt_id", c.attemptID).Msg("snapshot capture failed")
		c.addRemark("Failed to capture snapshot at " + c.clock.Now().UTC().Format(time.RFC3339))
		return
	}
	c.setState(func(s *State) { s.SnapshotsTaken++ })
	c.addRemark("Snapshot captured at " + c.clock.Now().UTC().Format(time.RFC3339))
	c.notifier.SnapshotTaken()
}

func (c *Controller) onSignal(sig Signal) {
	if c.ended || c.snapshotPhase() != PhaseActive {
		return
	}
	switch sig {
	case SignalFullscreenExit:
		c.inFullscreen = false
		var count int
		c.setState(func(s *State) {
			s.FullscreenWarnings++
			count = s.FullscreenWarnings
		})
		if count > c.cfg.MaxFullscreenWarnings {
			c.finish(true, "Terminated due to repeated fullscreen exits")
			return
		}
		c.setState(func(s *State) { s.ShowingFullscreenWarning = true })
		c.notifier.FullscreenWarning(count, c.cfg.MaxFullscreenWarnings)
	case SignalTabHidden:
		var count int
		c.setState(func(s *State) {
			s.TabSwitches++
			count = s.TabSwitches
		})
		if count >= c.cfg.MaxTabSwitches {
			c.finish(true, "Terminated due to repeated tab switches")
			return
		}
		c.notifier.TabSwitchWarning(count, c.cfg.MaxTabSwitches)
	case SignalClipboard:
		c.addRemark("Attempted copy/paste at " + c.clock.Now().UTC().Format(time.RFC3339))
	}
}

func (c *Controller) onAckFullscreen() {
	if c.ended {
		return
	}
	c.setState(func(s *State) { s.ShowingFullscreenWarning = false })
	if err := c.display.RequestFullscreen(); err == nil {
		c.inFullscreen = true
	}
}

func (c *Controller) fetchNext() {
	c.setState(func(s *State) {
		s.Flow = FlowFetching
		s.ErrorMessage = ""
	})
	used := c.usedIDs()
	go func() {
		q, done, err := c.backend.NextQuestion(c.ctx, c.attemptID, used)
		c.post(event{kind: evFetchResult, question: q, completion: done, err: err})
	}()
}

func (c *Controller) onFetchResult(ev event) {
	if c.ended {
		return
	}
	if ev.err != nil {
		c.setState(func(s *State) {
			s.Flow = FlowIdle
			s.ErrorMessage = fmt.Sprintf("Failed to fetch the next question: %v", ev.err)
		})
		return
	}
	if ev.completion != nil {
		// Server already finalized the attempt; no end call is needed.
		c.completeLocally()
		return
	}

	q := ev.question
	c.questionShownAt = c.clock.Now()
	c.setState(func(s *State) {
		s.Flow = FlowDisplayed
		s.Question = &q.Question
		s.Skill = q.Skill
		s.QuestionNumber = q.QuestionNumber
		if q.TotalQuestions > 0 {
			s.TotalQuestions = q.TotalQuestions
		}
		s.UsedMCQIDs = append(s.UsedMCQIDs, q.Question.MCQID)
	})
	c.notifier.ShowQuestion(q.QuestionNumber, c.Snapshot().TotalQuestions, q.Skill, q.Question.Question, q.Question.Options)
}

func (c *Controller) onSubmitAnswer(answer string) {
	if c.ended || c.snapshotPhase() != PhaseActive {
		return
	}
	if c.Snapshot().Flow != FlowDisplayed {
		return
	}
	if answer == "" {
		c.setState(func(s *State) { s.ErrorMessage = "Please select an answer." })
		return
	}

	snap := c.Snapshot()
	req := &model.SubmitAnswerRequest{
		Skill:     snap.Skill,
		Answer:    answer,
		TimeTaken: c.clock.Now().Sub(c.questionShownAt).Seconds(),
		MCQID:     snap.Question.MCQID,
	}
	c.setState(func(s *State) {
		s.Flow = FlowSubmitting
		s.ErrorMessage = ""
	})
	go func() {
		resp, err := c.backend.SubmitAnswer(c.ctx, c.attemptID, req)
		c.post(event{kind: evSubmitResult, feedback: resp, err: err})
	}()
}

func (c *Controller) onSubmitResult(ev event) {
	if c.ended {
		return
	}
	if ev.err != nil {
		c.setState(func(s *State) {
			s.Flow = FlowDisplayed
			s.ErrorMessage = fmt.Sprintf("Failed to submit answer: %v", ev.err)
		})
		return
	}
	c.notifier.ShowFeedback(ev.feedback.Feedback)
	c.setState(func(s *State) {
		s.Flow = FlowDelay
		s.Question = nil
	})
	c.delayTimer = c.clock.AfterFunc(c.cfg.TransitionDelay, func() {
		c.post(event{kind: evDelayElapsed})
	})
}

func (c *Controller) onDelayElapsed() {
	if c.ended || c.snapshotPhase() != PhaseActive {
		return
	}
	c.fetchNext()
}

// finish issues the end call exactly once. The counters and remarks
// sent are whatever has accumulated at the moment of termination.
func (c *Controller) finish(forced bool, reason string) {
	if c.ended || c.endInFlight {
		return
	}
	c.endInFlight = true

	snap := c.Snapshot()
	data := &model.ClientProctoringData{
		TabSwitches:        snap.TabSwitches,
		FullscreenWarnings: snap.FullscreenWarnings,
		Remarks:            snap.Remarks,
		ForcedTermination:  forced,
		TerminationReason:  reason,
	}
	c.setState(func(s *State) {
		s.EndCalls++
		s.ForcedTermination = forced
		s.TerminationReason = reason
	})
	go func() {
		err := c.backend.End(c.ctx, c.attemptID, data)
		c.post(event{kind: evEndResult, err: err})
	}()
}

func (c *Controller) onEndResult(err error) {
	// Teardown happens regardless of how the end call went.
	c.teardown()
	if err != nil {
		c.ended = true
		c.setState(func(s *State) {
			s.Phase = PhaseFailed
			s.ErrorMessage = fmt.Sprintf("Failed to end assessment: %v", err)
		})
		c.notifier.SessionFailed(c.Snapshot().ErrorMessage)
		return
	}
	c.completeLocally()
}

func (c *Controller) completeLocally() {
	c.ended = true
	c.teardown()
	url := fmt.Sprintf(c.cfg.ResultsURLFormat, c.attemptID)
	c.setState(func(s *State) {
		s.Phase = PhaseCompleted
		s.Flow = FlowIdle
		s.Question = nil
		s.ResultsURL = url
	})
	c.notifier.SessionEnded(url)
}

func (c *Controller) fail(msg string) {
	c.setState(func(s *State) {
		s.Phase = PhaseFailed
		s.ErrorMessage = msg
	})
	c.notifier.SessionFailed(msg)
}

func (c *Controller) onRetry() {
	phase := c.snapshotPhase()
	if phase == PhaseCompleted {
		return
	}
	c.teardown()
	c.ended = false
	c.endInFlight = false
	c.timerFired = false
	c.questionShownAt = time.Time{}
	c.begin()
}

// teardown cancels every timer, detaches signal delivery, releases the
// camera, and leaves fullscreen. Safe to call more than once.
func (c *Controller) teardown() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	for _, t := range c.snapshotTimers {
		t.Stop()
	}
	c.snapshotTimers = nil
	if c.delayTimer != nil {
		c.delayTimer.Stop()
		c.delayTimer = nil
	}
	if c.signals != nil {
		c.signals.Detach()
	}
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
	if c.inFullscreen {
		c.display.ExitFullscreen()
		c.inFullscreen = false
	}
}

func (c *Controller) addRemark(remark string) {
	c.setState(func(s *State) {
		s.Remarks = append(s.Remarks, remark)
	})
}

func (c *Controller) usedIDs() []int {
	return c.Snapshot().UsedMCQIDs
}

func (c *Controller) snapshotPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase
}
