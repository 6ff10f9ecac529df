package proctor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hirelens/hirelens/internal/model"
)

type harness struct {
	ctrl     *Controller
	clock    *fakeClock
	backend  *fakeBackend
	camera   *fakeCamera
	stream   *fakeStream
	display  *fakeDisplay
	signals  *fakeSignals
	notifier *recNotifier
	cancel   context.CancelFunc
}

func question(id int, skill string, number int) *model.NextQuestionResponse {
	return &model.NextQuestionResponse{
		Greeting: "Here we go! 🚀",
		Question: model.QuestionBody{
			MCQID:    id,
			Question: "What does SELECT do?",
			Options:  []string{"Reads rows", "Writes rows", "Drops tables", "Locks rows"},
		},
		Skill:          skill,
		QuestionNumber: number,
	}
}

func newHarness(t *testing.T, mutate func(*harness)) *harness {
	t.Helper()
	h := &harness{
		clock:    newFakeClock(),
		stream:   &fakeStream{},
		display:  &fakeDisplay{},
		signals:  &fakeSignals{},
		notifier: &recNotifier{},
	}
	h.camera = &fakeCamera{stream: h.stream}
	h.backend = &fakeBackend{
		startResp: &model.StartAssessmentResponse{TestDuration: 600, TotalQuestions: 10},
		questions: []*model.NextQuestionResponse{
			question(101, "Go", 1),
			question(102, "Go", 2),
			question(103, "SQL", 3),
		},
	}
	if mutate != nil {
		mutate(h)
	}

	h.ctrl = New(DefaultConfig(), 42, h.backend, h.camera, h.display, h.signals, h.notifier, h.clock)
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.ctrl.Run(ctx)
	t.Cleanup(func() {
		h.ctrl.Stop()
		cancel()
	})
	return h
}

func waitFor(t *testing.T, c *Controller, what string, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := c.Snapshot()
		if cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; state: %+v", what, c.Snapshot())
	return State{}
}

func waitDisplayed(t *testing.T, h *harness) State {
	t.Helper()
	return waitFor(t, h.ctrl, "question displayed", func(s State) bool {
		return s.Flow == FlowDisplayed && s.Question != nil
	})
}

func TestWebcamDenialIsTerminal(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.camera.err = ErrCameraDenied
	})

	s := waitFor(t, h.ctrl, "webcam error phase", func(s State) bool {
		return s.Phase == PhaseWebcamError
	})
	if s.ErrorMessage == "" {
		t.Error("expected an error message for the candidate")
	}
	if h.notifier.failure() == "" {
		t.Error("expected SessionFailed notification")
	}
	if h.backend.startCalls != 0 {
		t.Errorf("start should not be called without a camera, got %d calls", h.backend.startCalls)
	}
}

func TestMissingTestDurationFailsSession(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.backend.startResp = &model.StartAssessmentResponse{TotalQuestions: 10}
	})

	s := waitFor(t, h.ctrl, "failed phase", func(s State) bool {
		return s.Phase == PhaseFailed
	})
	if !strings.Contains(s.ErrorMessage, "duration") {
		t.Errorf("error should mention the missing duration, got %q", s.ErrorMessage)
	}
}

func TestStartDisplaysFirstQuestion(t *testing.T) {
	h := newHarness(t, nil)

	s := waitDisplayed(t, h)
	if s.Phase != PhaseActive {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseActive)
	}
	if s.TimeLeft != 600 {
		t.Errorf("TimeLeft = %d, want 600", s.TimeLeft)
	}
	if s.Question.MCQID != 101 {
		t.Errorf("question id = %d, want 101", s.Question.MCQID)
	}
	if len(s.UsedMCQIDs) != 1 || s.UsedMCQIDs[0] != 101 {
		t.Errorf("UsedMCQIDs = %v, want [101]", s.UsedMCQIDs)
	}
	if h.display.enterCalls == 0 {
		t.Error("fullscreen was never requested")
	}
}

func TestFullscreenRefusalIsNotFatal(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.display.failEnter = true
	})

	s := waitDisplayed(t, h)
	if s.Phase != PhaseActive {
		t.Fatalf("phase = %s, want active despite fullscreen refusal", s.Phase)
	}
	if !s.ShowingFullscreenWarning {
		t.Error("expected the fullscreen warning to be shown")
	}
}

func TestUsedQuestionIDsAccumulate(t *testing.T) {
	h := newHarness(t, nil)

	waitDisplayed(t, h)
	h.ctrl.SubmitAnswer("1")
	waitFor(t, h.ctrl, "transition delay", func(s State) bool { return s.Flow == FlowDelay })
	h.clock.Advance(1500 * time.Millisecond)
	waitFor(t, h.ctrl, "second question", func(s State) bool {
		return s.Flow == FlowDisplayed && s.Question != nil && s.Question.MCQID == 102
	})

	calls := h.backend.fetchCalls()
	if len(calls) != 2 {
		t.Fatalf("fetch calls = %d, want 2", len(calls))
	}
	if len(calls[0]) != 0 {
		t.Errorf("first fetch should carry no used ids, got %v", calls[0])
	}
	if len(calls[1]) != 1 || calls[1][0] != 101 {
		t.Errorf("second fetch used ids = %v, want [101]", calls[1])
	}
}

func TestEmptyAnswerRejectedLocally(t *testing.T) {
	h := newHarness(t, nil)

	waitDisplayed(t, h)
	h.ctrl.SubmitAnswer("")
	s := waitFor(t, h.ctrl, "validation message", func(s State) bool {
		return s.ErrorMessage != ""
	})
	if s.ErrorMessage != "Please select an answer." {
		t.Errorf("message = %q", s.ErrorMessage)
	}
	if s.Flow != FlowDisplayed {
		t.Errorf("flow = %s, want still displayed", s.Flow)
	}
	if len(h.backend.submitCalls()) != 0 {
		t.Error("empty answer must not reach the backend")
	}
}

func TestSubmitCarriesElapsedTime(t *testing.T) {
	h := newHarness(t, nil)

	waitDisplayed(t, h)
	h.clock.Advance(7 * time.Second)
	h.ctrl.SubmitAnswer("2")
	waitFor(t, h.ctrl, "submit recorded", func(State) bool {
		return len(h.backend.submitCalls()) == 1
	})

	req := h.backend.submitCalls()[0]
	if req.Answer != "2" || req.Skill != "Go" || req.MCQID != 101 {
		t.Errorf("unexpected submit payload: %+v", req)
	}
	if req.TimeTaken != 7 {
		t.Errorf("TimeTaken = %v, want 7", req.TimeTaken)
	}
	if len(h.notifier.feedbacks) == 0 {
		t.Error("feedback was not surfaced")
	}
}

func TestSubmitIgnoredWhileFetching(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, func(h *harness) {
		h.backend.fetchGate = gate
	})

	waitFor(t, h.ctrl, "fetch in flight", func(s State) bool {
		return s.Flow == FlowFetching
	})
	h.ctrl.SubmitAnswer("1")
	// Give the controller a moment to (wrongly) act on it.
	time.Sleep(20 * time.Millisecond)
	if n := len(h.backend.submitCalls()); n != 0 {
		t.Fatalf("submit reached the backend during a fetch, calls = %d", n)
	}
	close(gate)
	waitDisplayed(t, h)
}

func TestFullscreenExitsTerminateAboveLimit(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	// Limit is 2: two exits warn, the third terminates.
	h.signals.Emit(SignalFullscreenExit)
	h.signals.Emit(SignalFullscreenExit)
	waitFor(t, h.ctrl, "two warnings", func(s State) bool {
		return s.FullscreenWarnings == 2
	})
	if len(h.backend.endCalls()) != 0 {
		t.Fatal("terminated at the limit; termination requires exceeding it")
	}

	h.signals.Emit(SignalFullscreenExit)
	s := waitFor(t, h.ctrl, "forced termination", func(s State) bool {
		return s.Phase == PhaseCompleted
	})
	if !s.ForcedTermination {
		t.Error("expected a forced termination")
	}
	if s.TerminationReason != "Terminated due to repeated fullscreen exits" {
		t.Errorf("reason = %q", s.TerminationReason)
	}

	ends := h.backend.endCalls()
	if len(ends) != 1 {
		t.Fatalf("end calls = %d, want 1", len(ends))
	}
	if ends[0].FullscreenWarnings != 3 || !ends[0].ForcedTermination {
		t.Errorf("end payload: %+v", ends[0])
	}
}

func TestTabSwitchesTerminateAtLimit(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	// Limit is 3: the third switch itself terminates.
	h.signals.Emit(SignalTabHidden)
	h.signals.Emit(SignalTabHidden)
	waitFor(t, h.ctrl, "two tab warnings", func(s State) bool {
		return s.TabSwitches == 2
	})
	if len(h.backend.endCalls()) != 0 {
		t.Fatal("terminated before the limit")
	}

	h.signals.Emit(SignalTabHidden)
	s := waitFor(t, h.ctrl, "forced termination", func(s State) bool {
		return s.Phase == PhaseCompleted
	})
	if s.TerminationReason != "Terminated due to repeated tab switches" {
		t.Errorf("reason = %q", s.TerminationReason)
	}
	ends := h.backend.endCalls()
	if len(ends) != 1 || ends[0].TabSwitches != 3 {
		t.Errorf("end payload: %+v", ends)
	}
}

func TestClipboardSignalAddsRemark(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	h.signals.Emit(SignalClipboard)
	s := waitFor(t, h.ctrl, "clipboard remark", func(s State) bool {
		return len(s.Remarks) > 0
	})
	if !strings.HasPrefix(s.Remarks[0], "Attempted copy/paste at ") {
		t.Errorf("remark = %q", s.Remarks[0])
	}
	if len(h.backend.endCalls()) != 0 {
		t.Error("clipboard use must not terminate the session")
	}
}

func TestTimerExpiryEndsExactlyOnce(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.backend.startResp = &model.StartAssessmentResponse{TestDuration: 3, TotalQuestions: 10}
	})
	waitDisplayed(t, h)

	h.clock.Advance(3 * time.Second)
	s := waitFor(t, h.ctrl, "time expired end", func(s State) bool {
		return len(h.backend.endCalls()) == 1
	})
	if s.TimeLeft != 0 {
		t.Errorf("TimeLeft = %d, want 0", s.TimeLeft)
	}

	waitFor(t, h.ctrl, "completion", func(s State) bool { return s.Phase == PhaseCompleted })
	h.clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)

	ends := h.backend.endCalls()
	if len(ends) != 1 {
		t.Fatalf("end calls = %d, want exactly 1", len(ends))
	}
	if ends[0].ForcedTermination || ends[0].TerminationReason != "" {
		t.Errorf("time expiry is not a forced termination: %+v", ends[0])
	}
}

func TestSnapshotScheduleWithinBounds(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	cfg := DefaultConfig()
	delays := h.clock.pendingDelays()
	if len(delays) < cfg.SnapshotMin || len(delays) > cfg.SnapshotMax {
		t.Fatalf("scheduled %d snapshots, want between %d and %d", len(delays), cfg.SnapshotMin, cfg.SnapshotMax)
	}
	total := 600 * time.Second
	for i, d := range delays {
		if d < 0 || d > total {
			t.Errorf("snapshot %d offset %v outside the attempt window", i, d)
		}
		if i > 0 && d < delays[i-1] {
			t.Errorf("snapshot offsets not sorted: %v", delays)
		}
	}
}

func TestSnapshotCaptureRecordsRemark(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	h.clock.Advance(600 * time.Second)
	scheduled := len(h.clock.pendingDelays())
	waitFor(t, h.ctrl, "all snapshots uploaded", func(s State) bool {
		return h.backend.snapshotCount() >= scheduled || s.Phase == PhaseCompleted
	})
	s := waitFor(t, h.ctrl, "snapshot remark", func(s State) bool {
		return s.SnapshotsTaken > 0
	})
	found := false
	for _, r := range s.Remarks {
		if strings.HasPrefix(r, "Snapshot captured at ") {
			found = true
		}
	}
	if !found {
		t.Errorf("no snapshot remark in %v", s.Remarks)
	}
}

func TestSnapshotFailureRecordsFailureRemark(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.stream.captureErr = errors.New("device busy")
	})
	waitDisplayed(t, h)

	h.clock.Advance(600 * time.Second)
	s := waitFor(t, h.ctrl, "failure remark", func(s State) bool {
		for _, r := range s.Remarks {
			if strings.HasPrefix(r, "Failed to capture snapshot") {
				return true
			}
		}
		return false
	})
	if s.SnapshotsTaken != 0 {
		t.Errorf("SnapshotsTaken = %d, want 0", s.SnapshotsTaken)
	}
}

func TestCompletionFromServerSkipsEndCall(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.backend.questions = nil
		h.backend.completion = &model.CompletionResponse{Message: "Assessment completed"}
	})

	s := waitFor(t, h.ctrl, "completion", func(s State) bool {
		return s.Phase == PhaseCompleted
	})
	if len(h.backend.endCalls()) != 0 {
		t.Error("server-side completion must not trigger a client end call")
	}
	if s.ResultsURL != "/candidate/assessment/42/results" {
		t.Errorf("results url = %q", s.ResultsURL)
	}
	if h.notifier.resultsURL() != s.ResultsURL {
		t.Error("SessionEnded not notified with the results url")
	}
}

func TestVoluntaryEndIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	h.ctrl.EndAssessment()
	h.ctrl.EndAssessment()
	waitFor(t, h.ctrl, "completion", func(s State) bool { return s.Phase == PhaseCompleted })

	if n := len(h.backend.endCalls()); n != 1 {
		t.Fatalf("end calls = %d, want 1", n)
	}
}

func TestTeardownReleasesEverything(t *testing.T) {
	h := newHarness(t, nil)
	waitDisplayed(t, h)

	h.ctrl.EndAssessment()
	waitFor(t, h.ctrl, "completion", func(s State) bool { return s.Phase == PhaseCompleted })

	if h.stream.stopCount() == 0 {
		t.Error("camera stream not released")
	}
	if h.signals.detachCount() == 0 {
		t.Error("signal source not detached")
	}
	if h.display.exits() == 0 {
		t.Error("fullscreen not exited")
	}
	if h.clock.stoppedTimers() == 0 {
		t.Error("snapshot timers not cancelled")
	}

	// A late signal must be inert.
	h.signals.Emit(SignalTabHidden)
	time.Sleep(20 * time.Millisecond)
	if len(h.backend.endCalls()) != 1 {
		t.Error("events after teardown must not reach the backend")
	}
}

func TestRetryAfterWebcamDenial(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.camera.err = ErrCameraDenied
	})
	waitFor(t, h.ctrl, "webcam error", func(s State) bool {
		return s.Phase == PhaseWebcamError
	})

	h.camera.allow(h.stream)
	h.ctrl.Retry()
	s := waitDisplayed(t, h)
	if s.Phase != PhaseActive {
		t.Fatalf("phase after retry = %s", s.Phase)
	}
	if s.FullscreenWarnings != 0 || s.TabSwitches != 0 || len(s.Remarks) != 0 {
		t.Errorf("retry must reset counters, state: %+v", s)
	}
}

func TestFullSessionFlow(t *testing.T) {
	h := newHarness(t, nil)

	answers := []string{"1", "3", "2"}
	for i, a := range answers {
		waitFor(t, h.ctrl, "question displayed", func(s State) bool {
			return s.Flow == FlowDisplayed && s.Question != nil
		})
		h.ctrl.SubmitAnswer(a)
		waitFor(t, h.ctrl, "feedback delay", func(s State) bool {
			return s.Flow == FlowDelay
		})
		h.clock.Advance(1500 * time.Millisecond)
		if i < len(answers)-1 {
			continue
		}
	}

	// Bank is exhausted; the next fetch returns the completion message.
	s := waitFor(t, h.ctrl, "completion", func(s State) bool {
		return s.Phase == PhaseCompleted
	})

	subs := h.backend.submitCalls()
	if len(subs) != 3 {
		t.Fatalf("submits = %d, want 3", len(subs))
	}
	seen := map[int]bool{}
	for _, fetch := range h.backend.fetchCalls() {
		for _, id := range fetch {
			seen[id] = true
		}
	}
	for _, id := range []int{101, 102} {
		if !seen[id] {
			t.Errorf("question %d never reported as used", id)
		}
	}
	if s.ResultsURL == "" {
		t.Error("no results url after completion")
	}
}
