package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"
	"sync"

	"github.com/hirelens/hirelens/internal/proctor"
)

// proctor-agent drives a full proctored assessment session from the
// terminal. It is the reference consumer of the proctor package and a
// handy smoke-test client: questions and feedback print to stdout,
// answers and simulated proctoring signals are read from stdin.
//
//	answer <1-4>   submit the chosen option
//	tab            simulate a tab switch
//	fullscreen     simulate a fullscreen exit
//	copy           simulate a blocked copy/paste
//	end            finish the assessment
//	retry          restart after a failure
//	state          print the controller state
//	quit           stop without ending the attempt
func main() {
	baseURL := flag.String("url", "http://localhost:5000", "API base URL")
	token := flag.String("token", "", "candidate bearer token")
	attemptID := flag.Int("attempt", 0, "assessment attempt id")
	flag.Parse()

	if *token == "" || *attemptID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: proctor-agent -url <base> -token <jwt> -attempt <id>")
		os.Exit(1)
	}

	backend := proctor.NewAPIClient(*baseURL, *token)
	signals := &manualSignals{}
	ctrl := proctor.New(
		proctor.DefaultConfig(),
		*attemptID,
		backend,
		syntheticCamera{},
		headlessDisplay{},
		signals,
		&consoleNotifier{},
		proctor.NewClock(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "answer":
			if len(fields) < 2 {
				fmt.Println("usage: answer <1-4>")
				continue
			}
			ctrl.SubmitAnswer(fields[1])
		case "tab":
			signals.Emit(proctor.SignalTabHidden)
		case "fullscreen":
			signals.Emit(proctor.SignalFullscreenExit)
		case "copy":
			signals.Emit(proctor.SignalClipboard)
		case "ack":
			ctrl.AcknowledgeFullscreenWarning()
		case "end":
			ctrl.EndAssessment()
		case "retry":
			ctrl.Retry()
		case "state":
			s := ctrl.Snapshot()
			fmt.Printf("phase=%s flow=%s time_left=%ds question=%d/%d tab_switches=%d fullscreen_warnings=%d snapshots=%d\n",
				s.Phase, s.Flow, s.TimeLeft, s.QuestionNumber, s.TotalQuestions,
				s.TabSwitches, s.FullscreenWarnings, s.SnapshotsTaken)
		case "quit":
			ctrl.Stop()
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}

		if s := ctrl.Snapshot(); s.Phase == proctor.PhaseCompleted {
			return
		}
	}
}

// syntheticCamera produces a flat gray frame so snapshot uploads work
// without real video hardware.
type syntheticCamera struct{}

func (syntheticCamera) Acquire(context.Context) (proctor.CameraStream, error) {
	return syntheticStream{}, nil
}

type syntheticStream struct{}

func (syntheticStream) CaptureFrame() ([]byte, string, error) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	gray := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, gray)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}

func (syntheticStream) Stop() {}

type headlessDisplay struct{}

func (headlessDisplay) RequestFullscreen() error { return nil }
func (headlessDisplay) ExitFullscreen()          {}

// manualSignals forwards signals typed at the prompt.
type manualSignals struct {
	mu      sync.Mutex
	handler func(proctor.Signal)
}

func (m *manualSignals) Attach(h func(proctor.Signal)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *manualSignals) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = nil
}

func (m *manualSignals) Emit(sig proctor.Signal) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(sig)
	}
}

type consoleNotifier struct{}

func (consoleNotifier) ShowQuestion(number, total int, skill, text string, options []string) {
	fmt.Printf("\n[%d/%d] %s: %s\n", number, total, skill, text)
	for i, opt := range options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	fmt.Print("> ")
}

func (consoleNotifier) ShowFeedback(feedback string) {
	fmt.Println(feedback)
}

func (consoleNotifier) FullscreenWarning(count, max int) {
	fmt.Printf("⚠ Fullscreen exit %d of %d allowed. Type \"ack\" to re-enter fullscreen.\n", count, max)
}

func (consoleNotifier) TabSwitchWarning(count, max int) {
	fmt.Printf("⚠ Tab switch %d of %d allowed.\n", count, max)
}

func (consoleNotifier) SnapshotTaken() {}

func (consoleNotifier) SessionEnded(resultsURL string) {
	fmt.Printf("\nAssessment finished. Results: %s\n", resultsURL)
}

func (consoleNotifier) SessionFailed(message string) {
	fmt.Printf("\nSession error: %s\n", message)
}
