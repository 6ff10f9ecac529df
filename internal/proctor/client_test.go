package proctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hirelens/hirelens/internal/model"
)

func TestAPIClientStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/assessment/start/7" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(model.StartAssessmentResponse{TestDuration: 1800, TotalQuestions: 12})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	resp, err := c.Start(context.Background(), 7)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.TestDuration != 1800 || resp.TotalQuestions != 12 {
		t.Errorf("response = %+v", resp)
	}
}

func TestAPIClientFlatErrorParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "Assessment period has ended"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	_, err := c.Start(context.Background(), 7)
	if err == nil || err.Error() != "Assessment period has ended" {
		t.Errorf("err = %v, want the server's flat error message", err)
	}
}

func TestAPIClientFallbackErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	_, err := c.Start(context.Background(), 7)
	if err == nil || err.Error() != "HTTP error 502" {
		t.Errorf("err = %v, want HTTP error 502", err)
	}
}

func TestAPIClientNextQuestionDistinguishesCompletion(t *testing.T) {
	responses := []any{
		model.NextQuestionResponse{
			Greeting:       "Here we go! 🚀",
			Question:       model.QuestionBody{MCQID: 9, Question: "?", Options: []string{"a", "b", "c", "d"}},
			Skill:          "Go",
			QuestionNumber: 1,
		},
		model.CompletionResponse{Message: "Assessment completed"},
	}
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("used_mcq_ids"); i == 1 && got != "[9]" {
			t.Errorf("used_mcq_ids = %q, want [9]", got)
		}
		json.NewEncoder(w).Encode(responses[i])
		i++
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	q, done, err := c.NextQuestion(context.Background(), 7, []int{})
	if err != nil || q == nil || done != nil {
		t.Fatalf("first call: q=%v done=%v err=%v", q, done, err)
	}
	if q.Question.MCQID != 9 {
		t.Errorf("mcq id = %d", q.Question.MCQID)
	}

	q, done, err = c.NextQuestion(context.Background(), 7, []int{9})
	if err != nil || q != nil || done == nil {
		t.Fatalf("second call: q=%v done=%v err=%v", q, done, err)
	}
	if done.Message != "Assessment completed" {
		t.Errorf("message = %q", done.Message)
	}
}

func TestAPIClientSnapshotMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("snapshot")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "snapshot.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Snapshot captured"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	if err := c.CaptureSnapshot(context.Background(), 7, []byte{0xff, 0xd8, 0xff}, "image/jpeg"); err != nil {
		t.Fatalf("CaptureSnapshot: %v", err)
	}
}

func TestAPIClientEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body model.EndAssessmentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ProctoringData.TabSwitches != 2 || !body.ProctoringData.ForcedTermination {
			t.Errorf("payload = %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "Assessment completed"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok")
	err := c.End(context.Background(), 7, &model.ClientProctoringData{
		TabSwitches:       2,
		ForcedTermination: true,
		TerminationReason: "Terminated due to repeated tab switches",
	})
	if err != nil {
		t.Fatalf("End: %v", err)
	}
}
