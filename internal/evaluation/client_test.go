package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testPairs() []QAPair {
	return []QAPair{
		{Question: "Tell me about yourself.", Answer: "I build backend services.", Mode: "text"},
		{Question: "Describe a hard bug you fixed.", Answer: "A race in a session cache.", Mode: "voice"},
	}
}

func TestEvaluateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.SessionID != "session-1" {
			t.Errorf("Expected session_id 'session-1', got %q", req.SessionID)
		}
		if len(req.QAPairs) != 2 {
			t.Errorf("Expected 2 qa_pairs, got %d", len(req.QAPairs))
		}

		resp := Response{SessionID: req.SessionID}
		for _, pair := range req.QAPairs {
			resp.Evaluations = append(resp.Evaluations, Evaluation{
				Question: pair.Question,
				Answer:   pair.Answer,
				Evaluation: Feedback{
					Score:        7,
					Strengths:    StringList{"clear structure"},
					Improvements: StringList{"add metrics"},
				},
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	feedback, err := client.Evaluate(context.Background(), "session-1", testPairs())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(feedback) != 2 {
		t.Fatalf("Expected 2 feedback entries, got %d", len(feedback))
	}
	if feedback[0].Score != 7 {
		t.Errorf("Expected score 7, got %d", feedback[0].Score)
	}
	if len(feedback[1].Strengths) != 1 || feedback[1].Strengths[0] != "clear structure" {
		t.Errorf("Unexpected strengths: %v", feedback[1].Strengths)
	}
}

func TestEvaluateRejectsReorderedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)

		// Swap the pairs in the echoed response.
		resp := Response{SessionID: req.SessionID}
		for i := len(req.QAPairs) - 1; i >= 0; i-- {
			resp.Evaluations = append(resp.Evaluations, Evaluation{
				Question:   req.QAPairs[i].Question,
				Answer:     req.QAPairs[i].Answer,
				Evaluation: Feedback{Score: 5},
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second, MaxRetries: 0})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Evaluate(context.Background(), "session-1", testPairs())
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Expected ErrFailed for reordered response, got %v", err)
	}
}

func TestEvaluateRejectsShortResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{
			SessionID:   "session-1",
			Evaluations: []Evaluation{{Evaluation: Feedback{Score: 5}}},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second, MaxRetries: 0})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Evaluate(context.Background(), "session-1", testPairs())
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Expected ErrFailed for short response, got %v", err)
	}
}

func TestEvaluateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second, MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Evaluate(context.Background(), "session-1", testPairs())
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Expected ErrFailed, got %v", err)
	}

	stats := client.GetStats()
	if stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestEvaluateEmptyPairs(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost:1/unused"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Evaluate(context.Background(), "session-1", nil)
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Expected ErrFailed for empty pairs, got %v", err)
	}
}

func TestStringListAcceptsString(t *testing.T) {
	var fb Feedback
	raw := `{"score": 8, "strengths": "concise answer", "improvements": ["quantify impact", "mention tradeoffs"]}`
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(fb.Strengths) != 1 || fb.Strengths[0] != "concise answer" {
		t.Errorf("Unexpected strengths: %v", fb.Strengths)
	}
	if len(fb.Improvements) != 2 {
		t.Errorf("Expected 2 improvements, got %d", len(fb.Improvements))
	}
}

func TestStringListRejectsNumbers(t *testing.T) {
	var list StringList
	if err := json.Unmarshal([]byte(`42`), &list); err == nil {
		t.Error("Expected error for numeric value")
	}
}
