package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/abhishek-singh110/InterviewGenie/internal/audio"
)

// Standalone fake backend for local development: serves the transcription,
// evaluation and speech synthesis endpoints the service talks to.
//
// Run with: go run test_backend_server.go

type transcriptionResponse struct {
	Transcript string `json:"transcript"`
}

type evaluationRequest struct {
	SessionID string `json:"session_id"`
	QAPairs   []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Mode     string `json:"mode"`
	} `json:"qa_pairs"`
}

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form
	err := r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")

	// Get audio file
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 TRANSCRIPTION REQUEST: session=%s file=%s size=%d bytes",
		sessionID, header.Filename, len(audioData))

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := transcriptionResponse{
		Transcript: fmt.Sprintf("Test transcript for a %d byte recording", len(audioData)),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ TRANSCRIPT SENT: '%s'", response.Transcript)
}

func evaluateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing JSON", http.StatusBadRequest)
		return
	}

	log.Printf("📝 EVALUATION REQUEST: session=%s pairs=%d", req.SessionID, len(req.QAPairs))

	// Simulate processing time
	time.Sleep(300 * time.Millisecond)

	evaluations := make([]map[string]interface{}, 0, len(req.QAPairs))
	for _, pair := range req.QAPairs {
		score := 5 + len(pair.Answer)%5
		evaluations = append(evaluations, map[string]interface{}{
			"question": pair.Question,
			"answer":   pair.Answer,
			"evaluation": map[string]interface{}{
				"score":        score,
				"strengths":    []string{"Clear structure", "Concrete example"},
				"improvements": []string{"Quantify the impact", "Mention tradeoffs"},
			},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session_id":  req.SessionID,
		"evaluations": evaluations,
	})

	log.Printf("✅ EVALUATIONS SENT: %d entries", len(evaluations))
}

func synthesizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing JSON", http.StatusBadRequest)
		return
	}

	log.Printf("🔊 SYNTHESIS REQUEST: voice=%s text=%q", req.Voice, req.Text)

	// One second of 440Hz tone per 20 characters, at least one second.
	seconds := 1 + len(req.Text)/20
	sampleRate := 8000
	samples := make([]float32, seconds*sampleRate)
	for i := range samples {
		samples[i] = 0.3 * float32(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	wav, err := audio.EncodeWAV(&audio.DecodedAudio{
		Channels:   [][]float32{samples},
		SampleRate: sampleRate,
	})
	if err != nil {
		http.Error(w, "Error encoding audio", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(wav)

	log.Printf("✅ AUDIO SENT: %d seconds, %d bytes", seconds, len(wav))
}

func main() {
	http.HandleFunc("/transcribe", transcribeHandler)
	http.HandleFunc("/evaluate", evaluateHandler)
	http.HandleFunc("/synthesize", synthesizeHandler)

	port := ":8081"
	log.Printf("🚀 Test Backend Server starting on port %s", port)
	log.Printf("📡 Endpoints: /transcribe /evaluate /synthesize on http://localhost%s", port)
	log.Println("💡 Matches the default endpoints in configs/config.yaml")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
