package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Seeds the API with every PDF resume found in a directory. Uploads go
// through the HTTP API so the full ingestion path is exercised.
//
//	API_URL       base URL of a running server (default http://localhost:3000)
//	RESUME_DIR    directory scanned for *.pdf files (default ./sample_resumes)
//	SEED_EVALUATE set to "true" to also queue an evaluation per upload
func main() {
	apiURL := envOr("API_URL", "http://localhost:3000")
	resumeDir := envOr("RESUME_DIR", "./sample_resumes")
	evaluate := envOr("SEED_EVALUATE", "false") == "true"

	entries, err := os.ReadDir(resumeDir)
	if err != nil {
		log.Fatalf("failed to read resume directory %s: %v", resumeDir, err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}

	uploaded := 0
	failed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		path := filepath.Join(resumeDir, entry.Name())
		log.Printf("uploading %s", path)

		candidateID, err := uploadResume(client, apiURL, path)
		if err != nil {
			log.Printf("upload failed for %s: %v", entry.Name(), err)
			failed++
			continue
		}
		uploaded++
		log.Printf("candidate %s ingested from %s", candidateID, entry.Name())

		if evaluate {
			jobID, err := queueEvaluation(client, apiURL, candidateID)
			if err != nil {
				log.Printf("failed to queue evaluation for %s: %v", candidateID, err)
				continue
			}
			log.Printf("evaluation job %s queued for candidate %s", jobID, candidateID)
		}
	}

	log.Printf("done: %d uploaded, %d failed", uploaded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func uploadResume(client *http.Client, apiURL, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("resume", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy file into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/v1/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var status struct {
		CandidateID string `json:"candidate_id"`
		Chunks      int    `json:"chunks"`
		Characters  int    `json:"characters"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	log.Printf("  %d chunks, %d characters", status.Chunks, status.Characters)

	return status.CandidateID, nil
}

func queueEvaluation(client *http.Client, apiURL, candidateID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"candidate_id": candidateID})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	resp, err := client.Post(apiURL+"/api/v1/evaluate", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var job struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &job); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return job.ID, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
