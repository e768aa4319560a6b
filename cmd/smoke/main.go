package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/google/uuid"
)

const defaultAPIBase = "http://localhost:8080"

var (
	apiBase  string
	token    string
	clientID string
	// Generation may take minutes against a real upstream.
	client = &http.Client{Timeout: 5 * time.Minute}
)

func main() {
	fmt.Println("=== Coach Hub E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")
	clientID = getEnv("SMOKE_CLIENT_ID", uuid.NewString())

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Calculate Targets", testCalculate},
		{"Generate Meal Plan", testGenerate},
		{"Get Meal Plan", testGetPlan},
		{"Plan Status", testStatus},
		{"Download PDF", testDownloadPDF},
		{"Download CSV", testDownloadCSV},
		{"Delete Meal Plan", testDelete},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}
	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	_, err := do(http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

func testCalculate() error {
	body, err := do(http.MethodPost, "/v1/nutrition/calculate", map[string]interface{}{
		"client_id":      clientID,
		"weight_kg":      78,
		"height_cm":      176,
		"age_years":      34,
		"sex":            "male",
		"activity_level": "moderate",
		"goal":           "lose",
		"persist":        true,
	}, http.StatusOK)
	if err != nil {
		return err
	}

	var result struct {
		Targets struct {
			TargetCalories float64 `json:"targetCalories"`
		} `json:"targets"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Targets.TargetCalories <= 0 {
		return fmt.Errorf("no target calories in %s", truncate(body))
	}
	return nil
}

func testGenerate() error {
	_, err := do(http.MethodPost, "/v1/meal/plan/generate", map[string]interface{}{
		"client_id": clientID,
		"preferences": map[string]string{
			"allergies": "orasi",
		},
	}, http.StatusOK)
	return err
}

func testGetPlan() error {
	body, err := do(http.MethodGet, "/v1/meal/plan?client_id="+clientID+"&day=0", nil, http.StatusOK)
	if err != nil {
		return err
	}

	var result struct {
		Plan *struct {
			DayCount int `json:"day_count"`
		} `json:"plan"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Plan == nil || result.Plan.DayCount == 0 {
		return fmt.Errorf("no plan stored: %s", truncate(body))
	}
	return nil
}

func testStatus() error {
	body, err := do(http.MethodGet, "/v1/meal/plan/status?client_id="+clientID, nil, http.StatusOK)
	if err != nil {
		return err
	}
	if !bytes.Contains(body, []byte(`"ready"`)) {
		return fmt.Errorf("expected ready state, got %s", truncate(body))
	}
	return nil
}

func testDownloadPDF() error {
	body, err := do(http.MethodGet, "/v1/meal/plan/pdf?client_id="+clientID, nil, http.StatusOK)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return fmt.Errorf("response is not a PDF (%d bytes)", len(body))
	}
	return nil
}

func testDownloadCSV() error {
	body, err := do(http.MethodGet, "/v1/meal/plan/csv?client_id="+clientID, nil, http.StatusOK)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(body, []byte("date,day_name,slot")) {
		return fmt.Errorf("unexpected CSV header: %s", truncate(body))
	}
	return nil
}

func testDelete() error {
	_, err := do(http.MethodDelete, "/v1/meal/plan?client_id="+clientID, nil, http.StatusNoContent)
	return err
}

// Helper functions

// do sends a request and fails unless the response has the wanted status.
func do(method, path string, payload interface{}, want int) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func truncate(b []byte) string {
	if len(b) > 4096 {
		return string(b[:4096]) + "..."
	}
	return string(b)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
