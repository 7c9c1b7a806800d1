//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/safehaven/safehaven-api/internal/identity"
)

func baseURL() string {
	if v := os.Getenv("SAFEHAVEN_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// adminToken signs a bearer token with the server's JWT secret.
func adminToken(t *testing.T) string {
	t.Helper()
	secret := os.Getenv("SAFEHAVEN_AUTH_JWT_SECRET")
	if secret == "" {
		t.Skip("SAFEHAVEN_AUTH_JWT_SECRET not set")
	}
	issuer := os.Getenv("SAFEHAVEN_AUTH_JWT_ISSUER")
	if issuer == "" {
		issuer = "safehaven"
	}
	uid := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	tok, err := identity.NewJWTVerifier(secret, issuer).Sign(identity.Identity{UID: uid, Email: uid + "@example.com"}, 10*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

type createdAssessment struct {
	ID       string `json:"id"`
	Sections []struct {
		Questions []struct {
			ID      string `json:"id"`
			Options []struct {
				ID string `json:"id"`
			} `json:"options"`
		} `json:"questions"`
	} `json:"sections"`
}

func TestAssessmentJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()
	token := adminToken(t)

	var created createdAssessment
	doRequest(t, client, http.MethodPost, base+"/api/assessment", token, map[string]any{
		"title": fmt.Sprintf("Integration Check %d", time.Now().UnixNano()),
		"sections": []map[string]any{{
			"name": "Safety",
			"questions": []map[string]any{{
				"questionText": "Do you feel safe at home?",
				"options": []map[string]any{
					{"text": "Yes", "pointValue": 0},
					{"text": "No", "pointValue": 4, "order": 1},
				},
			}},
		}},
		"riskLevels": []map[string]any{
			{"minScore": 0, "maxScore": 1, "level": "Low", "message": "ok"},
			{"minScore": 2, "maxScore": 4, "level": "High", "message": "reach out", "resources": []string{"hotline"}},
		},
	}, http.StatusCreated, &created)
	if created.ID == "" || len(created.Sections) != 1 {
		t.Fatalf("unexpected create response: %+v", created)
	}
	t.Cleanup(func() {
		doRequest(t, client, http.MethodDelete, base+"/api/assessment/"+created.ID, token, nil, http.StatusNoContent, nil)
	})

	var view map[string]any
	doRequest(t, client, http.MethodGet, base+"/api/assessment/user/"+created.ID, "", nil, http.StatusOK, &view)
	raw, _ := json.Marshal(view)
	if strings.Contains(string(raw), "pointValue") {
		t.Fatalf("public view exposes point values: %s", raw)
	}

	q := created.Sections[0].Questions[0]
	var result struct {
		TotalScore int `json:"totalScore"`
		RiskLevel  struct {
			Level string `json:"level"`
		} `json:"riskLevel"`
	}
	doRequest(t, client, http.MethodPost, base+"/api/assessment/"+created.ID+"/submit", "", map[string]any{
		"answers": []map[string]string{{"questionId": q.ID, "optionId": q.Options[1].ID}},
	}, http.StatusOK, &result)
	if result.TotalScore != 4 || result.RiskLevel.Level != "High" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func doRequest(t *testing.T, client *http.Client, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s %s: %s", resp.StatusCode, method, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
