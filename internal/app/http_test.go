package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"feeflow/api/internal/store"
)

func newTestServer(t *testing.T, fs *fakeStore) *httptest.Server {
	t.Helper()
	service := newTestService(t, fs)
	server := httptest.NewServer(NewHTTPServer(service, "*").Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	payload := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func signUpAndGetToken(t *testing.T, baseURL string) string {
	t.Helper()
	resp, payload := doJSON(t, http.MethodPost, baseURL+"/api/auth/signup", "", map[string]any{
		"email":       "martin@example.com",
		"password":    "correct-horse",
		"displayName": "Martin Robert",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %v", resp.StatusCode, payload)
	}
	token, _ := payload["accessToken"].(string)
	if token == "" {
		t.Fatal("signup returned no access token")
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, newFakeStore())

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if payload["ok"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	server := newTestServer(t, newFakeStore())

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/projects", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("code = %v", payload["code"])
	}
}

func TestSignUpSignInAndCreateProject(t *testing.T) {
	fs := newFakeStore()
	server := newTestServer(t, fs)
	token := signUpAndGetToken(t, server.URL)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/auth/signin", "", map[string]any{
		"email":    "martin@example.com",
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin status = %d, body = %v", resp.StatusCode, payload)
	}

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/projects", token, map[string]any{
		"name":    "Coastal Tower",
		"country": "United Arab Emirates",
		"year":    2025,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, payload)
	}
	if payload["number"] != "25-97101" {
		t.Fatalf("number = %v, want 25-97101", payload["number"])
	}

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/projects", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	projects, _ := payload["projects"].([]any)
	if len(projects) != 1 {
		t.Fatalf("projects = %v", payload["projects"])
	}
}

func TestViewerCannotWrite(t *testing.T) {
	fs := newFakeStore()
	server := newTestServer(t, fs)
	token := signUpAndGetToken(t, server.URL)

	// Demote the account; the next request re-reads the role from the store.
	for id, u := range fs.users {
		u.Role = "viewer"
		fs.users[id] = u
	}

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/companies", token, map[string]any{
		"name": "Emaar",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %v", resp.StatusCode, payload)
	}
	if payload["code"] != "FORBIDDEN" {
		t.Fatalf("code = %v", payload["code"])
	}
}

func TestSyncConfirmationOverHTTP(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj_1", 971, 25, 5)
	fs.proposals["fee_1"] = store.Proposal{
		ID:        "fee_1",
		Name:      "Coastal Tower Fee Proposal",
		Number:    "25-97105-FP",
		ProjectID: "projects:prj_1",
		Status:    "Draft",
	}
	server := newTestServer(t, fs)
	token := signUpAndGetToken(t, server.URL)

	resp, payload := doJSON(t, http.MethodPut, server.URL+"/api/proposals/fee_1", token, map[string]any{
		"name":   "Coastal Tower Fee Proposal",
		"status": "Sent",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %v", resp.StatusCode, payload)
	}
	if payload["code"] != "SYNC_CONFIRMATION_REQUIRED" {
		t.Fatalf("code = %v", payload["code"])
	}

	resp, payload = doJSON(t, http.MethodPut, server.URL+"/api/proposals/fee_1", token, map[string]any{
		"name":        "Coastal Tower Fee Proposal",
		"status":      "Sent",
		"confirmSync": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, payload)
	}
	if payload["status"] != "Sent" {
		t.Fatalf("status = %v", payload["status"])
	}
}
