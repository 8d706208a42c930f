package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/handlers"
	testutils "github.com/AbhinavBM/Centralized-Firewall-sub000/test_utils"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/wsserver"
)

// startTestServer brings up the full route table against an in-memory
// database, exactly as main wires it.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	testutils.SetupTestDB()

	hub := wsserver.NewHub()
	handlers.InitHandlers(cfg, hub)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", handlers.AuthMiddleware(hub.Handle))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t       *testing.T
	base    string
	cookies []*http.Cookie
	headers map[string]string
}

func (c *apiClient) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("Could not marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("Could not build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	if len(resp.Cookies()) > 0 {
		c.cookies = resp.Cookies()
	}

	var parsed map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&parsed)
	resp.Body.Close()
	return resp, parsed
}

func TestFullAgentLifecycle(t *testing.T) {
	srv := startTestServer(t)

	admin := &apiClient{t: t, base: srv.URL}
	agent := &apiClient{t: t, base: srv.URL, headers: map[string]string{}}

	// Admin logs into the console.
	resp, _ := admin.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin", "password": "admin",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login status = %d, want 200", resp.StatusCode)
	}

	// Admin registers the endpoint.
	resp, body := admin.do(http.MethodPost, "/api/endpoints", map[string]string{
		"hostname":  "server-01",
		"ipAddress": "192.168.1.10",
		"os":        "linux",
		"password":  "Abhi@1234",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create endpoint status = %d: %v", resp.StatusCode, body)
	}
	endpointData := body["data"].(map[string]interface{})
	endpointID := endpointData["id"].(string)
	if endpointData["status"] != "pending" {
		t.Errorf("New endpoint status = %v, want pending", endpointData["status"])
	}

	// Agent authenticates with its credentials.
	resp, body = agent.do(http.MethodPost, "/api/endpoints/authenticate", map[string]string{
		"hostname": "server-01", "password": "Abhi@1234",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Authenticate status = %d: %v", resp.StatusCode, body)
	}
	if body["status"] != "success" || body["endpoint_id"] != endpointID {
		t.Fatalf("Unexpected authenticate payload: %v", body)
	}
	agent.headers["X-Endpoint-ID"] = endpointID

	// The endpoint is now online.
	resp, body = admin.do(http.MethodGet, "/api/endpoints/"+endpointID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Get endpoint status = %d", resp.StatusCode)
	}
	if body["data"].(map[string]interface{})["status"] != "online" {
		t.Errorf("Endpoint not online after authentication: %v", body["data"])
	}

	// Agent reports its running processes.
	resp, body = agent.do(http.MethodPost, "/api/endpoints/applications", map[string]interface{}{
		"endpoint_id": endpointID,
		"applications": map[string]interface{}{
			"chrome.exe": map[string]interface{}{
				"status":            "running",
				"destination_ports": []int{443},
			},
			"sshd": map[string]interface{}{"status": "running"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Submit applications status = %d: %v", resp.StatusCode, body)
	}
	if body["processed_applications"] != float64(2) {
		t.Errorf("processed_applications = %v, want 2", body["processed_applications"])
	}

	// Admin creates rules with a mix of both naming families.
	resp, body = admin.do(http.MethodPost, "/api/firewall/rules", map[string]interface{}{
		"endpointId":       endpointID,
		"processName":      "chrome.exe",
		"entity_type":      "ip",
		"destination_ip":   "142.250.72.14",
		"destination_port": 443,
		"action":           "deny",
		"priority":         10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create rule status = %d: %v", resp.StatusCode, body)
	}
	resp, body = admin.do(http.MethodPost, "/api/firewall/rules", map[string]interface{}{
		"endpointId":  endpointID,
		"processName": "chrome.exe",
		"entityType":  "domain",
		"domain":      "tracker.example.net",
		"action":      "deny",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create legacy-named rule status = %d: %v", resp.StatusCode, body)
	}

	// Agent polls its rules and receives them grouped by process.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/firewall/rules", nil)
	req.Header.Set("X-Endpoint-ID", endpointID)
	rulesResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Rule poll failed: %v", err)
	}
	defer rulesResp.Body.Close()
	if rulesResp.StatusCode != http.StatusOK {
		t.Fatalf("Rule poll status = %d", rulesResp.StatusCode)
	}
	var grouped map[string][]map[string]interface{}
	if err := json.NewDecoder(rulesResp.Body).Decode(&grouped); err != nil {
		t.Fatalf("Rule poll response not a grouped map: %v", err)
	}
	if len(grouped["chrome.exe"]) != 2 {
		t.Fatalf("chrome.exe has %d rules, want 2: %v", len(grouped["chrome.exe"]), grouped)
	}
	// Priority 10 rule first; the domain rule carries only domain fields.
	if grouped["chrome.exe"][0]["destination_ip"] != "142.250.72.14" {
		t.Errorf("Highest priority rule not first: %v", grouped["chrome.exe"][0])
	}
	domainRule := grouped["chrome.exe"][1]
	if domainRule["domain_name"] != "tracker.example.net" {
		t.Errorf("Domain rule projection wrong: %v", domainRule)
	}
	if _, present := domainRule["source_ip"]; present {
		t.Errorf("Domain rule carries IP fields: %v", domainRule)
	}

	// Wrong credentials are rejected without side effects.
	resp, _ = agent.do(http.MethodPost, "/api/endpoints/authenticate", map[string]string{
		"hostname": "server-01", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Bad password status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	srv := startTestServer(t)

	anonymous := &apiClient{t: t, base: srv.URL}
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/endpoints"},
		{http.MethodGet, "/api/firewall/rules/all"},
		{http.MethodGet, "/api/logs/traffic"},
		{http.MethodGet, "/api/anomalies"},
	} {
		resp, _ := anonymous.do(route.method, route.path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestAgentRoutesNeedNoSession(t *testing.T) {
	srv := startTestServer(t)

	// Missing body details get a 400, not a 401: these routes sit outside
	// the session wall.
	resp, err := http.Post(srv.URL+"/api/endpoints/authenticate", "application/json",
		bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}
