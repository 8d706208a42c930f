package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
	testutils "github.com/AbhinavBM/Centralized-Firewall-sub000/test_utils"
)

func setupSystemLogTest(t *testing.T) {
	t.Helper()
	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	InitHandlers(cfg, nil)
	testutils.SetupTestDB()
}

func TestSubmitSystemLog(t *testing.T) {
	setupSystemLogTest(t)

	rr := postJSON(t, SubmitSystemLogHandler, "/api/logs", map[string]interface{}{
		"type":    "firewall",
		"level":   "warning",
		"message": "rule sync skipped: endpoint offline",
		"details": map[string]interface{}{"process": "chrome.exe"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != "success" || body["message"] != "Log received" {
		t.Errorf("Unexpected payload: %v", body)
	}

	logs, err := database.GetSystemLogs(0)
	if err != nil {
		t.Fatalf("GetSystemLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Got %d logs, want 1", len(logs))
	}
	if logs[0].Type != models.LogTypeFirewall || logs[0].Level != models.LogLevelWarning {
		t.Errorf("Stored log = %+v", logs[0])
	}
	if logs[0].Details["process"] != "chrome.exe" {
		t.Errorf("Details not round-tripped: %v", logs[0].Details)
	}
	if logs[0].Timestamp.IsZero() {
		t.Error("Timestamp not defaulted")
	}
}

func TestSubmitSystemLogValidation(t *testing.T) {
	setupSystemLogTest(t)

	for name, payload := range map[string]map[string]interface{}{
		"missing type":  {"level": "info", "message": "x"},
		"bad type":      {"type": "kernel", "level": "info", "message": "x"},
		"bad level":     {"type": "system", "level": "trace", "message": "x"},
		"empty message": {"type": "system", "level": "info"},
	} {
		rr := postJSON(t, SubmitSystemLogHandler, "/api/logs", payload)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rr.Code)
		}
	}

	if logs, _ := database.GetSystemLogs(0); len(logs) != 0 {
		t.Errorf("Invalid submissions were stored: %v", logs)
	}
}

func TestSubmitSystemLogBatchSkipsInvalid(t *testing.T) {
	setupSystemLogTest(t)

	rr := postJSON(t, SubmitSystemLogBatchHandler, "/api/logs/batch", map[string]interface{}{
		"logs": []map[string]interface{}{
			{"type": "system", "level": "info", "message": "agent started"},
			{"type": "bogus", "level": "info", "message": "dropped"},
			{"type": "endpoint", "level": "critical", "message": "heartbeat lost"},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["total_logs"] != float64(3) || body["valid_logs"] != float64(2) || body["invalid_logs"] != float64(1) {
		t.Errorf("Counts = total %v valid %v invalid %v", body["total_logs"], body["valid_logs"], body["invalid_logs"])
	}

	logs, _ := database.GetSystemLogs(0)
	if len(logs) != 2 {
		t.Errorf("Got %d stored logs, want 2", len(logs))
	}
}

func TestSubmitSystemLogBatchRequiresArray(t *testing.T) {
	setupSystemLogTest(t)

	rr := postJSON(t, SubmitSystemLogBatchHandler, "/api/logs/batch", map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", rr.Code)
	}
}

func TestSystemLogStats(t *testing.T) {
	setupSystemLogTest(t)

	for _, entry := range []models.SystemLog{
		{Type: models.LogTypeSystem, Level: models.LogLevelInfo, Message: "agent started"},
		{Type: models.LogTypeSystem, Level: models.LogLevelError, Message: "rule apply failed"},
		{Type: models.LogTypeFirewall, Level: models.LogLevelInfo, Message: "synced 4 rules"},
	} {
		if _, err := database.CreateSystemLog(entry); err != nil {
			t.Fatalf("CreateSystemLog failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/logs/stats", nil)
	rr := httptest.NewRecorder()
	SystemLogStatsHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	stats, ok := body["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no stats object: %s", rr.Body.String())
	}
	if stats["total_logs"] != float64(3) {
		t.Errorf("total_logs = %v, want 3", stats["total_logs"])
	}
	byType := stats["by_type"].(map[string]interface{})
	if byType["system"] != float64(2) || byType["firewall"] != float64(1) {
		t.Errorf("by_type = %v", byType)
	}
	byLevel := stats["by_level"].(map[string]interface{})
	if byLevel["info"] != float64(2) || byLevel["error"] != float64(1) {
		t.Errorf("by_level = %v", byLevel)
	}
	recent, ok := stats["recent_logs"].([]interface{})
	if !ok || len(recent) != 3 {
		t.Errorf("recent_logs = %v", stats["recent_logs"])
	}
}
