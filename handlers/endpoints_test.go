package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
	testutils "github.com/AbhinavBM/Centralized-Firewall-sub000/test_utils"
)

func TestEndpointSummaryCounts(t *testing.T) {
	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	InitHandlers(cfg, nil)
	testutils.SetupTestDB()

	testutils.CreateTestEndpoint("server-01", "x", models.EndpointStatusOnline)
	testutils.CreateTestEndpoint("server-02", "x", models.EndpointStatusOnline)
	testutils.CreateTestEndpoint("server-03", "x", models.EndpointStatusOffline)
	testutils.CreateTestEndpoint("server-04", "x", "")

	req := httptest.NewRequest(http.MethodGet, "/api/endpoints/summary", nil)
	rr := httptest.NewRecorder()
	EndpointSummaryHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no data object: %s", rr.Body.String())
	}
	if data["total"] != float64(4) {
		t.Errorf("total = %v, want 4", data["total"])
	}

	byStatus, ok := data["byStatus"].(map[string]interface{})
	if !ok {
		t.Fatalf("No byStatus object: %v", data)
	}
	if byStatus["online"] != float64(2) || byStatus["offline"] != float64(1) || byStatus["pending"] != float64(1) {
		t.Errorf("byStatus = %v", byStatus)
	}

	byOS, ok := data["byOS"].(map[string]interface{})
	if !ok {
		t.Fatalf("No byOS object: %v", data)
	}
	if byOS["linux"] != float64(4) {
		t.Errorf("byOS = %v", byOS)
	}
}

func TestEndpointSummaryEmptyFleet(t *testing.T) {
	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	InitHandlers(cfg, nil)
	testutils.SetupTestDB()

	req := httptest.NewRequest(http.MethodGet, "/api/endpoints/summary", nil)
	rr := httptest.NewRecorder()
	EndpointSummaryHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rr.Code)
	}
	data := decodeBody(t, rr)["data"].(map[string]interface{})
	if data["total"] != float64(0) {
		t.Errorf("total = %v, want 0", data["total"])
	}
}
