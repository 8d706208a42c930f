package handlers

import (
	"testing"
	"time"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
	testutils "github.com/AbhinavBM/Centralized-Firewall-sub000/test_utils"
)

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Broadcast(eventType string, payload interface{}) {
	p.events = append(p.events, eventType)
}

func TestSweepStaleEndpointsBroadcasts(t *testing.T) {
	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	recorder := &recordingPublisher{}
	InitHandlers(cfg, recorder)
	testutils.SetupTestDB()

	endpoint, _ := testutils.CreateTestEndpoint("server-01", "Abhi@1234", "")
	if err := database.MarkEndpointOnline(endpoint.ID); err != nil {
		t.Fatalf("MarkEndpointOnline failed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if _, err := database.DB.Exec("UPDATE endpoints SET last_heartbeat = ? WHERE id = ?", old, endpoint.ID); err != nil {
		t.Fatalf("Could not age heartbeat: %v", err)
	}

	SweepStaleEndpoints(5 * time.Minute)

	loaded, _ := database.GetEndpointByID(endpoint.ID)
	if loaded.Status != models.EndpointStatusOffline {
		t.Errorf("Status = %s, want offline", loaded.Status)
	}
	if len(recorder.events) != 1 || recorder.events[0] != "endpoint.offline_sweep" {
		t.Errorf("Broadcasts = %v, want one endpoint.offline_sweep", recorder.events)
	}
}

func TestSweepWithNothingStaleStaysQuiet(t *testing.T) {
	config.AppConfig = nil
	cfg := config.GetConfig()
	cfg.Security.BcryptCost = 4
	recorder := &recordingPublisher{}
	InitHandlers(cfg, recorder)
	testutils.SetupTestDB()

	endpoint, _ := testutils.CreateTestEndpoint("server-01", "Abhi@1234", "")
	database.MarkEndpointOnline(endpoint.ID)

	SweepStaleEndpoints(5 * time.Minute)

	loaded, _ := database.GetEndpointByID(endpoint.ID)
	if loaded.Status != models.EndpointStatusOnline {
		t.Errorf("Status = %s, want online", loaded.Status)
	}
	if len(recorder.events) != 0 {
		t.Errorf("Unexpected broadcasts: %v", recorder.events)
	}
}
