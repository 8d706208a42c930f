package testutils

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
	_ "github.com/mattn/go-sqlite3"
)

// SetupTestDB initializes an in-memory SQLite database for testing
func SetupTestDB() {
	database.InitDB(":memory:")
}

// CreateTestEndpoint creates an endpoint with a hashed password and returns it
func CreateTestEndpoint(hostname, password, status string) (models.Endpoint, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.Endpoint{}, err
	}
	return database.CreateEndpoint(models.Endpoint{
		Hostname:  hostname,
		IPAddress: "192.168.1.10",
		OS:        "linux",
		Status:    status,
		Password:  string(hash),
	})
}

// CreateTestRule creates an enabled firewall rule scoped to an endpoint
func CreateTestRule(endpointID, processName, entityType, action string, priority int) (models.FirewallRule, error) {
	rule := models.FirewallRule{
		EndpointID:  &endpointID,
		ProcessName: processName,
		EntityType:  entityType,
		Action:      action,
		Priority:    priority,
		Protocol:    "ANY",
		Enabled:     true,
	}
	if entityType == models.EntityTypeDomain {
		rule.DomainName = "example.com"
	} else {
		rule.SourceIP = "10.0.0.1"
		rule.DestinationPort = 443
	}
	return database.CreateFirewallRule(rule)
}

// CreateTestApplication creates an application owned by an endpoint
func CreateTestApplication(endpointID, processName string) (models.Application, error) {
	return database.CreateApplication(models.Application{
		EndpointID:  &endpointID,
		Name:        processName,
		ProcessName: processName,
		Status:      "running",
	})
}

// HeartbeatOf returns an endpoint's current heartbeat, or the zero time when unset
func HeartbeatOf(endpointID string) time.Time {
	endpoint, err := database.GetEndpointByID(endpointID)
	if err != nil || endpoint.LastHeartbeat == nil {
		return time.Time{}
	}
	return *endpoint.LastHeartbeat
}
