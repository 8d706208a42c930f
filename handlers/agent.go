package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

// Agent protocol: agents authenticate with their hostname and password, get
// back an opaque endpoint id, then use it to report applications and poll
// their firewall rules.

type authenticateRequest struct {
	Hostname string `json:"hostname"`
	Password string `json:"password"`
	// Field name used by older agent builds.
	EndpointName string `json:"endpoint_name"`
}

// AuthenticateEndpointHandler verifies an endpoint's credentials, marks it
// online and issues its endpoint id.
func AuthenticateEndpointHandler(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hostname := req.Hostname
	if hostname == "" {
		hostname = req.EndpointName
	}
	if hostname == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Hostname and password are required")
		return
	}

	// Exact, case-sensitive hostname match.
	endpoint, err := database.GetEndpointByHostname(hostname)
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Endpoint lookup failed for %s: %v", hostname, err)
		respondError(w, http.StatusInternalServerError, "Server error during authentication")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(endpoint.Password), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := database.MarkEndpointOnline(endpoint.ID); err != nil {
		logger.Error("Failed to mark endpoint %s online: %v", endpoint.ID, err)
		respondError(w, http.StatusInternalServerError, "Server error during authentication")
		return
	}

	logger.Info("Endpoint authenticated: %s (%s)", hostname, endpoint.ID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"endpoint_id": endpoint.ID,
	})
}

type submitApplicationsRequest struct {
	EndpointID   string                          `json:"endpoint_id"`
	Applications map[string]models.AppSubmission `json:"applications"`
}

// SubmitApplicationsHandler upserts the batch of processes an agent has
// discovered. One bad entry never aborts the batch; the response counts only
// the entries that were processed.
func SubmitApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EndpointID == "" || req.Applications == nil {
		respondError(w, http.StatusBadRequest, "Endpoint ID and applications data are required")
		return
	}

	endpoint, err := database.GetEndpointByID(req.EndpointID)
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Endpoint lookup failed for %s: %v", req.EndpointID, err)
		respondError(w, http.StatusInternalServerError, "Error processing application data")
		return
	}

	processed := 0
	for processName, sub := range req.Applications {
		if processName == "" {
			logger.Warn("Skipping application with empty process name from endpoint %s", endpoint.Hostname)
			continue
		}
		if _, err := database.UpsertApplication(endpoint.ID, processName, sub); err != nil {
			logger.Error("Error processing application %s: %v", processName, err)
			continue
		}
		processed++
	}

	// One heartbeat per batch, not per entry.
	if err := database.TouchHeartbeat(endpoint.ID); err != nil {
		logger.Error("Failed to stamp heartbeat for endpoint %s: %v", endpoint.ID, err)
	}

	logger.Info("Applications submitted for endpoint %s: %d processed", endpoint.Hostname, processed)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":                 "success",
		"message":                "Application information saved",
		"processed_applications": processed,
	})
}

// EndpointRulesHandler distributes an endpoint's enabled rules, grouped by
// process name and projected down to enforcement fields. The endpoint
// identifies itself with the X-Endpoint-ID header issued at authentication.
func EndpointRulesHandler(w http.ResponseWriter, r *http.Request) {
	endpointID := r.Header.Get("X-Endpoint-ID")
	if endpointID == "" {
		respondError(w, http.StatusBadRequest, "X-Endpoint-ID header is required")
		return
	}

	endpoint, err := database.GetEndpointByID(endpointID)
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Endpoint lookup failed for %s: %v", endpointID, err)
		respondError(w, http.StatusInternalServerError, "Error retrieving firewall rules")
		return
	}

	rules, err := database.GetEnabledRulesForEndpoint(endpoint.ID)
	if err != nil {
		logger.Error("Failed to load rules for endpoint %s: %v", endpoint.ID, err)
		respondError(w, http.StatusInternalServerError, "Error retrieving firewall rules")
		return
	}

	// Rules without a process name have nothing to be grouped under and are
	// not surfaced to the agent.
	grouped := make(map[string][]models.RuleProjection)
	for _, rule := range rules {
		if rule.ProcessName == "" {
			continue
		}
		grouped[rule.ProcessName] = append(grouped[rule.ProcessName], rule.Project())
	}

	if err := database.TouchHeartbeat(endpoint.ID); err != nil {
		logger.Error("Failed to stamp heartbeat for endpoint %s: %v", endpoint.ID, err)
	}

	logger.Info("Firewall rules fetched for endpoint %s: %d rules", endpoint.Hostname, len(rules))
	respondJSON(w, http.StatusOK, grouped)
}
