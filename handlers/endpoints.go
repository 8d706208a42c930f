package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

type endpointRequest struct {
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ipAddress"`
	OS        string `json:"os"`
	Status    string `json:"status"`
	Password  string `json:"password"`
}

// ListEndpointsHandler returns every managed endpoint.
func ListEndpointsHandler(w http.ResponseWriter, r *http.Request) {
	endpoints, err := database.GetAllEndpoints()
	if err != nil {
		logger.Error("Failed to list endpoints: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving endpoints")
		return
	}
	respondData(w, http.StatusOK, endpoints)
}

// EndpointSummaryHandler returns fleet counts grouped by status and OS.
func EndpointSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := database.GetEndpointSummary()
	if err != nil {
		logger.Error("Failed to summarize endpoints: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving endpoint summary")
		return
	}
	respondData(w, http.StatusOK, summary)
}

// GetEndpointHandler returns a single endpoint by id.
func GetEndpointHandler(w http.ResponseWriter, r *http.Request) {
	endpoint, err := database.GetEndpointByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Failed to get endpoint: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving endpoint")
		return
	}
	respondData(w, http.StatusOK, endpoint)
}

// CreateEndpointHandler registers a new endpoint. The agent password is
// hashed before it is stored; the plaintext is never persisted.
func CreateEndpointHandler(w http.ResponseWriter, r *http.Request) {
	cfg := ensureConfig()

	var req endpointRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Hostname == "" || req.IPAddress == "" {
		respondError(w, http.StatusBadRequest, "Hostname and IP address are required")
		return
	}

	endpoint := models.Endpoint{
		Hostname:  req.Hostname,
		IPAddress: req.IPAddress,
		OS:        req.OS,
		Status:    req.Status,
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cfg.Security.BcryptCost)
		if err != nil {
			logger.Error("Failed to hash endpoint password: %v", err)
			respondError(w, http.StatusInternalServerError, "Error creating endpoint")
			return
		}
		endpoint.Password = string(hash)
	}

	created, err := database.CreateEndpoint(endpoint)
	if err != nil {
		logger.Error("Failed to create endpoint %s: %v", req.Hostname, err)
		respondError(w, http.StatusInternalServerError, "Error creating endpoint")
		return
	}

	events.Broadcast("endpoint.created", created)
	logger.Info("Endpoint created: %s (%s)", created.Hostname, created.ID)
	respondData(w, http.StatusCreated, created)
}

// UpdateEndpointHandler updates endpoint attributes; the password is
// re-hashed only when a new one is supplied.
func UpdateEndpointHandler(w http.ResponseWriter, r *http.Request) {
	cfg := ensureConfig()

	endpoint, err := database.GetEndpointByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Failed to get endpoint: %v", err)
		respondError(w, http.StatusInternalServerError, "Error updating endpoint")
		return
	}

	var req endpointRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Hostname != "" {
		endpoint.Hostname = req.Hostname
	}
	if req.IPAddress != "" {
		endpoint.IPAddress = req.IPAddress
	}
	if req.OS != "" {
		endpoint.OS = req.OS
	}
	if req.Status != "" {
		endpoint.Status = req.Status
	}
	endpoint.Password = ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cfg.Security.BcryptCost)
		if err != nil {
			logger.Error("Failed to hash endpoint password: %v", err)
			respondError(w, http.StatusInternalServerError, "Error updating endpoint")
			return
		}
		endpoint.Password = string(hash)
	}

	if err := database.UpdateEndpoint(endpoint); err != nil {
		logger.Error("Failed to update endpoint %s: %v", endpoint.ID, err)
		respondError(w, http.StatusInternalServerError, "Error updating endpoint")
		return
	}

	events.Broadcast("endpoint.updated", endpoint)
	respondData(w, http.StatusOK, endpoint)
}

// DeleteEndpointHandler removes an endpoint and cascades to its applications
// and rules.
func DeleteEndpointHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	endpoint, err := database.GetEndpointByID(id)
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Endpoint not found")
			return
		}
		logger.Error("Failed to get endpoint: %v", err)
		respondError(w, http.StatusInternalServerError, "Error deleting endpoint")
		return
	}

	if err := database.DeleteEndpoint(id); err != nil {
		logger.Error("Failed to delete endpoint %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error deleting endpoint")
		return
	}

	events.Broadcast("endpoint.deleted", map[string]string{"id": id, "hostname": endpoint.Hostname})
	logger.Info("Endpoint deleted: %s (%s)", endpoint.Hostname, id)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Endpoint deleted",
	})
}
