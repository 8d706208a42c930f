package handlers

import (
	"net/http"
	"strconv"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

// ListTrafficLogsHandler returns recent traffic logs, optionally scoped to an
// endpoint with the endpointId query parameter.
func ListTrafficLogsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		logs []models.TrafficLog
		err  error
	)
	if endpointID := r.URL.Query().Get("endpointId"); endpointID != "" {
		logs, err = database.GetTrafficLogsByEndpoint(endpointID, queryLimit(r))
	} else {
		logs, err = database.GetTrafficLogs(queryLimit(r))
	}
	if err != nil {
		logger.Error("Failed to list traffic logs: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving traffic logs")
		return
	}
	respondData(w, http.StatusOK, logs)
}

// CreateTrafficLogHandler records an observed connection.
func CreateTrafficLogHandler(w http.ResponseWriter, r *http.Request) {
	var entry models.TrafficLog
	if err := decodeJSON(r, &entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if entry.SourceIP == "" || entry.DestinationIP == "" {
		respondError(w, http.StatusBadRequest, "Source and destination IP are required")
		return
	}

	created, err := database.CreateTrafficLog(entry)
	if err != nil {
		logger.Error("Failed to create traffic log: %v", err)
		respondError(w, http.StatusInternalServerError, "Error creating traffic log")
		return
	}
	respondData(w, http.StatusCreated, created)
}

// ListAnomaliesHandler returns anomalies, optionally scoped to an endpoint.
func ListAnomaliesHandler(w http.ResponseWriter, r *http.Request) {
	var (
		anomalies []models.Anomaly
		err       error
	)
	if endpointID := r.URL.Query().Get("endpointId"); endpointID != "" {
		anomalies, err = database.GetAnomaliesByEndpoint(endpointID)
	} else {
		anomalies, err = database.GetAllAnomalies()
	}
	if err != nil {
		logger.Error("Failed to list anomalies: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving anomalies")
		return
	}
	respondData(w, http.StatusOK, anomalies)
}

// GetAnomalyHandler returns a single anomaly by id.
func GetAnomalyHandler(w http.ResponseWriter, r *http.Request) {
	anomaly, err := database.GetAnomalyByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Anomaly not found")
			return
		}
		logger.Error("Failed to get anomaly: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving anomaly")
		return
	}
	respondData(w, http.StatusOK, anomaly)
}

// CreateAnomalyHandler records a detected anomaly and notifies consoles.
func CreateAnomalyHandler(w http.ResponseWriter, r *http.Request) {
	var anomaly models.Anomaly
	if err := decodeJSON(r, &anomaly); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if anomaly.Type == "" {
		respondError(w, http.StatusBadRequest, "Anomaly type is required")
		return
	}

	created, err := database.CreateAnomaly(anomaly)
	if err != nil {
		logger.Error("Failed to create anomaly: %v", err)
		respondError(w, http.StatusInternalServerError, "Error creating anomaly")
		return
	}

	events.Broadcast("anomaly.detected", created)
	logger.Warn("Anomaly recorded: %s (%s)", created.Type, created.Severity)
	respondData(w, http.StatusCreated, created)
}

// ResolveAnomalyHandler marks an anomaly resolved.
func ResolveAnomalyHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := database.GetAnomalyByID(id); err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Anomaly not found")
			return
		}
		logger.Error("Failed to get anomaly: %v", err)
		respondError(w, http.StatusInternalServerError, "Error resolving anomaly")
		return
	}

	if err := database.ResolveAnomaly(id); err != nil {
		logger.Error("Failed to resolve anomaly %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error resolving anomaly")
		return
	}

	resolved, err := database.GetAnomalyByID(id)
	if err != nil {
		logger.Error("Failed to reload anomaly %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error resolving anomaly")
		return
	}

	events.Broadcast("anomaly.resolved", resolved)
	respondData(w, http.StatusOK, resolved)
}

// DeleteAnomalyHandler removes an anomaly.
func DeleteAnomalyHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := database.GetAnomalyByID(id); err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Anomaly not found")
			return
		}
		logger.Error("Failed to get anomaly: %v", err)
		respondError(w, http.StatusInternalServerError, "Error deleting anomaly")
		return
	}

	if err := database.DeleteAnomaly(id); err != nil {
		logger.Error("Failed to delete anomaly %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error deleting anomaly")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Anomaly deleted",
	})
}
