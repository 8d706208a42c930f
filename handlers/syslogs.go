package handlers

import (
	"net/http"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

// Agents push operational logs without a session; the routes sit next to the
// authenticate/applications/rules trio in the agent protocol.

var systemLogTypes = map[string]bool{
	models.LogTypeSystem:      true,
	models.LogTypeUser:        true,
	models.LogTypeFirewall:    true,
	models.LogTypeEndpoint:    true,
	models.LogTypeApplication: true,
}

var systemLogLevels = map[string]bool{
	models.LogLevelInfo:     true,
	models.LogLevelWarning:  true,
	models.LogLevelError:    true,
	models.LogLevelCritical: true,
}

func validSystemLog(l *models.SystemLog) (string, bool) {
	if !systemLogTypes[l.Type] {
		return "Invalid or missing type", false
	}
	if !systemLogLevels[l.Level] {
		return "Invalid or missing level", false
	}
	if l.Message == "" {
		return "Invalid or missing message", false
	}
	return "", true
}

// SubmitSystemLogHandler records a single log entry submitted by an agent.
func SubmitSystemLogHandler(w http.ResponseWriter, r *http.Request) {
	var entry models.SystemLog
	if err := decodeJSON(r, &entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := validSystemLog(&entry); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := database.CreateSystemLog(entry); err != nil {
		logger.Error("Failed to store system log: %v", err)
		respondError(w, http.StatusInternalServerError, "Error processing log")
		return
	}

	logger.Info("System log received: %s/%s - %s", entry.Type, entry.Level, entry.Message)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Log received",
	})
}

type submitSystemLogBatchRequest struct {
	Logs []models.SystemLog `json:"logs"`
}

// SubmitSystemLogBatchHandler records a batch of agent log entries. Invalid
// entries are counted and skipped; the batch never aborts.
func SubmitSystemLogBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req submitSystemLogBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Logs == nil {
		respondError(w, http.StatusBadRequest, "Logs array is required")
		return
	}

	valid := 0
	for i := range req.Logs {
		if _, ok := validSystemLog(&req.Logs[i]); !ok {
			continue
		}
		if _, err := database.CreateSystemLog(req.Logs[i]); err != nil {
			logger.Error("Failed to store system log: %v", err)
			continue
		}
		valid++
	}

	logger.Info("System log batch processed: %d/%d valid logs saved", valid, len(req.Logs))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"total_logs":   len(req.Logs),
		"valid_logs":   valid,
		"invalid_logs": len(req.Logs) - valid,
	})
}

// SystemLogStatsHandler returns aggregate counts over the stored system logs.
func SystemLogStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := database.GetSystemLogStats()
	if err != nil {
		logger.Error("Failed to summarize system logs: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving log statistics")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"stats":  stats,
	})
}

// ListSystemLogsHandler returns recent system logs for the admin console.
func ListSystemLogsHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := database.GetSystemLogs(queryLimit(r))
	if err != nil {
		logger.Error("Failed to list system logs: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving system logs")
		return
	}
	respondData(w, http.StatusOK, logs)
}
