package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

const systemLogColumns = `id, endpoint_id, application_id, type, level, message, details,
	timestamp, created_at`

func scanSystemLog(row interface{ Scan(...interface{}) error }) (models.SystemLog, error) {
	var l models.SystemLog
	var endpointID, applicationID sql.NullString
	var details string
	err := row.Scan(&l.ID, &endpointID, &applicationID, &l.Type, &l.Level, &l.Message, &details,
		&l.Timestamp, &l.CreatedAt)
	if err != nil {
		return l, err
	}
	l.EndpointID = strPtr(endpointID)
	l.ApplicationID = strPtr(applicationID)
	if details != "" && details != "{}" {
		if err := json.Unmarshal([]byte(details), &l.Details); err != nil {
			return l, err
		}
	}
	return l, nil
}

// CreateSystemLog inserts one agent-submitted log entry.
func CreateSystemLog(l models.SystemLog) (models.SystemLog, error) {
	l.ID = uuid.NewString()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	l.CreatedAt = time.Now()

	details := "{}"
	if l.Details != nil {
		data, err := json.Marshal(l.Details)
		if err != nil {
			return models.SystemLog{}, err
		}
		details = string(data)
	}

	_, err := DB.Exec(`
		INSERT INTO system_logs (id, endpoint_id, application_id, type, level, message, details,
			timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullString(l.EndpointID), nullString(l.ApplicationID), l.Type, l.Level, l.Message,
		details, l.Timestamp, l.CreatedAt)
	if err != nil {
		return models.SystemLog{}, err
	}
	return l, nil
}

// GetSystemLogs retrieves recent system logs, newest first.
func GetSystemLogs(limit int) ([]models.SystemLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := DB.Query("SELECT "+systemLogColumns+" FROM system_logs ORDER BY timestamp DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSystemLogs(rows)
}

func collectSystemLogs(rows *sql.Rows) ([]models.SystemLog, error) {
	var logs []models.SystemLog
	for rows.Next() {
		l, err := scanSystemLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetSystemLogStats aggregates stored system logs by type and level and
// includes the ten most recent entries.
func GetSystemLogStats() (models.SystemLogStats, error) {
	stats := models.SystemLogStats{
		ByType:  make(map[string]int),
		ByLevel: make(map[string]int),
	}

	rows, err := DB.Query("SELECT type, COUNT(*) FROM system_logs GROUP BY type")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var logType string
		var count int
		if err := rows.Scan(&logType, &count); err != nil {
			return stats, err
		}
		stats.ByType[logType] = count
		stats.TotalLogs += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	levelRows, err := DB.Query("SELECT level, COUNT(*) FROM system_logs GROUP BY level")
	if err != nil {
		return stats, err
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var level string
		var count int
		if err := levelRows.Scan(&level, &count); err != nil {
			return stats, err
		}
		stats.ByLevel[level] = count
	}
	if err := levelRows.Err(); err != nil {
		return stats, err
	}

	recent, err := GetSystemLogs(10)
	if err != nil {
		return stats, err
	}
	stats.Recent = recent
	return stats, nil
}
