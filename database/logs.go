package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

const trafficLogColumns = `id, endpoint_id, application_id, source_ip, destination_ip,
	source_port, destination_port, protocol, action, timestamp`

func scanTrafficLog(row interface{ Scan(...interface{}) error }) (models.TrafficLog, error) {
	var l models.TrafficLog
	var endpointID, applicationID sql.NullString
	err := row.Scan(&l.ID, &endpointID, &applicationID, &l.SourceIP, &l.DestinationIP,
		&l.SourcePort, &l.DestinationPort, &l.Protocol, &l.Action, &l.Timestamp)
	if err != nil {
		return l, err
	}
	l.EndpointID = strPtr(endpointID)
	l.ApplicationID = strPtr(applicationID)
	return l, nil
}

// CreateTrafficLog inserts a new traffic log entry.
func CreateTrafficLog(l models.TrafficLog) (models.TrafficLog, error) {
	l.ID = uuid.NewString()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	_, err := DB.Exec(`
		INSERT INTO traffic_logs (id, endpoint_id, application_id, source_ip, destination_ip,
			source_port, destination_port, protocol, action, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullString(l.EndpointID), nullString(l.ApplicationID), l.SourceIP, l.DestinationIP,
		l.SourcePort, l.DestinationPort, l.Protocol, l.Action, l.Timestamp)
	if err != nil {
		return models.TrafficLog{}, err
	}
	return l, nil
}

// GetTrafficLogs retrieves recent traffic logs, newest first.
func GetTrafficLogs(limit int) ([]models.TrafficLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := DB.Query("SELECT "+trafficLogColumns+" FROM traffic_logs ORDER BY timestamp DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrafficLogs(rows)
}

// GetTrafficLogsByEndpoint retrieves an endpoint's traffic logs, newest first.
func GetTrafficLogsByEndpoint(endpointID string, limit int) ([]models.TrafficLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := DB.Query("SELECT "+trafficLogColumns+" FROM traffic_logs WHERE endpoint_id = ? ORDER BY timestamp DESC LIMIT ?",
		endpointID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrafficLogs(rows)
}

func collectTrafficLogs(rows *sql.Rows) ([]models.TrafficLog, error) {
	var logs []models.TrafficLog
	for rows.Next() {
		l, err := scanTrafficLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

const anomalyColumns = `id, endpoint_id, application_id, type, severity, description, status,
	detected_at, resolved_at`

func scanAnomaly(row interface{ Scan(...interface{}) error }) (models.Anomaly, error) {
	var a models.Anomaly
	var endpointID, applicationID sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&a.ID, &endpointID, &applicationID, &a.Type, &a.Severity, &a.Description, &a.Status,
		&a.DetectedAt, &resolvedAt)
	if err != nil {
		return a, err
	}
	a.EndpointID = strPtr(endpointID)
	a.ApplicationID = strPtr(applicationID)
	a.ResolvedAt = timePtr(resolvedAt)
	return a, nil
}

// CreateAnomaly inserts a new anomaly record.
func CreateAnomaly(a models.Anomaly) (models.Anomaly, error) {
	a.ID = uuid.NewString()
	if a.DetectedAt.IsZero() {
		a.DetectedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = models.AnomalyStatusOpen
	}
	if a.Severity == "" {
		a.Severity = "low"
	}
	_, err := DB.Exec(`
		INSERT INTO anomalies (id, endpoint_id, application_id, type, severity, description, status, detected_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullString(a.EndpointID), nullString(a.ApplicationID), a.Type, a.Severity, a.Description,
		a.Status, a.DetectedAt, nil)
	if err != nil {
		return models.Anomaly{}, err
	}
	return a, nil
}

// GetAllAnomalies retrieves every anomaly, newest first.
func GetAllAnomalies() ([]models.Anomaly, error) {
	rows, err := DB.Query("SELECT " + anomalyColumns + " FROM anomalies ORDER BY detected_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnomalies(rows)
}

// GetAnomaliesByEndpoint retrieves an endpoint's anomalies, newest first.
func GetAnomaliesByEndpoint(endpointID string) ([]models.Anomaly, error) {
	rows, err := DB.Query("SELECT "+anomalyColumns+" FROM anomalies WHERE endpoint_id = ? ORDER BY detected_at DESC",
		endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnomalies(rows)
}

func collectAnomalies(rows *sql.Rows) ([]models.Anomaly, error) {
	var anomalies []models.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

// GetAnomalyByID retrieves an anomaly by its ID.
func GetAnomalyByID(id string) (models.Anomaly, error) {
	row := DB.QueryRow("SELECT "+anomalyColumns+" FROM anomalies WHERE id = ?", id)
	return scanAnomaly(row)
}

// ResolveAnomaly marks an anomaly resolved and stamps the resolution time.
func ResolveAnomaly(id string) error {
	_, err := DB.Exec("UPDATE anomalies SET status = ?, resolved_at = ? WHERE id = ?",
		models.AnomalyStatusResolved, time.Now(), id)
	return err
}

// DeleteAnomaly removes an anomaly by its ID.
func DeleteAnomaly(id string) error {
	_, err := DB.Exec("DELETE FROM anomalies WHERE id = ?", id)
	return err
}
