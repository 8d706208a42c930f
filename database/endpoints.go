package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

const endpointColumns = "id, hostname, ip_address, os, status, last_heartbeat, created_at, updated_at"

func scanEndpoint(row interface{ Scan(...interface{}) error }) (models.Endpoint, error) {
	var e models.Endpoint
	var heartbeat sql.NullTime
	err := row.Scan(&e.ID, &e.Hostname, &e.IPAddress, &e.OS, &e.Status, &heartbeat, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.LastHeartbeat = timePtr(heartbeat)
	return e, nil
}

// CreateEndpoint inserts a new endpoint and returns it with its generated ID.
// The password must already be hashed by the caller.
func CreateEndpoint(e models.Endpoint) (models.Endpoint, error) {
	e.ID = uuid.NewString()
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = models.EndpointStatusPending
	}

	_, err := DB.Exec(`
		INSERT INTO endpoints (id, hostname, ip_address, os, status, password, last_heartbeat, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Hostname, e.IPAddress, e.OS, e.Status, e.Password, nil, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return models.Endpoint{}, err
	}
	return e, nil
}

// GetAllEndpoints retrieves every endpoint, newest first.
func GetAllEndpoints() ([]models.Endpoint, error) {
	rows, err := DB.Query("SELECT " + endpointColumns + " FROM endpoints ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []models.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// GetEndpointByID retrieves an endpoint by its ID.
func GetEndpointByID(id string) (models.Endpoint, error) {
	row := DB.QueryRow("SELECT "+endpointColumns+" FROM endpoints WHERE id = ?", id)
	return scanEndpoint(row)
}

// GetEndpointByHostname retrieves an endpoint by exact hostname match,
// including its password hash for credential verification.
func GetEndpointByHostname(hostname string) (models.Endpoint, error) {
	var e models.Endpoint
	var heartbeat sql.NullTime
	err := DB.QueryRow(`
		SELECT id, hostname, ip_address, os, status, password, last_heartbeat, created_at, updated_at
		FROM endpoints WHERE hostname = ?`, hostname).
		Scan(&e.ID, &e.Hostname, &e.IPAddress, &e.OS, &e.Status, &e.Password, &heartbeat, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.LastHeartbeat = timePtr(heartbeat)
	return e, nil
}

// UpdateEndpoint updates an endpoint's mutable attributes. The password column
// is only touched when a new hash is supplied.
func UpdateEndpoint(e models.Endpoint) error {
	if e.Password != "" {
		_, err := DB.Exec(`
			UPDATE endpoints SET hostname = ?, ip_address = ?, os = ?, status = ?, password = ?, updated_at = ?
			WHERE id = ?`,
			e.Hostname, e.IPAddress, e.OS, e.Status, e.Password, time.Now(), e.ID)
		return err
	}
	_, err := DB.Exec(`
		UPDATE endpoints SET hostname = ?, ip_address = ?, os = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		e.Hostname, e.IPAddress, e.OS, e.Status, time.Now(), e.ID)
	return err
}

// DeleteEndpoint removes an endpoint along with its applications and rules.
func DeleteEndpoint(id string) error {
	if _, err := DB.Exec("DELETE FROM firewall_rules WHERE endpoint_id = ?", id); err != nil {
		return err
	}
	if _, err := DB.Exec("DELETE FROM applications WHERE endpoint_id = ?", id); err != nil {
		return err
	}
	_, err := DB.Exec("DELETE FROM endpoints WHERE id = ?", id)
	return err
}

// GetEndpointSummary aggregates the fleet by status and OS.
func GetEndpointSummary() (models.EndpointSummary, error) {
	summary := models.EndpointSummary{
		ByStatus: make(map[string]int),
		ByOS:     make(map[string]int),
	}

	rows, err := DB.Query("SELECT status, COUNT(*) FROM endpoints GROUP BY status")
	if err != nil {
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, err
		}
		summary.ByStatus[status] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}

	osRows, err := DB.Query("SELECT os, COUNT(*) FROM endpoints GROUP BY os")
	if err != nil {
		return summary, err
	}
	defer osRows.Close()
	for osRows.Next() {
		var os string
		var count int
		if err := osRows.Scan(&os, &count); err != nil {
			return summary, err
		}
		summary.ByOS[os] = count
	}
	return summary, osRows.Err()
}

// MarkEndpointOnline transitions an endpoint online and stamps its heartbeat.
func MarkEndpointOnline(id string) error {
	now := time.Now()
	_, err := DB.Exec(`
		UPDATE endpoints SET status = ?, last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		models.EndpointStatusOnline, now, now, id)
	return err
}

// TouchHeartbeat stamps an endpoint's last heartbeat.
func TouchHeartbeat(id string) error {
	now := time.Now()
	_, err := DB.Exec("UPDATE endpoints SET last_heartbeat = ?, updated_at = ? WHERE id = ?", now, now, id)
	return err
}

// MarkStaleEndpointsOffline flips online endpoints whose heartbeat is older
// than the threshold to offline. Returns the number of endpoints affected.
func MarkStaleEndpointsOffline(threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)
	res, err := DB.Exec(`
		UPDATE endpoints SET status = ?, updated_at = ?
		WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		models.EndpointStatusOffline, time.Now(), models.EndpointStatusOnline, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
