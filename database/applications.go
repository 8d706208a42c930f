package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

const applicationColumns = `id, endpoint_id, name, process_name, description, status,
	associated_ips, source_ports, destination_ports, last_updated, created_at, updated_at`

func scanApplication(row interface{ Scan(...interface{}) error }) (models.Application, error) {
	var a models.Application
	var endpointID sql.NullString
	var ips, srcPorts, dstPorts string
	err := row.Scan(&a.ID, &endpointID, &a.Name, &a.ProcessName, &a.Description, &a.Status,
		&ips, &srcPorts, &dstPorts, &a.LastUpdated, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.EndpointID = strPtr(endpointID)
	if err := json.Unmarshal([]byte(ips), &a.AssociatedIPs); err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(srcPorts), &a.SourcePorts); err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(dstPorts), &a.DestinationPorts); err != nil {
		return a, err
	}
	return a, nil
}

func marshalAppLists(a models.Application) (string, string, string, error) {
	if a.AssociatedIPs == nil {
		a.AssociatedIPs = []models.IPAssociation{}
	}
	if a.SourcePorts == nil {
		a.SourcePorts = []int{}
	}
	if a.DestinationPorts == nil {
		a.DestinationPorts = []int{}
	}
	ips, err := json.Marshal(a.AssociatedIPs)
	if err != nil {
		return "", "", "", err
	}
	srcPorts, err := json.Marshal(a.SourcePorts)
	if err != nil {
		return "", "", "", err
	}
	dstPorts, err := json.Marshal(a.DestinationPorts)
	if err != nil {
		return "", "", "", err
	}
	return string(ips), string(srcPorts), string(dstPorts), nil
}

// CreateApplication inserts a new application record.
func CreateApplication(a models.Application) (models.Application, error) {
	a.ID = uuid.NewString()
	now := time.Now()
	a.LastUpdated = now
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = "running"
	}

	ips, srcPorts, dstPorts, err := marshalAppLists(a)
	if err != nil {
		return models.Application{}, err
	}

	_, err = DB.Exec(`
		INSERT INTO applications (id, endpoint_id, name, process_name, description, status,
			associated_ips, source_ports, destination_ports, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullString(a.EndpointID), a.Name, a.ProcessName, a.Description, a.Status,
		ips, srcPorts, dstPorts, a.LastUpdated, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return models.Application{}, err
	}
	return a, nil
}

// UpsertApplication creates or refreshes the application identified by
// (endpointID, processName), the natural dedup key for agent submissions.
func UpsertApplication(endpointID, processName string, sub models.AppSubmission) (models.Application, error) {
	status := sub.Status
	if status == "" {
		status = "running"
	}
	a := models.Application{
		EndpointID:       &endpointID,
		Name:             processName,
		ProcessName:      processName,
		Description:      sub.Description,
		Status:           status,
		AssociatedIPs:    sub.AssociatedIPs,
		SourcePorts:      sub.SourcePorts,
		DestinationPorts: sub.DestinationPorts,
	}

	ips, srcPorts, dstPorts, err := marshalAppLists(a)
	if err != nil {
		return models.Application{}, err
	}

	now := time.Now()
	_, err = DB.Exec(`
		INSERT INTO applications (id, endpoint_id, name, process_name, description, status,
			associated_ips, source_ports, destination_ports, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint_id, process_name) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			associated_ips = excluded.associated_ips,
			source_ports = excluded.source_ports,
			destination_ports = excluded.destination_ports,
			last_updated = excluded.last_updated,
			updated_at = excluded.updated_at`,
		uuid.NewString(), endpointID, a.Name, a.ProcessName, a.Description, a.Status,
		ips, srcPorts, dstPorts, now, now, now)
	if err != nil {
		return models.Application{}, err
	}

	row := DB.QueryRow("SELECT "+applicationColumns+" FROM applications WHERE endpoint_id = ? AND process_name = ?",
		endpointID, processName)
	return scanApplication(row)
}

// GetAllApplications retrieves every application.
func GetAllApplications() ([]models.Application, error) {
	rows, err := DB.Query("SELECT " + applicationColumns + " FROM applications ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

// GetApplicationsByEndpoint retrieves the applications owned by an endpoint.
func GetApplicationsByEndpoint(endpointID string) ([]models.Application, error) {
	rows, err := DB.Query("SELECT "+applicationColumns+" FROM applications WHERE endpoint_id = ? ORDER BY process_name",
		endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]models.Application, error) {
	var apps []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// GetApplicationByID retrieves an application by its ID.
func GetApplicationByID(id string) (models.Application, error) {
	row := DB.QueryRow("SELECT "+applicationColumns+" FROM applications WHERE id = ?", id)
	return scanApplication(row)
}

// UpdateApplication updates an application's mutable attributes.
func UpdateApplication(a models.Application) error {
	ips, srcPorts, dstPorts, err := marshalAppLists(a)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = DB.Exec(`
		UPDATE applications SET endpoint_id = ?, name = ?, process_name = ?, description = ?, status = ?,
			associated_ips = ?, source_ports = ?, destination_ports = ?, last_updated = ?, updated_at = ?
		WHERE id = ?`,
		nullString(a.EndpointID), a.Name, a.ProcessName, a.Description, a.Status,
		ips, srcPorts, dstPorts, now, now, a.ID)
	return err
}

// DeleteApplication removes an application and its dependent rules.
func DeleteApplication(id string) error {
	if _, err := DB.Exec("DELETE FROM firewall_rules WHERE application_id = ?", id); err != nil {
		return err
	}
	_, err := DB.Exec("DELETE FROM applications WHERE id = ?", id)
	return err
}
