package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

const ruleColumns = `id, endpoint_id, application_id, process_name, name, description,
	entity_type, source_ip, destination_ip, source_port, destination_port, domain_name,
	protocol, action, priority, enabled, created_at, updated_at`

func scanRule(row interface{ Scan(...interface{}) error }) (models.FirewallRule, error) {
	var r models.FirewallRule
	var endpointID, applicationID sql.NullString
	err := row.Scan(&r.ID, &endpointID, &applicationID, &r.ProcessName, &r.Name, &r.Description,
		&r.EntityType, &r.SourceIP, &r.DestinationIP, &r.SourcePort, &r.DestinationPort, &r.DomainName,
		&r.Protocol, &r.Action, &r.Priority, &r.Enabled, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.EndpointID = strPtr(endpointID)
	r.ApplicationID = strPtr(applicationID)
	return r, nil
}

// CreateFirewallRule inserts a new rule and returns it with its generated ID.
func CreateFirewallRule(r models.FirewallRule) (models.FirewallRule, error) {
	r.ID = uuid.NewString()
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.EntityType == "" {
		r.EntityType = models.EntityTypeIP
	}
	if r.Protocol == "" {
		r.Protocol = "ANY"
	}

	_, err := DB.Exec(`
		INSERT INTO firewall_rules (id, endpoint_id, application_id, process_name, name, description,
			entity_type, source_ip, destination_ip, source_port, destination_port, domain_name,
			protocol, action, priority, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullString(r.EndpointID), nullString(r.ApplicationID), r.ProcessName, r.Name, r.Description,
		r.EntityType, r.SourceIP, r.DestinationIP, r.SourcePort, r.DestinationPort, r.DomainName,
		r.Protocol, r.Action, r.Priority, r.Enabled, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return models.FirewallRule{}, err
	}
	return r, nil
}

// GetAllFirewallRules retrieves every rule ordered by priority.
func GetAllFirewallRules() ([]models.FirewallRule, error) {
	rows, err := DB.Query("SELECT " + ruleColumns + " FROM firewall_rules ORDER BY priority DESC, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// GetFirewallRulesByEndpoint retrieves all rules scoped to an endpoint.
func GetFirewallRulesByEndpoint(endpointID string) ([]models.FirewallRule, error) {
	rows, err := DB.Query("SELECT "+ruleColumns+" FROM firewall_rules WHERE endpoint_id = ? ORDER BY priority DESC, rowid",
		endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// GetFirewallRulesByApplication retrieves all rules scoped to an application.
func GetFirewallRulesByApplication(applicationID string) ([]models.FirewallRule, error) {
	rows, err := DB.Query("SELECT "+ruleColumns+" FROM firewall_rules WHERE application_id = ? ORDER BY priority DESC, rowid",
		applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// GetEnabledRulesForEndpoint loads the rules an agent must enforce, highest
// priority first. Ties break by insertion order.
func GetEnabledRulesForEndpoint(endpointID string) ([]models.FirewallRule, error) {
	rows, err := DB.Query("SELECT "+ruleColumns+" FROM firewall_rules WHERE endpoint_id = ? AND enabled = 1 ORDER BY priority DESC, rowid",
		endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]models.FirewallRule, error) {
	var rules []models.FirewallRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetFirewallRuleByID retrieves a rule by its ID.
func GetFirewallRuleByID(id string) (models.FirewallRule, error) {
	row := DB.QueryRow("SELECT "+ruleColumns+" FROM firewall_rules WHERE id = ?", id)
	return scanRule(row)
}

// UpdateFirewallRule persists a rule's current attributes.
func UpdateFirewallRule(r models.FirewallRule) error {
	_, err := DB.Exec(`
		UPDATE firewall_rules SET endpoint_id = ?, application_id = ?, process_name = ?, name = ?, description = ?,
			entity_type = ?, source_ip = ?, destination_ip = ?, source_port = ?, destination_port = ?, domain_name = ?,
			protocol = ?, action = ?, priority = ?, enabled = ?, updated_at = ?
		WHERE id = ?`,
		nullString(r.EndpointID), nullString(r.ApplicationID), r.ProcessName, r.Name, r.Description,
		r.EntityType, r.SourceIP, r.DestinationIP, r.SourcePort, r.DestinationPort, r.DomainName,
		r.Protocol, r.Action, r.Priority, r.Enabled, time.Now(), r.ID)
	return err
}

// DeleteFirewallRule removes a rule by its ID.
func DeleteFirewallRule(id string) error {
	_, err := DB.Exec("DELETE FROM firewall_rules WHERE id = ?", id)
	return err
}
