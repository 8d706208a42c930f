package handlers

import (
	"net/http"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

func validRule(rule *models.FirewallRule) (string, bool) {
	if rule.Action != models.ActionAllow && rule.Action != models.ActionDeny {
		return "Action must be either allow or deny", false
	}
	switch rule.EntityType {
	case models.EntityTypeIP, models.EntityTypeDomain:
	default:
		return "Entity type must be either ip or domain", false
	}
	if rule.SourcePort < 0 || rule.SourcePort > 65535 || rule.DestinationPort < 0 || rule.DestinationPort > 65535 {
		return "Ports must be between 0 and 65535", false
	}
	return "", true
}

// ListRulesHandler returns all rules, optionally filtered by endpointId or
// applicationId query parameters.
func ListRulesHandler(w http.ResponseWriter, r *http.Request) {
	var (
		rules []models.FirewallRule
		err   error
	)
	switch {
	case r.URL.Query().Get("endpointId") != "":
		rules, err = database.GetFirewallRulesByEndpoint(r.URL.Query().Get("endpointId"))
	case r.URL.Query().Get("applicationId") != "":
		rules, err = database.GetFirewallRulesByApplication(r.URL.Query().Get("applicationId"))
	default:
		rules, err = database.GetAllFirewallRules()
	}
	if err != nil {
		logger.Error("Failed to list firewall rules: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving firewall rules")
		return
	}
	respondData(w, http.StatusOK, rules)
}

// GetRuleHandler returns a single rule by id, with both naming families in
// the payload.
func GetRuleHandler(w http.ResponseWriter, r *http.Request) {
	rule, err := database.GetFirewallRuleByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Firewall rule not found")
			return
		}
		logger.Error("Failed to get firewall rule: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving firewall rule")
		return
	}
	respondData(w, http.StatusOK, rule)
}

// CreateRuleHandler creates a firewall rule. Either naming family is
// accepted; canonical names win per field when both appear.
func CreateRuleHandler(w http.ResponseWriter, r *http.Request) {
	var in models.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule := models.FirewallRule{
		EntityType: models.EntityTypeIP,
		Protocol:   "ANY",
		Enabled:    true,
	}
	in.Apply(&rule)

	if rule.Action == "" {
		respondError(w, http.StatusBadRequest, "Action is required")
		return
	}
	if msg, ok := validRule(&rule); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if rule.EndpointID != nil {
		if _, err := database.GetEndpointByID(*rule.EndpointID); err != nil {
			if isNotFound(err) {
				respondError(w, http.StatusNotFound, "Endpoint not found")
				return
			}
			logger.Error("Endpoint lookup failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Error creating firewall rule")
			return
		}
	}

	created, err := database.CreateFirewallRule(rule)
	if err != nil {
		logger.Error("Failed to create firewall rule: %v", err)
		respondError(w, http.StatusInternalServerError, "Error creating firewall rule")
		return
	}

	events.Broadcast("firewall_rule.created", created)
	logger.Info("Firewall rule created: %s (%s %s)", created.ID, created.Action, created.EntityType)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Firewall rule created successfully",
		"data":    created,
	})
}

// UpdateRuleHandler applies a partial update. Absent fields keep their stored
// values; paired fields resolve canonical-first independently of each other.
func UpdateRuleHandler(w http.ResponseWriter, r *http.Request) {
	rule, err := database.GetFirewallRuleByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Firewall rule not found")
			return
		}
		logger.Error("Failed to get firewall rule: %v", err)
		respondError(w, http.StatusInternalServerError, "Error updating firewall rule")
		return
	}

	var in models.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.Apply(&rule)

	if msg, ok := validRule(&rule); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := database.UpdateFirewallRule(rule); err != nil {
		logger.Error("Failed to update firewall rule %s: %v", rule.ID, err)
		respondError(w, http.StatusInternalServerError, "Error updating firewall rule")
		return
	}

	events.Broadcast("firewall_rule.updated", rule)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Firewall rule updated successfully",
		"data":    rule,
	})
}

// DeleteRuleHandler removes a rule.
func DeleteRuleHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := database.GetFirewallRuleByID(id); err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Firewall rule not found")
			return
		}
		logger.Error("Failed to get firewall rule: %v", err)
		respondError(w, http.StatusInternalServerError, "Error deleting firewall rule")
		return
	}

	if err := database.DeleteFirewallRule(id); err != nil {
		logger.Error("Failed to delete firewall rule %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error deleting firewall rule")
		return
	}

	events.Broadcast("firewall_rule.deleted", map[string]string{"id": id})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Firewall rule deleted successfully",
	})
}
