package models

import (
	"encoding/json"
	"strings"
	"time"
)

// User represents an admin console account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash
	Role     string `json:"role"`
}

// Endpoint statuses.
const (
	EndpointStatusPending = "pending"
	EndpointStatusOnline  = "online"
	EndpointStatusOffline = "offline"
	EndpointStatusError   = "error"
)

// Endpoint represents a managed host running the firewall agent.
type Endpoint struct {
	ID            string     `json:"id"`
	Hostname      string     `json:"hostname"`
	IPAddress     string     `json:"ipAddress"`
	OS            string     `json:"os"`
	Status        string     `json:"status"`
	Password      string     `json:"-"` // bcrypt hash, never serialized
	LastHeartbeat *time.Time `json:"lastHeartbeat"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// EndpointSummary aggregates the endpoint fleet by status and OS for the
// admin dashboard.
type EndpointSummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	ByOS     map[string]int `json:"byOS"`
}

// IPAssociation is one observed source/destination address pair for an application.
type IPAssociation struct {
	SourceIP      string `json:"source_ip"`
	DestinationIP string `json:"destination_ip"`
}

// Application is a monitored process on an endpoint, or an admin-defined
// logical application when EndpointID is nil.
type Application struct {
	ID               string          `json:"id"`
	EndpointID       *string         `json:"endpointId"`
	Name             string          `json:"name"`
	ProcessName      string          `json:"processName"`
	Description      string          `json:"description"`
	Status           string          `json:"status"`
	AssociatedIPs    []IPAssociation `json:"associated_ips"`
	SourcePorts      []int           `json:"source_ports"`
	DestinationPorts []int           `json:"destination_ports"`
	LastUpdated      time.Time       `json:"lastUpdated"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// AppSubmission is the metadata an agent reports for a single process.
type AppSubmission struct {
	Description      string          `json:"description"`
	Status           string          `json:"status"`
	AssociatedIPs    []IPAssociation `json:"associated_ips"`
	SourcePorts      []int           `json:"source_ports"`
	DestinationPorts []int           `json:"destination_ports"`
}

// Rule entity types and actions.
const (
	EntityTypeIP     = "ip"
	EntityTypeDomain = "domain"

	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// FirewallRule is a single allow/deny directive. The struct holds each
// attribute exactly once; the wire format carries both the canonical
// snake_case names and the legacy camelCase names, produced from the same
// value so the two families cannot diverge.
type FirewallRule struct {
	ID              string
	EndpointID      *string
	ApplicationID   *string
	ProcessName     string
	Name            string
	Description     string
	EntityType      string // "ip" or "domain"
	SourceIP        string
	DestinationIP   string
	SourcePort      int // 0 means unset
	DestinationPort int // 0 means unset
	DomainName      string
	Protocol        string // TCP, UDP, ICMP or ANY
	Action          string // "allow" or "deny"
	Priority        int
	Enabled         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ruleWire is the serialized form of FirewallRule carrying both naming families.
type ruleWire struct {
	ID            string  `json:"id"`
	EndpointID    *string `json:"endpointId"`
	ApplicationID *string `json:"applicationId"`
	ProcessName   string  `json:"processName"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`

	EntityType      string `json:"entity_type"`
	SourceIP        string `json:"source_ip,omitempty"`
	DestinationIP   string `json:"destination_ip,omitempty"`
	SourcePort      int    `json:"source_port,omitempty"`
	DestinationPort int    `json:"destination_port,omitempty"`
	DomainName      string `json:"domain_name,omitempty"`

	LegacyEntityType      string `json:"entityType"`
	LegacySourceIP        string `json:"sourceIp,omitempty"`
	LegacyDestinationIP   string `json:"destinationIp,omitempty"`
	LegacySourcePort      int    `json:"sourcePort,omitempty"`
	LegacyDestinationPort int    `json:"destinationPort,omitempty"`
	LegacyDomain          string `json:"domain,omitempty"`

	Protocol  string    `json:"protocol"`
	Action    string    `json:"action"`
	Priority  int       `json:"priority"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON emits every paired attribute under both its canonical and
// legacy name, mirrored from the single stored value.
func (r FirewallRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleWire{
		ID:            r.ID,
		EndpointID:    r.EndpointID,
		ApplicationID: r.ApplicationID,
		ProcessName:   r.ProcessName,
		Name:          r.Name,
		Description:   r.Description,

		EntityType:      r.EntityType,
		SourceIP:        r.SourceIP,
		DestinationIP:   r.DestinationIP,
		SourcePort:      r.SourcePort,
		DestinationPort: r.DestinationPort,
		DomainName:      r.DomainName,

		LegacyEntityType:      r.EntityType,
		LegacySourceIP:        r.SourceIP,
		LegacyDestinationIP:   r.DestinationIP,
		LegacySourcePort:      r.SourcePort,
		LegacyDestinationPort: r.DestinationPort,
		LegacyDomain:          r.DomainName,

		Protocol:  r.Protocol,
		Action:    r.Action,
		Priority:  r.Priority,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

// RuleInput carries a create or partial-update request for a firewall rule.
// Every paired attribute may arrive under either name; resolution happens per
// field, independently, and the canonical name wins when both are supplied in
// the same request.
type RuleInput struct {
	EndpointID    *string `json:"endpointId"`
	ApplicationID *string `json:"applicationId"`
	ProcessName   *string `json:"processName"`
	Name          *string `json:"name"`
	Description   *string `json:"description"`

	EntityType      *string `json:"entity_type"`
	SourceIP        *string `json:"source_ip"`
	DestinationIP   *string `json:"destination_ip"`
	SourcePort      *int    `json:"source_port"`
	DestinationPort *int    `json:"destination_port"`
	DomainName      *string `json:"domain_name"`

	LegacyEntityType      *string `json:"entityType"`
	LegacySourceIP        *string `json:"sourceIp"`
	LegacyDestinationIP   *string `json:"destinationIp"`
	LegacySourcePort      *int    `json:"sourcePort"`
	LegacyDestinationPort *int    `json:"destinationPort"`
	LegacyDomain          *string `json:"domain"`

	Protocol *string `json:"protocol"`
	Action   *string `json:"action"`
	Priority *int    `json:"priority"`
	Enabled  *bool   `json:"enabled"`
}

func firstString(canonical, legacy *string) *string {
	if canonical != nil {
		return canonical
	}
	return legacy
}

func firstInt(canonical, legacy *int) *int {
	if canonical != nil {
		return canonical
	}
	return legacy
}

// Apply copies the supplied fields onto rule, leaving absent fields untouched
// so a partial update cannot clobber unrelated attributes.
func (in *RuleInput) Apply(rule *FirewallRule) {
	if in.EndpointID != nil {
		rule.EndpointID = in.EndpointID
	}
	if in.ApplicationID != nil {
		rule.ApplicationID = in.ApplicationID
	}
	if in.ProcessName != nil {
		rule.ProcessName = *in.ProcessName
	}
	if in.Name != nil {
		rule.Name = *in.Name
	}
	if in.Description != nil {
		rule.Description = *in.Description
	}

	if v := firstString(in.EntityType, in.LegacyEntityType); v != nil {
		rule.EntityType = strings.ToLower(*v)
	}
	if v := firstString(in.SourceIP, in.LegacySourceIP); v != nil {
		rule.SourceIP = *v
	}
	if v := firstString(in.DestinationIP, in.LegacyDestinationIP); v != nil {
		rule.DestinationIP = *v
	}
	if v := firstInt(in.SourcePort, in.LegacySourcePort); v != nil {
		rule.SourcePort = *v
	}
	if v := firstInt(in.DestinationPort, in.LegacyDestinationPort); v != nil {
		rule.DestinationPort = *v
	}
	if v := firstString(in.DomainName, in.LegacyDomain); v != nil {
		rule.DomainName = *v
	}

	if in.Protocol != nil {
		rule.Protocol = strings.ToUpper(*in.Protocol)
	}
	if in.Action != nil {
		rule.Action = strings.ToLower(*in.Action)
	}
	if in.Priority != nil {
		rule.Priority = *in.Priority
	}
	if in.Enabled != nil {
		rule.Enabled = *in.Enabled
	}
}

// RuleProjection is the minimal rule shape distributed to agents. It never
// carries administrative metadata such as name, description or priority.
type RuleProjection struct {
	EntityType      string `json:"entity_type"`
	Action          string `json:"action"`
	SourceIP        string `json:"source_ip,omitempty"`
	DestinationIP   string `json:"destination_ip,omitempty"`
	SourcePort      int    `json:"source_port,omitempty"`
	DestinationPort int    `json:"destination_port,omitempty"`
	DomainName      string `json:"domain_name,omitempty"`
}

// Project strips a rule down to what an agent needs to enforce it. IP rules
// carry only their set address and port fields; domain rules carry only the
// domain name.
func (r FirewallRule) Project() RuleProjection {
	p := RuleProjection{
		EntityType: r.EntityType,
		Action:     r.Action,
	}
	switch r.EntityType {
	case EntityTypeIP:
		p.SourceIP = r.SourceIP
		p.DestinationIP = r.DestinationIP
		p.SourcePort = r.SourcePort
		p.DestinationPort = r.DestinationPort
	case EntityTypeDomain:
		p.DomainName = r.DomainName
	}
	return p
}

// TrafficLog is a single observed connection reported for an endpoint.
type TrafficLog struct {
	ID              string    `json:"id"`
	EndpointID      *string   `json:"endpointId"`
	ApplicationID   *string   `json:"applicationId"`
	SourceIP        string    `json:"sourceIp"`
	DestinationIP   string    `json:"destinationIp"`
	SourcePort      int       `json:"sourcePort"`
	DestinationPort int       `json:"destinationPort"`
	Protocol        string    `json:"protocol"`
	Action          string    `json:"action"`
	Timestamp       time.Time `json:"timestamp"`
}

// System log types and levels accepted from agents.
const (
	LogTypeSystem      = "system"
	LogTypeUser        = "user"
	LogTypeFirewall    = "firewall"
	LogTypeEndpoint    = "endpoint"
	LogTypeApplication = "application"

	LogLevelInfo     = "info"
	LogLevelWarning  = "warning"
	LogLevelError    = "error"
	LogLevelCritical = "critical"
)

// SystemLog is an operational log entry submitted by an agent, distinct from
// TrafficLog which records individual connections.
type SystemLog struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	Details       map[string]interface{} `json:"details,omitempty"`
	EndpointID    *string                `json:"endpointId"`
	ApplicationID *string                `json:"applicationId"`
	Timestamp     time.Time              `json:"timestamp"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// SystemLogStats summarizes the stored system logs.
type SystemLogStats struct {
	TotalLogs int            `json:"total_logs"`
	ByType    map[string]int `json:"by_type"`
	ByLevel   map[string]int `json:"by_level"`
	Recent    []SystemLog    `json:"recent_logs"`
}

// Anomaly statuses.
const (
	AnomalyStatusOpen     = "open"
	AnomalyStatusResolved = "resolved"
)

// Anomaly records suspicious behavior detected on an endpoint.
type Anomaly struct {
	ID            string     `json:"id"`
	EndpointID    *string    `json:"endpointId"`
	ApplicationID *string    `json:"applicationId"`
	Type          string     `json:"type"`
	Severity      string     `json:"severity"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	DetectedAt    time.Time  `json:"detectedAt"`
	ResolvedAt    *time.Time `json:"resolvedAt"`
}
