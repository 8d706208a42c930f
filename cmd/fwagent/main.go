// fwagent is the reference firewall agent: it authenticates against the
// firewall center, reports the processes it discovers on the host, and polls
// the rules it should enforce.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"runtime"
	"time"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

// errStaleEndpoint marks a rule fetch rejected because the server no longer
// recognizes the agent's endpoint id.
var errStaleEndpoint = errors.New("endpoint credentials rejected")

type agent struct {
	serverURL  string
	hostname   string
	password   string
	endpointID string
	client     *http.Client
}

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "Firewall center base URL")
	hostname := flag.String("hostname", "", "Endpoint hostname registered on the server")
	password := flag.String("password", "", "Endpoint password")
	interval := flag.Duration("interval", 30*time.Second, "Collection and rule sync interval")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger.SetLogLevel(*logLevel)

	if *hostname == "" || *password == "" {
		logger.Fatal("Both -hostname and -password are required")
	}

	a := &agent{
		serverURL: *serverURL,
		hostname:  *hostname,
		password:  *password,
		client:    &http.Client{Timeout: 15 * time.Second},
	}

	for {
		if err := a.authenticate(); err != nil {
			logger.Error("Authentication failed: %v (retrying in %s)", err, *interval)
			time.Sleep(*interval)
			continue
		}
		break
	}
	logger.Info("Authenticated as %s (endpoint %s) on %s/%s", a.hostname, a.endpointID, runtime.GOOS, runtime.GOARCH)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	a.runCycle()
	for range ticker.C {
		a.runCycle()
	}
}

func (a *agent) runCycle() {
	apps, err := collectApplications()
	if err != nil {
		logger.Error("Process collection failed: %v", err)
	} else if err := a.submitApplications(apps); err != nil {
		logger.Error("Application submission failed: %v", err)
	}

	rules, err := a.fetchRules()
	if err != nil {
		logger.Error("Rule sync failed: %v", err)
		// The endpoint id goes stale when the endpoint is recreated
		// server-side. Only a credential rejection warrants a new
		// authentication round; transient failures just wait for the
		// next tick.
		if errors.Is(err, errStaleEndpoint) {
			if authErr := a.authenticate(); authErr != nil {
				logger.Error("Re-authentication failed: %v", authErr)
			}
		}
		return
	}

	applyRules(rules)
}

func (a *agent) authenticate() error {
	body, _ := json.Marshal(map[string]string{
		"hostname": a.hostname,
		"password": a.password,
	})
	resp, err := a.client.Post(a.serverURL+"/api/endpoints/authenticate", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var result struct {
		Status     string `json:"status"`
		EndpointID string `json:"endpoint_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.EndpointID == "" {
		return fmt.Errorf("server returned no endpoint id")
	}
	a.endpointID = result.EndpointID
	return nil
}

func (a *agent) submitApplications(apps map[string]models.AppSubmission) error {
	body, err := json.Marshal(map[string]interface{}{
		"endpoint_id":  a.endpointID,
		"applications": apps,
	})
	if err != nil {
		return err
	}
	resp, err := a.client.Post(a.serverURL+"/api/endpoints/applications", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var result struct {
		Processed int `json:"processed_applications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Processed < len(apps) {
		logger.Warn("Server processed %d of %d submitted applications", result.Processed, len(apps))
	} else {
		logger.Info("Submitted %d applications", result.Processed)
	}
	return nil
}

func (a *agent) fetchRules() (map[string][]models.RuleProjection, error) {
	req, err := http.NewRequest(http.MethodGet, a.serverURL+"/api/firewall/rules", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Endpoint-ID", a.endpointID)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusNotFound:
		return nil, fmt.Errorf("%w: server returned %s", errStaleEndpoint, resp.Status)
	default:
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var rules map[string][]models.RuleProjection
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// collectApplications scans the host's sockets and maps them back to their
// owning processes.
func collectApplications() (map[string]models.AppSubmission, error) {
	conns, err := gopsnet.Connections("inet")
	if err != nil {
		return nil, err
	}

	names := make(map[int32]string)
	apps := make(map[string]models.AppSubmission)

	for _, conn := range conns {
		if conn.Pid == 0 {
			continue
		}

		name, ok := names[conn.Pid]
		if !ok {
			proc, err := process.NewProcess(conn.Pid)
			if err != nil {
				continue
			}
			name, err = proc.Name()
			if err != nil || name == "" {
				continue
			}
			names[conn.Pid] = name
		}

		app := apps[name]
		app.Status = "running"

		switch conn.Status {
		case "LISTEN":
			app.SourcePorts = appendUnique(app.SourcePorts, int(conn.Laddr.Port))
		case "ESTABLISHED":
			app.DestinationPorts = appendUnique(app.DestinationPorts, int(conn.Raddr.Port))
			pair := models.IPAssociation{SourceIP: conn.Laddr.IP, DestinationIP: conn.Raddr.IP}
			if !containsPair(app.AssociatedIPs, pair) {
				app.AssociatedIPs = append(app.AssociatedIPs, pair)
			}
		}

		apps[name] = app
	}

	return apps, nil
}

func appendUnique(ports []int, port int) []int {
	if port == 0 {
		return ports
	}
	for _, p := range ports {
		if p == port {
			return ports
		}
	}
	return append(ports, port)
}

func containsPair(pairs []models.IPAssociation, pair models.IPAssociation) bool {
	for _, p := range pairs {
		if p == pair {
			return true
		}
	}
	return false
}

// applyRules logs the rule set the agent would install. Hooking the grouped
// rules into the platform firewall is the per-OS enforcement layer's job.
func applyRules(rules map[string][]models.RuleProjection) {
	total := 0
	for _, list := range rules {
		total += len(list)
	}
	logger.Info("Synced %d rules for %d processes", total, len(rules))

	for processName, list := range rules {
		for _, rule := range list {
			switch rule.EntityType {
			case models.EntityTypeDomain:
				logger.Debug("%s: %s domain %s", processName, rule.Action, rule.DomainName)
			default:
				logger.Debug("%s: %s ip src=%s:%d dst=%s:%d", processName, rule.Action,
					rule.SourceIP, rule.SourcePort, rule.DestinationIP, rule.DestinationPort)
			}
		}
	}
}
