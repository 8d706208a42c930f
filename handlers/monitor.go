package handlers

import (
	"time"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
)

// StartHeartbeatMonitor launches the background sweep that flips endpoints
// to offline once their heartbeat goes stale. Returns a stop function.
func StartHeartbeatMonitor() func() {
	cfg := ensureConfig()
	if cfg.Heartbeat.Disabled {
		logger.Info("Heartbeat monitor disabled by configuration")
		return func() {}
	}

	interval := time.Duration(cfg.Heartbeat.MonitorIntervalSeconds) * time.Second
	threshold := time.Duration(cfg.Heartbeat.OfflineThresholdSeconds) * time.Second

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				SweepStaleEndpoints(threshold)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Heartbeat monitor started: interval=%s threshold=%s", interval, threshold)
	return func() { close(done) }
}

// SweepStaleEndpoints runs one offline sweep and broadcasts when endpoints
// went silent.
func SweepStaleEndpoints(threshold time.Duration) {
	affected, err := database.MarkStaleEndpointsOffline(threshold)
	if err != nil {
		logger.Error("Heartbeat sweep failed: %v", err)
		return
	}
	if affected > 0 {
		logger.Warn("Marked %d endpoint(s) offline after %s without heartbeat", affected, threshold)
		events.Broadcast("endpoint.offline_sweep", map[string]int64{"count": affected})
	}
}
