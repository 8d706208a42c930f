package main

import (
	"flag"
	"net/http"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/handlers"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/wsserver"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	cfg := config.GetConfig()
	logger.SetLogLevel(cfg.Server.LogLevel)

	database.InitDB(cfg.Database.Path)

	hub := wsserver.NewHub()
	handlers.InitHandlers(cfg, hub)

	stopMonitor := handlers.StartHeartbeatMonitor()
	defer stopMonitor()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", handlers.AuthMiddleware(hub.Handle))

	logger.Info("Firewall center listening on %s", cfg.Server.Port)
	if err := http.ListenAndServe(cfg.Server.Port, mux); err != nil {
		logger.Fatal("Server error: %v", err)
	}
}
