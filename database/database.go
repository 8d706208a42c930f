package database

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDB initializes the database connection and creates tables if they don't exist.
func InitDB(dataSourceName string) {
	var err error
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logger.Fatal("Error opening database: %v", err)
	}

	// An in-memory database lives inside a single connection; a second pooled
	// connection would see an empty schema.
	if dataSourceName == ":memory:" {
		DB.SetMaxOpenConns(1)
	}

	if err = DB.Ping(); err != nil {
		logger.Fatal("Error pinging database: %v", err)
	}

	createTables()
	initAdminUser()
}

func createTables() {
	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL
	);`

	endpointsTable := `
	CREATE TABLE IF NOT EXISTS endpoints (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL UNIQUE,
		ip_address TEXT NOT NULL,
		os TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		password TEXT NOT NULL DEFAULT '',
		last_heartbeat DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	applicationsTable := `
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT,
		name TEXT NOT NULL,
		process_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'running',
		associated_ips TEXT NOT NULL DEFAULT '[]',
		source_ports TEXT NOT NULL DEFAULT '[]',
		destination_ports TEXT NOT NULL DEFAULT '[]',
		last_updated DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(endpoint_id, process_name),
		FOREIGN KEY(endpoint_id) REFERENCES endpoints(id)
	);`

	firewallRulesTable := `
	CREATE TABLE IF NOT EXISTS firewall_rules (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT,
		application_id TEXT,
		process_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		entity_type TEXT NOT NULL DEFAULT 'ip',
		source_ip TEXT NOT NULL DEFAULT '',
		destination_ip TEXT NOT NULL DEFAULT '',
		source_port INTEGER NOT NULL DEFAULT 0,
		destination_port INTEGER NOT NULL DEFAULT 0,
		domain_name TEXT NOT NULL DEFAULT '',
		protocol TEXT NOT NULL DEFAULT 'ANY',
		action TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(endpoint_id) REFERENCES endpoints(id),
		FOREIGN KEY(application_id) REFERENCES applications(id)
	);`

	trafficLogsTable := `
	CREATE TABLE IF NOT EXISTS traffic_logs (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT,
		application_id TEXT,
		source_ip TEXT NOT NULL DEFAULT '',
		destination_ip TEXT NOT NULL DEFAULT '',
		source_port INTEGER NOT NULL DEFAULT 0,
		destination_port INTEGER NOT NULL DEFAULT 0,
		protocol TEXT NOT NULL DEFAULT 'ANY',
		action TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL
	);`

	systemLogsTable := `
	CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT,
		application_id TEXT,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '{}',
		timestamp DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);`

	anomaliesTable := `
	CREATE TABLE IF NOT EXISTS anomalies (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT,
		application_id TEXT,
		type TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'low',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		detected_at DATETIME NOT NULL,
		resolved_at DATETIME
	);`

	for _, stmt := range []string{
		usersTable,
		endpointsTable,
		applicationsTable,
		firewallRulesTable,
		trafficLogsTable,
		systemLogsTable,
		anomaliesTable,
	} {
		if _, err := DB.Exec(stmt); err != nil {
			logger.Fatal("Could not create table: %v", err)
		}
	}
}

func initAdminUser() {
	var userCount int
	err := DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount)
	if err != nil {
		logger.Fatal("Could not query user count: %v", err)
	}

	// If no users exist, seed the configured admin account
	if userCount == 0 {
		cfg := config.GetConfig()

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), cfg.Security.BcryptCost)
		if err != nil {
			logger.Fatal("Could not hash admin password: %v", err)
		}

		_, err = DB.Exec("INSERT INTO users(username, password, role) VALUES(?, ?, ?)",
			cfg.Admin.Username, string(hashedPassword), cfg.Admin.Role)
		if err != nil {
			logger.Fatal("Could not insert admin user: %v", err)
		}
		logger.Info("Admin user %s created", cfg.Admin.Username)
	}
}

// GetAllUsers retrieves all admin console users
func GetAllUsers() ([]models.User, error) {
	rows, err := DB.Query("SELECT id, username, role FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Role); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetUserByUsername retrieves a user with its password hash for verification
func GetUserByUsername(username string) (models.User, error) {
	var user models.User
	err := DB.QueryRow("SELECT id, username, password, role FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.Password, &user.Role)
	return user, err
}

// GetUserByID retrieves a user by ID
func GetUserByID(userID int) (models.User, error) {
	var user models.User
	err := DB.QueryRow("SELECT id, username, role FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Username, &user.Role)
	return user, err
}

// nullString adapts an optional reference column for writing.
func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// strPtr adapts an optional reference column after scanning.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
