package handlers

import (
	"net/http"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/models"
)

type applicationRequest struct {
	EndpointID       *string                `json:"endpointId"`
	Name             string                 `json:"name"`
	ProcessName      string                 `json:"processName"`
	Description      string                 `json:"description"`
	Status           string                 `json:"status"`
	AssociatedIPs    []models.IPAssociation `json:"associated_ips"`
	SourcePorts      []int                  `json:"source_ports"`
	DestinationPorts []int                  `json:"destination_ports"`
}

// ListApplicationsHandler returns applications, optionally filtered by the
// endpointId query parameter.
func ListApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		apps []models.Application
		err  error
	)
	if endpointID := r.URL.Query().Get("endpointId"); endpointID != "" {
		apps, err = database.GetApplicationsByEndpoint(endpointID)
	} else {
		apps, err = database.GetAllApplications()
	}
	if err != nil {
		logger.Error("Failed to list applications: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving applications")
		return
	}
	respondData(w, http.StatusOK, apps)
}

// GetApplicationHandler returns a single application by id.
func GetApplicationHandler(w http.ResponseWriter, r *http.Request) {
	app, err := database.GetApplicationByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Application not found")
			return
		}
		logger.Error("Failed to get application: %v", err)
		respondError(w, http.StatusInternalServerError, "Error retrieving application")
		return
	}
	respondData(w, http.StatusOK, app)
}

// CreateApplicationHandler creates an admin-defined application. EndpointID
// may be omitted for frontend-only logical applications.
func CreateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.ProcessName == "" {
		respondError(w, http.StatusBadRequest, "Name and process name are required")
		return
	}

	if req.EndpointID != nil {
		if _, err := database.GetEndpointByID(*req.EndpointID); err != nil {
			if isNotFound(err) {
				respondError(w, http.StatusNotFound, "Endpoint not found")
				return
			}
			logger.Error("Endpoint lookup failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Error creating application")
			return
		}
	}

	app, err := database.CreateApplication(models.Application{
		EndpointID:       req.EndpointID,
		Name:             req.Name,
		ProcessName:      req.ProcessName,
		Description:      req.Description,
		Status:           req.Status,
		AssociatedIPs:    req.AssociatedIPs,
		SourcePorts:      req.SourcePorts,
		DestinationPorts: req.DestinationPorts,
	})
	if err != nil {
		logger.Error("Failed to create application %s: %v", req.Name, err)
		respondError(w, http.StatusInternalServerError, "Error creating application")
		return
	}

	events.Broadcast("application.created", app)
	respondData(w, http.StatusCreated, app)
}

// UpdateApplicationHandler updates an application's attributes.
func UpdateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	app, err := database.GetApplicationByID(r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Application not found")
			return
		}
		logger.Error("Failed to get application: %v", err)
		respondError(w, http.StatusInternalServerError, "Error updating application")
		return
	}

	var req applicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.EndpointID != nil {
		app.EndpointID = req.EndpointID
	}
	if req.Name != "" {
		app.Name = req.Name
	}
	if req.ProcessName != "" {
		app.ProcessName = req.ProcessName
	}
	if req.Description != "" {
		app.Description = req.Description
	}
	if req.Status != "" {
		app.Status = req.Status
	}
	if req.AssociatedIPs != nil {
		app.AssociatedIPs = req.AssociatedIPs
	}
	if req.SourcePorts != nil {
		app.SourcePorts = req.SourcePorts
	}
	if req.DestinationPorts != nil {
		app.DestinationPorts = req.DestinationPorts
	}

	if err := database.UpdateApplication(app); err != nil {
		logger.Error("Failed to update application %s: %v", app.ID, err)
		respondError(w, http.StatusInternalServerError, "Error updating application")
		return
	}

	events.Broadcast("application.updated", app)
	respondData(w, http.StatusOK, app)
}

// DeleteApplicationHandler removes an application and its dependent rules.
func DeleteApplicationHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := database.GetApplicationByID(id); err != nil {
		if isNotFound(err) {
			respondError(w, http.StatusNotFound, "Application not found")
			return
		}
		logger.Error("Failed to get application: %v", err)
		respondError(w, http.StatusInternalServerError, "Error deleting application")
		return
	}

	if err := database.DeleteApplication(id); err != nil {
		logger.Error("Failed to delete application %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Error deleting application")
		return
	}

	events.Broadcast("application.deleted", map[string]string{"id": id})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Application deleted",
	})
}
