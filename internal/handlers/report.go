package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/models"
	"autodiag-backend/internal/services"
)

type ReportHandler struct {
	generator     services.ReportGenerator
	searchService *services.SearchService
}

func NewReportHandler(generator services.ReportGenerator, searchService *services.SearchService) *ReportHandler {
	return &ReportHandler{generator: generator, searchService: searchService}
}

// SubmitSearch records the vehicle search alongside the fixed feedback delay.
// The client navigates to the report screen once this returns.
func (h *ReportHandler) SubmitSearch(w http.ResponseWriter, r *http.Request) {
	var query models.VehicleQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateQuery(query); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	h.searchService.RecordSubmission(r.Context(), userID, query)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Generate produces a reliability report. When the request carries a saved
// report, it is returned unchanged without spending a generation request.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var src models.ReportSource
	if req.Saved != nil {
		src.Restored = req.Saved
	} else {
		query := models.VehicleQuery{
			Brand:     strings.TrimSpace(req.Brand),
			Model:     strings.TrimSpace(req.Model),
			Year:      strings.TrimSpace(req.Year),
			MileageKm: strings.TrimSpace(req.MileageKm),
		}
		if fields := validateQuery(query); len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
			return
		}
		src.Fresh = &query
	}

	report, err := services.ResolveReport(r.Context(), h.generator, src)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateReportResponse{Report: report})
}

func validateQuery(q models.VehicleQuery) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(q.Brand) == "" {
		fields["brand"] = "Brand is required"
	}
	if strings.TrimSpace(q.Model) == "" {
		fields["model"] = "Model is required"
	}
	if strings.TrimSpace(q.Year) == "" {
		fields["year"] = "Year is required"
	}
	return fields
}
