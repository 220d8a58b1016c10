package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"autodiag-backend/internal/models"
	"autodiag-backend/internal/services"
)

type stubGenerator struct {
	report *models.Report
	err    error
	calls  int
}

func (s *stubGenerator) GenerateReport(ctx context.Context, query models.VehicleQuery) (*models.Report, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type noopSearchStore struct{}

func (noopSearchStore) Save(ctx context.Context, entry *models.SearchEntry) error { return nil }
func (noopSearchStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SearchEntry, error) {
	return nil, nil
}

func newReportHandler(gen services.ReportGenerator) *ReportHandler {
	search := services.NewSearchService(noopSearchStore{}, 20, time.Millisecond)
	return NewReportHandler(gen, search)
}

func sampleReport() *models.Report {
	return &models.Report{
		Score:                  7.5,
		ReliabilityTitle:       "Confiável",
		ReliabilityDescription: "Bom histórico geral.",
		Defects: []models.DefectItem{
			{ID: "d1", Title: "Câmbio", Description: "Trancos", Severity: models.SeverityMedium, Frequency: models.FrequencyOccasional, Icon: "gearbox"},
		},
		OwnerReviews: []models.OwnerReview{
			{UserLabel: "Dono há 3 anos", Quote: "Nunca me deixou na mão.", Sentiment: models.SentimentPositive},
		},
		ExpertTips: []models.ExpertTip{
			{Title: "Troque o fluido", Content: "A cada 40 mil km.", Priority: models.SeverityHigh},
		},
		Sources: []string{"example.com"},
	}
}

func TestGenerate_Fresh(t *testing.T) {
	gen := &stubGenerator{report: sampleReport()}
	h := newReportHandler(gen)

	body := `{"brand":"Toyota","model":"Corolla","year":"2020","mileage_km":"85000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generation call, got %d", gen.calls)
	}

	var resp models.GenerateReportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Report == nil || resp.Report.Score != 7.5 {
		t.Errorf("unexpected report in response: %+v", resp.Report)
	}
}

func TestGenerate_SavedSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{report: sampleReport()}
	h := newReportHandler(gen)

	saved, _ := json.Marshal(sampleReport())
	body := `{"saved":` + string(saved) + `}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gen.calls != 0 {
		t.Errorf("saved report must not trigger generation, got %d calls", gen.calls)
	}

	var resp models.GenerateReportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Report.ReliabilityTitle != "Confiável" {
		t.Errorf("expected saved report returned unchanged, got %+v", resp.Report)
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing brand", `{"model":"Corolla","year":"2020"}`},
		{"missing model", `{"brand":"Toyota","year":"2020"}`},
		{"missing year", `{"brand":"Toyota","model":"Corolla"}`},
		{"whitespace only", `{"brand":"  ","model":"Corolla","year":"2020"}`},
		{"malformed body", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{report: sampleReport()}
			h := newReportHandler(gen)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Generate(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if gen.calls != 0 {
				t.Errorf("invalid input must not reach the generator, got %d calls", gen.calls)
			}
		})
	}
}

func TestGenerate_GenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: &services.GenerationError{Message: "Falha ao gerar o relatório"}}
	h := newReportHandler(gen)

	body := `{"brand":"Toyota","model":"Corolla","year":"2020"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if resp["error"]["code"] != "GENERATION_ERROR" {
		t.Errorf("expected GENERATION_ERROR code, got %v", resp["error"]["code"])
	}
}

func TestSubmitSearch_OK(t *testing.T) {
	h := newReportHandler(&stubGenerator{})

	body := `{"brand":"Fiat","model":"Uno","year":"2015"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.SubmitSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitSearch_Validation(t *testing.T) {
	h := newReportHandler(&stubGenerator{})

	body := `{"brand":"","model":"Uno","year":"2015"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.SubmitSearch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
