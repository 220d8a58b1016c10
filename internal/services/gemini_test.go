package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"autodiag-backend/internal/models"
)

func TestBuildReportPrompt_MileageClause(t *testing.T) {
	tests := []struct {
		name        string
		mileage     string
		wantMileage bool
	}{
		{"includes mileage", "85000", true},
		{"omits empty mileage", "", false},
		{"omits zero mileage", "0", false},
		{"omits whitespace mileage", "   ", false},
		{"includes low mileage", "500", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := models.VehicleQuery{Brand: "Toyota", Model: "Corolla", Year: "2020", MileageKm: tc.mileage}
			prompt := buildReportPrompt(q)

			hasClause := strings.Contains(prompt, "Quilometragem:")
			if hasClause != tc.wantMileage {
				t.Errorf("mileage %q: expected clause=%v, prompt:\n%s", tc.mileage, tc.wantMileage, prompt)
			}
			if tc.wantMileage && !strings.Contains(prompt, "Quilometragem: "+tc.mileage+" km.") {
				t.Errorf("expected verbatim mileage clause for %q", tc.mileage)
			}
		})
	}
}

func TestBuildReportPrompt_VehicleIdentity(t *testing.T) {
	q := models.VehicleQuery{Brand: "Toyota", Model: "Corolla", Year: "2020", MileageKm: "85000"}
	prompt := buildReportPrompt(q)

	if !strings.Contains(prompt, "Toyota Corolla ano 2020") {
		t.Errorf("expected vehicle identity in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Quilometragem: 85000 km.") {
		t.Errorf("expected mileage clause in prompt, got:\n%s", prompt)
	}
}

func validReportJSON() string {
	return `{
		"score": 8,
		"reliabilityTitle": "Muito Confiável",
		"reliabilityDescription": "Modelo com excelente histórico.",
		"defects": [
			{"id": "d1", "title": "Corrente de comando", "description": "Esticador pode falhar.", "severity": "Alta", "frequency": "Ocasional", "icon": "engine"},
			{"id": "d2", "title": "Sensor ABS", "description": "Falha intermitente.", "severity": "Baixa", "frequency": "Raro", "icon": "brake"}
		],
		"ownerReviews": [
			{"userLabel": "Dono há 5 anos", "quote": "Nunca me deixou na mão.", "sentiment": "positive"}
		],
		"expertTips": [
			{"title": "Troca de óleo", "content": "A cada 10 mil km.", "priority": "Alta"}
		],
		"sources": ["Recalls oficiais", "Fóruns de donos"]
	}`
}

func TestParseReport_ValidRoundTrip(t *testing.T) {
	report, err := parseReport(validReportJSON())
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if report.Score != 8 {
		t.Errorf("expected score 8, got %v", report.Score)
	}
	if len(report.Defects) != 2 {
		t.Fatalf("expected 2 defects, got %d", len(report.Defects))
	}
	// Defect ordering must be preserved
	if report.Defects[0].ID != "d1" || report.Defects[1].ID != "d2" {
		t.Errorf("defect order not preserved: %q, %q", report.Defects[0].ID, report.Defects[1].ID)
	}
	if report.Defects[0].Severity != models.SeverityHigh {
		t.Errorf("expected severity Alta, got %q", report.Defects[0].Severity)
	}
}

func TestParseReport_StripsMarkdownFences(t *testing.T) {
	raw := "```json\n" + validReportJSON() + "\n```"
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("unexpected parse error with fences: %v", err)
	}
	if report.ReliabilityTitle != "Muito Confiável" {
		t.Errorf("unexpected title %q", report.ReliabilityTitle)
	}
}

func TestParseReport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "the car is fine"},
		{"missing title", `{"score": 5, "reliabilityTitle": "", "reliabilityDescription": "x"}`},
		{"score out of range", `{"score": 11, "reliabilityTitle": "t", "reliabilityDescription": "d"}`},
		{"bad severity", `{"score": 5, "reliabilityTitle": "t", "reliabilityDescription": "d",
			"defects": [{"id":"x","title":"y","description":"z","severity":"Critical","frequency":"Raro","icon":"i"}]}`},
		{"bad frequency", `{"score": 5, "reliabilityTitle": "t", "reliabilityDescription": "d",
			"defects": [{"id":"x","title":"y","description":"z","severity":"Alta","frequency":"Sempre","icon":"i"}]}`},
		{"bad sentiment", `{"score": 5, "reliabilityTitle": "t", "reliabilityDescription": "d",
			"ownerReviews": [{"userLabel":"u","quote":"q","sentiment":"angry"}]}`},
		{"bad priority", `{"score": 5, "reliabilityTitle": "t", "reliabilityDescription": "d",
			"expertTips": [{"title":"t","content":"c","priority":"Urgente"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseReport(tc.raw); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

type fakeGenerator struct {
	calls  int
	report *models.Report
	err    error
}

func (f *fakeGenerator) GenerateReport(ctx context.Context, q models.VehicleQuery) (*models.Report, error) {
	f.calls++
	return f.report, f.err
}

func TestResolveReport_RestoredSkipsGeneration(t *testing.T) {
	saved := &models.Report{Score: 7, ReliabilityTitle: "Confiável", ReliabilityDescription: "ok"}
	gen := &fakeGenerator{}

	got, err := ResolveReport(context.Background(), gen, models.ReportSource{Restored: saved})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != saved {
		t.Error("expected restored report returned unchanged")
	}
	if gen.calls != 0 {
		t.Errorf("expected no generation calls, got %d", gen.calls)
	}
}

func TestResolveReport_FreshGenerates(t *testing.T) {
	want := &models.Report{Score: 9, ReliabilityTitle: "t", ReliabilityDescription: "d"}
	gen := &fakeGenerator{report: want}

	got, err := ResolveReport(context.Background(), gen, models.ReportSource{
		Fresh: &models.VehicleQuery{Brand: "Fiat", Model: "Uno", Year: "2015"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected generated report")
	}
	if gen.calls != 1 {
		t.Errorf("expected exactly 1 generation call, got %d", gen.calls)
	}
}

func TestResolveReport_GenerationErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: &GenerationError{Message: "Falha ao gerar o relatório", Err: errors.New("boom")}}

	_, err := ResolveReport(context.Background(), gen, models.ReportSource{
		Fresh: &models.VehicleQuery{Brand: "Fiat", Model: "Uno", Year: "2015"},
	})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestResolveReport_EmptySource(t *testing.T) {
	gen := &fakeGenerator{}

	_, err := ResolveReport(context.Background(), gen, models.ReportSource{})

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no generation calls, got %d", gen.calls)
	}
}

func TestReportSchema_RequiredFields(t *testing.T) {
	schema := reportSchema()

	want := []string{"score", "reliabilityTitle", "reliabilityDescription", "defects", "ownerReviews", "expertTips", "sources"}
	if len(schema.Required) != len(want) {
		t.Fatalf("expected %d required fields, got %d", len(want), len(schema.Required))
	}
	for _, field := range want {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("schema missing property %q", field)
		}
	}
}

func TestReportJSONFieldNames(t *testing.T) {
	// The wire format the SPA renders must keep the camelCase contract.
	report, err := parseReport(validReportJSON())
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, field := range []string{"reliabilityTitle", "ownerReviews", "expertTips", "userLabel"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("expected field %q in serialized report", field)
		}
	}
}
