package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"autodiag-backend/internal/models"
)

// reportSystemInstruction pins the persona for report generation: an
// automotive expert that replies only in structured JSON.
const reportSystemInstruction = `Você é um especialista automotivo com décadas de experiência em confiabilidade de veículos no mercado brasileiro. Responda APENAS com JSON estruturado conforme o schema fornecido, sem texto adicional, sem markdown.`

// mechanicSystemInstruction pins the persona for the virtual-mechanic chat.
const mechanicSystemInstruction = `Você é um mecânico automotivo sênior com décadas de experiência. Para cada problema relatado, sempre produza:
1. Um diagnóstico preliminar
2. As causas prováveis, ordenadas da mais provável para a menos provável
3. Uma estimativa de gravidade (Alta, Média ou Baixa)
4. Passos seguros de inspeção visual que o dono pode fazer
Encerre sempre lembrando que um diagnóstico por IA não substitui uma inspeção presencial feita por um mecânico.`

// ReportGenerator produces a reliability report for a vehicle query.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, query models.VehicleQuery) (*models.Report, error)
}

// ChatStreamer streams one model reply for a user turn, invoking onChunk for
// each piece of text as it arrives.
type ChatStreamer interface {
	Stream(ctx context.Context, text string, onChunk func(chunk string) error) error
}

type GeminiService struct {
	client      *genai.Client
	reportModel *genai.GenerativeModel
	chatModel   *genai.GenerativeModel
	rateChan    chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	reportModel := client.GenerativeModel(modelName)
	reportModel.SetTemperature(0.3)
	reportModel.SetTopP(0.95)
	reportModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(reportSystemInstruction)},
	}
	reportModel.ResponseMIMEType = "application/json"
	reportModel.ResponseSchema = reportSchema()

	chatModel := client.GenerativeModel(modelName)
	chatModel.SetTemperature(0.7)
	chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(mechanicSystemInstruction)},
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:      client,
		reportModel: reportModel,
		chatModel:   chatModel,
		rateChan:    rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateReport builds the report prompt, calls Gemini with the fixed output
// schema and parses the result. No automatic retry on failure.
func (s *GeminiService) GenerateReport(ctx context.Context, query models.VehicleQuery) (*models.Report, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, &GenerationError{Message: "Falha ao gerar o relatório", Err: err}
	}
	defer s.releaseRate()

	prompt := buildReportPrompt(query)

	resp, err := s.reportModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &GenerationError{Message: "Falha ao gerar o relatório", Err: err}
	}

	rawText := extractText(resp)
	if rawText == "" {
		return nil, &GenerationError{Message: "Falha ao gerar o relatório", Err: fmt.Errorf("empty response from model")}
	}

	report, err := parseReport(rawText)
	if err != nil {
		return nil, &GenerationError{Message: "Falha ao gerar o relatório", Err: err}
	}

	return report, nil
}

// ResolveReport returns the restored report unchanged when one is supplied,
// skipping generation entirely; otherwise it generates a fresh report for
// the query.
func ResolveReport(ctx context.Context, gen ReportGenerator, src models.ReportSource) (*models.Report, error) {
	if src.Restored != nil {
		return src.Restored, nil
	}
	if src.Fresh == nil {
		return nil, &ValidationError{Fields: map[string]string{"query": "Vehicle query is required"}}
	}
	return gen.GenerateReport(ctx, *src.Fresh)
}

// StartMechanicChat opens a Gemini chat session with the mechanic persona.
// Saved transcript turns are replayed into the session history so later
// replies keep the pre-restoration context.
func (s *GeminiService) StartMechanicChat(history []models.ChatMessage) ChatStreamer {
	cs := s.chatModel.StartChat()
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return &geminiChatStreamer{service: s, session: cs}
}

type geminiChatStreamer struct {
	service *GeminiService
	session *genai.ChatSession
}

func (g *geminiChatStreamer) Stream(ctx context.Context, text string, onChunk func(string) error) error {
	if err := g.service.acquireRate(ctx); err != nil {
		return err
	}
	defer g.service.releaseRate()

	iter := g.session.SendMessageStream(ctx, genai.Text(text))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return &StreamError{Message: "chat stream interrupted", Err: err}
		}
		if chunk := extractText(resp); chunk != "" {
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
	}
}

// buildReportPrompt embeds the vehicle identity and, only for a meaningful
// mileage, the mileage clause.
func buildReportPrompt(q models.VehicleQuery) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Gere um relatório de confiabilidade para o veículo: %s %s ano %s.\n", q.Brand, q.Model, q.Year))

	if hasMileage(q.MileageKm) {
		b.WriteString(fmt.Sprintf("Quilometragem: %s km.\n", q.MileageKm))
	}

	b.WriteString("\nO relatório deve cobrir: nota de confiabilidade de 0 a 10, defeitos crônicos conhecidos com gravidade e frequência, opiniões típicas de donos, dicas de especialistas para compra e manutenção, e as fontes consultadas.\n")
	b.WriteString("Todos os textos devem estar em português brasileiro.\n")

	return b.String()
}

func hasMileage(mileage string) bool {
	m := strings.TrimSpace(mileage)
	return m != "" && m != "0"
}

func reportSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":                  {Type: genai.TypeNumber},
			"reliabilityTitle":       {Type: genai.TypeString},
			"reliabilityDescription": {Type: genai.TypeString},
			"defects": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeString},
						"title":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"severity":    {Type: genai.TypeString, Enum: []string{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}},
						"frequency":   {Type: genai.TypeString, Enum: []string{models.FrequencyVeryCommon, models.FrequencyOccasional, models.FrequencyRare}},
						"icon":        {Type: genai.TypeString},
					},
					Required: []string{"id", "title", "description", "severity", "frequency", "icon"},
				},
			},
			"ownerReviews": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"userLabel": {Type: genai.TypeString},
						"quote":     {Type: genai.TypeString},
						"sentiment": {Type: genai.TypeString, Enum: []string{models.SentimentNegative, models.SentimentNeutral, models.SentimentPositive}},
					},
					Required: []string{"userLabel", "quote", "sentiment"},
				},
			},
			"expertTips": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":    {Type: genai.TypeString},
						"content":  {Type: genai.TypeString},
						"priority": {Type: genai.TypeString, Enum: []string{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}},
					},
					Required: []string{"title", "content", "priority"},
				},
			},
			"sources": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"score", "reliabilityTitle", "reliabilityDescription", "defects", "ownerReviews", "expertTips", "sources"},
	}
}

// parseReport decodes the model output and enforces the closed enumerations.
// A violating value is a data-contract breach by the model, not something to
// guess around.
func parseReport(raw string) (*models.Report, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var report models.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("invalid report JSON: %w", err)
	}

	if report.ReliabilityTitle == "" || report.ReliabilityDescription == "" {
		return nil, fmt.Errorf("report is missing required fields")
	}
	if report.Score < 0 || report.Score > 10 {
		return nil, fmt.Errorf("report score %v out of range", report.Score)
	}

	for _, d := range report.Defects {
		if !validSeverity(d.Severity) {
			return nil, fmt.Errorf("invalid defect severity %q", d.Severity)
		}
		if !validFrequency(d.Frequency) {
			return nil, fmt.Errorf("invalid defect frequency %q", d.Frequency)
		}
	}
	for _, r := range report.OwnerReviews {
		if !validSentiment(r.Sentiment) {
			return nil, fmt.Errorf("invalid review sentiment %q", r.Sentiment)
		}
	}
	for _, tip := range report.ExpertTips {
		if !validSeverity(tip.Priority) {
			return nil, fmt.Errorf("invalid tip priority %q", tip.Priority)
		}
	}

	return &report, nil
}

func validSeverity(s string) bool {
	return s == models.SeverityHigh || s == models.SeverityMedium || s == models.SeverityLow
}

func validFrequency(f string) bool {
	return f == models.FrequencyVeryCommon || f == models.FrequencyOccasional || f == models.FrequencyRare
}

func validSentiment(s string) bool {
	return s == models.SentimentNegative || s == models.SentimentNeutral || s == models.SentimentPositive
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
