package models

// VehicleQuery identifies the vehicle a report is requested for. Immutable
// once submitted; mileage is optional and kept as the raw string the user
// typed.
type VehicleQuery struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Year      string `json:"year"`
	MileageKm string `json:"mileage_km,omitempty"`
}

// Closed enumerations the generation service must respect. Any other value
// is a data-contract violation and rejected at parse time.
const (
	SeverityHigh   = "Alta"
	SeverityMedium = "Média"
	SeverityLow    = "Baixa"

	FrequencyVeryCommon = "Muito Comum"
	FrequencyOccasional = "Ocasional"
	FrequencyRare       = "Raro"

	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

type DefectItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`  // Alta | Média | Baixa
	Frequency   string `json:"frequency"` // Muito Comum | Ocasional | Raro
	Icon        string `json:"icon"`
}

type OwnerReview struct {
	UserLabel string `json:"userLabel"`
	Quote     string `json:"quote"`
	Sentiment string `json:"sentiment"` // negative | neutral | positive
}

type ExpertTip struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"` // Alta | Média | Baixa
}

// Report is the structured reliability report returned by the generation
// service or loaded verbatim from history. Field names match the JSON the
// model is required to produce.
type Report struct {
	Score                  float64       `json:"score"`
	ReliabilityTitle       string        `json:"reliabilityTitle"`
	ReliabilityDescription string        `json:"reliabilityDescription"`
	Defects                []DefectItem  `json:"defects"`
	OwnerReviews           []OwnerReview `json:"ownerReviews"`
	ExpertTips             []ExpertTip   `json:"expertTips"`
	Sources                []string      `json:"sources"`
}

// ReportSource selects between generating a fresh report for a query and
// re-viewing a previously saved one. Exactly one field is set; the Restored
// arm never spends a generation request.
type ReportSource struct {
	Fresh    *VehicleQuery
	Restored *Report
}

type GenerateReportRequest struct {
	Brand     string  `json:"brand"`
	Model     string  `json:"model"`
	Year      string  `json:"year"`
	MileageKm string  `json:"mileage_km"`
	Saved     *Report `json:"saved,omitempty"`
}

type GenerateReportResponse struct {
	Report *Report `json:"report"`
}
