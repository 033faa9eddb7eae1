package mapping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Suggester proposes a mapping for a table the heuristics could not read.
// Suggestions are never applied without operator confirmation.
type Suggester interface {
	Suggest(ctx context.Context, table models.Table) (models.ColumnMapping, error)
}

// GeminiSuggester asks a Gemini model to name the columns.
type GeminiSuggester struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiSuggester creates a suggester for the given model.
func NewGeminiSuggester(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiSuggester, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	gm := client.GenerativeModel(model)
	gm.SetTemperature(0)
	return &GeminiSuggester{client: client, model: gm, timeout: timeout}, nil
}

// Close releases the client.
func (s *GeminiSuggester) Close() error {
	return s.client.Close()
}

// Suggest implements Suggester.
func (s *GeminiSuggester) Suggest(ctx context.Context, table models.Table) (models.ColumnMapping, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(BuildPrompt(table)))
	if err != nil {
		return models.ColumnMapping{}, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return models.ColumnMapping{}, fmt.Errorf("no response from Gemini API")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return ParseSuggestion(text, table.Header), nil
}

// BuildPrompt describes the table to the model and fixes the answer format.
func BuildPrompt(table models.Table) string {
	var b strings.Builder
	b.WriteString("The following is the start of a Japanese bank account export (CSV).\n")
	b.WriteString("Columns: " + strings.Join(table.Header, " | ") + "\n")
	n := len(table.Rows)
	if n > SuggestionRows {
		n = SuggestionRows
	}
	for _, row := range table.Rows[:n] {
		b.WriteString("Row: " + strings.Join(row, " | ") + "\n")
	}
	b.WriteString(`
Identify which column holds each role. Use the exact column name, or "none".
If the date is split over three columns use year/month/day and set date to none.
Respond in this format:
date: [column]
year: [column]
month: [column]
day: [column]
amount: [column]
sender: [column]
deposit_filter: [column]
`)
	return b.String()
}

// ParseSuggestion reads the model answer. Names that are not columns of the
// header are discarded. The result always needs confirmation.
func ParseSuggestion(text string, header []string) models.ColumnMapping {
	roles := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "-* "))
		value = strings.Trim(strings.TrimSpace(value), "`\"'[]")
		if value == "" || strings.EqualFold(value, "none") || indexOf(header, value) < 0 {
			continue
		}
		roles[key] = value
	}

	m := models.ColumnMapping{
		Amount:            roles["amount"],
		Sender:            roles["sender"],
		DepositFilter:     roles["deposit_filter"],
		Source:            models.SourceAI,
		NeedsConfirmation: true,
	}
	if roles["year"] != "" && roles["month"] != "" && roles["day"] != "" {
		m.DateParts = &models.DateParts{Year: roles["year"], Month: roles["month"], Day: roles["day"]}
	} else {
		m.Date = roles["date"]
	}
	m.Confidence = confidence(m)
	return m
}
