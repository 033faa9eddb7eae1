package mapping

import (
	"testing"

	"fjacquet/rent-recon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion(t *testing.T) {
	header := []string{"取扱年", "取扱月", "取扱日", "お取引金額", "ご依頼人"}
	text := "date: none\nyear: 取扱年\nmonth: 取扱月\nday: 取扱日\namount: [お取引金額]\nsender: `ご依頼人`\ndeposit_filter: 区分\n"

	m := ParseSuggestion(text, header)

	require.NotNil(t, m.DateParts)
	assert.Equal(t, "取扱年", m.DateParts.Year)
	assert.Equal(t, "お取引金額", m.Amount)
	assert.Equal(t, "ご依頼人", m.Sender)
	assert.Empty(t, m.DepositFilter, "unknown columns are dropped")
	assert.True(t, m.NeedsConfirmation)
	assert.Equal(t, models.SourceAI, m.Source)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)
}

func TestParseSuggestion_SingleDate(t *testing.T) {
	m := ParseSuggestion("- date: Day\n- amount: Value\nnoise line", []string{"Day", "Value"})
	assert.Equal(t, "Day", m.Date)
	assert.Nil(t, m.DateParts)
	assert.Equal(t, "Value", m.Amount)
}

func TestBuildPrompt(t *testing.T) {
	rows := make([][]string, 8)
	for i := range rows {
		rows[i] = []string{"v"}
	}
	prompt := BuildPrompt(models.Table{Header: []string{"a", "b"}, Rows: rows})
	assert.Contains(t, prompt, "Columns: a | b")
	assert.Equal(t, SuggestionRows, countOccurrences(prompt, "Row: "))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
