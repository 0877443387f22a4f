package api

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "plain JSON array",
			content:  `["best crm software", "crm pricing", "buy crm"]`,
			expected: []string{"best crm software", "crm pricing", "buy crm"},
		},
		{
			name:     "fenced JSON",
			content:  "```json\n[\"crm for startups\", \"crm tools\"]\n```",
			expected: []string{"crm for startups", "crm tools"},
		},
		{
			name:     "numbered list",
			content:  "Here are keywords:\n1. \"best crm software\",\n2. crm reviews\n- crm vs erp\n```",
			expected: []string{"best crm software", "crm reviews", "crm vs erp"},
		},
		{
			name:     "disallowed characters dropped",
			content:  `["crm & sales", "crm (free)", "crm_tools-2024"]`,
			expected: []string{"crm_tools-2024"},
		},
	}

	parser := NewKeywordParser(25)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestKeywordParser_Limit(t *testing.T) {
	items := make([]string, 40)
	for i := range items {
		items[i] = fmt.Sprintf("%q", fmt.Sprintf("keyword number %d", i))
	}

	got, err := NewKeywordParser(25).Parse("[" + strings.Join(items, ",") + "]")
	require.NoError(t, err)
	assert.Len(t, got, 25)
	assert.Equal(t, "keyword number 0", got[0])
}

func TestKeywordParser_Empty(t *testing.T) {
	_, err := NewKeywordParser(25).Parse("```json\n[]\n```")
	assert.ErrorIs(t, err, ErrNoKeywords)

	_, err = NewKeywordParser(25).Parse("no")
	assert.ErrorIs(t, err, ErrNoKeywords)
}
