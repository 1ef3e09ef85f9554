package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantLen int
		wantOK  bool
	}{
		{"bare array", `[{"name":"A","university":"U"}]`, 1, true},
		{"prose around array", "Here are some programs:\n[{\"name\":\"A\",\"university\":\"U\"},{\"name\":\"B\",\"university\":\"V\"}]\nGood luck!", 2, true},
		{"markdown fence", "```json\n[{\"name\":\"A\",\"university\":\"U\"}]\n```", 1, true},
		{"citation before payload", "Sources [1] and [2] agree:\n[{\"name\":\"A\",\"university\":\"U\"}]", 1, true},
		{"trailing bracket in prose", "[{\"name\":\"A\",\"university\":\"U\"}] (see [notes])", 1, true},
		{"wrapped in object", `{"programs":[{"name":"A","university":"U"}]}`, 1, true},
		{"empty array", "No programs match. []", 0, true},
		{"no array", "I could not find anything, sorry.", 0, false},
		{"truncated json", `[{"name":"A","university":"U"},{"name":"B"`, 0, false},
		{"array of strings only", `["a","b"]`, 0, false},
		{"empty reply", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems, ok := extractCandidates(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, elems, tt.wantLen)
		})
	}
}

func TestExtractCandidates_GivesUpOnBracketFlood(t *testing.T) {
	reply := strings.Repeat("[", 200000) + `[{"name":"A","university":"U"}]`

	elems, ok := extractCandidates(reply)

	assert.False(t, ok)
	assert.Empty(t, elems)
}

func TestExtractCandidates_PayloadAfterSeveralCitations(t *testing.T) {
	reply := strings.Repeat("see [n] ", maxArrayAttempts-1) + `[{"name":"A","university":"U"}]`

	elems, ok := extractCandidates(reply)

	assert.True(t, ok)
	assert.Len(t, elems, 1)
}

func TestToProgram_DefaultsAndTrimming(t *testing.T) {
	p, err := toProgram([]byte(`{"name":"  MSc AI  ","university":"Edinburgh","country":"","description":null}`))
	require.NoError(t, err)

	assert.Equal(t, "MSc AI", p.Name)
	assert.Equal(t, "Edinburgh", p.University)
	assert.Nil(t, p.Country, "blank scalar becomes absent")
	assert.Nil(t, p.Description)
	assert.Nil(t, p.DegreeType)
	assert.Nil(t, p.Ranking)
	assert.Equal(t, []string{}, p.ResearchAreas)
	assert.Equal(t, []string{}, p.Professors)
	assert.Equal(t, []string{}, p.Tags)
	assert.Empty(t, p.ID)
	assert.Nil(t, p.AISummary)
}

func TestToProgram_RequiresNameAndUniversity(t *testing.T) {
	for _, raw := range []string{
		`{"university":"MIT"}`,
		`{"name":"PhD Physics"}`,
		`{"name":"  ","university":"MIT"}`,
		`{"name":42,"university":"MIT"}`,
	} {
		_, err := toProgram([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestToProgram_LenientLists(t *testing.T) {
	p, err := toProgram([]byte(`{
		"name":"PhD HCI","university":"CMU",
		"research_areas":"accessibility",
		"professors":["Dr. X", null, " ", "Dr. Y"],
		"tags":["hci", 2024, true]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"accessibility"}, p.ResearchAreas)
	assert.Equal(t, []string{"Dr. X", "Dr. Y"}, p.Professors)
	assert.Equal(t, []string{"hci", "2024", "true"}, p.Tags)
}

func TestToProgram_OddListItemsKeepProgram(t *testing.T) {
	p, err := toProgram([]byte(`{
		"name":"MSc A","university":"U1",
		"professors":[{"name":"Dr X","email":"x@u1.edu"},{"title":"no name"},["nested"],"Dr Y"],
		"tags":{"field":"ml"},
		"research_areas":7
	}`))
	require.NoError(t, err)

	assert.Equal(t, "MSc A", p.Name)
	assert.Equal(t, []string{"Dr X", "Dr Y"}, p.Professors)
	assert.Equal(t, []string{}, p.Tags)
	assert.Equal(t, []string{"7"}, p.ResearchAreas)
}

func TestToProgram_OddScalarsKeepProgram(t *testing.T) {
	p, err := toProgram([]byte(`{
		"name":"MSc B","university":"U2",
		"country":44,
		"degree_type":{"kind":"masters"},
		"description":true
	}`))
	require.NoError(t, err)

	assert.Equal(t, "MSc B", p.Name)
	require.NotNil(t, p.Country)
	assert.Equal(t, "44", *p.Country)
	assert.Nil(t, p.DegreeType)
	assert.Nil(t, p.Description)
}

func TestToProgram_Ranking(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{`5`, intPtr(5)},
		{`7.6`, intPtr(8)},
		{`"12"`, intPtr(12)},
		{`"#3"`, intPtr(3)},
		{`"top 10"`, nil},
		{`null`, nil},
		{`{"qs":4}`, nil},
		{`1`, intPtr(1)},
		{`100`, intPtr(100)},
		{`0`, nil},
		{`-7`, nil},
		{`101`, nil},
		{`1e300`, nil},
		{`"-3"`, nil},
		{`"NaN"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, err := toProgram([]byte(`{"name":"N","university":"U","ranking":` + tt.raw + `}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Ranking)
		})
	}
}

func intPtr(i int) *int { return &i }
