package store

import "time"

// Program is one graduate program suggested by the AI and persisted by a search.
type Program struct {
	ID            string    `json:"id"` // UUID, assigned on insert
	Name          string    `json:"name"`
	University    string    `json:"university"`
	Country       *string   `json:"country"`
	DegreeType    *string   `json:"degree_type"` // "masters" or "phd" in practice, not enforced
	Description   *string   `json:"description"`
	ResearchAreas []string  `json:"research_areas"`
	Professors    []string  `json:"professors"`
	Ranking       *int      `json:"ranking"`
	Tags          []string  `json:"tags"`
	AISummary     *string   `json:"ai_summary"` // Nil until a summary is generated
	CreatedAt     time.Time `json:"created_at"`
}

// normalize replaces nil list fields with empty ones so they serialize as [].
func (p *Program) normalize() {
	if p.ResearchAreas == nil {
		p.ResearchAreas = []string{}
	}
	if p.Professors == nil {
		p.Professors = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
