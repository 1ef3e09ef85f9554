package core

import (
	"fmt"
	"strings"

	"gradfinder.dev/gradfinder/internal/llm"
	"gradfinder.dev/gradfinder/internal/store"
)

const (
	searchSystemInstruction = "You are an expert academic advisor helping students find graduate programs. " +
		"Research and provide detailed information about universities, master's and PhD programs. " +
		"For each program, include: university name, country, program name, description, research areas, notable professors, and any relevant details. " +
		"Format your response as a JSON array of programs with these fields: name, university, country, " +
		"degree_type (masters or phd), description, research_areas (array), professors (array), ranking (1-100 if known), tags (array)."

	summarySystemInstruction = "You are an expert academic advisor. Generate a concise, insightful summary for graduate programs " +
		"that highlights key strengths, research opportunities, and what makes the program unique."
)

func searchMessages(query string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: searchSystemInstruction},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Find the best graduate programs for: %s. Provide 5-10 relevant programs with detailed information.", query)},
	}
}

func summaryMessages(p *store.Program) []llm.Message {
	var b strings.Builder
	b.WriteString("Generate a compelling summary for this graduate program:\n\n")
	fmt.Fprintf(&b, "Program: %s\n", p.Name)
	fmt.Fprintf(&b, "University: %s\n", p.University)
	fmt.Fprintf(&b, "Country: %s\n", deref(p.Country))
	fmt.Fprintf(&b, "Degree: %s\n", deref(p.DegreeType))
	fmt.Fprintf(&b, "Description: %s\n", deref(p.Description))
	fmt.Fprintf(&b, "Research Areas: %s\n", strings.Join(p.ResearchAreas, ", "))
	fmt.Fprintf(&b, "Professors: %s\n", strings.Join(p.Professors, ", "))
	fmt.Fprintf(&b, "Tags: %s", strings.Join(p.Tags, ", "))

	return []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemInstruction},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
