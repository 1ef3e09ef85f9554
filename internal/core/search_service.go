package core

import (
	"context"
	"fmt"
	"strings"

	apperrors "gradfinder.dev/gradfinder/internal/errors"
	"gradfinder.dev/gradfinder/internal/llm"
	"gradfinder.dev/gradfinder/internal/logger"
	"gradfinder.dev/gradfinder/internal/store"
)

type SearchService struct {
	dbStore store.ProgramStore
	llm     llm.Completer
	log     *logger.Logger
}

func NewSearchService(db store.ProgramStore, completer llm.Completer, log *logger.Logger) *SearchService {
	return &SearchService{
		dbStore: db,
		llm:     completer,
		log:     log.With("service", "SearchService"),
	}
}

// SearchResult holds the programs stored by one search. Degraded is set when
// the AI reply contained no usable JSON array, so an empty Programs list
// can be told apart from "the AI suggested nothing".
type SearchResult struct {
	Programs []store.Program `json:"programs"`
	Degraded bool            `json:"degraded"`
}

// Search asks the AI for programs matching query, stores every valid
// suggestion as a new row and returns the stored rows. Rows are inserted one
// by one; a failed insert is logged and skipped and earlier inserts stay.
func (s *SearchService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewInvalidRequest("Query is required")
	}
	if !s.llm.Configured() {
		s.log.Error("AI API key not configured")
		return nil, apperrors.NewConfiguration(fmt.Errorf("AI API key is not set"))
	}

	s.log.Info("Searching for programs", "query", query)
	reply, err := s.llm.Complete(ctx, searchMessages(query))
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	s.log.Debug("AI response", "content", reply)

	result := &SearchResult{Programs: []store.Program{}}

	elems, ok := extractCandidates(reply)
	if !ok {
		s.log.Warn("Failed to parse AI response as a JSON array, returning no programs", "reply_length", len(reply))
		result.Degraded = true
		return result, nil
	}

	for i, raw := range elems {
		program, err := toProgram(raw)
		if err != nil {
			s.log.Warn("Skipping invalid program from AI response", "index", i, "error", err)
			continue
		}
		if err := s.dbStore.CreateProgram(ctx, program); err != nil {
			s.log.Error("Error storing program", "index", i, "name", program.Name, "error", err)
			continue
		}
		result.Programs = append(result.Programs, *program)
	}

	s.log.Info("Stored programs", "stored", len(result.Programs), "suggested", len(elems))
	return result, nil
}
