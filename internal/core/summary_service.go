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

type SummaryService struct {
	dbStore store.ProgramStore
	llm     llm.Completer
	log     *logger.Logger
}

func NewSummaryService(db store.ProgramStore, completer llm.Completer, log *logger.Logger) *SummaryService {
	return &SummaryService{
		dbStore: db,
		llm:     completer,
		log:     log.With("service", "SummaryService"),
	}
}

type SummaryResult struct {
	Summary string         `json:"summary"`
	Program *store.Program `json:"program"`
}

// Generate asks the AI for a narrative summary of a stored program and writes
// it onto the row. Every call regenerates and overwrites; concurrent calls on
// the same program race and the last write wins.
func (s *SummaryService) Generate(ctx context.Context, programID string) (*SummaryResult, error) {
	programID = strings.TrimSpace(programID)
	if programID == "" {
		return nil, apperrors.NewInvalidRequest("Program ID is required")
	}
	if !s.llm.Configured() {
		s.log.Error("AI API key not configured")
		return nil, apperrors.NewConfiguration(fmt.Errorf("AI API key is not set"))
	}

	s.log.Info("Generating summary for program", "program_id", programID)
	program, err := s.dbStore.GetProgramByID(ctx, programID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("load program %s: %w", programID, err))
	}
	if program == nil {
		return nil, apperrors.NewNotFound("Program")
	}

	summary, err := s.llm.Complete(ctx, summaryMessages(program))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	s.log.Debug("Generated summary", "program_id", programID, "length", len(summary))

	updated, err := s.dbStore.UpdateProgramSummary(ctx, programID, summary)
	if err != nil {
		s.log.Error("Error updating program", "program_id", programID, "error", err)
		return nil, apperrors.NewSaveFailed(err)
	}

	return &SummaryResult{Summary: summary, Program: updated}, nil
}
