package core

import (
	"context"
	"fmt"
	"strings"

	apperrors "gradfinder.dev/gradfinder/internal/errors"
	"gradfinder.dev/gradfinder/internal/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CatalogService serves stored programs to the listing and detail views.
type CatalogService struct {
	dbStore store.ProgramStore
}

func NewCatalogService(db store.ProgramStore) *CatalogService {
	return &CatalogService{dbStore: db}
}

func (s *CatalogService) Get(ctx context.Context, programID string) (*store.Program, error) {
	programID = strings.TrimSpace(programID)
	if programID == "" {
		return nil, apperrors.NewInvalidRequest("Program ID is required")
	}
	program, err := s.dbStore.GetProgramByID(ctx, programID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("load program %s: %w", programID, err))
	}
	if program == nil {
		return nil, apperrors.NewNotFound("Program")
	}
	return program, nil
}

// List returns the newest programs first. limit is clamped to
// [1, MaxPageSize] with 0 meaning DefaultPageSize.
func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]store.Program, error) {
	if offset < 0 {
		return nil, apperrors.NewInvalidRequest("offset must not be negative")
	}
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 0:
		return nil, apperrors.NewInvalidRequest("limit must not be negative")
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	programs, err := s.dbStore.ListPrograms(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("list programs: %w", err))
	}
	return programs, nil
}
