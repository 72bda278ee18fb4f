package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ErrHistoryDisabled is returned when no database is configured
var ErrHistoryDisabled = errors.New("generation history is not configured")

// HistoryRecorder stores generation records
type HistoryRecorder interface {
	Record(ctx context.Context, rec *models.GenerationRecord) error
}

// HistoryService reads and writes generation records with gorm
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Enabled reports whether a database is attached
func (s *HistoryService) Enabled() bool {
	return s != nil && s.db != nil
}

// Record inserts rec, assigning an ID when it has none
func (s *HistoryService) Record(ctx context.Context, rec *models.GenerationRecord) error {
	if !s.Enabled() {
		return ErrHistoryDisabled
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first
func (s *HistoryService) List(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	limit = ClampLimit(limit)

	var records []models.GenerationRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return records, nil
}

// ClampLimit maps a requested page size into [1, 100], defaulting to 20
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
