// internal/services/history.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tahcohcat/qwen-tts-web/internal/database"
	"github.com/tahcohcat/qwen-tts-web/internal/models"
)

const maxHistoryLimit = 200

type HistoryService struct {
	db *database.DB
}

func NewHistoryService(db *database.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record stores g, assigning an ID and timestamp when missing
func (s *HistoryService) Record(g *models.Generation) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generations (id, engine, voice, text_chars, outcome, filename, audio_url, audio_bytes,
			input_tokens, output_tokens, total_tokens, error_message, duration_ms, created_at)
		VALUES (:id, :engine, :voice, :text_chars, :outcome, :filename, :audio_url, :audio_bytes,
			:input_tokens, :output_tokens, :total_tokens, :error_message, :duration_ms, :created_at)
	`
	if _, err := s.db.NamedExec(query, g); err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// Recent returns up to limit generations, newest first
func (s *HistoryService) Recent(limit int) ([]models.Generation, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = 20
	}

	generations := []models.Generation{}
	query := `SELECT * FROM generations ORDER BY created_at DESC, rowid DESC LIMIT ?`
	if err := s.db.Select(&generations, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return generations, nil
}

// Stats summarises the stored history
type Stats struct {
	Total       int `json:"total" db:"total"`
	Succeeded   int `json:"succeeded" db:"succeeded"`
	TotalTokens int `json:"total_tokens" db:"total_tokens"`
}

func (s *HistoryService) Stats() (*Stats, error) {
	var stats Stats
	query := `
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN outcome IN ('inline', 'hosted') THEN 1 ELSE 0 END), 0) AS succeeded,
			COALESCE(SUM(total_tokens), 0) AS total_tokens
		FROM generations`
	if err := s.db.Get(&stats, query); err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}
	return &stats, nil
}
