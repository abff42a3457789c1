package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// PromptRepository loads AI prompts from the database.
type PromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a new repository instance.
func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// FindActivePrompt returns the active prompt with the highest version for a key.
func (r *PromptRepository) FindActivePrompt(ctx context.Context, promptKey string) (*models.AiPrompt, error) {
	var prompt models.AiPrompt
	err := r.db.WithContext(ctx).
		Where("prompt_key = ? AND is_active = ?", promptKey, true).
		Order("version DESC").
		First(&prompt).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &prompt, nil
}
