package vision

import (
	"context"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// PromptRepository is the subset of the prompt repository the store needs.
type PromptRepository interface {
	FindActivePrompt(ctx context.Context, promptKey string) (*models.AiPrompt, error)
}

// DBPromptStore loads prompt text from the ai_prompts table.
type DBPromptStore struct {
	repo PromptRepository
}

// NewDBPromptStore constructs a database-backed prompt store.
func NewDBPromptStore(repo PromptRepository) *DBPromptStore {
	return &DBPromptStore{repo: repo}
}

// Load returns the text of the active prompt with the highest version.
func (s *DBPromptStore) Load(ctx context.Context, promptKey string) (string, error) {
	prompt, err := s.repo.FindActivePrompt(ctx, promptKey)
	if err != nil {
		return "", err
	}
	return prompt.PromptText, nil
}
