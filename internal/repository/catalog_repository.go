package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// CatalogRepository provides persistence APIs for the reference entities a card
// detail links to: players, teams, categories, and the detail records themselves.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCategoryID resolves a free-text category to its numeric id, case-insensitively.
func (r *CatalogRepository) FindCategoryID(ctx context.Context, category string) (int, error) {
	var cat models.CardCategory
	err := r.db.WithContext(ctx).
		Where("LOWER(category) = LOWER(?)", category).
		First(&cat).Error
	if err != nil {
		return 0, translateNotFound(err)
	}
	return cat.ID, nil
}

// DetailExists reports whether a card already has an extracted detail record.
func (r *CatalogRepository) DetailExists(ctx context.Context, seriesCardID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CardDetail{}).
		Where("series_card_id = ?", seriesCardID).
		Count(&count).Error
	return count > 0, err
}

// SaveDetail persists a new card detail record.
func (r *CatalogRepository) SaveDetail(ctx context.Context, detail *models.CardDetail) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

// GetOrCreatePlayer finds a player by (first, last, category) or creates one.
// A concurrent insert racing this call is recovered by looking up again.
func (r *CatalogRepository) GetOrCreatePlayer(ctx context.Context, firstName, lastName string, categoryID int) (*models.Player, error) {
	lookup := func() (*models.Player, error) {
		var player models.Player
		err := r.db.WithContext(ctx).
			Where("first_name = ? AND last_name = ? AND card_category_type_id = ?",
				firstName, lastName, categoryID).
			First(&player).Error
		if err != nil {
			return nil, err
		}
		return &player, nil
	}

	player, err := lookup()
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Player{FirstName: firstName, LastName: lastName, CardCategoryTypeID: categoryID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		if IsUniqueViolation(err) {
			return lookup()
		}
		return nil, err
	}
	return created, nil
}

// GetOrCreateTeam finds a team by (name, category) or creates one, with the same
// conflict recovery as GetOrCreatePlayer.
func (r *CatalogRepository) GetOrCreateTeam(ctx context.Context, name string, categoryID int) (*models.Team, error) {
	lookup := func() (*models.Team, error) {
		var team models.Team
		err := r.db.WithContext(ctx).
			Where("name = ? AND card_category_type_id = ?", name, categoryID).
			First(&team).Error
		if err != nil {
			return nil, err
		}
		return &team, nil
	}

	team, err := lookup()
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Team{Name: name, CardCategoryTypeID: categoryID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		if IsUniqueViolation(err) {
			return lookup()
		}
		return nil, err
	}
	return created, nil
}
