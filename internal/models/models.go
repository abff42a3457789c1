package models

import "time"

// ProductSeries is a named batch of cards packaged and finalized together.
type ProductSeries struct {
	ID          int64      `gorm:"primaryKey"`
	ProductID   int64      `gorm:"column:product_id"`
	SeriesNum   int        `gorm:"column:series_num"`
	PackDate    *time.Time `gorm:"column:pack_date"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	Finalized   bool       `gorm:"column:finalized"`
	FinalizedAt *time.Time `gorm:"column:finalized_at"`
}

// TableName overrides the default table name.
func (ProductSeries) TableName() string {
	return "product_series"
}

// SeriesCard is a single card within a series, with its raw and processed scans.
type SeriesCard struct {
	ID                   int64      `gorm:"primaryKey"`
	SeriesID             int64      `gorm:"column:series_id;index"`
	FrontImgURL          string     `gorm:"column:front_img_url"`
	BackImgURL           string     `gorm:"column:back_img_url"`
	ProcessedFrontImgURL string     `gorm:"column:processed_front_img_url"`
	ProcessedBackImgURL  string     `gorm:"column:processed_back_img_url"`
	FrontScanResults     string     `gorm:"column:front_scan_results;type:text"`
	BackScanResults      string     `gorm:"column:back_scan_results;type:text"`
	ProcessingStatusID   *int64     `gorm:"column:processing_status_id"`
	ProcessedAt          *time.Time `gorm:"column:processed_at"`
	ProductTierID        *int64     `gorm:"column:product_tier_id"`
}

// TableName overrides the default table name.
func (SeriesCard) TableName() string {
	return "series_cards"
}

// CardDetail holds the structured attributes extracted from a card's scans.
// SeriesCardID is unique: a card gets at most one detail record.
type CardDetail struct {
	ID                 int64   `gorm:"primaryKey"`
	SeriesCardID       int64   `gorm:"column:series_card_id;uniqueIndex"`
	PlayerID           int64   `gorm:"column:player_id"`
	TeamID             *int64  `gorm:"column:team_id"`
	ParallelType       string  `gorm:"column:parallel_type"`
	SerialNumber       string  `gorm:"column:serial_number"`
	CardCategoryTypeID int     `gorm:"column:card_category_type_id"`
	CardStatusID       int     `gorm:"column:card_status_id"`
	ProductTierID      *int64  `gorm:"column:product_tier_id"`
	CardYear           *int    `gorm:"column:card_year"`
	USDValueRange      string  `gorm:"column:usd_value_range"`
	Confidence         string  `gorm:"column:confidence;size:16"`
}

// TableName overrides the default table name.
func (CardDetail) TableName() string {
	return "card_details"
}

// Player is a reference entity deduplicated per card category.
type Player struct {
	ID                 int64  `gorm:"primaryKey"`
	FirstName          string `gorm:"column:first_name;uniqueIndex:uq_player_name_category"`
	LastName           string `gorm:"column:last_name;uniqueIndex:uq_player_name_category"`
	CardCategoryTypeID int    `gorm:"column:card_category_type_id;uniqueIndex:uq_player_name_category"`
}

// TableName overrides the default table name.
func (Player) TableName() string {
	return "players"
}

// FullName joins the player's first and last name.
func (p Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Team is a reference entity deduplicated per card category.
type Team struct {
	ID                 int64  `gorm:"primaryKey"`
	Name               string `gorm:"column:name;uniqueIndex:uq_team_name_category"`
	CardCategoryTypeID int    `gorm:"column:card_category_type_id;uniqueIndex:uq_team_name_category"`
}

// TableName overrides the default table name.
func (Team) TableName() string {
	return "teams"
}

// CardCategory maps a free-text category (sport) to its numeric id.
type CardCategory struct {
	ID       int    `gorm:"primaryKey"`
	Category string `gorm:"column:category;uniqueIndex"`
}

// TableName overrides the default table name.
func (CardCategory) TableName() string {
	return "card_categories"
}

// AiPrompt stores a versioned prompt for the vision model.
type AiPrompt struct {
	ID          int       `gorm:"primaryKey"`
	PromptKey   string    `gorm:"column:prompt_key;index"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description;type:text"`
	PromptText  string    `gorm:"column:prompt_text;type:text"`
	Version     int       `gorm:"column:version;default:1"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name.
func (AiPrompt) TableName() string {
	return "ai_prompts"
}

// CardProcessingStatus codes: pending, queued, processing, done, error.
type CardProcessingStatus struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"column:code;uniqueIndex;size:32"`
}

// TableName overrides the default table name.
func (CardProcessingStatus) TableName() string {
	return "card_processing_statuses"
}
