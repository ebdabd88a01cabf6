package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a scraped marketplace listing used as article input.
type Product struct {
	ID                uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            *uint                       `gorm:"index" json:"user_id,omitempty"`
	ItemID            string                      `gorm:"type:varchar(64);index" json:"item_id"`
	Name              string                      `gorm:"type:varchar(500);not null" json:"name"`
	Price             float64                     `json:"price"`
	OriginalPrice     float64                     `json:"original_price"`
	Discount          string                      `gorm:"type:varchar(50)" json:"discount"`
	Rating            float64                     `json:"rating"`
	Sold              int                         `json:"sold"`
	ShopName          string                      `gorm:"type:varchar(255)" json:"shop_name"`
	Description       string                      `gorm:"type:text" json:"description"`
	ProductURL        string                      `gorm:"type:varchar(2048)" json:"product_url"`
	Images            datatypes.JSONSlice[string] `json:"images"`
	DescriptionImages datatypes.JSONSlice[string] `json:"description_images"`
	CreatedAt         time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// PromptTemplate is a writing-style template. A nil UserID marks a global
// template; builtin templates are seeded by the migrator.
type PromptTemplate struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsDefault bool      `gorm:"default:false;index" json:"is_default"`
	IsBuiltin bool      `gorm:"default:false" json:"is_builtin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UsageRecord aggregates token usage per provider, model, day and user.
// Anonymous usage is stored under user 0.
type UsageRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider     string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_usage_bucket" json:"provider"`
	Model        string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_usage_bucket" json:"model"`
	UsageDate    string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_usage_bucket;index" json:"usage_date"`
	UserID       uint      `gorm:"not null;default:0;uniqueIndex:uq_usage_bucket" json:"user_id"`
	Requests     int64     `gorm:"not null;default:0" json:"requests"`
	InputTokens  int64     `gorm:"not null;default:0" json:"input_tokens"`
	OutputTokens int64     `gorm:"not null;default:0" json:"output_tokens"`
	CostUSD      float64   `gorm:"not null;default:0" json:"cost_usd"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GenerationFailure keeps the diagnostic trail of an abandoned LLM request.
type GenerationFailure struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID string         `gorm:"type:varchar(36);index" json:"request_id"`
	Operation string         `gorm:"type:varchar(50);not null;index" json:"operation"`
	UserID    *uint          `gorm:"index" json:"user_id,omitempty"`
	Model     string         `gorm:"type:varchar(100)" json:"model"`
	Provider  string         `gorm:"type:varchar(50)" json:"provider"`
	Message   string         `gorm:"type:text" json:"message"`
	History   datatypes.JSON `json:"history"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Product{},
		&PromptTemplate{},
		&UsageRecord{},
		&GenerationFailure{},
	}
}
