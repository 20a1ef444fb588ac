package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BonusType string

const (
	BonusWelcome   BonusType = "welcome"
	BonusReload    BonusType = "reload"
	BonusCashback  BonusType = "cashback"
	BonusFreeSpins BonusType = "freespins"
	BonusVIP       BonusType = "vip"
)

type Audience string

const (
	AudienceAll Audience = "all"
	AudienceNew Audience = "new"
	AudienceVIP Audience = "vip"
)

// Bonus is a promotional campaign.
type Bonus struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        BonusType       `json:"type"`
	Percentage  decimal.Decimal `json:"percentage"`
	MaxAmount   decimal.Decimal `json:"maxAmount"`
	MinDeposit  decimal.Decimal `json:"minDeposit"`
	Wagering    decimal.Decimal `json:"wageringRequirement"`
	ValidFrom   time.Time       `json:"validFrom"`
	ValidUntil  time.Time       `json:"validUntil"`
	Audience    Audience        `json:"targetAudience"`
	Active      bool            `json:"isActive"`
}

// VIPLevel is one loyalty tier. Tier assignment happens server-side.
type VIPLevel struct {
	Level           int             `json:"level"`
	Name            string          `json:"name"`
	MinPoints       int64           `json:"minPoints"`
	CashbackPercent decimal.Decimal `json:"cashbackPercent"`
	WithdrawalLimit decimal.Decimal `json:"withdrawalLimit"`
	BonusMultiplier decimal.Decimal `json:"bonusMultiplier"`
}

// ContentItem is a CMS entry (banner, promo page, news) managed from the admin section.
type ContentItem struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updatedAt"`
}
