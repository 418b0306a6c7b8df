package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseSuccess   PurchaseStatus = "success"
	PurchaseFailed    PurchaseStatus = "failed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseSuccess || s == PurchaseFailed || s == PurchaseCancelled
}

// Purchase is one payment attempt for one (user, skill) pair. A row starts
// pending and moves to exactly one terminal status. Verified implies success;
// the schema enforces it.
type Purchase struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID         `gorm:"type:uuid;not null;index:idx_purchases_user_skill" json:"user_id"`
	SkillID           uuid.UUID         `gorm:"type:uuid;not null;index:idx_purchases_user_skill" json:"skill_id"`
	Amount            int64             `gorm:"not null" json:"amount"` // paise
	Currency          string            `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	RazorpayOrderID   string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"razorpay_order_id"`
	RazorpayPaymentID *string           `gorm:"type:varchar(100);uniqueIndex" json:"razorpay_payment_id"`
	RazorpaySignature *string           `gorm:"type:varchar(128)" json:"razorpay_signature,omitempty"`
	Status            PurchaseStatus    `gorm:"type:varchar(20);not null;default:'pending';check:chk_purchases_status,status IN ('pending','success','failed','cancelled')" json:"status"`
	Verified          bool              `gorm:"not null;default:false;check:chk_purchases_verified_success,verified = false OR status = 'success'" json:"verified"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PurchasePending
	}
	return nil
}

// UserSkill is an enrollment. The composite key makes a second insert for the
// same pair fail instead of duplicating access.
type UserSkill struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	SkillID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"skill_id"`
	CreatedAt time.Time `json:"created_at"`
}
