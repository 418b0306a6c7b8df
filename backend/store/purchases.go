package store

import (
	"context"
	"fmt"

	"skillhub/backend/apperr"
	"skillhub/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsertEnrollment creates the (user, skill) membership row. A second insert
// for the same pair fails with a conflict.
func (s *Store) InsertEnrollment(ctx context.Context, userID, skillID uuid.UUID) error {
	row := models.UserSkill{UserID: userID, SkillID: skillID}
	return translate(s.conn(ctx).Create(&row).Error, "enrollment")
}

func (s *Store) HasEnrollment(ctx context.Context, userID, skillID uuid.UUID) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.UserSkill{}).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Count(&count).Error; err != nil {
		return false, translate(err, "enrollment")
	}
	return count > 0, nil
}

func (s *Store) ListEnrolledSkills(ctx context.Context, userID uuid.UUID) ([]models.Skill, error) {
	var skills []models.Skill
	if err := s.conn(ctx).
		Joins("JOIN user_skills ON user_skills.skill_id = skills.id").
		Where("user_skills.user_id = ?", userID).
		Order("user_skills.created_at ASC").
		Find(&skills).Error; err != nil {
		return nil, translate(err, "enrollments")
	}
	return skills, nil
}

func (s *Store) InsertPurchase(ctx context.Context, p *models.Purchase) error {
	p.Status = models.PurchasePending
	p.Verified = false
	return translate(s.conn(ctx).Create(p).Error, "purchase")
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "purchase")
	}
	return &p, nil
}

func (s *Store) GetPurchaseByOrderID(ctx context.Context, orderID string) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.conn(ctx).Where("razorpay_order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, translate(err, "purchase")
	}
	return &p, nil
}

// AttachPayment records the widget's payment id and signature on a pending
// purchase. The status stays pending until verification decides. A purchase
// accepts one payment id; repeating the same one is a no-op.
func (s *Store) AttachPayment(ctx context.Context, id uuid.UUID, paymentID, signature string) error {
	res := s.conn(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, string(models.PurchasePending)).
		Where("(razorpay_payment_id IS NULL OR razorpay_payment_id = ?)", paymentID).
		Updates(map[string]interface{}{
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
		})
	if res.Error != nil {
		return translate(res.Error, "purchase")
	}
	if res.RowsAffected == 0 {
		return s.notPending(ctx, id)
	}
	return nil
}

// FinishPurchase moves a pending purchase to failed or cancelled. Success is
// reserved for MarkPurchaseVerified.
func (s *Store) FinishPurchase(ctx context.Context, id uuid.UUID, status models.PurchaseStatus) error {
	if status != models.PurchaseFailed && status != models.PurchaseCancelled {
		return apperr.Validation("purchase cannot be finished as %q", status)
	}
	res := s.conn(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, string(models.PurchasePending)).
		Updates(map[string]interface{}{
			"status":   string(status),
			"verified": false,
		})
	if res.Error != nil {
		return translate(res.Error, "purchase")
	}
	if res.RowsAffected == 0 {
		return s.notPending(ctx, id)
	}
	return nil
}

// VerifiedPayment identifies the purchase a verified gateway payment settles.
type VerifiedPayment struct {
	OrderID    string
	PaymentID  string
	Signature  string
	UserID     uuid.UUID
	SkillID    uuid.UUID
	PurchaseID *uuid.UUID
}

// MarkPurchaseVerified is the single writer of the success transition. It
// settles the pending purchase for the order, or returns the row unchanged if
// it already holds this payment as success+verified.
func (s *Store) MarkPurchaseVerified(ctx context.Context, vp VerifiedPayment) (*models.Purchase, error) {
	p, err := s.GetPurchaseByOrderID(ctx, vp.OrderID)
	if err != nil {
		return nil, err
	}
	if vp.PurchaseID != nil && *vp.PurchaseID != p.ID {
		return nil, apperr.Validation("purchase does not match order %s", vp.OrderID)
	}
	if (vp.UserID != uuid.Nil && vp.UserID != p.UserID) || (vp.SkillID != uuid.Nil && vp.SkillID != p.SkillID) {
		return nil, apperr.Validation("order %s belongs to a different user or skill", vp.OrderID)
	}

	var settled *models.Purchase
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", p.ID, string(models.PurchasePending)).
			Updates(map[string]interface{}{
				"razorpay_payment_id": vp.PaymentID,
				"razorpay_signature":  vp.Signature,
				"status":              string(models.PurchaseSuccess),
				"verified":            true,
			})
		if res.Error != nil {
			return translate(res.Error, "purchase")
		}

		var row models.Purchase
		if err := tx.Where("id = ?", p.ID).First(&row).Error; err != nil {
			return translate(err, "purchase")
		}
		if res.RowsAffected == 0 && !sameVerifiedPayment(&row, vp.PaymentID) {
			return apperr.Conflict(fmt.Errorf("purchase for order %s is already %s", vp.OrderID, row.Status))
		}
		settled = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func sameVerifiedPayment(p *models.Purchase, paymentID string) bool {
	return p.Status == models.PurchaseSuccess && p.Verified &&
		p.RazorpayPaymentID != nil && *p.RazorpayPaymentID == paymentID
}

func (s *Store) HasVerifiedPurchase(ctx context.Context, userID, skillID uuid.UUID) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND skill_id = ? AND status = ? AND verified = ?",
			userID, skillID, string(models.PurchaseSuccess), true).
		Count(&count).Error; err != nil {
		return false, translate(err, "purchase")
	}
	return count > 0, nil
}

// ListUnenrolledVerifiedPurchases finds settled purchases whose enrollment
// insert never landed.
func (s *Store) ListUnenrolledVerifiedPurchases(ctx context.Context, limit int) ([]models.Purchase, error) {
	var rows []models.Purchase
	q := s.conn(ctx).
		Where("status = ? AND verified = ?", string(models.PurchaseSuccess), true).
		Where("NOT EXISTS (SELECT 1 FROM user_skills WHERE user_skills.user_id = purchases.user_id AND user_skills.skill_id = purchases.skill_id)").
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "purchases")
	}
	return rows, nil
}

func (s *Store) ListPurchases(ctx context.Context, userID, skillID uuid.UUID) ([]models.Purchase, error) {
	var rows []models.Purchase
	if err := s.conn(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "purchases")
	}
	return rows, nil
}

func (s *Store) notPending(ctx context.Context, id uuid.UUID) error {
	p, err := s.GetPurchase(ctx, id)
	if err != nil {
		return err
	}
	if !p.Status.Terminal() {
		s.log.Warn("second payment refused on pending purchase", "purchase_id", id)
		return apperr.Conflict(fmt.Errorf("purchase %s already has a different payment", id))
	}
	s.log.Warn("transition refused on settled purchase", "purchase_id", id, "status", p.Status)
	return apperr.Conflict(fmt.Errorf("purchase %s is already %s", id, p.Status))
}
