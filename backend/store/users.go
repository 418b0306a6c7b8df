package store

import (
	"context"
	"errors"

	"skillhub/backend/apperr"
	"skillhub/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUser inserts the identity row and its profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, user *models.User, username string) (*models.Profile, error) {
	profile := &models.Profile{Username: username, Email: user.Email}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "user")
		}
		profile.ID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return translate(err, "profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.conn(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err, "profile")
	}
	return &profile, nil
}

// GetUserForm returns the learner's onboarding form, or nil when none exists.
func (s *Store) GetUserForm(ctx context.Context, userID uuid.UUID) (*models.UserForm, error) {
	var forms []models.UserForm
	if err := s.conn(ctx).Where("user_id = ?", userID).Limit(1).Find(&forms).Error; err != nil {
		return nil, translate(err, "user form")
	}
	if len(forms) == 0 {
		return nil, nil
	}
	return &forms[0], nil
}

func (s *Store) CreateUserForm(ctx context.Context, form *models.UserForm) error {
	if err := s.conn(ctx).Create(form).Error; err != nil {
		err = translate(err, "user form")
		if apperr.Is(err, apperr.CodeConflict) {
			return apperr.Conflict(errors.New("onboarding form already submitted"))
		}
		return err
	}
	return nil
}
