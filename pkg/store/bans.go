package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shopbot/pkg/models"
)

func (s *Store) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.BannedUser{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, &Error{Op: "select", Table: "banned_users", Err: err}
	}
	return count > 0, nil
}

func (s *Store) BanUser(ctx context.Context, userID int64, reason string) error {
	ban := models.BannedUser{
		UserID:   userID,
		BannedAt: time.Now(),
		Reason:   reason,
	}
	// Re-banning an already banned user just refreshes the row.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"banned_at", "reason"}),
		}).
		Create(&ban).Error
	if err != nil {
		return &Error{Op: "insert", Table: "banned_users", Err: err}
	}
	return nil
}

func (s *Store) UnbanUser(ctx context.Context, userID int64) error {
	res := s.db.WithContext(ctx).Delete(&models.BannedUser{}, "user_id = ?", userID)
	if res.Error != nil {
		return &Error{Op: "delete", Table: "banned_users", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetBan(ctx context.Context, userID int64) (*models.BannedUser, error) {
	var ban models.BannedUser
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&ban).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "select", Table: "banned_users", Err: err}
	}
	return &ban, nil
}
