// Package repo implements the data persistence layer for logged users and
// messages, backed by GORM. This file provides repository functions for the
// User model.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ghrenier/tg-chatlog/internal/domain"
)

// UpsertUser inserts the user row or refreshes its display fields when it
// already exists. Handles and names drift on Telegram, so every observed
// message rewrites them; CreatedAt keeps its original value.
func UpsertUser(ctx context.Context, db *gorm.DB, id int64, username, firstName, lastName string) (*domain.User, error) {
	u := &domain.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name"}),
		}).
		Create(u).Error
	return u, err
}

// GetUser fetches a user by platform id, returning ErrNotFound when the user
// has never been observed.
func GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
