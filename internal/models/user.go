package models

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Model
	Username string
	// argon2id hash of the user's API token
	Token  string
	Active datatypes.Null[bool]
	Admin  bool
}

func (User) TableName() string {
	return "users"
}

func (u User) GetID() uuid.UUID {
	return u.ID
}

// ByUsername returns every user carrying `username`. Usernames are expected
// to be unique but the schema does not enforce it; callers decide what a
// collision means.
func ByUsername(ctx context.Context, db *gorm.DB, username string) ([]User, error) {
	ctx, span := tracer.Start(ctx, "ByUsername")
	defer span.End()

	db = db.WithContext(ctx)

	var users []User
	err := db.Where("username = ?", username).Find(&users).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query users by username")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(users)))
	return users, nil
}

// ScrambleUsernames rewrites each user's username to a fresh random token so
// the accounts stop colliding. Each user gets a distinct value.
func ScrambleUsernames(ctx context.Context, db *gorm.DB, users []User) error {
	ctx, span := tracer.Start(ctx, "ScrambleUsernames")
	defer span.End()

	db = db.WithContext(ctx)

	for i := range users {
		buf := make([]byte, 20)
		if _, err := rand.Read(buf); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to generate replacement username")
			return fmt.Errorf("failed to generate replacement username: %w", err)
		}

		scrambled := hex.EncodeToString(buf)

		err := db.Model(&User{}).
			Where("id = ?", users[i].ID).
			Update("username", scrambled).
			Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to rewrite username")
			return err
		}

		span.AddEvent("rewrote username", trace.WithAttributes(
			attribute.String("user.id", users[i].ID.String()),
		))
	}

	span.SetStatus(codes.Ok, "rewrote usernames")
	return nil
}
