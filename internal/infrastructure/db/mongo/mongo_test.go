package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/andamios/andamios-api/internal/core/domain"
)

func TestMongoUser_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	u := mongoUser{
		ID:           oid,
		Name:         "Ada",
		Email:        "Ada@Example.com",
		EmailLower:   "ada@example.com",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    created,
		UpdatedAt:    created,
	}.toDomain()

	assert.Equal(t, oid.Hex(), u.ID)
	assert.Equal(t, "Ada@Example.com", u.Email)
	assert.Equal(t, "$2a$04$hash", u.PasswordHash)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.True(t, created.Equal(u.CreatedAt))
}

func TestRepositories_MalformedIDIsNotFound(t *testing.T) {
	// A nil collection is never reached: the id is rejected first.
	users := &UserRepository{}
	items := &ItemRepository{}
	ctx := context.Background()

	for _, id := range []string{"", "42", "not-an-object-id"} {
		_, err := users.FindByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrUserNotFound, id)
		assert.ErrorIs(t, users.Delete(ctx, id), domain.ErrUserNotFound, id)

		_, err = items.FindByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrItemNotFound, id)
		assert.ErrorIs(t, items.Delete(ctx, id), domain.ErrItemNotFound, id)
	}
}
