package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ConflictError reports a unique-constraint violation surfaced at commit
// time. Field names the colliding attribute ("email" or "nickname").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already taken", e.Field)
}

// AccountRepository is the persistence port for accounts, including their
// tag and zone membership sets.
type AccountRepository interface {
	// Save inserts a new account and fills in ID/CreatedAt/UpdatedAt.
	// Returns *ConflictError when email or nickname is already taken.
	Save(ctx context.Context, a *entity.Account) error
	// Update persists all mutable columns of an existing account.
	Update(ctx context.Context, a *entity.Account) error

	FindByID(ctx context.Context, id string) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByNickname(ctx context.Context, nickname string) (*entity.Account, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Count(ctx context.Context) (int64, error)

	// Membership sets. Add is a no-op for an already-present item and
	// Remove for an absent one.
	AddTag(ctx context.Context, accountID, tagID string) error
	RemoveTag(ctx context.Context, accountID, tagID string) error
	ListTags(ctx context.Context, accountID string) ([]entity.Tag, error)
	AddZone(ctx context.Context, accountID, zoneID string) error
	RemoveZone(ctx context.Context, accountID, zoneID string) error
	ListZones(ctx context.Context, accountID string) ([]entity.Zone, error)
}
