package repository

import (
	"context"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
)

// TagRepository manages the shared tag catalog.
type TagRepository interface {
	// FindOrCreate returns the tag with the given title, creating it first
	// if it does not exist yet.
	FindOrCreate(ctx context.Context, title string) (*entity.Tag, error)
	FindByTitle(ctx context.Context, title string) (*entity.Tag, error)
	All(ctx context.Context) ([]entity.Tag, error)
}
