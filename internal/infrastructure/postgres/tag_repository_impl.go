package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
)

type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

func (r *TagRepository) FindOrCreate(ctx context.Context, title string) (*entity.Tag, error) {
	t := &entity.Tag{Title: title}
	// Upsert keeps concurrent creates of the same title race-free.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tags (title)
		VALUES ($1)
		ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
		RETURNING id
	`, title).Scan(&t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TagRepository) FindByTitle(ctx context.Context, title string) (*entity.Tag, error) {
	t := &entity.Tag{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title FROM tags WHERE title = $1`, title).Scan(&t.ID, &t.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TagRepository) All(ctx context.Context) ([]entity.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title FROM tags ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []entity.Tag
	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

var _ repository.TagRepository = (*TagRepository)(nil)
