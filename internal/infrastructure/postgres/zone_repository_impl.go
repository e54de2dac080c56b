package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
)

type ZoneRepository struct {
	pool *pgxpool.Pool
}

func NewZoneRepository(pool *pgxpool.Pool) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

func (r *ZoneRepository) FindByCityAndProvince(ctx context.Context, city, province string) (*entity.Zone, error) {
	z := &entity.Zone{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, city, local_name, province
		FROM zones
		WHERE city = $1 AND province = $2
	`, city, province).Scan(&z.ID, &z.City, &z.LocalName, &z.Province)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return z, nil
}

func (r *ZoneRepository) All(ctx context.Context) ([]entity.Zone, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, city, local_name, province FROM zones ORDER BY city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []entity.Zone
	for rows.Next() {
		var z entity.Zone
		if err := rows.Scan(&z.ID, &z.City, &z.LocalName, &z.Province); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

var _ repository.ZoneRepository = (*ZoneRepository)(nil)
