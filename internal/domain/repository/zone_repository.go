package repository

import (
	"context"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
)

// ZoneRepository reads the fixed zone catalog. Zones are seeded by
// migration and never created through the API.
type ZoneRepository interface {
	FindByCityAndProvince(ctx context.Context, city, province string) (*entity.Zone, error)
	All(ctx context.Context) ([]entity.Zone, error)
}
