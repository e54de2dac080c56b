package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
)

// memAccountRepo is an in-memory AccountRepository that enforces the same
// uniqueness rules as the postgres implementation.
type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account   // by id
	tags     map[string]map[string]bool   // account id -> tag ids
	zones    map[string]map[string]bool   // account id -> zone ids
	catalog  map[string]entity.Tag        // tag id -> tag
	zoneCat  map[string]entity.Zone       // zone id -> zone
	saveErr  error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{
		accounts: map[string]*entity.Account{},
		tags:     map[string]map[string]bool{},
		zones:    map[string]map[string]bool{},
		catalog:  map[string]entity.Tag{},
		zoneCat:  map[string]entity.Zone{},
	}
}

func clone(a *entity.Account) *entity.Account {
	cp := *a
	if a.JoinedAt != nil {
		t := *a.JoinedAt
		cp.JoinedAt = &t
	}
	return &cp
}

func (r *memAccountRepo) Save(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, cur := range r.accounts {
		if cur.Email == a.Email {
			return &repository.ConflictError{Field: "email"}
		}
		if cur.Nickname == a.Nickname {
			return &repository.ConflictError{Field: "nickname"}
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *memAccountRepo) Update(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, cur := range r.accounts {
		if id == a.ID {
			continue
		}
		if cur.Email == a.Email {
			return &repository.ConflictError{Field: "email"}
		}
		if cur.Nickname == a.Nickname {
			return &repository.ConflictError{Field: "nickname"}
		}
	}
	a.UpdatedAt = time.Now()
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *memAccountRepo) FindByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memAccountRepo) FindByNickname(_ context.Context, nickname string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Nickname == nickname {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memAccountRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	_, err := r.FindByNickname(ctx, nickname)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memAccountRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

func (r *memAccountRepo) AddTag(_ context.Context, accountID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tags[accountID] == nil {
		r.tags[accountID] = map[string]bool{}
	}
	r.tags[accountID][tagID] = true
	return nil
}

func (r *memAccountRepo) RemoveTag(_ context.Context, accountID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags[accountID], tagID)
	return nil
}

func (r *memAccountRepo) ListTags(_ context.Context, accountID string) ([]entity.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Tag
	for id := range r.tags[accountID] {
		out = append(out, r.catalog[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memAccountRepo) AddZone(_ context.Context, accountID, zoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.zones[accountID] == nil {
		r.zones[accountID] = map[string]bool{}
	}
	r.zones[accountID][zoneID] = true
	return nil
}

func (r *memAccountRepo) RemoveZone(_ context.Context, accountID, zoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.zones[accountID], zoneID)
	return nil
}

func (r *memAccountRepo) ListZones(_ context.Context, accountID string) ([]entity.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Zone
	for id := range r.zones[accountID] {
		out = append(out, r.zoneCat[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out, nil
}

// memTagRepo backs TagRepository with the same catalog map the account repo
// resolves tag ids against.
type memTagRepo struct {
	accounts *memAccountRepo
}

func (r *memTagRepo) FindOrCreate(_ context.Context, title string) (*entity.Tag, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	for _, t := range r.accounts.catalog {
		if t.Title == title {
			cp := t
			return &cp, nil
		}
	}
	t := entity.Tag{ID: uuid.NewString(), Title: title}
	r.accounts.catalog[t.ID] = t
	return &t, nil
}

func (r *memTagRepo) FindByTitle(_ context.Context, title string) (*entity.Tag, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	for _, t := range r.accounts.catalog {
		if t.Title == title {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTagRepo) All(_ context.Context) ([]entity.Tag, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	var out []entity.Tag
	for _, t := range r.accounts.catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type memZoneRepo struct {
	accounts *memAccountRepo
}

func (r *memZoneRepo) seed(zones ...entity.Zone) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	for _, z := range zones {
		if z.ID == "" {
			z.ID = uuid.NewString()
		}
		r.accounts.zoneCat[z.ID] = z
	}
}

func (r *memZoneRepo) FindByCityAndProvince(_ context.Context, city, province string) (*entity.Zone, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	for _, z := range r.accounts.zoneCat {
		if z.City == city && z.Province == province {
			cp := z
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memZoneRepo) All(_ context.Context) ([]entity.Zone, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()
	var out []entity.Zone
	for _, z := range r.accounts.zoneCat {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out, nil
}

// capturePublisher records published mail jobs.
type capturePublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}
