package center

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
)

var ErrNotFound = errors.New("center not found")

type (
	Repository interface {
		CreateCenter(ctx context.Context, cen Center, exec ...core.DBExecutor) (Center, error)
		QueryCenters(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Center, error)
		GetCenter(ctx context.Context, id string, exec ...core.DBExecutor) (Center, error)
		UpdateCenter(ctx context.Context, cen Center, exec ...core.DBExecutor) (Center, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCenter) (Center, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Center, error)
		GetByID(ctx context.Context, id string) (Center, error)
		Update(ctx context.Context, id string, uc UpdateCenter) (Center, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc service) Create(ctx context.Context, nc NewCenter) (Center, error) {
	now := time.Now().UTC()
	isActive := true
	cen := Center{
		Name:      nc.Name,
		Region:    nc.Region,
		IsActive:  &isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cen, err := svc.repo.CreateCenter(ctx, cen)
	return cen, errors.Wrap(err, "creating center")
}

func (svc service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Center, error) {
	return svc.repo.QueryCenters(ctx, filter, ordering)
}

func (svc service) GetByID(ctx context.Context, id string) (Center, error) {
	return svc.repo.GetCenter(ctx, id)
}

func (svc service) Update(ctx context.Context, id string, uc UpdateCenter) (Center, error) {
	cen, err := svc.repo.GetCenter(ctx, id)
	if err != nil {
		return Center{}, err
	}

	cen.Name = uc.Name
	cen.Region = uc.Region
	if uc.IsActive != nil {
		cen.IsActive = uc.IsActive
	}
	cen.UpdatedAt = time.Now().UTC()

	cen, err = svc.repo.UpdateCenter(ctx, cen)
	return cen, errors.Wrap(err, "updating center")
}
