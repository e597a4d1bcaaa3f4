package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/center"
)

type centerRepository struct {
	db *centerTable
}

var _ center.Repository = (*centerRepository)(nil)

func NewCenterRepository(db *DB) center.Repository {
	return &centerRepository{db: db.center}
}

func (repo *centerRepository) CreateCenter(ctx context.Context, cen center.Center, exec ...core.DBExecutor) (center.Center, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if cen.ID == "" {
		cen.ID = uuid.New().String()
	}
	repo.db.table[cen.ID] = &cen
	return cen, nil
}

func (repo *centerRepository) QueryCenters(ctx context.Context, filter *center.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var centers []center.Center
	for _, cen := range repo.db.table {
		if filter != nil {
			if !matchesSearch(filter.Search, cen.Name, cen.Region) {
				continue
			}
			if filter.IsActive != nil && (cen.IsActive == nil || *cen.IsActive != *filter.IsActive) {
				continue
			}
		}
		centers = append(centers, *cen)
	}

	sort.Slice(centers, func(i, j int) bool { return centers[i].Name < centers[j].Name })
	sortStable(ordering, len(centers),
		func(i, j int) { centers[i], centers[j] = centers[j], centers[i] },
		map[string]func(i, j int) bool{
			"name":       func(i, j int) bool { return centers[i].Name < centers[j].Name },
			"created_at": func(i, j int) bool { return centers[i].CreatedAt.Before(centers[j].CreatedAt) },
		})
	return centers, nil
}

func (repo *centerRepository) GetCenter(ctx context.Context, id string, exec ...core.DBExecutor) (center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cen, ok := repo.db.table[id]; ok {
		return *cen, nil
	}
	return center.Center{}, center.ErrNotFound
}

func (repo *centerRepository) UpdateCenter(ctx context.Context, cen center.Center, exec ...core.DBExecutor) (center.Center, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cen.ID]; !ok {
		return center.Center{}, center.ErrNotFound
	}
	repo.db.table[cen.ID] = &cen
	return cen, nil
}
