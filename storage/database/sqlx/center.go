package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/center"
)

type centerRepository struct {
	db *sqlx.DB
}

var _ center.Repository = (*centerRepository)(nil)

func NewCenterRepository(db *sqlx.DB) center.Repository {
	return &centerRepository{db: db}
}

type centerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Region    string    `db:"region"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row centerRow) center() center.Center {
	return center.Center{
		ID:        row.ID,
		Name:      row.Name,
		Region:    row.Region,
		IsActive:  boolPtr(row.IsActive),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

const selectCenter = `SELECT id, name, region, is_active, created_at, updated_at FROM center`

func (repo centerRepository) CreateCenter(ctx context.Context, cen center.Center, exec ...core.DBExecutor) (center.Center, error) {
	ext := getExec(repo.db, exec)

	if cen.ID == "" {
		cen.ID = uuid.New().String()
	}
	q := ext.Rebind(`INSERT INTO center (id, name, region, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := ext.ExecContext(ctx, q, cen.ID, cen.Name, cen.Region, boolVal(cen.IsActive), cen.CreatedAt, cen.UpdatedAt)
	if err != nil {
		return center.Center{}, errors.Wrap(err, "inserting center")
	}
	return cen, nil
}

func (repo centerRepository) QueryCenters(ctx context.Context, filter *center.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]center.Center, error) {
	ext := getExec(repo.db, exec)

	q := selectCenter
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(name ILIKE ? OR region ILIKE ?)`)
			search := "%" + filter.Search + "%"
			args = append(args, search, search)
		}
		if filter.IsActive != nil {
			conds = append(conds, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
	}
	q += where(conds)
	q += orderBy(ordering, core.DBOrdering{Field: "name", Ascending: true})

	var rows []centerRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying centers")
	}
	centers := make([]center.Center, 0, len(rows))
	for _, row := range rows {
		centers = append(centers, row.center())
	}
	return centers, nil
}

func (repo centerRepository) GetCenter(ctx context.Context, id string, exec ...core.DBExecutor) (center.Center, error) {
	ext := getExec(repo.db, exec)

	var row centerRow
	if err := sqlx.GetContext(ctx, ext, &row, ext.Rebind(selectCenter+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return center.Center{}, center.ErrNotFound
		}
		return center.Center{}, errors.Wrap(err, "getting center")
	}
	return row.center(), nil
}

func (repo centerRepository) UpdateCenter(ctx context.Context, cen center.Center, exec ...core.DBExecutor) (center.Center, error) {
	ext := getExec(repo.db, exec)

	q := ext.Rebind(`UPDATE center SET name = ?, region = ?, is_active = ?, updated_at = ? WHERE id = ?`)
	res, err := ext.ExecContext(ctx, q, cen.Name, cen.Region, boolVal(cen.IsActive), cen.UpdatedAt, cen.ID)
	if err != nil {
		return center.Center{}, errors.Wrap(err, "updating center")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return center.Center{}, center.ErrNotFound
	}
	return cen, nil
}
