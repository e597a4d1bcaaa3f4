package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/form"
)

type formRepository struct {
	db *sqlx.DB
}

var _ form.Repository = (*formRepository)(nil)

func NewFormRepository(db *sqlx.DB) form.Repository {
	return &formRepository{db: db}
}

type formRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Type      string    `db:"form_type"`
	IsActive  bool      `db:"is_active"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row formRow) form() form.Form {
	return form.Form{
		ID:        row.ID,
		Title:     row.Title,
		Type:      row.Type,
		IsActive:  boolPtr(row.IsActive),
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type criterionRow struct {
	ID          string  `db:"id"`
	FormID      string  `db:"form_id"`
	FormVersion int     `db:"form_version"`
	Position    int     `db:"position"`
	Prompt      string  `db:"prompt"`
	Weight      float64 `db:"weight"`
	MaxScore    float64 `db:"max_score"`
}

func (row criterionRow) criterion() form.Criterion {
	return form.Criterion(row)
}

const (
	selectForm      = `SELECT id, title, form_type, is_active, version, created_at, updated_at FROM form`
	selectCriterion = `SELECT id, form_id, form_version, position, prompt, weight, max_score FROM criterion`
)

// insertCriteria writes a criteria set. Older versions' rows are never touched;
// evaluations frozen on them keep their meaning.
func insertCriteria(ctx context.Context, ext sqlx.ExtContext, formID string, version int, criteria []form.Criterion) ([]form.Criterion, error) {
	q := ext.Rebind(`INSERT INTO criterion (id, form_id, form_version, position, prompt, weight, max_score) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i := range criteria {
		criteria[i].ID = uuid.New().String()
		criteria[i].FormID = formID
		criteria[i].FormVersion = version
		crit := criteria[i]
		if _, err := ext.ExecContext(ctx, q, crit.ID, crit.FormID, crit.FormVersion, crit.Position, crit.Prompt, crit.Weight, crit.MaxScore); err != nil {
			return nil, errors.Wrap(err, "inserting criterion")
		}
	}
	return criteria, nil
}

func getCriteria(ctx context.Context, ext sqlx.ExtContext, formID string, version int) ([]form.Criterion, error) {
	q := ext.Rebind(selectCriterion + ` WHERE form_id = ? AND form_version = ? ORDER BY position`)
	var rows []criterionRow
	if err := sqlx.SelectContext(ctx, ext, &rows, q, formID, version); err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	criteria := make([]form.Criterion, 0, len(rows))
	for _, row := range rows {
		criteria = append(criteria, row.criterion())
	}
	return criteria, nil
}

func (repo formRepository) CreateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	if frm.ID == "" {
		frm.ID = uuid.New().String()
	}
	err := transact(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		q := ext.Rebind(`INSERT INTO form (id, title, form_type, is_active, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if _, err := ext.ExecContext(ctx, q, frm.ID, frm.Title, frm.Type, boolVal(frm.IsActive), frm.Version, frm.CreatedAt, frm.UpdatedAt); err != nil {
			return errors.Wrap(err, "inserting form")
		}
		var err error
		frm.Criteria, err = insertCriteria(ctx, ext, frm.ID, frm.Version, frm.Criteria)
		return err
	})
	if err != nil {
		return form.Form{}, err
	}
	return frm, nil
}

func (repo formRepository) QueryForms(ctx context.Context, filter *form.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]form.Form, error) {
	ext := getExec(repo.db, exec)

	q := selectForm
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Type != "" {
			conds = append(conds, `form_type = ?`)
			args = append(args, filter.Type)
		}
		if filter.IsActive != nil {
			conds = append(conds, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
	}
	q += where(conds)
	q += orderBy(ordering, core.DBOrdering{Field: "title", Ascending: true})

	var rows []formRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	forms := make([]form.Form, 0, len(rows))
	for _, row := range rows {
		forms = append(forms, row.form())
	}
	return forms, nil
}

func (repo formRepository) GetForm(ctx context.Context, id string, exec ...core.DBExecutor) (form.Form, error) {
	ext := getExec(repo.db, exec)

	var row formRow
	if err := sqlx.GetContext(ctx, ext, &row, ext.Rebind(selectForm+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return form.Form{}, form.ErrNotFound
		}
		return form.Form{}, errors.Wrap(err, "getting form")
	}

	frm := row.form()
	var err error
	if frm.Criteria, err = getCriteria(ctx, ext, frm.ID, frm.Version); err != nil {
		return form.Form{}, err
	}
	return frm, nil
}

func (repo formRepository) GetFormVersion(ctx context.Context, id string, version int, exec ...core.DBExecutor) (form.Form, error) {
	ext := getExec(repo.db, exec)

	var row formRow
	if err := sqlx.GetContext(ctx, ext, &row, ext.Rebind(selectForm+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return form.Form{}, form.ErrNotFound
		}
		return form.Form{}, errors.Wrap(err, "getting form")
	}

	frm := row.form()
	frm.Version = version
	criteria, err := getCriteria(ctx, ext, frm.ID, version)
	if err != nil {
		return form.Form{}, err
	}
	if len(criteria) == 0 {
		return form.Form{}, form.ErrNotFound
	}
	frm.Criteria = criteria
	return frm, nil
}

func (repo formRepository) UpdateForm(ctx context.Context, frm form.Form, replaceCriteria bool, exec ...core.DBExecutor) (form.Form, error) {
	err := transact(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		q := ext.Rebind(`UPDATE form SET title = ?, is_active = ?, version = ?, updated_at = ? WHERE id = ?`)
		res, err := ext.ExecContext(ctx, q, frm.Title, boolVal(frm.IsActive), frm.Version, frm.UpdatedAt, frm.ID)
		if err != nil {
			return errors.Wrap(err, "updating form")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return form.ErrNotFound
		}
		if replaceCriteria {
			frm.Criteria, err = insertCriteria(ctx, ext, frm.ID, frm.Version, frm.Criteria)
		}
		return err
	})
	if err != nil {
		return form.Form{}, err
	}
	return frm, nil
}
