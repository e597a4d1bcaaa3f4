package form

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
)

var ErrNotFound = errors.New("form not found")

type (
	Repository interface {
		CreateForm(ctx context.Context, frm Form, exec ...core.DBExecutor) (Form, error)
		QueryForms(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Form, error)
		// GetForm returns the form with its current criteria set.
		GetForm(ctx context.Context, id string, exec ...core.DBExecutor) (Form, error)
		// GetFormVersion returns the form with the criteria set frozen at the
		// given version.
		GetFormVersion(ctx context.Context, id string, version int, exec ...core.DBExecutor) (Form, error)
		// UpdateForm persists the form row; when replaceCriteria is true the
		// criteria in frm become the new current set under frm.Version.
		UpdateForm(ctx context.Context, frm Form, replaceCriteria bool, exec ...core.DBExecutor) (Form, error)
	}

	Service interface {
		Create(ctx context.Context, nf NewForm) (Form, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Form, error)
		GetByID(ctx context.Context, id string) (Form, error)
		GetVersion(ctx context.Context, id string, version int) (Form, error)
		Update(ctx context.Context, id string, uf UpdateForm) (Form, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func buildCriteria(formID string, version int, ncs []NewCriterion) []Criterion {
	criteria := make([]Criterion, 0, len(ncs))
	for i, nc := range ncs {
		criteria = append(criteria, Criterion{
			FormID:      formID,
			FormVersion: version,
			Position:    i + 1,
			Prompt:      nc.Prompt,
			Weight:      nc.Weight,
			MaxScore:    nc.MaxScore,
		})
	}
	return criteria
}

func (svc service) Create(ctx context.Context, nf NewForm) (Form, error) {
	now := time.Now().UTC()
	isActive := true
	frm := Form{
		Title:     nf.Title,
		Type:      nf.Type,
		IsActive:  &isActive,
		Version:   1,
		Criteria:  buildCriteria("", 1, nf.Criteria),
		CreatedAt: now,
		UpdatedAt: now,
	}
	frm, err := svc.repo.CreateForm(ctx, frm)
	return frm, errors.Wrap(err, "creating form")
}

func (svc service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Form, error) {
	return svc.repo.QueryForms(ctx, filter, ordering)
}

func (svc service) GetByID(ctx context.Context, id string) (Form, error) {
	return svc.repo.GetForm(ctx, id)
}

func (svc service) GetVersion(ctx context.Context, id string, version int) (Form, error) {
	return svc.repo.GetFormVersion(ctx, id, version)
}

func (svc service) Update(ctx context.Context, id string, uf UpdateForm) (Form, error) {
	frm, err := svc.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}

	frm.Title = uf.Title
	if uf.IsActive != nil {
		frm.IsActive = uf.IsActive
	}
	replaceCriteria := len(uf.Criteria) > 0
	if replaceCriteria {
		// evaluations keep the version they were started against
		frm.Version++
		frm.Criteria = buildCriteria(frm.ID, frm.Version, uf.Criteria)
	}
	frm.UpdatedAt = time.Now().UTC()

	frm, err = svc.repo.UpdateForm(ctx, frm, replaceCriteria)
	return frm, errors.Wrap(err, "updating form")
}
