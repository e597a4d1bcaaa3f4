package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/form"
)

type formRepository struct {
	db *formTable
}

var _ form.Repository = (*formRepository)(nil)

func NewFormRepository(db *DB) form.Repository {
	return &formRepository{db: db.form}
}

// storeCriteria freezes a criteria set under the given version.
func (repo *formRepository) storeCriteria(formID string, version int, criteria []form.Criterion) []form.Criterion {
	stored := make([]form.Criterion, len(criteria))
	copy(stored, criteria)
	for i := range stored {
		stored[i].ID = uuid.New().String()
		stored[i].FormID = formID
		stored[i].FormVersion = version
	}
	if repo.db.criteria[formID] == nil {
		repo.db.criteria[formID] = make(map[int][]form.Criterion)
	}
	repo.db.criteria[formID][version] = stored
	return stored
}

func (repo *formRepository) CreateForm(ctx context.Context, frm form.Form, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if frm.ID == "" {
		frm.ID = uuid.New().String()
	}
	frm.Criteria = repo.storeCriteria(frm.ID, frm.Version, frm.Criteria)

	stored := frm
	stored.Criteria = nil
	repo.db.table[frm.ID] = &stored
	return frm, nil
}

func (repo *formRepository) QueryForms(ctx context.Context, filter *form.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]form.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var forms []form.Form
	for _, frm := range repo.db.table {
		if filter != nil {
			if filter.Type != "" && frm.Type != filter.Type {
				continue
			}
			if filter.IsActive != nil && (frm.IsActive == nil || *frm.IsActive != *filter.IsActive) {
				continue
			}
		}
		forms = append(forms, *frm)
	}

	sort.Slice(forms, func(i, j int) bool { return forms[i].Title < forms[j].Title })
	sortStable(ordering, len(forms),
		func(i, j int) { forms[i], forms[j] = forms[j], forms[i] },
		map[string]func(i, j int) bool{
			"title":      func(i, j int) bool { return forms[i].Title < forms[j].Title },
			"created_at": func(i, j int) bool { return forms[i].CreatedAt.Before(forms[j].CreatedAt) },
		})
	return forms, nil
}

func (repo *formRepository) getForm(id string, version int) (form.Form, error) {
	frm, ok := repo.db.table[id]
	if !ok {
		return form.Form{}, form.ErrNotFound
	}
	criteria, ok := repo.db.criteria[id][version]
	if !ok {
		return form.Form{}, form.ErrNotFound
	}

	res := *frm
	res.Version = version
	res.Criteria = make([]form.Criterion, len(criteria))
	copy(res.Criteria, criteria)
	return res, nil
}

func (repo *formRepository) GetForm(ctx context.Context, id string, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	frm, ok := repo.db.table[id]
	if !ok {
		return form.Form{}, form.ErrNotFound
	}
	return repo.getForm(id, frm.Version)
}

func (repo *formRepository) GetFormVersion(ctx context.Context, id string, version int, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.getForm(id, version)
}

func (repo *formRepository) UpdateForm(ctx context.Context, frm form.Form, replaceCriteria bool, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[frm.ID]; !ok {
		return form.Form{}, form.ErrNotFound
	}
	if replaceCriteria {
		frm.Criteria = repo.storeCriteria(frm.ID, frm.Version, frm.Criteria)
	}

	stored := frm
	stored.Criteria = nil
	repo.db.table[frm.ID] = &stored
	return frm, nil
}
