package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/evaluation"
)

type evaluationRepository struct {
	db     *evaluationTable
	formDB *formTable
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db.evaluation, formDB: db.form}
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	stored := ev
	stored.Responses = nil
	repo.db.table[ev.ID] = &stored
	return ev, nil
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ev, ok := repo.db.table[id]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	res := *ev
	res.Responses = make([]evaluation.Response, len(repo.db.responses[id]))
	copy(res.Responses, repo.db.responses[id])
	return res, nil
}

func (repo *evaluationRepository) formType(formID string) string {
	repo.formDB.RLock()
	defer repo.formDB.RUnlock()
	if frm, ok := repo.formDB.table[formID]; ok {
		return frm.Type
	}
	return ""
}

func (repo *evaluationRepository) matches(ev evaluation.Evaluation, filter *evaluation.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.EvaluatorID != "" && ev.EvaluatorID != filter.EvaluatorID {
		return false
	}
	if filter.SubjectUserID != "" && ev.SubjectUserID.String != filter.SubjectUserID {
		return false
	}
	if filter.SubjectCenterID != "" && ev.SubjectCenterID.String != filter.SubjectCenterID {
		return false
	}
	if filter.FormID != "" && ev.FormID != filter.FormID {
		return false
	}
	if filter.FormType != "" && repo.formType(ev.FormID) != filter.FormType {
		return false
	}
	if filter.Status != "" && ev.Status != filter.Status {
		return false
	}
	if !filter.CreatedFrom.IsZero() && ev.CreatedAt.Before(filter.CreatedFrom.UTC()) {
		return false
	}
	if !filter.CreatedTo.IsZero() && ev.CreatedAt.After(filter.CreatedTo.UTC()) {
		return false
	}
	return true
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var evals []evaluation.Evaluation
	for _, ev := range repo.db.table {
		if repo.matches(*ev, filter) {
			evals = append(evals, *ev)
		}
	}

	sort.Slice(evals, func(i, j int) bool { return evals[i].CreatedAt.After(evals[j].CreatedAt) })
	sortStable(ordering, len(evals),
		func(i, j int) { evals[i], evals[j] = evals[j], evals[i] },
		map[string]func(i, j int) bool{
			"created_at":      func(i, j int) bool { return evals[i].CreatedAt.Before(evals[j].CreatedAt) },
			"evaluation_date": func(i, j int) bool { return evals[i].EvaluationDate.Before(evals[j].EvaluationDate) },
		})

	if filter != nil && filter.Limit > 0 && len(evals) > filter.Limit {
		evals = evals[:filter.Limit]
	}
	return evals, nil
}

func (repo *evaluationRepository) ReplaceResponses(ctx context.Context, evaluationID string, responses []evaluation.Response, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[evaluationID]; !ok {
		return evaluation.ErrNotFound
	}
	stored := make([]evaluation.Response, len(responses))
	copy(stored, responses)
	for i := range stored {
		stored[i].ID = uuid.New().String()
		stored[i].EvaluationID = evaluationID
	}
	repo.db.responses[evaluationID] = stored
	return nil
}

func (repo *evaluationRepository) SubmitEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[ev.ID]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	if stored.Status != evaluation.StatusDraft {
		return evaluation.Evaluation{}, evaluation.ErrAlreadySubmitted
	}
	stored.Status = ev.Status
	stored.Percentage = ev.Percentage
	stored.UpdatedAt = ev.UpdatedAt
	return ev, nil
}
