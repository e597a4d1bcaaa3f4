package evaluation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
)

var (
	ErrNotFound             = errors.New("evaluation not found")
	ErrFormInactive         = errors.New("form is not active")
	ErrFormTypeNotAllowed   = errors.New("role cannot evaluate with this form type")
	ErrInvalidSubject       = errors.New("subject does not match the form type")
	ErrNotEvaluationOwner   = errors.New("evaluation belongs to another evaluator")
	ErrIncompleteEvaluation = errors.New("a response is required for every criterion")
	ErrInvalidResponseValue = errors.New("response value out of range")
	ErrAlreadySubmitted     = errors.New("evaluation has already been submitted")
)

type (
	Repository interface {
		CreateEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
		// GetEvaluation returns the evaluation with its responses.
		GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (Evaluation, error)
		QueryEvaluations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Evaluation, error)
		// ReplaceResponses swaps the draft's response set.
		ReplaceResponses(ctx context.Context, evaluationID string, responses []Response, exec ...core.DBExecutor) error
		// SubmitEvaluation persists the draft→submitted transition. The update
		// is guarded on status=draft; ErrAlreadySubmitted is returned when the
		// guard matches no row, so the transition happens at most once even
		// under concurrent submits.
		SubmitEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
	}

	Service interface {
		Start(ctx context.Context, evaluator user.User, ne NewEvaluation) (Evaluation, error)
		SaveResponses(ctx context.Context, evaluator user.User, id string, in SaveResponsesInput) (Evaluation, error)
		Submit(ctx context.Context, evaluator user.User, id string) (Evaluation, error)
		GetByID(ctx context.Context, id string) (Evaluation, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error)
	}

	service struct {
		repo    Repository
		formSvc form.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, formSvc form.Service) Service {
	return &service{
		repo:    repo,
		formSvc: formSvc,
	}
}

// Start opens a draft evaluation against the form's current version.
func (svc service) Start(ctx context.Context, evaluator user.User, ne NewEvaluation) (Evaluation, error) {
	frm, err := svc.formSvc.GetByID(ctx, ne.FormID)
	if err != nil {
		return Evaluation{}, err
	}
	if frm.IsActive == nil || !*frm.IsActive {
		return Evaluation{}, ErrFormInactive
	}

	if !roleAllowed(evaluator.Role, form.EvaluatorRoles(frm.Type)) {
		return Evaluation{}, ErrFormTypeNotAllowed
	}

	ev := Evaluation{
		FormID:      frm.ID,
		FormVersion: frm.Version,
		EvaluatorID: evaluator.ID,
		Status:      StatusDraft,
	}
	switch {
	case frm.Type == form.TypeSelfEvaluation:
		// the evaluator is the subject
		if ne.SubjectID != "" && ne.SubjectID != evaluator.ID {
			return Evaluation{}, ErrInvalidSubject
		}
		ev.SubjectUserID = null.StringFrom(evaluator.ID)
	case form.SubjectKind(frm.Type) == form.SubjectEmployee:
		if ne.SubjectID == "" {
			return Evaluation{}, ErrInvalidSubject
		}
		ev.SubjectUserID = null.StringFrom(ne.SubjectID)
	default: // center subject
		if ne.SubjectID == "" {
			return Evaluation{}, ErrInvalidSubject
		}
		ev.SubjectCenterID = null.StringFrom(ne.SubjectID)
	}

	now := time.Now().UTC()
	ev.EvaluationDate = ne.EvaluationDate
	if ev.EvaluationDate.IsZero() {
		ev.EvaluationDate = now
	}
	ev.CreatedAt = now
	ev.UpdatedAt = now

	ev, err = svc.repo.CreateEvaluation(ctx, ev)
	return ev, errors.Wrap(err, "creating evaluation")
}

// SaveResponses replaces the draft's responses. Only the owning evaluator may
// mutate a draft; submitted evaluations are immutable.
func (svc service) SaveResponses(ctx context.Context, evaluator user.User, id string, in SaveResponsesInput) (Evaluation, error) {
	ev, err := svc.getOwned(ctx, evaluator, id)
	if err != nil {
		return Evaluation{}, err
	}
	if ev.IsSubmitted() {
		return Evaluation{}, ErrAlreadySubmitted
	}

	responses := make([]Response, 0, len(in.Responses))
	for _, ri := range in.Responses {
		responses = append(responses, Response{
			EvaluationID: ev.ID,
			CriterionID:  ri.CriterionID,
			Value:        ri.Value,
		})
	}
	if err = svc.repo.ReplaceResponses(ctx, ev.ID, responses); err != nil {
		return Evaluation{}, errors.Wrap(err, "replacing responses")
	}
	ev.Responses = responses
	return ev, nil
}

// Submit transitions the draft to submitted, computing and freezing the
// percentage. The transition is terminal; a second submit fails with
// ErrAlreadySubmitted and leaves the stored percentage untouched.
func (svc service) Submit(ctx context.Context, evaluator user.User, id string) (Evaluation, error) {
	ev, err := svc.getOwned(ctx, evaluator, id)
	if err != nil {
		return Evaluation{}, err
	}
	if ev.IsSubmitted() {
		return Evaluation{}, ErrAlreadySubmitted
	}

	frm, err := svc.formSvc.GetVersion(ctx, ev.FormID, ev.FormVersion)
	if err != nil {
		return Evaluation{}, err
	}

	if err = validateResponses(ev.Responses, frm.Criteria); err != nil {
		return Evaluation{}, err
	}

	ev.Status = StatusSubmitted
	ev.Percentage = null.Float64From(ComputePercentage(ev.Responses, frm.Criteria))
	ev.UpdatedAt = time.Now().UTC()

	ev, err = svc.repo.SubmitEvaluation(ctx, ev)
	return ev, errors.Wrap(err, "submitting evaluation")
}

func (svc service) GetByID(ctx context.Context, id string) (Evaluation, error) {
	return svc.repo.GetEvaluation(ctx, id)
}

func (svc service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, filter, ordering)
}

func (svc service) getOwned(ctx context.Context, evaluator user.User, id string) (Evaluation, error) {
	ev, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if ev.EvaluatorID != evaluator.ID {
		return Evaluation{}, ErrNotEvaluationOwner
	}
	return ev, nil
}

// validateResponses checks the submit preconditions: exactly one response per
// criterion, each within [0, criterion.MaxScore].
func validateResponses(responses []Response, criteria []form.Criterion) error {
	values := make(map[string]float64, len(responses))
	for _, resp := range responses {
		values[resp.CriterionID] = resp.Value
	}
	for _, crit := range criteria {
		value, ok := values[crit.ID]
		if !ok {
			return ErrIncompleteEvaluation
		}
		if value < 0 || value > crit.MaxScore {
			return ErrInvalidResponseValue
		}
	}
	return nil
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
