package evaluation

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/taqyimhq/taqyim/core"
)

// Evaluation statuses. draft is initial, submitted is terminal; there are no
// other transitions.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

type (
	// Response is the recorded value for one Criterion within one Evaluation.
	Response struct {
		ID           string  `json:"id"`
		EvaluationID string  `json:"evaluation_id"`
		CriterionID  string  `json:"criterion_id"`
		Value        float64 `json:"value"`
	}

	// Evaluation is one evaluator's scored instance of a Form against a
	// subject. It references the form version it was started against, so
	// later form edits never change its meaning. Evaluations are append-only
	// audit records; deletion is not modeled.
	Evaluation struct {
		ID              string       `json:"id"`
		FormID          string       `json:"form_id"`
		FormVersion     int          `json:"form_version"`
		EvaluatorID     string       `json:"evaluator_id"`
		SubjectUserID   null.String  `json:"subject_user_id,omitempty"`
		SubjectCenterID null.String  `json:"subject_center_id,omitempty"`
		Status          string       `json:"status"`
		EvaluationDate  time.Time    `json:"evaluation_date"`
		Percentage      null.Float64 `json:"percentage"` // set on submit, full precision
		Responses       []Response   `json:"responses,omitempty"`
		CreatedAt       time.Time    `json:"created_at"` // UTC
		UpdatedAt       time.Time    `json:"updated_at"` // UTC
	}
)

func (ev *Evaluation) IsDraft() bool     { return ev.Status == StatusDraft }
func (ev *Evaluation) IsSubmitted() bool { return ev.Status == StatusSubmitted }

// NewEvaluation contains information needed to start a draft Evaluation.
// SubjectID identifies the evaluated employee or center depending on the form
// type; self evaluations leave it empty (the evaluator is the subject).
type NewEvaluation struct {
	FormID         string    `json:"form_id" validate:"required,uuid4"`
	SubjectID      string    `json:"subject_id" validate:"omitempty,uuid4"`
	EvaluationDate time.Time `json:"evaluation_date"`
}

func (ne *NewEvaluation) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

// ResponseInput carries one criterion value when saving draft responses.
type ResponseInput struct {
	CriterionID string  `json:"criterion_id" validate:"required,uuid4"`
	Value       float64 `json:"value"`
}

// SaveResponsesInput replaces the draft's response set.
type SaveResponsesInput struct {
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
}

func (sr *SaveResponsesInput) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

type QueryFilter struct {
	EvaluatorID     string    `query:"evaluator_id"`
	SubjectUserID   string    `query:"subject_user_id"`
	SubjectCenterID string    `query:"subject_center_id"`
	FormID          string    `query:"form_id"`
	FormType        string    `query:"form_type"`
	Status          string    `query:"status"`
	CreatedFrom     time.Time `query:"created_from"`
	CreatedTo       time.Time `query:"created_to"`
	Limit           int       `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.FormType = core.CleanString(qf.FormType, true /* lower */)
}
