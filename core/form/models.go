package form

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/user"
)

// Form types. The set is closed; each type fixes who may evaluate and what
// kind of subject is evaluated.
const (
	TypeSelfEvaluation    = "self_evaluation"
	TypeManagerEvaluation = "manager_evaluation"
	TypeFieldVisit        = "field_visit"
)

// Subject kinds.
const (
	SubjectEmployee = "employee"
	SubjectCenter   = "center"
)

var (
	AllTypes = []string{TypeSelfEvaluation, TypeManagerEvaluation, TypeFieldVisit}

	evaluatorRoles = map[string][]string{
		TypeSelfEvaluation:    {user.RoleEmployee},
		TypeManagerEvaluation: {user.RoleManager},
		TypeFieldVisit:        {user.RoleReviewer, user.RoleAdmin},
	}

	subjectKinds = map[string]string{
		TypeSelfEvaluation:    SubjectEmployee,
		TypeManagerEvaluation: SubjectEmployee,
		TypeFieldVisit:        SubjectCenter,
	}
)

// KnownType reports whether formType is a member of the closed form type set.
func KnownType(formType string) bool {
	_, ok := subjectKinds[formType]
	return ok
}

// EvaluatorRoles returns the roles allowed to start an evaluation of the
// given form type.
func EvaluatorRoles(formType string) []string {
	return evaluatorRoles[formType]
}

// SubjectKind returns the kind of subject a form type evaluates.
func SubjectKind(formType string) string {
	return subjectKinds[formType]
}

type (
	// Criterion is a single scored dimension within a Form.
	Criterion struct {
		ID          string  `json:"id"`
		FormID      string  `json:"form_id"`
		FormVersion int     `json:"form_version"`
		Position    int     `json:"position"`
		Prompt      string  `json:"prompt"`
		Weight      float64 `json:"weight"`
		MaxScore    float64 `json:"max_score"`
	}

	// Form is a versioned evaluation template. The version is bumped whenever
	// criteria change so that in-flight and submitted evaluations keep
	// referencing the criteria set they were started against.
	Form struct {
		ID        string      `json:"id"`
		Title     string      `json:"title"`
		Type      string      `json:"form_type"`
		IsActive  *bool       `json:"is_active"`
		Version   int         `json:"version"`
		Criteria  []Criterion `json:"criteria,omitempty"`
		CreatedAt time.Time   `json:"created_at"` // UTC
		UpdatedAt time.Time   `json:"updated_at"` // UTC
	}
)

// NewCriterion contains information needed to add a Criterion to a Form.
type NewCriterion struct {
	Prompt   string  `json:"prompt" validate:"required"`
	Weight   float64 `json:"weight" validate:"required,gt=0"`
	MaxScore float64 `json:"max_score" validate:"gte=0"`
}

// NewForm contains information needed to create a new Form.
type NewForm struct {
	Title    string         `json:"title" validate:"required"`
	Type     string         `json:"form_type" validate:"required,formtype"`
	Criteria []NewCriterion `json:"criteria" validate:"required,min=1,dive"`
}

func (nf *NewForm) Validate(validate *validator.Validate) error {
	nf.Title = core.CleanString(nf.Title)
	for i := range nf.Criteria {
		nf.Criteria[i].Prompt = core.CleanString(nf.Criteria[i].Prompt)
	}
	return validate.Struct(nf)
}

// UpdateForm defines what information may be provided to modify an existing
// Form. Providing Criteria replaces the whole criteria set and bumps the
// form version.
type UpdateForm struct {
	Title    string         `json:"title"`
	IsActive *bool          `json:"is_active"`
	Criteria []NewCriterion `json:"criteria" validate:"omitempty,min=1,dive"`
}

func (uf *UpdateForm) Validate(orig Form, validate *validator.Validate) error {
	title := core.CleanString(uf.Title)
	if title != "" {
		uf.Title = title
	} else {
		uf.Title = orig.Title
	}
	for i := range uf.Criteria {
		uf.Criteria[i].Prompt = core.CleanString(uf.Criteria[i].Prompt)
	}
	return validate.Struct(uf)
}

type QueryFilter struct {
	Type     string `query:"form_type"`
	IsActive *bool  `query:"is_active"`
}

var (
	formTypeTag  = "formtype"
	formTypeText = "invalid form type"
)

// RegisterValidators hooks this package's custom validators into the
// application validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(formTypeTag, func(fl validator.FieldLevel) bool {
		return KnownType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, formTypeTag, formTypeText)
}
