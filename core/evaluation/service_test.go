package evaluation_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
	dummydb "github.com/taqyimhq/taqyim/storage/database/dummy"
)

type testEnv struct {
	formSvc form.Service
	evalSvc evaluation.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	formSvc := form.NewService(dummydb.NewFormRepository(db))
	return &testEnv{
		formSvc: formSvc,
		evalSvc: evaluation.NewService(dummydb.NewEvaluationRepository(db), formSvc),
	}
}

func (env *testEnv) createForm(t *testing.T, formType string, criteria ...form.NewCriterion) form.Form {
	t.Helper()
	if len(criteria) == 0 {
		criteria = []form.NewCriterion{
			{Prompt: "Greets the customer", Weight: 1, MaxScore: 10},
			{Prompt: "Resolves the request", Weight: 1, MaxScore: 10},
		}
	}
	frm, err := env.formSvc.Create(context.Background(), form.NewForm{
		Title:    "Quality Check",
		Type:     formType,
		Criteria: criteria,
	})
	if err != nil {
		t.Fatalf("formSvc.Create(): %v", err)
	}
	return frm
}

func responsesFor(frm form.Form, values ...float64) evaluation.SaveResponsesInput {
	var in evaluation.SaveResponsesInput
	for i, crit := range frm.Criteria {
		if i >= len(values) {
			break
		}
		in.Responses = append(in.Responses, evaluation.ResponseInput{CriterionID: crit.ID, Value: values[i]})
	}
	return in
}

var (
	employee = user.User{ID: "5f0c2a1e-0000-4000-8000-000000000001", Role: user.RoleEmployee}
	manager  = user.User{ID: "5f0c2a1e-0000-4000-8000-000000000002", Role: user.RoleManager}
	reviewer = user.User{ID: "5f0c2a1e-0000-4000-8000-000000000003", Role: user.RoleReviewer}
)

func TestServiceStart(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	selfEval := env.createForm(t, form.TypeSelfEvaluation)
	mgrEval := env.createForm(t, form.TypeManagerEvaluation)
	visit := env.createForm(t, form.TypeFieldVisit)

	inactive := env.createForm(t, form.TypeSelfEvaluation)
	off := false
	if _, err := env.formSvc.Update(ctx, inactive.ID, form.UpdateForm{IsActive: &off}); err != nil {
		t.Fatalf("formSvc.Update(): %v", err)
	}

	centerID := "5f0c2a1e-0000-4000-8000-00000000c001"

	tests := []struct {
		name      string
		evaluator user.User
		ne        evaluation.NewEvaluation
		wantErr   error
	}{
		{name: "inactive form", evaluator: employee, ne: evaluation.NewEvaluation{FormID: inactive.ID}, wantErr: evaluation.ErrFormInactive},
		{name: "manager cannot self evaluate", evaluator: manager, ne: evaluation.NewEvaluation{FormID: selfEval.ID}, wantErr: evaluation.ErrFormTypeNotAllowed},
		{name: "employee cannot run field visits", evaluator: employee, ne: evaluation.NewEvaluation{FormID: visit.ID, SubjectID: centerID}, wantErr: evaluation.ErrFormTypeNotAllowed},
		{name: "self evaluation rejects foreign subject", evaluator: employee, ne: evaluation.NewEvaluation{FormID: selfEval.ID, SubjectID: manager.ID}, wantErr: evaluation.ErrInvalidSubject},
		{name: "manager evaluation requires a subject", evaluator: manager, ne: evaluation.NewEvaluation{FormID: mgrEval.ID}, wantErr: evaluation.ErrInvalidSubject},
		{name: "field visit requires a subject", evaluator: reviewer, ne: evaluation.NewEvaluation{FormID: visit.ID}, wantErr: evaluation.ErrInvalidSubject},
		{name: "self evaluation", evaluator: employee, ne: evaluation.NewEvaluation{FormID: selfEval.ID}},
		{name: "manager evaluation", evaluator: manager, ne: evaluation.NewEvaluation{FormID: mgrEval.ID, SubjectID: employee.ID}},
		{name: "field visit", evaluator: reviewer, ne: evaluation.NewEvaluation{FormID: visit.ID, SubjectID: centerID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := env.evalSvc.Start(ctx, tt.evaluator, tt.ne)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Start() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if !ev.IsDraft() {
				t.Errorf("Start() status = %q; want draft", ev.Status)
			}
			if ev.FormVersion != 1 {
				t.Errorf("Start() form version = %d; want 1", ev.FormVersion)
			}
			if ev.EvaluatorID != tt.evaluator.ID {
				t.Errorf("Start() evaluator = %q; want %q", ev.EvaluatorID, tt.evaluator.ID)
			}
			if ev.EvaluationDate.IsZero() {
				t.Error("Start() evaluation date not defaulted")
			}
			switch {
			case tt.ne.FormID == selfEval.ID:
				if ev.SubjectUserID.String != tt.evaluator.ID {
					t.Errorf("Start() subject = %q; want the evaluator", ev.SubjectUserID.String)
				}
			case tt.ne.FormID == mgrEval.ID:
				if ev.SubjectUserID.String != tt.ne.SubjectID {
					t.Errorf("Start() subject user = %q; want %q", ev.SubjectUserID.String, tt.ne.SubjectID)
				}
			case tt.ne.FormID == visit.ID:
				if ev.SubjectCenterID.String != tt.ne.SubjectID {
					t.Errorf("Start() subject center = %q; want %q", ev.SubjectCenterID.String, tt.ne.SubjectID)
				}
			}
		})
	}
}

func TestServiceSaveResponses(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	frm := env.createForm(t, form.TypeSelfEvaluation)
	ev, err := env.evalSvc.Start(ctx, employee, evaluation.NewEvaluation{FormID: frm.ID})
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}

	if _, err = env.evalSvc.SaveResponses(ctx, manager, ev.ID, responsesFor(frm, 5, 5)); errors.Cause(err) != evaluation.ErrNotEvaluationOwner {
		t.Errorf("SaveResponses() by non-owner error = %v; want %v", err, evaluation.ErrNotEvaluationOwner)
	}

	saved, err := env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 5, 5))
	if err != nil {
		t.Fatalf("SaveResponses(): %v", err)
	}
	if len(saved.Responses) != 2 {
		t.Fatalf("SaveResponses() kept %d responses; want 2", len(saved.Responses))
	}

	// saving again replaces, not appends
	saved, err = env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 10, 0))
	if err != nil {
		t.Fatalf("SaveResponses() replace: %v", err)
	}
	got, err := env.evalSvc.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if len(got.Responses) != 2 {
		t.Errorf("responses were appended, not replaced: %d", len(got.Responses))
	}

	if _, err = env.evalSvc.Submit(ctx, employee, ev.ID); err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if _, err = env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 1, 1)); errors.Cause(err) != evaluation.ErrAlreadySubmitted {
		t.Errorf("SaveResponses() after submit error = %v; want %v", err, evaluation.ErrAlreadySubmitted)
	}
}

func TestServiceSubmit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	frm := env.createForm(t, form.TypeSelfEvaluation)

	start := func(t *testing.T) evaluation.Evaluation {
		t.Helper()
		ev, err := env.evalSvc.Start(ctx, employee, evaluation.NewEvaluation{FormID: frm.ID})
		if err != nil {
			t.Fatalf("Start(): %v", err)
		}
		return ev
	}

	t.Run("incomplete evaluation", func(t *testing.T) {
		ev := start(t)
		if _, err := env.evalSvc.Submit(ctx, employee, ev.ID); errors.Cause(err) != evaluation.ErrIncompleteEvaluation {
			t.Errorf("Submit() error = %v; want %v", err, evaluation.ErrIncompleteEvaluation)
		}

		// one of two responses is still incomplete
		if _, err := env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 5)); err != nil {
			t.Fatalf("SaveResponses(): %v", err)
		}
		if _, err := env.evalSvc.Submit(ctx, employee, ev.ID); errors.Cause(err) != evaluation.ErrIncompleteEvaluation {
			t.Errorf("Submit() error = %v; want %v", err, evaluation.ErrIncompleteEvaluation)
		}
	})

	t.Run("response value out of range", func(t *testing.T) {
		ev := start(t)
		if _, err := env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 11, 5)); err != nil {
			t.Fatalf("SaveResponses(): %v", err)
		}
		if _, err := env.evalSvc.Submit(ctx, employee, ev.ID); errors.Cause(err) != evaluation.ErrInvalidResponseValue {
			t.Errorf("Submit() error = %v; want %v", err, evaluation.ErrInvalidResponseValue)
		}

		if _, err := env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, -1, 5)); err != nil {
			t.Fatalf("SaveResponses(): %v", err)
		}
		if _, err := env.evalSvc.Submit(ctx, employee, ev.ID); errors.Cause(err) != evaluation.ErrInvalidResponseValue {
			t.Errorf("Submit() error = %v; want %v", err, evaluation.ErrInvalidResponseValue)
		}
	})

	t.Run("submit freezes the percentage", func(t *testing.T) {
		ev := start(t)
		if _, err := env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 5, 0)); err != nil {
			t.Fatalf("SaveResponses(): %v", err)
		}
		submitted, err := env.evalSvc.Submit(ctx, employee, ev.ID)
		if err != nil {
			t.Fatalf("Submit(): %v", err)
		}
		if !submitted.IsSubmitted() {
			t.Errorf("Submit() status = %q; want submitted", submitted.Status)
		}
		if !submitted.Percentage.Valid || submitted.Percentage.Float64 != 25 {
			t.Errorf("Submit() percentage = %v; want 25", submitted.Percentage)
		}

		// the transition is terminal
		if _, err = env.evalSvc.Submit(ctx, employee, ev.ID); errors.Cause(err) != evaluation.ErrAlreadySubmitted {
			t.Errorf("second Submit() error = %v; want %v", err, evaluation.ErrAlreadySubmitted)
		}
		got, err := env.evalSvc.GetByID(ctx, ev.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		if got.Percentage.Float64 != 25 {
			t.Errorf("stored percentage changed after failed re-submit: %v", got.Percentage.Float64)
		}
	})
}

// A draft keeps scoring against the criteria set it was started with, even
// after the form's criteria are replaced.
func TestServiceSubmitUsesFrozenFormVersion(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	frm := env.createForm(t, form.TypeSelfEvaluation)
	ev, err := env.evalSvc.Start(ctx, employee, evaluation.NewEvaluation{FormID: frm.ID})
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}
	if _, err = env.evalSvc.SaveResponses(ctx, employee, ev.ID, responsesFor(frm, 10, 10)); err != nil {
		t.Fatalf("SaveResponses(): %v", err)
	}

	// replace criteria; the form moves to version 2
	updated, err := env.formSvc.Update(ctx, frm.ID, form.UpdateForm{
		Criteria: []form.NewCriterion{{Prompt: "Something else entirely", Weight: 1, MaxScore: 100}},
	})
	if err != nil {
		t.Fatalf("formSvc.Update(): %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("form version = %d; want 2", updated.Version)
	}

	submitted, err := env.evalSvc.Submit(ctx, employee, ev.ID)
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if submitted.FormVersion != 1 {
		t.Errorf("submitted against version %d; want 1", submitted.FormVersion)
	}
	if submitted.Percentage.Float64 != 100 {
		t.Errorf("percentage = %v; want 100 (scored against the frozen version)", submitted.Percentage.Float64)
	}
}
