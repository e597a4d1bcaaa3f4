package dashboard_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/center"
	"github.com/taqyimhq/taqyim/core/dashboard"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
	dummydb "github.com/taqyimhq/taqyim/storage/database/dummy"
)

type testEnv struct {
	cenRepo  center.Repository
	usrRepo  user.Repository
	evalRepo evaluation.Repository
	formSvc  form.Service
	evalSvc  evaluation.Service
	dashSvc  dashboard.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	formSvc := form.NewService(dummydb.NewFormRepository(db))
	evalRepo := dummydb.NewEvaluationRepository(db)
	evalSvc := evaluation.NewService(evalRepo, formSvc)
	return &testEnv{
		cenRepo:  dummydb.NewCenterRepository(db),
		usrRepo:  dummydb.NewUserRepository(db),
		evalRepo: evalRepo,
		formSvc:  formSvc,
		evalSvc:  evalSvc,
		dashSvc:  dashboard.NewService(dummydb.NewDashboardRepository(db), formSvc, evalSvc),
	}
}

func boolPtr(b bool) *bool { return &b }

func (env *testEnv) createCenter(t *testing.T, name string) center.Center {
	t.Helper()
	cen, err := env.cenRepo.CreateCenter(context.Background(), center.Center{Name: name, IsActive: boolPtr(true)})
	if err != nil {
		t.Fatalf("CreateCenter(): %v", err)
	}
	return cen
}

// submitVisit stores a submitted center evaluation with the given percentage.
func (env *testEnv) submitVisit(t *testing.T, formID, centerID string, percentage float64) {
	t.Helper()
	_, err := env.evalRepo.CreateEvaluation(context.Background(), evaluation.Evaluation{
		FormID:          formID,
		FormVersion:     1,
		EvaluatorID:     "rev",
		SubjectCenterID: null.StringFrom(centerID),
		Status:          evaluation.StatusSubmitted,
		Percentage:      null.Float64From(percentage),
	})
	if err != nil {
		t.Fatalf("CreateEvaluation(): %v", err)
	}
}

func TestRankings(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	frm, err := env.formSvc.Create(ctx, form.NewForm{
		Title:    "Field Visit",
		Type:     form.TypeFieldVisit,
		Criteria: []form.NewCriterion{{Prompt: "Overall", Weight: 1, MaxScore: 10}},
	})
	if err != nil {
		t.Fatalf("formSvc.Create(): %v", err)
	}

	alpha := env.createCenter(t, "Alpha")
	beta := env.createCenter(t, "Beta")
	gamma := env.createCenter(t, "Gamma")
	drafted := env.createCenter(t, "Drafted")

	env.submitVisit(t, frm.ID, alpha.ID, 90)
	env.submitVisit(t, frm.ID, alpha.ID, 70) // avg 80
	env.submitVisit(t, frm.ID, beta.ID, 95)
	env.submitVisit(t, frm.ID, gamma.ID, 95) // ties with Beta; name breaks the tie

	// drafts never rank
	if _, err = env.evalRepo.CreateEvaluation(ctx, evaluation.Evaluation{
		FormID:          frm.ID,
		FormVersion:     1,
		EvaluatorID:     "rev",
		SubjectCenterID: null.StringFrom(drafted.ID),
		Status:          evaluation.StatusDraft,
	}); err != nil {
		t.Fatalf("CreateEvaluation(): %v", err)
	}

	rankings, err := env.dashSvc.Rankings(ctx)
	if err != nil {
		t.Fatalf("Rankings(): %v", err)
	}

	want := []dashboard.CenterRanking{
		{CenterID: beta.ID, CenterName: "Beta", AveragePercentage: 95, EvaluationCount: 1},
		{CenterID: gamma.ID, CenterName: "Gamma", AveragePercentage: 95, EvaluationCount: 1},
		{CenterID: alpha.ID, CenterName: "Alpha", AveragePercentage: 80, EvaluationCount: 2},
	}
	if len(rankings) != len(want) {
		t.Fatalf("Rankings() returned %d rows; want %d", len(rankings), len(want))
	}
	for i, w := range want {
		if rankings[i] != w {
			t.Errorf("Rankings()[%d] = %+v; want %+v", i, rankings[i], w)
		}
	}

	// reading is recomputation; a second read returns the same rows
	again, err := env.dashSvc.Rankings(ctx)
	if err != nil {
		t.Fatalf("Rankings(): %v", err)
	}
	for i := range want {
		if again[i] != rankings[i] {
			t.Errorf("Rankings() not stable on re-read at row %d", i)
		}
	}
}

func TestAdminStats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	env.createCenter(t, "Alpha")
	env.createCenter(t, "Beta")

	if _, err := env.usrRepo.CreateUser(ctx, user.User{Name: "A", Email: "a@test.test", Role: user.RoleAdmin, IsActive: boolPtr(true)}); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	if _, err := env.usrRepo.CreateUser(ctx, user.User{Name: "B", Email: "b@test.test", Role: user.RoleEmployee, IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	frm, err := env.formSvc.Create(ctx, form.NewForm{
		Title:    "Field Visit",
		Type:     form.TypeFieldVisit,
		Criteria: []form.NewCriterion{{Prompt: "Overall", Weight: 1, MaxScore: 10}},
	})
	if err != nil {
		t.Fatalf("formSvc.Create(): %v", err)
	}

	cen := env.createCenter(t, "Gamma")
	env.submitVisit(t, frm.ID, cen.ID, 88)
	if _, err = env.evalRepo.CreateEvaluation(ctx, evaluation.Evaluation{
		FormID:          frm.ID,
		FormVersion:     1,
		EvaluatorID:     "rev",
		SubjectCenterID: null.StringFrom(cen.ID),
		Status:          evaluation.StatusDraft,
	}); err != nil {
		t.Fatalf("CreateEvaluation(): %v", err)
	}

	stats, err := env.dashSvc.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats(): %v", err)
	}
	if stats.TotalCenters != 3 {
		t.Errorf("TotalCenters = %d; want 3", stats.TotalCenters)
	}
	if stats.TotalUsers != 1 { // deactivated users do not count
		t.Errorf("TotalUsers = %d; want 1", stats.TotalUsers)
	}
	if stats.TotalForms != 1 {
		t.Errorf("TotalForms = %d; want 1", stats.TotalForms)
	}
	if stats.TotalEvaluations != 2 {
		t.Errorf("TotalEvaluations = %d; want 2", stats.TotalEvaluations)
	}
	if stats.DraftEvaluations != 1 {
		t.Errorf("DraftEvaluations = %d; want 1", stats.DraftEvaluations)
	}
	if len(stats.TopCenters) != 1 || stats.TopCenters[0].AveragePercentage != 88 {
		t.Errorf("TopCenters = %+v; want one row at 88", stats.TopCenters)
	}
	if len(stats.RecentEvaluations) != 2 {
		t.Errorf("RecentEvaluations = %d rows; want 2", len(stats.RecentEvaluations))
	}
}

func TestManagerStats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cen := env.createCenter(t, "Alpha")
	mgr, err := env.usrRepo.CreateUser(ctx, user.User{
		Name: "M", Email: "m@test.test", Role: user.RoleManager,
		CenterID: null.StringFrom(cen.ID), IsActive: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err = env.usrRepo.CreateUser(ctx, user.User{
			Name: fmt.Sprintf("E%d", i), Email: fmt.Sprintf("e%d@test.test", i),
			Role: user.RoleEmployee, CenterID: null.StringFrom(cen.ID), IsActive: boolPtr(true),
		}); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	// employee of another center does not count
	other := env.createCenter(t, "Beta")
	if _, err = env.usrRepo.CreateUser(ctx, user.User{
		Name: "X", Email: "x@test.test", Role: user.RoleEmployee,
		CenterID: null.StringFrom(other.ID), IsActive: boolPtr(true),
	}); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	frm, err := env.formSvc.Create(ctx, form.NewForm{
		Title:    "Manager Evaluation",
		Type:     form.TypeManagerEvaluation,
		Criteria: []form.NewCriterion{{Prompt: "Overall", Weight: 1, MaxScore: 10}},
	})
	if err != nil {
		t.Fatalf("formSvc.Create(): %v", err)
	}

	ev, err := env.evalSvc.Start(ctx, mgr, evaluation.NewEvaluation{FormID: frm.ID, SubjectID: "emp"})
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}
	if _, err = env.evalSvc.SaveResponses(ctx, mgr, ev.ID, evaluation.SaveResponsesInput{
		Responses: []evaluation.ResponseInput{{CriterionID: frm.Criteria[0].ID, Value: 7}},
	}); err != nil {
		t.Fatalf("SaveResponses(): %v", err)
	}
	if _, err = env.evalSvc.Submit(ctx, mgr, ev.ID); err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if _, err = env.evalSvc.Start(ctx, mgr, evaluation.NewEvaluation{FormID: frm.ID, SubjectID: "emp"}); err != nil {
		t.Fatalf("Start(): %v", err)
	}

	stats, err := env.dashSvc.ManagerStats(ctx, mgr)
	if err != nil {
		t.Fatalf("ManagerStats(): %v", err)
	}
	if stats.ActiveEmployees != 3 {
		t.Errorf("ActiveEmployees = %d; want 3", stats.ActiveEmployees)
	}
	if stats.TotalEvaluations != 2 || stats.SubmittedEvaluations != 1 || stats.DraftEvaluations != 1 {
		t.Errorf("evaluation counts = %d/%d/%d; want 2/1/1",
			stats.TotalEvaluations, stats.SubmittedEvaluations, stats.DraftEvaluations)
	}
	if len(stats.Forms) != 1 {
		t.Errorf("Forms = %d; want 1", len(stats.Forms))
	}
}

func TestEmployeeStats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	emp, err := env.usrRepo.CreateUser(ctx, user.User{
		Name: "E", Email: "e@test.test", Role: user.RoleEmployee, IsActive: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	frm, err := env.formSvc.Create(ctx, form.NewForm{
		Title:    "Self Evaluation",
		Type:     form.TypeSelfEvaluation,
		Criteria: []form.NewCriterion{{Prompt: "Overall", Weight: 1, MaxScore: 10}},
	})
	if err != nil {
		t.Fatalf("formSvc.Create(): %v", err)
	}

	ev, err := env.evalSvc.Start(ctx, emp, evaluation.NewEvaluation{FormID: frm.ID})
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}
	if _, err = env.evalSvc.SaveResponses(ctx, emp, ev.ID, evaluation.SaveResponsesInput{
		Responses: []evaluation.ResponseInput{{CriterionID: frm.Criteria[0].ID, Value: 10}},
	}); err != nil {
		t.Fatalf("SaveResponses(): %v", err)
	}
	if _, err = env.evalSvc.Submit(ctx, emp, ev.ID); err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if _, err = env.evalSvc.Start(ctx, emp, evaluation.NewEvaluation{FormID: frm.ID}); err != nil {
		t.Fatalf("Start(): %v", err)
	}

	stats, err := env.dashSvc.EmployeeStats(ctx, emp)
	if err != nil {
		t.Fatalf("EmployeeStats(): %v", err)
	}
	if stats.SubmittedEvaluations != 1 || stats.DraftEvaluations != 1 {
		t.Errorf("counts = %d/%d; want 1/1", stats.SubmittedEvaluations, stats.DraftEvaluations)
	}
	if len(stats.Forms) != 1 {
		t.Errorf("Forms = %d; want 1", len(stats.Forms))
	}
	if len(stats.Evaluations) != 2 {
		t.Errorf("Evaluations = %d; want 2", len(stats.Evaluations))
	}
}

// failingRepo fails every read; dashboards must fail whole.
type failingRepo struct{}

var errDown = errors.New("storage down")

func (failingRepo) CountActiveCenters(context.Context, ...core.DBExecutor) (int, error) {
	return 0, errDown
}
func (failingRepo) CountActiveUsers(context.Context, ...core.DBExecutor) (int, error) {
	return 0, errDown
}
func (failingRepo) CountActiveEmployees(context.Context, string, ...core.DBExecutor) (int, error) {
	return 0, errDown
}
func (failingRepo) CountActiveForms(context.Context, ...core.DBExecutor) (int, error) {
	return 0, errDown
}
func (failingRepo) CountEvaluations(context.Context, *evaluation.QueryFilter, ...core.DBExecutor) (int, error) {
	return 0, errDown
}
func (failingRepo) CenterRankings(context.Context, int, ...core.DBExecutor) ([]dashboard.CenterRanking, error) {
	return nil, errDown
}

func TestStatsLoadIsAllOrNothing(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	// healthy form/evaluation services, failing aggregate reads
	svc := dashboard.NewService(failingRepo{}, env.formSvc, env.evalSvc)

	if _, err := svc.AdminStats(ctx); err == nil {
		t.Error("AdminStats() returned a partial summary; want error")
	} else if _, ok := err.(*dashboard.DataLoadError); !ok {
		t.Errorf("AdminStats() error = %T; want *dashboard.DataLoadError", err)
	}

	if _, err := svc.ReviewerStats(ctx); err == nil {
		t.Error("ReviewerStats() returned a partial summary; want error")
	} else if _, ok := err.(*dashboard.DataLoadError); !ok {
		t.Errorf("ReviewerStats() error = %T; want *dashboard.DataLoadError", err)
	}

	if _, err := svc.ManagerStats(ctx, user.User{ID: "m", Role: user.RoleManager}); err == nil {
		t.Error("ManagerStats() returned a partial summary; want error")
	}
	if _, err := svc.Rankings(ctx); err == nil {
		t.Error("Rankings() returned rows from a failing repository; want error")
	}
}
