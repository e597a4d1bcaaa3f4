package dashboard

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
)

const (
	topCentersLimit  = 5
	recentEvalsLimit = 10
)

// DataLoadError marks a dashboard load failure. Dashboards load with an
// all-or-nothing join: if any aggregate query fails the whole load fails and
// no partial summary is returned; callers surface a single retryable error.
type DataLoadError struct {
	Err error
}

func (e *DataLoadError) Error() string { return "dashboard data load failed: " + e.Err.Error() }
func (e *DataLoadError) Unwrap() error { return e.Err }

type (
	Repository interface {
		CountActiveCenters(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountActiveUsers(ctx context.Context, exec ...core.DBExecutor) (int, error)
		// CountActiveEmployees counts active employee users attached to a center.
		CountActiveEmployees(ctx context.Context, centerID string, exec ...core.DBExecutor) (int, error)
		CountActiveForms(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountEvaluations(ctx context.Context, filter *evaluation.QueryFilter, exec ...core.DBExecutor) (int, error)
		// CenterRankings reads the derived ranking projection: rows ordered by
		// average percentage descending, ties broken by center name ascending.
		CenterRankings(ctx context.Context, limit int, exec ...core.DBExecutor) ([]CenterRanking, error)
	}

	Service interface {
		AdminStats(ctx context.Context) (AdminStats, error)
		ManagerStats(ctx context.Context, manager user.User) (ManagerStats, error)
		EmployeeStats(ctx context.Context, employee user.User) (EmployeeStats, error)
		ReviewerStats(ctx context.Context) (ReviewerStats, error)
		// Rankings returns the full center ranking projection for reports.
		Rankings(ctx context.Context) ([]CenterRanking, error)
	}

	service struct {
		repo    Repository
		formSvc form.Service
		evalSvc evaluation.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, formSvc form.Service, evalSvc evaluation.Service) Service {
	return &service{
		repo:    repo,
		formSvc: formSvc,
		evalSvc: evalSvc,
	}
}

func boolPtr(b bool) *bool { return &b }

var createdAtDesc = []core.DBOrdering{{Field: "created_at", Ascending: false}}

// AdminStats fans out the admin dashboard's independent reads and joins them
// all-or-nothing.
func (svc service) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalCenters, err = svc.repo.CountActiveCenters(gctx)
		return errors.Wrap(err, "counting centers")
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = svc.repo.CountActiveUsers(gctx)
		return errors.Wrap(err, "counting users")
	})
	g.Go(func() (err error) {
		stats.TotalForms, err = svc.repo.CountActiveForms(gctx)
		return errors.Wrap(err, "counting forms")
	})
	g.Go(func() (err error) {
		stats.TotalEvaluations, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{})
		return errors.Wrap(err, "counting evaluations")
	})
	g.Go(func() (err error) {
		stats.DraftEvaluations, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{Status: evaluation.StatusDraft})
		return errors.Wrap(err, "counting draft evaluations")
	})
	g.Go(func() (err error) {
		stats.TopCenters, err = svc.repo.CenterRankings(gctx, topCentersLimit)
		return errors.Wrap(err, "loading center rankings")
	})
	g.Go(func() (err error) {
		stats.RecentEvaluations, err = svc.evalSvc.Query(gctx, &evaluation.QueryFilter{Limit: recentEvalsLimit}, createdAtDesc)
		return errors.Wrap(err, "loading recent evaluations")
	})

	if err := g.Wait(); err != nil {
		return AdminStats{}, &DataLoadError{Err: err}
	}
	return stats, nil
}

func (svc service) ManagerStats(ctx context.Context, manager user.User) (ManagerStats, error) {
	var stats ManagerStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.ActiveEmployees, err = svc.repo.CountActiveEmployees(gctx, manager.CenterID.String)
		return errors.Wrap(err, "counting employees")
	})
	g.Go(func() (err error) {
		stats.TotalEvaluations, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{EvaluatorID: manager.ID})
		return errors.Wrap(err, "counting evaluations")
	})
	g.Go(func() (err error) {
		stats.SubmittedEvaluations, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{
			EvaluatorID: manager.ID,
			Status:      evaluation.StatusSubmitted,
		})
		return errors.Wrap(err, "counting submitted evaluations")
	})
	g.Go(func() (err error) {
		stats.Forms, err = svc.formSvc.Query(gctx, &form.QueryFilter{
			Type:     form.TypeManagerEvaluation,
			IsActive: boolPtr(true),
		}, nil)
		return errors.Wrap(err, "loading forms")
	})

	if err := g.Wait(); err != nil {
		return ManagerStats{}, &DataLoadError{Err: err}
	}
	stats.DraftEvaluations = stats.TotalEvaluations - stats.SubmittedEvaluations
	return stats, nil
}

func (svc service) EmployeeStats(ctx context.Context, employee user.User) (EmployeeStats, error) {
	var stats EmployeeStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Forms, err = svc.formSvc.Query(gctx, &form.QueryFilter{
			Type:     form.TypeSelfEvaluation,
			IsActive: boolPtr(true),
		}, nil)
		return errors.Wrap(err, "loading forms")
	})
	g.Go(func() (err error) {
		stats.Evaluations, err = svc.evalSvc.Query(gctx, &evaluation.QueryFilter{EvaluatorID: employee.ID}, createdAtDesc)
		return errors.Wrap(err, "loading evaluations")
	})

	if err := g.Wait(); err != nil {
		return EmployeeStats{}, &DataLoadError{Err: err}
	}
	for _, ev := range stats.Evaluations {
		if ev.IsSubmitted() {
			stats.SubmittedEvaluations++
		} else {
			stats.DraftEvaluations++
		}
	}
	return stats, nil
}

func (svc service) Rankings(ctx context.Context) ([]CenterRanking, error) {
	rankings, err := svc.repo.CenterRankings(ctx, 0)
	if err != nil {
		return nil, &DataLoadError{Err: errors.Wrap(err, "loading center rankings")}
	}
	return rankings, nil
}

func (svc service) ReviewerStats(ctx context.Context) (ReviewerStats, error) {
	var stats ReviewerStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalVisits, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{FormType: form.TypeFieldVisit})
		return errors.Wrap(err, "counting visits")
	})
	g.Go(func() (err error) {
		stats.DraftVisits, err = svc.repo.CountEvaluations(gctx, &evaluation.QueryFilter{
			FormType: form.TypeFieldVisit,
			Status:   evaluation.StatusDraft,
		})
		return errors.Wrap(err, "counting draft visits")
	})
	g.Go(func() (err error) {
		stats.TopCenters, err = svc.repo.CenterRankings(gctx, topCentersLimit)
		return errors.Wrap(err, "loading center rankings")
	})
	g.Go(func() (err error) {
		stats.RecentVisits, err = svc.evalSvc.Query(gctx, &evaluation.QueryFilter{
			FormType: form.TypeFieldVisit,
			Limit:    recentEvalsLimit,
		}, createdAtDesc)
		return errors.Wrap(err, "loading recent visits")
	})

	if err := g.Wait(); err != nil {
		return ReviewerStats{}, &DataLoadError{Err: err}
	}
	return stats, nil
}
