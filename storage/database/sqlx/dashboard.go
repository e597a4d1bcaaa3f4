package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/dashboard"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/user"
)

type dashboardRepository struct {
	db *sqlx.DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil)

func NewDashboardRepository(db *sqlx.DB) dashboard.Repository {
	return &dashboardRepository{db: db}
}

func count(ctx context.Context, ext sqlx.ExtContext, q string, args ...interface{}) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, ext, &n, ext.Rebind(q), args...)
	return n, err
}

func (repo dashboardRepository) CountActiveCenters(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	n, err := count(ctx, getExec(repo.db, exec), `SELECT COUNT(*) FROM center WHERE is_active = TRUE`)
	return n, errors.Wrap(err, "counting centers")
}

func (repo dashboardRepository) CountActiveUsers(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	n, err := count(ctx, getExec(repo.db, exec), `SELECT COUNT(*) FROM "user" WHERE is_active = TRUE`)
	return n, errors.Wrap(err, "counting users")
}

func (repo dashboardRepository) CountActiveEmployees(ctx context.Context, centerID string, exec ...core.DBExecutor) (int, error) {
	q := `SELECT COUNT(*) FROM "user" WHERE is_active = TRUE AND role = ?`
	args := []interface{}{user.RoleEmployee}
	if centerID != "" {
		q += ` AND center_id = ?`
		args = append(args, centerID)
	}
	n, err := count(ctx, getExec(repo.db, exec), q, args...)
	return n, errors.Wrap(err, "counting employees")
}

func (repo dashboardRepository) CountActiveForms(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	n, err := count(ctx, getExec(repo.db, exec), `SELECT COUNT(*) FROM form WHERE is_active = TRUE`)
	return n, errors.Wrap(err, "counting forms")
}

func (repo dashboardRepository) CountEvaluations(ctx context.Context, filter *evaluation.QueryFilter, exec ...core.DBExecutor) (int, error) {
	join, conds, args := evaluationWhere(filter)
	q := `SELECT COUNT(*) FROM evaluation e` + join + where(conds)
	n, err := count(ctx, getExec(repo.db, exec), q, args...)
	return n, errors.Wrap(err, "counting evaluations")
}

// CenterRankings reads the v_center_rankings view; ordering (average
// percentage descending, center name ascending) is baked into the view.
func (repo dashboardRepository) CenterRankings(ctx context.Context, limit int, exec ...core.DBExecutor) ([]dashboard.CenterRanking, error) {
	ext := getExec(repo.db, exec)

	q := `SELECT center_id, center_name, average_percentage, evaluation_count FROM v_center_rankings`
	var args []interface{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []struct {
		CenterID          string  `db:"center_id"`
		CenterName        string  `db:"center_name"`
		AveragePercentage float64 `db:"average_percentage"`
		EvaluationCount   int     `db:"evaluation_count"`
	}
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying center rankings")
	}

	rankings := make([]dashboard.CenterRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, dashboard.CenterRanking{
			CenterID:          row.CenterID,
			CenterName:        row.CenterName,
			AveragePercentage: row.AveragePercentage,
			EvaluationCount:   row.EvaluationCount,
		})
	}
	return rankings, nil
}
