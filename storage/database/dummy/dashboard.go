package dummydb

import (
	"context"
	"sort"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/dashboard"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/user"
)

type dashboardRepository struct {
	db      *DB
	evalRep *evaluationRepository
}

var _ dashboard.Repository = (*dashboardRepository)(nil)

func NewDashboardRepository(db *DB) dashboard.Repository {
	return &dashboardRepository{
		db:      db,
		evalRep: &evaluationRepository{db: db.evaluation, formDB: db.form},
	}
}

func isActive(ptr *bool) bool { return ptr != nil && *ptr }

func (repo *dashboardRepository) CountActiveCenters(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.center.RLock()
	defer repo.db.center.RUnlock()

	var n int
	for _, cen := range repo.db.center.table {
		if isActive(cen.IsActive) {
			n++
		}
	}
	return n, nil
}

func (repo *dashboardRepository) CountActiveUsers(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	var n int
	for _, usr := range repo.db.user.table {
		if isActive(usr.IsActive) {
			n++
		}
	}
	return n, nil
}

func (repo *dashboardRepository) CountActiveEmployees(ctx context.Context, centerID string, exec ...core.DBExecutor) (int, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	var n int
	for _, usr := range repo.db.user.table {
		if !isActive(usr.IsActive) || usr.Role != user.RoleEmployee {
			continue
		}
		if centerID != "" && usr.CenterID.String != centerID {
			continue
		}
		n++
	}
	return n, nil
}

func (repo *dashboardRepository) CountActiveForms(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.form.RLock()
	defer repo.db.form.RUnlock()

	var n int
	for _, frm := range repo.db.form.table {
		if isActive(frm.IsActive) {
			n++
		}
	}
	return n, nil
}

func (repo *dashboardRepository) CountEvaluations(ctx context.Context, filter *evaluation.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.evaluation.RLock()
	defer repo.db.evaluation.RUnlock()

	var n int
	for _, ev := range repo.db.evaluation.table {
		if repo.evalRep.matches(*ev, filter) {
			n++
		}
	}
	return n, nil
}

// CenterRankings recomputes the ranking projection from submitted evaluations:
// average percentage per subject center, descending, ties broken by center
// name ascending.
func (repo *dashboardRepository) CenterRankings(ctx context.Context, limit int, exec ...core.DBExecutor) ([]dashboard.CenterRanking, error) {
	repo.db.evaluation.RLock()
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ev := range repo.db.evaluation.table {
		if !ev.IsSubmitted() || !ev.SubjectCenterID.Valid {
			continue
		}
		sums[ev.SubjectCenterID.String] += ev.Percentage.Float64
		counts[ev.SubjectCenterID.String]++
	}
	repo.db.evaluation.RUnlock()

	repo.db.center.RLock()
	rankings := make([]dashboard.CenterRanking, 0, len(counts))
	for centerID, n := range counts {
		ranking := dashboard.CenterRanking{
			CenterID:          centerID,
			AveragePercentage: sums[centerID] / float64(n),
			EvaluationCount:   n,
		}
		if cen, ok := repo.db.center.table[centerID]; ok {
			ranking.CenterName = cen.Name
		}
		rankings = append(rankings, ranking)
	}
	repo.db.center.RUnlock()

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].AveragePercentage != rankings[j].AveragePercentage {
			return rankings[i].AveragePercentage > rankings[j].AveragePercentage
		}
		return rankings[i].CenterName < rankings[j].CenterName
	})
	if limit > 0 && len(rankings) > limit {
		rankings = rankings[:limit]
	}
	return rankings, nil
}
