package dashboard

import (
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
)

// CenterRanking is one row of the center ranking projection: the average
// percentage over a center's submitted evaluations. The projection is
// derived, read-only and recomputed on read; it is never persisted by this
// package.
type CenterRanking struct {
	CenterID          string  `json:"center_id"`
	CenterName        string  `json:"center_name"`
	AveragePercentage float64 `json:"average_percentage"`
	EvaluationCount   int     `json:"evaluation_count"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalCenters      int                     `json:"total_centers"`
	TotalUsers        int                     `json:"total_users"`
	TotalForms        int                     `json:"total_forms"`
	TotalEvaluations  int                     `json:"total_evaluations"`
	DraftEvaluations  int                     `json:"draft_evaluations"`
	TopCenters        []CenterRanking         `json:"top_centers"`
	RecentEvaluations []evaluation.Evaluation `json:"recent_evaluations"`
}

// ManagerStats is the manager dashboard summary, scoped to the manager's
// center and own evaluations.
type ManagerStats struct {
	ActiveEmployees      int         `json:"active_employees"`
	TotalEvaluations     int         `json:"total_evaluations"`
	SubmittedEvaluations int         `json:"submitted_evaluations"`
	DraftEvaluations     int         `json:"draft_evaluations"`
	Forms                []form.Form `json:"forms"`
}

// EmployeeStats is the employee dashboard summary: own evaluations only.
type EmployeeStats struct {
	SubmittedEvaluations int                     `json:"submitted_evaluations"`
	DraftEvaluations     int                     `json:"draft_evaluations"`
	Forms                []form.Form             `json:"forms"`
	Evaluations          []evaluation.Evaluation `json:"evaluations"`
}

// ReviewerStats is the reviewer dashboard summary: the field-visit subset of
// the admin view, without center/user totals.
type ReviewerStats struct {
	TotalVisits  int                     `json:"total_visits"`
	DraftVisits  int                     `json:"draft_visits"`
	TopCenters   []CenterRanking         `json:"top_centers"`
	RecentVisits []evaluation.Evaluation `json:"recent_visits"`
}
