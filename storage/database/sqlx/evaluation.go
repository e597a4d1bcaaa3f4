package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/evaluation"
)

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *sqlx.DB) evaluation.Repository {
	return &evaluationRepository{db: db}
}

type evaluationRow struct {
	ID              string       `db:"id"`
	FormID          string       `db:"form_id"`
	FormVersion     int          `db:"form_version"`
	EvaluatorID     string       `db:"evaluator_id"`
	SubjectUserID   null.String  `db:"subject_user_id"`
	SubjectCenterID null.String  `db:"subject_center_id"`
	Status          string       `db:"status"`
	EvaluationDate  time.Time    `db:"evaluation_date"`
	Percentage      null.Float64 `db:"percentage"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (row evaluationRow) evaluation() evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:              row.ID,
		FormID:          row.FormID,
		FormVersion:     row.FormVersion,
		EvaluatorID:     row.EvaluatorID,
		SubjectUserID:   row.SubjectUserID,
		SubjectCenterID: row.SubjectCenterID,
		Status:          row.Status,
		EvaluationDate:  row.EvaluationDate,
		Percentage:      row.Percentage,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type responseRow struct {
	ID           string  `db:"id"`
	EvaluationID string  `db:"evaluation_id"`
	CriterionID  string  `db:"criterion_id"`
	Value        float64 `db:"value"`
}

const selectEvaluation = `SELECT e.id, e.form_id, e.form_version, e.evaluator_id, e.subject_user_id, e.subject_center_id,
	e.status, e.evaluation_date, e.percentage, e.created_at, e.updated_at FROM evaluation e`

// evaluationWhere builds the WHERE clause shared by evaluation listing and
// dashboard counting. Filtering on form type joins the form table.
func evaluationWhere(filter *evaluation.QueryFilter) (join string, conds []string, args []interface{}) {
	if filter == nil {
		return "", nil, nil
	}
	if filter.FormType != "" {
		join = ` JOIN form f ON f.id = e.form_id`
		conds = append(conds, `f.form_type = ?`)
		args = append(args, filter.FormType)
	}
	if filter.EvaluatorID != "" {
		conds = append(conds, `e.evaluator_id = ?`)
		args = append(args, filter.EvaluatorID)
	}
	if filter.SubjectUserID != "" {
		conds = append(conds, `e.subject_user_id = ?`)
		args = append(args, filter.SubjectUserID)
	}
	if filter.SubjectCenterID != "" {
		conds = append(conds, `e.subject_center_id = ?`)
		args = append(args, filter.SubjectCenterID)
	}
	if filter.FormID != "" {
		conds = append(conds, `e.form_id = ?`)
		args = append(args, filter.FormID)
	}
	if filter.Status != "" {
		conds = append(conds, `e.status = ?`)
		args = append(args, filter.Status)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, `e.created_at >= ?`)
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, `e.created_at <= ?`)
		args = append(args, filter.CreatedTo)
	}
	return join, conds, args
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	ext := getExec(repo.db, exec)

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	q := ext.Rebind(`INSERT INTO evaluation (id, form_id, form_version, evaluator_id, subject_user_id, subject_center_id,
		status, evaluation_date, percentage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := ext.ExecContext(ctx, q,
		ev.ID, ev.FormID, ev.FormVersion, ev.EvaluatorID, ev.SubjectUserID, ev.SubjectCenterID,
		ev.Status, ev.EvaluationDate, ev.Percentage, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return ev, nil
}

func (repo evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	ext := getExec(repo.db, exec)

	var row evaluationRow
	if err := sqlx.GetContext(ctx, ext, &row, ext.Rebind(selectEvaluation+` WHERE e.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "getting evaluation")
	}
	ev := row.evaluation()

	var respRows []responseRow
	q := ext.Rebind(`SELECT id, evaluation_id, criterion_id, value FROM response WHERE evaluation_id = ?`)
	if err := sqlx.SelectContext(ctx, ext, &respRows, q, id); err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "querying responses")
	}
	ev.Responses = make([]evaluation.Response, 0, len(respRows))
	for _, rr := range respRows {
		ev.Responses = append(ev.Responses, evaluation.Response(rr))
	}
	return ev, nil
}

func (repo evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]evaluation.Evaluation, error) {
	ext := getExec(repo.db, exec)

	join, conds, args := evaluationWhere(filter)
	q := selectEvaluation + join + where(conds)
	q += orderBy(ordering, core.DBOrdering{Field: "e.created_at", Ascending: false})
	if filter != nil && filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []evaluationRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, row := range rows {
		evals = append(evals, row.evaluation())
	}
	return evals, nil
}

func (repo evaluationRepository) ReplaceResponses(ctx context.Context, evaluationID string, responses []evaluation.Response, exec ...core.DBExecutor) error {
	return transact(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		if _, err := ext.ExecContext(ctx, ext.Rebind(`DELETE FROM response WHERE evaluation_id = ?`), evaluationID); err != nil {
			return errors.Wrap(err, "deleting responses")
		}

		q := ext.Rebind(`INSERT INTO response (id, evaluation_id, criterion_id, value) VALUES (?, ?, ?, ?)`)
		for i := range responses {
			responses[i].ID = uuid.New().String()
			responses[i].EvaluationID = evaluationID
			resp := responses[i]
			if _, err := ext.ExecContext(ctx, q, resp.ID, resp.EvaluationID, resp.CriterionID, resp.Value); err != nil {
				return errors.Wrap(err, "inserting response")
			}
		}

		upd := ext.Rebind(`UPDATE evaluation SET updated_at = ? WHERE id = ?`)
		_, err := ext.ExecContext(ctx, upd, time.Now().UTC(), evaluationID)
		return errors.Wrap(err, "touching evaluation")
	})
}

func (repo evaluationRepository) SubmitEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	ext := getExec(repo.db, exec)

	// guarded on status so the draft→submitted transition happens at most once
	q := ext.Rebind(`UPDATE evaluation SET status = ?, percentage = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := ext.ExecContext(ctx, q, ev.Status, ev.Percentage, ev.UpdatedAt, ev.ID, evaluation.StatusDraft)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "submitting evaluation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "submitting evaluation")
	}
	if n == 0 {
		return evaluation.Evaluation{}, evaluation.ErrAlreadySubmitted
	}
	return ev, nil
}
