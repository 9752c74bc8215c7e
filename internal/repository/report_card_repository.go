package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const reportCardDetailSelect = `SELECT rc.id, rc.student_id, rc.period_id, rc.average, rc.appreciation, rc.status, rc.financial_status,
        rc.created_at, rc.updated_at, s.first_name AS student_first_name, s.last_name AS student_last_name,
        s.class_id, c.name AS class_name, p.name AS period_name, p.school_year
        FROM report_cards rc
        JOIN students s ON s.id = rc.student_id
        LEFT JOIN classes c ON c.id = s.class_id
        JOIN periods p ON p.id = rc.period_id`

const insertReportCard = `INSERT INTO report_cards (id, student_id, period_id, average, appreciation, status, financial_status, created_at, updated_at)
        VALUES (:id, :student_id, :period_id, :average, :appreciation, :status, :financial_status, :created_at, :updated_at)`

// ReportCardRepository persists report cards.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs a ReportCardRepository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// List returns report cards joined with student, class and period labels.
func (r *ReportCardRepository) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCardDetail, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("rc.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("rc.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("rc.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.StudentIDs != nil {
		conditions = append(conditions, fmt.Sprintf("rc.student_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.StudentIDs))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY p.start_date DESC, s.last_name ASC LIMIT %d OFFSET %d", reportCardDetailSelect, where, limit, offset)

	var cards []models.ReportCardDetail
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list report cards: %w", err)
	}
	countQuery := `SELECT COUNT(*) FROM report_cards rc JOIN students s ON s.id = rc.student_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count report cards: %w", err)
	}
	return cards, total, nil
}

// ListForClassPeriod returns every card of a class for a period, best average first.
func (r *ReportCardRepository) ListForClassPeriod(ctx context.Context, classID, periodID string) ([]models.ReportCardDetail, error) {
	query := reportCardDetailSelect + ` WHERE s.class_id = $1 AND rc.period_id = $2 ORDER BY rc.average DESC, s.last_name ASC`
	var cards []models.ReportCardDetail
	if err := r.db.SelectContext(ctx, &cards, query, classID, periodID); err != nil {
		return nil, fmt.Errorf("list class report cards: %w", err)
	}
	return cards, nil
}

// ListForStudent returns every card of a student, latest period first. A student holds at most one
// card per period so the result is not paginated.
func (r *ReportCardRepository) ListForStudent(ctx context.Context, studentID string) ([]models.ReportCardDetail, error) {
	query := reportCardDetailSelect + ` WHERE rc.student_id = $1 ORDER BY p.start_date DESC`
	var cards []models.ReportCardDetail
	if err := r.db.SelectContext(ctx, &cards, query, studentID); err != nil {
		return nil, fmt.Errorf("list student report cards: %w", err)
	}
	return cards, nil
}

// FindByID returns a report card with its labels.
func (r *ReportCardRepository) FindByID(ctx context.Context, id string) (*models.ReportCardDetail, error) {
	var card models.ReportCardDetail
	if err := r.db.GetContext(ctx, &card, reportCardDetailSelect+` WHERE rc.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get report card: %w", err)
	}
	return &card, nil
}

// StudentsWithCard returns which of the students already own a card for the period.
func (r *ReportCardRepository) StudentsWithCard(ctx context.Context, periodID string, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var ids []string
	const query = `SELECT student_id FROM report_cards WHERE period_id = $1 AND student_id = ANY($2)`
	if err := r.db.SelectContext(ctx, &ids, query, periodID, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("check existing report cards: %w", err)
	}
	return ids, nil
}

func stampReportCard(card *models.ReportCard, now time.Time) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	card.CreatedAt = now
	card.UpdatedAt = now
}

// Create inserts a single report card.
func (r *ReportCardRepository) Create(ctx context.Context, card *models.ReportCard) error {
	stampReportCard(card, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertReportCard, card); err != nil {
		return fmt.Errorf("create report card: %w", err)
	}
	return nil
}

// CreateBatchWithTx inserts all cards inside the caller's transaction.
func (r *ReportCardRepository) CreateBatchWithTx(ctx context.Context, tx *sqlx.Tx, cards []models.ReportCard) error {
	now := time.Now().UTC()
	for i := range cards {
		stampReportCard(&cards[i], now)
		if _, err := tx.NamedExecContext(ctx, insertReportCard, &cards[i]); err != nil {
			return fmt.Errorf("create report card for student %s: %w", cards[i].StudentID, err)
		}
	}
	return nil
}

// Update persists average, appreciation and status.
func (r *ReportCardRepository) Update(ctx context.Context, card *models.ReportCard) error {
	card.UpdatedAt = time.Now().UTC()
	const query = `UPDATE report_cards SET average = :average, appreciation = :appreciation, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("update report card: %w", err)
	}
	return nil
}

// BatchUpdateStatus sets the status of every listed card in one statement.
func (r *ReportCardRepository) BatchUpdateStatus(ctx context.Context, ids []string, status models.ReportCardStatus) (int64, error) {
	const query = `UPDATE report_cards SET status = $1, updated_at = $2 WHERE id = ANY($3)`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("batch update report card status: %w", err)
	}
	return res.RowsAffected()
}

// BatchDelete deletes every listed card in one statement.
func (r *ReportCardRepository) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_cards WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("batch delete report cards: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a single card.
func (r *ReportCardRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete report card", `DELETE FROM report_cards WHERE id = $1`, id)
}

// MarkFinancialLateWithTx flags the PENDING cards of the given students as LATE.
func (r *ReportCardRepository) MarkFinancialLateWithTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	const query = `UPDATE report_cards SET financial_status = 'LATE', updated_at = $1 WHERE student_id = ANY($2) AND financial_status = 'PENDING'`
	res, err := tx.ExecContext(ctx, query, time.Now().UTC(), pq.Array(studentIDs))
	if err != nil {
		return 0, fmt.Errorf("mark report cards late: %w", err)
	}
	return res.RowsAffected()
}

// SyncFinancialStatusWithTx recomputes the financial status of a student's cards from invoices:
// LATE while any invoice is late, PAID once every invoice is paid, PENDING otherwise.
func (r *ReportCardRepository) SyncFinancialStatusWithTx(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	const query = `UPDATE report_cards SET updated_at = $2, financial_status = CASE
            WHEN EXISTS (SELECT 1 FROM invoices WHERE student_id = $1 AND status = 'LATE') THEN 'LATE'
            WHEN NOT EXISTS (SELECT 1 FROM invoices WHERE student_id = $1 AND status <> 'PAID') THEN 'PAID'
            ELSE 'PENDING' END
        WHERE student_id = $1`
	if _, err := tx.ExecContext(ctx, query, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("sync report card financial status: %w", err)
	}
	return nil
}
