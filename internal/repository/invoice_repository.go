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

const invoiceColumns = `id, student_id, reference, amount, paid_amount, due_date, status, late_fee, late_fee_applied_at, created_at, updated_at`

// InvoiceRepository persists invoices and runs the overdue cascade statements.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// List returns invoices filtered by student or status.
func (r *InvoiceRepository) List(ctx context.Context, filter models.BillingFilter) ([]models.Invoice, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.StudentIDs != nil {
		conditions = append(conditions, fmt.Sprintf("student_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.StudentIDs))
	}
	base := "FROM invoices WHERE " + strings.Join(conditions, " AND ")
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY due_date DESC LIMIT %d OFFSET %d", invoiceColumns, base, limit, offset)

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

// FindByID returns an invoice with its linked fee assignment IDs.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := r.db.SelectContext(ctx, &invoice.FeeAssignmentIDs, `SELECT fee_assignment_id FROM invoice_fee_assignments WHERE invoice_id = $1`, id); err != nil {
		return nil, fmt.Errorf("get invoice fee assignments: %w", err)
	}
	return &invoice, nil
}

// LockByIDWithTx reads an invoice with a row lock for the rest of the transaction.
func (r *InvoiceRepository) LockByIDWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.GetContext(ctx, &invoice, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock invoice: %w", err)
	}
	return &invoice, nil
}

// CreateWithTx inserts the invoice and links its fee assignments.
func (r *InvoiceRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.Status == "" {
		invoice.Status = models.PaymentStatusPending
	}
	now := time.Now().UTC()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	const query = `INSERT INTO invoices (id, student_id, reference, amount, paid_amount, due_date, status, late_fee, created_at, updated_at)
        VALUES (:id, :student_id, :reference, :amount, :paid_amount, :due_date, :status, :late_fee, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	for _, assignmentID := range invoice.FeeAssignmentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO invoice_fee_assignments (invoice_id, fee_assignment_id) VALUES ($1, $2)`, invoice.ID, assignmentID); err != nil {
			return fmt.Errorf("link fee assignment %s: %w", assignmentID, err)
		}
	}
	return nil
}

// UpdatePaymentWithTx stores the paid amount and status computed by the caller.
func (r *InvoiceRepository) UpdatePaymentWithTx(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE invoices SET paid_amount = :paid_amount, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("update invoice payment: %w", err)
	}
	return nil
}

// StudentsWithLateInvoice returns which of the students hold at least one LATE invoice.
func (r *InvoiceRepository) StudentsWithLateInvoice(ctx context.Context, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var ids []string
	const query = `SELECT DISTINCT student_id FROM invoices WHERE status = 'LATE' AND student_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("check late invoices: %w", err)
	}
	return ids, nil
}

// MarkOverdueLateWithTx flags every PENDING or PARTIAL invoice whose due date is before the calendar
// day of now as LATE and returns the invoices it changed. An invoice due today is still on time.
// Invoices already LATE are not returned, so a rerun yields nothing.
func (r *InvoiceRepository) MarkOverdueLateWithTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]models.LateInvoice, error) {
	const query = `UPDATE invoices SET status = 'LATE', updated_at = $1
        WHERE due_date < $2::date AND status IN ('PENDING', 'PARTIAL')
        RETURNING id, student_id`
	var late []models.LateInvoice
	if err := tx.SelectContext(ctx, &late, query, now, now.Format(sqlDateLayout)); err != nil {
		return nil, fmt.Errorf("mark overdue invoices late: %w", err)
	}
	return late, nil
}

// ApplyLateFeesWithTx charges the configured percentage once on LATE invoices due before the
// calendar day of cutoff. late_fee_applied_at guards against charging the same invoice twice.
func (r *InvoiceRepository) ApplyLateFeesWithTx(ctx context.Context, tx *sqlx.Tx, percent float64, cutoff, now time.Time) (int64, error) {
	const query = `UPDATE invoices SET late_fee = ROUND(amount * $1 / 100, 2), late_fee_applied_at = $2, updated_at = $2
        WHERE status = 'LATE' AND late_fee_applied_at IS NULL AND due_date < $3::date`
	res, err := tx.ExecContext(ctx, query, percent, now, cutoff.Format(sqlDateLayout))
	if err != nil {
		return 0, fmt.Errorf("apply late fees: %w", err)
	}
	return res.RowsAffected()
}
