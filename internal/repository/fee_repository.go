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

const (
	feeTypeColumns       = `id, name, amount, description, created_at, updated_at`
	feeAssignmentColumns = `id, student_id, fee_type_id, amount, status, created_at, updated_at`
)

// FeeRepository persists the fee catalogue and the fees charged to students.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListTypes returns the fee catalogue.
func (r *FeeRepository) ListTypes(ctx context.Context) ([]models.FeeType, error) {
	var types []models.FeeType
	if err := r.db.SelectContext(ctx, &types, `SELECT `+feeTypeColumns+` FROM fee_types ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	return types, nil
}

// FindTypeByID returns a fee type.
func (r *FeeRepository) FindTypeByID(ctx context.Context, id string) (*models.FeeType, error) {
	var feeType models.FeeType
	if err := r.db.GetContext(ctx, &feeType, `SELECT `+feeTypeColumns+` FROM fee_types WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get fee type: %w", err)
	}
	return &feeType, nil
}

// CreateType inserts a fee type.
func (r *FeeRepository) CreateType(ctx context.Context, feeType *models.FeeType) error {
	if feeType.ID == "" {
		feeType.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	feeType.CreatedAt = now
	feeType.UpdatedAt = now
	const query = `INSERT INTO fee_types (id, name, amount, description, created_at, updated_at) VALUES (:id, :name, :amount, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feeType); err != nil {
		return fmt.Errorf("create fee type: %w", err)
	}
	return nil
}

// ListAssignments returns fee assignments filtered by student or status.
func (r *FeeRepository) ListAssignments(ctx context.Context, filter models.BillingFilter) ([]models.FeeAssignment, int, error) {
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
	base := "FROM fee_assignments WHERE " + strings.Join(conditions, " AND ")
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", feeAssignmentColumns, base, limit, offset)

	var assignments []models.FeeAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee assignments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee assignments: %w", err)
	}
	return assignments, total, nil
}

// FindAssignments returns the assignments with the given IDs.
func (r *FeeRepository) FindAssignments(ctx context.Context, ids []string) ([]models.FeeAssignment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var assignments []models.FeeAssignment
	query := `SELECT ` + feeAssignmentColumns + ` FROM fee_assignments WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find fee assignments: %w", err)
	}
	return assignments, nil
}

// CreateAssignment charges a fee to a student.
func (r *FeeRepository) CreateAssignment(ctx context.Context, assignment *models.FeeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.PaymentStatusPending
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO fee_assignments (id, student_id, fee_type_id, amount, status, created_at, updated_at)
        VALUES (:id, :student_id, :fee_type_id, :amount, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create fee assignment: %w", err)
	}
	return nil
}

// SetStatusForInvoiceWithTx moves the assignments linked to an invoice to status.
func (r *FeeRepository) SetStatusForInvoiceWithTx(ctx context.Context, tx *sqlx.Tx, invoiceID string, status models.PaymentStatus) (int64, error) {
	const query = `UPDATE fee_assignments SET status = $1, updated_at = $2
        WHERE id IN (SELECT fee_assignment_id FROM invoice_fee_assignments WHERE invoice_id = $3)`
	res, err := tx.ExecContext(ctx, query, status, time.Now().UTC(), invoiceID)
	if err != nil {
		return 0, fmt.Errorf("update invoice fee assignments: %w", err)
	}
	return res.RowsAffected()
}

// MarkLateForInvoicesWithTx flags the PENDING or PARTIAL assignments linked to the invoices as LATE.
func (r *FeeRepository) MarkLateForInvoicesWithTx(ctx context.Context, tx *sqlx.Tx, invoiceIDs []string) (int64, error) {
	if len(invoiceIDs) == 0 {
		return 0, nil
	}
	const query = `UPDATE fee_assignments SET status = 'LATE', updated_at = $1
        WHERE status IN ('PENDING', 'PARTIAL')
        AND id IN (SELECT fee_assignment_id FROM invoice_fee_assignments WHERE invoice_id = ANY($2))`
	res, err := tx.ExecContext(ctx, query, time.Now().UTC(), pq.Array(invoiceIDs))
	if err != nil {
		return 0, fmt.Errorf("mark fee assignments late: %w", err)
	}
	return res.RowsAffected()
}
