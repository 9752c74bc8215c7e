package models

import "time"

// PaymentStatus is shared by invoices and fee assignments.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusLate    PaymentStatus = "LATE"
)

// FeeType is a catalogue entry (tuition, canteen, transport...).
type FeeType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Amount      float64   `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FeeAssignment charges a fee type to a student.
type FeeAssignment struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	FeeTypeID string        `db:"fee_type_id" json:"fee_type_id"`
	Amount    float64       `db:"amount" json:"amount"`
	Status    PaymentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Invoice bills one or more fee assignments with a due date.
type Invoice struct {
	ID               string        `db:"id" json:"id"`
	StudentID        string        `db:"student_id" json:"student_id"`
	Reference        string        `db:"reference" json:"reference"`
	Amount           float64       `db:"amount" json:"amount"`
	PaidAmount       float64       `db:"paid_amount" json:"paid_amount"`
	DueDate          time.Time     `db:"due_date" json:"due_date"`
	Status           PaymentStatus `db:"status" json:"status"`
	LateFee          float64       `db:"late_fee" json:"late_fee"`
	LateFeeAppliedAt *time.Time    `db:"late_fee_applied_at" json:"late_fee_applied_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
	FeeAssignmentIDs []string      `db:"-" json:"fee_assignment_ids,omitempty"`
}

// Balance is what remains to be paid including late fees.
func (i Invoice) Balance() float64 {
	return i.Amount + i.LateFee - i.PaidAmount
}

// BillingFilter scopes invoice and fee assignment listings.
type BillingFilter struct {
	StudentID  string
	Status     PaymentStatus
	StudentIDs []string // when non-nil, restricts results to these students even if empty
	Page       int
	PageSize   int
}

// PaymentConfig holds global late payment rules.
type PaymentConfig struct {
	LatePaymentFeePercent  float64   `db:"late_payment_fee_percent" json:"late_payment_fee_percent"`
	LatePaymentGracePeriod int       `db:"late_payment_grace_period" json:"late_payment_grace_period"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// LateInvoice is returned by the propagation step that flags overdue invoices.
type LateInvoice struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
}

// PaymentPropagationResult summarises one payment status run.
type PaymentPropagationResult struct {
	RanAt                    time.Time `json:"ran_at"`
	InvoicesMarkedLate       int       `json:"invoices_marked_late"`
	FeeAssignmentsMarkedLate int       `json:"fee_assignments_marked_late"`
	ReportCardsMarkedLate    int       `json:"report_cards_marked_late"`
	LateFeesApplied          int       `json:"late_fees_applied"`
	NotifiedParents          int       `json:"notified_parents"`
	LateInvoiceIDs           []string  `json:"late_invoice_ids,omitempty"`
}
