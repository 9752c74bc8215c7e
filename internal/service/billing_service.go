package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type feeRepository interface {
	ListTypes(ctx context.Context) ([]models.FeeType, error)
	FindTypeByID(ctx context.Context, id string) (*models.FeeType, error)
	CreateType(ctx context.Context, feeType *models.FeeType) error
	ListAssignments(ctx context.Context, filter models.BillingFilter) ([]models.FeeAssignment, int, error)
	FindAssignments(ctx context.Context, ids []string) ([]models.FeeAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.FeeAssignment) error
	SetStatusForInvoiceWithTx(ctx context.Context, tx *sqlx.Tx, invoiceID string, status models.PaymentStatus) (int64, error)
}

type invoiceRepository interface {
	List(ctx context.Context, filter models.BillingFilter) ([]models.Invoice, int, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	LockByIDWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Invoice, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error
	UpdatePaymentWithTx(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error
}

type paymentConfigRepository interface {
	Get(ctx context.Context) (*models.PaymentConfig, error)
	Update(ctx context.Context, cfg *models.PaymentConfig) error
}

type financialStatusSyncer interface {
	SyncFinancialStatusWithTx(ctx context.Context, tx *sqlx.Tx, studentID string) error
}

// FeeTypeRequest creates a fee type.
type FeeTypeRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=120"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Description string  `json:"description" validate:"max=500"`
}

// FeeAssignmentRequest charges a fee type to a student. Amount defaults to the fee type amount.
type FeeAssignmentRequest struct {
	StudentID string  `json:"student_id" validate:"required,uuid"`
	FeeTypeID string  `json:"fee_type_id" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"omitempty,gt=0"`
}

// InvoiceRequest bills fee assignments of a student. Without assignments Amount is mandatory.
type InvoiceRequest struct {
	StudentID        string    `json:"student_id" validate:"required,uuid"`
	FeeAssignmentIDs []string  `json:"fee_assignment_ids" validate:"omitempty,max=100,dive,uuid"`
	Amount           float64   `json:"amount" validate:"omitempty,gt=0"`
	DueDate          time.Time `json:"due_date" validate:"required"`
	Reference        string    `json:"reference" validate:"omitempty,max=64"`
}

// PaymentRequest records money received for an invoice.
type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentConfigRequest updates the late payment rules.
type PaymentConfigRequest struct {
	LatePaymentFeePercent  float64 `json:"late_payment_fee_percent" validate:"gte=0,lte=100"`
	LatePaymentGracePeriod int     `json:"late_payment_grace_period" validate:"gte=0,lte=365"`
}

// BillingService manages fees, invoices and payments.
type BillingService struct {
	fees      feeRepository
	invoices  invoiceRepository
	config    paymentConfigRepository
	cards     financialStatusSyncer
	owners    studentOwnership
	tx        txProvider
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// BillingDeps groups the collaborators of BillingService.
type BillingDeps struct {
	Fees     feeRepository
	Invoices invoiceRepository
	Config   paymentConfigRepository
	Cards    financialStatusSyncer
	Owners   studentOwnership
	Tx       txProvider
}

// NewBillingService constructs BillingService.
func NewBillingService(deps BillingDeps, validate *validation.Validator, logger *zap.Logger) *BillingService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		fees:      deps.Fees,
		invoices:  deps.Invoices,
		config:    deps.Config,
		cards:     deps.Cards,
		owners:    deps.Owners,
		tx:        deps.Tx,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ListFeeTypes returns the fee catalogue.
func (s *BillingService) ListFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	types, err := s.fees.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de lister les types de frais")
	}
	return types, nil
}

// CreateFeeType adds a fee type.
func (s *BillingService) CreateFeeType(ctx context.Context, req FeeTypeRequest) (*models.FeeType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	feeType := &models.FeeType{Name: strings.TrimSpace(req.Name), Amount: req.Amount, Description: req.Description}
	if err := s.fees.CreateType(ctx, feeType); err != nil {
		return nil, writeError(err, "Un type de frais porte déjà ce nom", "", "Impossible de créer le type de frais")
	}
	return feeType, nil
}

// ListAssignments returns fee assignments. Parents only see their children.
func (s *BillingService) ListAssignments(ctx context.Context, filter models.BillingFilter, claims *models.JWTClaims) ([]models.FeeAssignment, *models.Pagination, error) {
	owned, err := s.owners.OwnedBy(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	filter.StudentIDs = owned
	assignments, total, err := s.fees.ListAssignments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les frais")
	}
	return assignments, pagination(filter.Page, filter.PageSize, total), nil
}

// CreateAssignment charges a fee to a student.
func (s *BillingService) CreateAssignment(ctx context.Context, req FeeAssignmentRequest) (*models.FeeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	feeType, err := s.fees.FindTypeByID(ctx, req.FeeTypeID)
	if err != nil {
		return nil, lookupError(err, "Type de frais introuvable", "Impossible de charger le type de frais")
	}
	amount := req.Amount
	if amount == 0 {
		amount = feeType.Amount
	}
	assignment := &models.FeeAssignment{StudentID: req.StudentID, FeeTypeID: feeType.ID, Amount: amount, Status: models.PaymentStatusPending}
	if err := s.fees.CreateAssignment(ctx, assignment); err != nil {
		return nil, writeError(err, "", "Élève inexistant", "Impossible d'affecter les frais")
	}
	return assignment, nil
}

// ListInvoices returns invoices. Parents only see their children.
func (s *BillingService) ListInvoices(ctx context.Context, filter models.BillingFilter, claims *models.JWTClaims) ([]models.Invoice, *models.Pagination, error) {
	owned, err := s.owners.OwnedBy(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	filter.StudentIDs = owned
	invoices, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les factures")
	}
	return invoices, pagination(filter.Page, filter.PageSize, total), nil
}

// GetInvoice returns an invoice the caller may read.
func (s *BillingService) GetInvoice(ctx context.Context, id string, claims *models.JWTClaims) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Facture introuvable", "Impossible de charger la facture")
	}
	owned, err := s.owners.OwnedBy(ctx, claims)
	if err != nil {
		return nil, err
	}
	if owned != nil && !containsString(owned, invoice.StudentID) {
		return nil, appErrors.ErrForbidden
	}
	return invoice, nil
}

// CreateInvoice bills the listed fee assignments. They must belong to the student, and the
// invoice amount is their sum.
func (s *BillingService) CreateInvoice(ctx context.Context, req InvoiceRequest) (invoice *models.Invoice, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	assignmentIDs := uniqueStrings(req.FeeAssignmentIDs)
	amount := req.Amount
	if len(assignmentIDs) > 0 {
		assignments, err := s.fees.FindAssignments(ctx, assignmentIDs)
		if err != nil {
			return nil, appErrors.Internal(err, "Impossible de charger les frais")
		}
		found := make([]string, 0, len(assignments))
		amount = 0
		for _, a := range assignments {
			if a.StudentID != req.StudentID {
				return nil, appErrors.Validation("Données invalides", map[string]string{
					"fee_assignment_ids": fmt.Sprintf("les frais %s n'appartiennent pas à cet élève", a.ID),
				})
			}
			found = append(found, a.ID)
			amount += a.Amount
		}
		if missing := difference(assignmentIDs, found); len(missing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Frais introuvables : "+strings.Join(missing, ", "))
		}
	}
	if amount <= 0 {
		return nil, appErrors.Validation("Données invalides", map[string]string{"amount": "amount doit être supérieur à 0"})
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = s.newReference()
	}
	invoice = &models.Invoice{
		StudentID:        req.StudentID,
		Reference:        reference,
		Amount:           math.Round(amount*100) / 100,
		DueDate:          req.DueDate,
		Status:           models.PaymentStatusPending,
		FeeAssignmentIDs: assignmentIDs,
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)
	if err = s.invoices.CreateWithTx(ctx, tx, invoice); err != nil {
		return nil, writeError(err, "Cette référence de facture existe déjà", "Élève ou frais inexistant", "Impossible de créer la facture")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "Impossible de valider la facture")
	}
	s.logger.Info("invoice created", zap.String("invoice_id", invoice.ID), zap.String("reference", invoice.Reference), zap.Float64("amount", invoice.Amount))
	return invoice, nil
}

// RecordPayment adds a payment to an invoice. The invoice becomes PAID once the balance including
// late fees is covered, PARTIAL before that. A LATE invoice stays LATE until fully paid. Linked fee
// assignments and the student's report cards follow in the same transaction.
func (s *BillingService) RecordPayment(ctx context.Context, invoiceID string, req PaymentRequest) (invoice *models.Invoice, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)

	invoice, err = s.invoices.LockByIDWithTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, lookupError(err, "Facture introuvable", "Impossible de charger la facture")
	}
	if invoice.Status == models.PaymentStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Cette facture est déjà réglée")
	}
	if req.Amount > math.Round(invoice.Balance()*100)/100 {
		return nil, appErrors.Validation("Le paiement dépasse le solde de la facture", map[string]string{
			"amount": fmt.Sprintf("amount ne peut pas dépasser %.2f", invoice.Balance()),
		})
	}
	invoice.PaidAmount = math.Round((invoice.PaidAmount+req.Amount)*100) / 100
	invoice.Status = paymentStatusAfter(invoice)

	if err = s.invoices.UpdatePaymentWithTx(ctx, tx, invoice); err != nil {
		return nil, appErrors.Internal(err, "Impossible d'enregistrer le paiement")
	}
	if _, err = s.fees.SetStatusForInvoiceWithTx(ctx, tx, invoice.ID, invoice.Status); err != nil {
		return nil, appErrors.Internal(err, "Impossible de mettre à jour les frais")
	}
	if err = s.cards.SyncFinancialStatusWithTx(ctx, tx, invoice.StudentID); err != nil {
		return nil, appErrors.Internal(err, "Impossible de mettre à jour les bulletins")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "Impossible de valider le paiement")
	}
	s.logger.Info("payment recorded",
		zap.String("invoice_id", invoice.ID),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(invoice.Status)))
	return invoice, nil
}

// PaymentConfig returns the late payment rules.
func (s *BillingService) PaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de charger la configuration des paiements")
	}
	return cfg, nil
}

// UpdatePaymentConfig replaces the late payment rules.
func (s *BillingService) UpdatePaymentConfig(ctx context.Context, req PaymentConfigRequest) (*models.PaymentConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	cfg := &models.PaymentConfig{LatePaymentFeePercent: req.LatePaymentFeePercent, LatePaymentGracePeriod: req.LatePaymentGracePeriod}
	if err := s.config.Update(ctx, cfg); err != nil {
		return nil, writeError(err, "", "", "Impossible de mettre à jour la configuration des paiements")
	}
	return cfg, nil
}

func (s *BillingService) newReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", s.now().UTC().Format("200601"), suffix)
}

func paymentStatusAfter(invoice *models.Invoice) models.PaymentStatus {
	switch {
	case invoice.Balance() <= 0.005:
		return models.PaymentStatusPaid
	case invoice.Status == models.PaymentStatusLate:
		return models.PaymentStatusLate
	case invoice.PaidAmount > 0:
		return models.PaymentStatusPartial
	}
	return models.PaymentStatusPending
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
