package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/notify"
)

const paymentStatusLockKey = "lock:payment-status"

type runLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

type overdueInvoiceWriter interface {
	MarkOverdueLateWithTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]models.LateInvoice, error)
	ApplyLateFeesWithTx(ctx context.Context, tx *sqlx.Tx, percent float64, cutoff, now time.Time) (int64, error)
}

type lateFeeAssignmentWriter interface {
	MarkLateForInvoicesWithTx(ctx context.Context, tx *sqlx.Tx, invoiceIDs []string) (int64, error)
}

type lateReportCardWriter interface {
	MarkFinancialLateWithTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) (int64, error)
}

type paymentConfigTxReader interface {
	GetWithTx(ctx context.Context, tx *sqlx.Tx) (*models.PaymentConfig, error)
}

type parentContactReader interface {
	ParentContacts(ctx context.Context, studentIDs []string) ([]models.ParentContact, error)
}

// PaymentStatusDeps groups the collaborators of PaymentStatusService.
type PaymentStatusDeps struct {
	Invoices    overdueInvoiceWriter
	Assignments lateFeeAssignmentWriter
	ReportCards lateReportCardWriter
	Config      paymentConfigTxReader
	Contacts    parentContactReader
	Locker      runLocker
	Notifier    notify.Notifier
	Metrics     *MetricsService
	Tx          txProvider
	LockTTL     time.Duration
	AppName     string
}

// PaymentStatusService propagates overdue invoices to fee assignments and report cards and
// charges late fees. A run is idempotent: invoices already LATE are not returned again and late
// fees carry an applied timestamp.
type PaymentStatusService struct {
	deps   PaymentStatusDeps
	logger *zap.Logger
	now    func() time.Time
}

// NewPaymentStatusService constructs PaymentStatusService.
func NewPaymentStatusService(deps PaymentStatusDeps, logger *zap.Logger) *PaymentStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 5 * time.Minute
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(logger)
	}
	return &PaymentStatusService{deps: deps, logger: logger, now: time.Now}
}

// Run executes one propagation. It fails with ErrLocked while another run holds the lock; without
// Redis no lock is taken.
func (s *PaymentStatusService) Run(ctx context.Context) (*models.PaymentPropagationResult, error) {
	token, err := s.acquire(ctx)
	switch {
	case errors.Is(err, appErrors.ErrLockNotAcquired):
		return nil, appErrors.ErrLocked
	case err != nil:
		s.logger.Warn("payment status lock unavailable, running unlocked", zap.Error(err))
		token = ""
	}
	if token != "" {
		defer func() {
			if err := s.deps.Locker.ReleaseLock(context.Background(), paymentStatusLockKey, token); err != nil {
				s.logger.Warn("payment status lock release failed", zap.Error(err))
			}
		}()
	}

	start := s.now()
	result, err := s.propagate(ctx, start.UTC())
	if err != nil {
		s.deps.Metrics.RecordPaymentRun(nil, time.Since(start))
		s.logger.Error("payment status propagation failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("Échec de la mise à jour des statuts de paiement : %v", err))
	}
	result.NotifiedParents = s.notifyParents(ctx, result.lateStudents)
	s.deps.Metrics.RecordPaymentRun(&result.PaymentPropagationResult, time.Since(start))
	s.logger.Info("payment status propagated",
		zap.Int("invoices", result.InvoicesMarkedLate),
		zap.Int("fee_assignments", result.FeeAssignmentsMarkedLate),
		zap.Int("report_cards", result.ReportCardsMarkedLate),
		zap.Int("late_fees", result.LateFeesApplied),
		zap.Int("notified_parents", result.NotifiedParents))
	return &result.PaymentPropagationResult, nil
}

func (s *PaymentStatusService) acquire(ctx context.Context) (string, error) {
	if s.deps.Locker == nil {
		return "", nil
	}
	return s.deps.Locker.AcquireLock(ctx, paymentStatusLockKey, s.deps.LockTTL)
}

type propagation struct {
	models.PaymentPropagationResult
	lateStudents map[string]int
}

func (s *PaymentStatusService) propagate(ctx context.Context, now time.Time) (result *propagation, err error) {
	tx, err := s.deps.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx, &err)

	late, err := s.deps.Invoices.MarkOverdueLateWithTx(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	result = &propagation{
		PaymentPropagationResult: models.PaymentPropagationResult{RanAt: now, InvoicesMarkedLate: len(late)},
		lateStudents:             make(map[string]int),
	}
	invoiceIDs := make([]string, 0, len(late))
	for _, invoice := range late {
		invoiceIDs = append(invoiceIDs, invoice.ID)
		result.lateStudents[invoice.StudentID]++
	}
	result.LateInvoiceIDs = invoiceIDs

	assignments, err := s.deps.Assignments.MarkLateForInvoicesWithTx(ctx, tx, invoiceIDs)
	if err != nil {
		return nil, err
	}
	result.FeeAssignmentsMarkedLate = int(assignments)

	cards, err := s.deps.ReportCards.MarkFinancialLateWithTx(ctx, tx, sortedKeys(result.lateStudents))
	if err != nil {
		return nil, err
	}
	result.ReportCardsMarkedLate = int(cards)

	cfg, err := s.deps.Config.GetWithTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if cfg.LatePaymentFeePercent > 0 {
		cutoff := now.AddDate(0, 0, -cfg.LatePaymentGracePeriod)
		fees, err := s.deps.Invoices.ApplyLateFeesWithTx(ctx, tx, cfg.LatePaymentFeePercent, cutoff, now)
		if err != nil {
			return nil, err
		}
		result.LateFeesApplied = int(fees)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// notifyParents is best effort: failures are logged and do not fail the run.
func (s *PaymentStatusService) notifyParents(ctx context.Context, lateStudents map[string]int) int {
	if len(lateStudents) == 0 || s.deps.Contacts == nil {
		return 0
	}
	contacts, err := s.deps.Contacts.ParentContacts(ctx, sortedKeys(lateStudents))
	if err != nil {
		s.logger.Warn("load parent contacts failed", zap.Error(err))
		return 0
	}
	sent := 0
	for _, contact := range contacts {
		if contact.Email == "" {
			continue
		}
		msg := notify.Message{
			ToName:  contact.ParentName,
			ToEmail: contact.Email,
			Subject: s.subject("Facture en retard de paiement"),
			Text: fmt.Sprintf("Bonjour %s, %d facture(s) de %s sont arrivées à échéance sans être réglées. Merci de régulariser la situation auprès de l'établissement.",
				contact.ParentName, lateStudents[contact.StudentID], contact.StudentName),
		}
		if err := s.deps.Notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("late payment notice failed", zap.String("student_id", contact.StudentID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

func (s *PaymentStatusService) subject(text string) string {
	if s.deps.AppName == "" {
		return text
	}
	return "[" + s.deps.AppName + "] " + text
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
