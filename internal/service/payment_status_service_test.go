package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/notify"
)

type stubOverdueInvoices struct {
	late       []models.LateInvoice
	markErr    error
	feePercent float64
	feeCutoff  time.Time
	feeCalls   int
}

func (s *stubOverdueInvoices) MarkOverdueLateWithTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]models.LateInvoice, error) {
	return s.late, s.markErr
}

func (s *stubOverdueInvoices) ApplyLateFeesWithTx(ctx context.Context, tx *sqlx.Tx, percent float64, cutoff, now time.Time) (int64, error) {
	s.feeCalls++
	s.feePercent = percent
	s.feeCutoff = cutoff
	return 2, nil
}

type stubLateAssignments struct{ invoiceIDs []string }

func (s *stubLateAssignments) MarkLateForInvoicesWithTx(ctx context.Context, tx *sqlx.Tx, invoiceIDs []string) (int64, error) {
	s.invoiceIDs = invoiceIDs
	return int64(len(invoiceIDs)), nil
}

type stubLateCards struct{ studentIDs []string }

func (s *stubLateCards) MarkFinancialLateWithTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) (int64, error) {
	s.studentIDs = studentIDs
	return int64(len(studentIDs)), nil
}

type stubConfigTx struct{ cfg models.PaymentConfig }

func (s stubConfigTx) GetWithTx(ctx context.Context, tx *sqlx.Tx) (*models.PaymentConfig, error) {
	cfg := s.cfg
	return &cfg, nil
}

type stubContacts []models.ParentContact

func (s stubContacts) ParentContacts(ctx context.Context, studentIDs []string) ([]models.ParentContact, error) {
	return s, nil
}

type stubLocker struct {
	acquireErr error
	released   []string
}

func (l *stubLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.acquireErr != nil {
		return "", l.acquireErr
	}
	return "token-1", nil
}

func (l *stubLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.released = append(l.released, key+"="+token)
	return nil
}

type recordingNotifier struct {
	sent []notify.Message
	fail map[string]bool
}

func (n *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	if n.fail[msg.ToEmail] {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, msg)
	return nil
}

type paymentStatusFixture struct {
	svc      *PaymentStatusService
	invoices *stubOverdueInvoices
	fees     *stubLateAssignments
	cards    *stubLateCards
	locker   *stubLocker
	notifier *recordingNotifier
	metrics  *MetricsService
}

var paymentRunAt = time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC)

func newPaymentStatusFixture(t *testing.T, tx txProvider, cfg models.PaymentConfig, logger *zap.Logger) paymentStatusFixture {
	t.Helper()
	f := paymentStatusFixture{
		invoices: &stubOverdueInvoices{late: []models.LateInvoice{
			{ID: "inv-2", StudentID: "stu-b"},
			{ID: "inv-1", StudentID: "stu-a"},
			{ID: "inv-3", StudentID: "stu-a"},
		}},
		fees:     &stubLateAssignments{},
		cards:    &stubLateCards{},
		locker:   &stubLocker{},
		notifier: &recordingNotifier{fail: map[string]bool{}},
		metrics:  NewMetricsService(),
	}
	f.svc = NewPaymentStatusService(PaymentStatusDeps{
		Invoices:    f.invoices,
		Assignments: f.fees,
		ReportCards: f.cards,
		Config:      stubConfigTx{cfg: cfg},
		Contacts: stubContacts{
			{StudentID: "stu-a", StudentName: "Awa Diop", ParentName: "Fatou Diop", Email: "fatou@example.org"},
			{StudentID: "stu-b", StudentName: "Malik Sow", ParentName: "Ibrahima Sow", Email: "ibrahima@example.org"},
			{StudentID: "stu-b", StudentName: "Malik Sow", ParentName: "Sans courriel"},
		},
		Locker:   f.locker,
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Tx:       tx,
		AppName:  "École",
	}, logger)
	f.svc.now = func() time.Time { return paymentRunAt }
	return f
}

func TestPaymentStatusRunPropagatesAndAppliesLateFees(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{LatePaymentFeePercent: 5, LatePaymentGracePeriod: 10}, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.InvoicesMarkedLate)
	assert.Equal(t, 3, result.FeeAssignmentsMarkedLate)
	assert.Equal(t, 2, result.ReportCardsMarkedLate)
	assert.Equal(t, 2, result.LateFeesApplied)
	assert.Equal(t, []string{"inv-2", "inv-1", "inv-3"}, result.LateInvoiceIDs)
	assert.Equal(t, []string{"stu-a", "stu-b"}, f.cards.studentIDs)
	assert.Equal(t, 5.0, f.invoices.feePercent)
	assert.Equal(t, paymentRunAt.AddDate(0, 0, -10), f.invoices.feeCutoff)
	assert.Equal(t, []string{paymentStatusLockKey + "=token-1"}, f.locker.released)
	assert.Equal(t, int64(1), f.metrics.Snapshot().PaymentRunsTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStatusRunSkipsLateFeesWithoutPercent(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{LatePaymentGracePeriod: 10}, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.LateFeesApplied)
	assert.Zero(t, f.invoices.feeCalls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStatusRunNotifiesParentsBestEffort(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	core, logs := observer.New(zapcore.WarnLevel)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{}, zap.New(core))
	f.notifier.fail["ibrahima@example.org"] = true
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotifiedParents)
	require.Len(t, f.notifier.sent, 1)
	msg := f.notifier.sent[0]
	assert.Equal(t, "fatou@example.org", msg.ToEmail)
	assert.Equal(t, "[École] Facture en retard de paiement", msg.Subject)
	assert.Contains(t, msg.Text, "2 facture(s) de Awa Diop")
	assert.Equal(t, 1, logs.FilterMessage("late payment notice failed").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStatusRunRollsBackOnFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{}, nil)
	f.invoices.markErr = errors.New("relation \"invoices\" does not exist")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.svc.Run(context.Background())
	appErr := assertAppError(t, err, appErrors.ErrInternal)
	assert.Contains(t, appErr.Message, "Échec de la mise à jour des statuts de paiement")
	assert.Empty(t, f.notifier.sent)
	assert.Len(t, f.locker.released, 1)
	assert.Zero(t, f.metrics.Snapshot().PaymentRunsTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStatusRunRejectsConcurrentRun(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{}, nil)
	f.locker.acquireErr = appErrors.ErrLockNotAcquired

	_, err := f.svc.Run(context.Background())
	assertAppError(t, err, appErrors.ErrLocked)
	assert.Empty(t, f.locker.released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStatusRunProceedsWhenLockBackendFails(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newPaymentStatusFixture(t, tx, models.PaymentConfig{}, nil)
	f.locker.acquireErr = errors.New("dial tcp: connection refused")
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.locker.released)
	require.NoError(t, mock.ExpectationsWereMet())
}
