package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockReportCardRepo struct {
	cards         map[string]*models.ReportCardDetail
	withCard      []string
	classCards    []models.ReportCardDetail
	studentCards  []models.ReportCardDetail
	created       []models.ReportCard
	batchErr      error
	updated       *models.ReportCard
	lastFilter    models.ReportCardFilter
	classQueries  int
	batchStatused []string
}

func (m *mockReportCardRepo) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCardDetail, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockReportCardRepo) ListForClassPeriod(ctx context.Context, classID, periodID string) ([]models.ReportCardDetail, error) {
	m.classQueries++
	return append([]models.ReportCardDetail(nil), m.classCards...), nil
}

func (m *mockReportCardRepo) ListForStudent(ctx context.Context, studentID string) ([]models.ReportCardDetail, error) {
	var cards []models.ReportCardDetail
	for _, c := range m.studentCards {
		if c.StudentID == studentID {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

func (m *mockReportCardRepo) FindByID(ctx context.Context, id string) (*models.ReportCardDetail, error) {
	if c, ok := m.cards[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportCardRepo) StudentsWithCard(ctx context.Context, periodID string, studentIDs []string) ([]string, error) {
	var out []string
	for _, id := range studentIDs {
		for _, with := range m.withCard {
			if id == with {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (m *mockReportCardRepo) Create(ctx context.Context, card *models.ReportCard) error {
	card.ID = "rc-new"
	m.created = append(m.created, *card)
	return nil
}

func (m *mockReportCardRepo) CreateBatchWithTx(ctx context.Context, tx *sqlx.Tx, cards []models.ReportCard) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.created = append(m.created, cards...)
	return nil
}

func (m *mockReportCardRepo) Update(ctx context.Context, card *models.ReportCard) error {
	m.updated = card
	return nil
}

func (m *mockReportCardRepo) BatchUpdateStatus(ctx context.Context, ids []string, status models.ReportCardStatus) (int64, error) {
	m.batchStatused = ids
	return int64(len(ids)), nil
}

func (m *mockReportCardRepo) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	return int64(len(ids)), nil
}

func (m *mockReportCardRepo) Delete(ctx context.Context, id string) error { return nil }

type mockReportStudents struct {
	existing map[string]bool
}

func (m *mockReportStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.existing[id] {
		return &models.Student{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStudents) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if m.existing[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

type stubGrades map[string][]models.Grade

func (s stubGrades) ListForStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]models.Grade, error) {
	return s[studentID], nil
}

type stubLateInvoices []string

func (s stubLateInvoices) StudentsWithLateInvoice(ctx context.Context, studentIDs []string) ([]string, error) {
	return s, nil
}

type stubCourseAverages []models.CourseAverage

func (s stubCourseAverages) AveragesForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CourseAverage, error) {
	return s, nil
}

type stubOwnership struct {
	owned map[string][]string
}

func (s stubOwnership) OwnedBy(ctx context.Context, claims *models.JWTClaims) ([]string, error) {
	if claims == nil || (claims.Role != models.RoleStudent && claims.Role != models.RoleParent) {
		return nil, nil
	}
	if ids, ok := s.owned[claims.UserID]; ok {
		return ids, nil
	}
	return []string{}, nil
}

type mockCacheRepo struct {
	store       map[string]interface{}
	invalidated []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.ClassReportSummary) = *v.(*models.ClassReportSummary)
	return nil
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.store[key] = value
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.store = map[string]interface{}{}
	return nil
}

type reportCardFixture struct {
	svc   *ReportCardService
	repo  *mockReportCardRepo
	cache *mockCacheRepo
}

func newReportCardFixture(t *testing.T, tx txProvider) reportCardFixture {
	t.Helper()
	repo := &mockReportCardRepo{cards: map[string]*models.ReportCardDetail{}}
	cacheRepo := &mockCacheRepo{store: map[string]interface{}{}}
	periods := &mockPeriodRepo{periods: map[string]*models.Period{
		rcPeriodID: {ID: rcPeriodID, StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewReportCardService(ReportCardDeps{
		Repo:     repo,
		Students: &mockReportStudents{existing: map[string]bool{rcStudentA: true, rcStudentB: true}},
		Periods:  periods,
		Grades: stubGrades{
			rcStudentA: {{Value: 14, Coefficient: 1}, {Value: 8, Coefficient: 2}},
		},
		Invoices: stubLateInvoices{rcStudentB},
		Courses:  stubCourseAverages{{CourseID: "math", CourseName: "Mathématiques", Coefficient: 4, Average: 12.5}},
		Owners:   stubOwnership{owned: map[string][]string{"parent-user": {rcStudentA}}},
		Tx:       tx,
		Cache:    NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true),
	}, nil, nil)
	return reportCardFixture{svc: svc, repo: repo, cache: cacheRepo}
}

const (
	rcPeriodID = "6b1f0c3e-2d4a-4b5c-8e9f-0a1b2c3d4e5f"
	rcStudentA = "1a2b3c4d-5e6f-4a1b-8c2d-3e4f5a6b7c8d"
	rcStudentB = "9f8e7d6c-5b4a-4f3e-9d2c-1b0a9f8e7d6c"
	rcStudentX = "00000000-0000-4000-8000-000000000000"
)

func TestReportCardCreateComputesAverageAndFinancialStatus(t *testing.T) {
	f := newReportCardFixture(t, nil)

	card, err := f.svc.Create(context.Background(), CreateReportCardRequest{StudentID: rcStudentA, PeriodID: rcPeriodID, Appreciation: "Bon trimestre"})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, card.Average, 1e-9)
	assert.Equal(t, models.ReportCardStatusDraft, card.Status)
	assert.Equal(t, models.FinancialStatusPending, card.FinancialStatus)
	assert.Equal(t, "Bon trimestre", card.Appreciation)
	assert.Contains(t, f.cache.invalidated, "report-cards:*")

	late, err := f.svc.Create(context.Background(), CreateReportCardRequest{StudentID: rcStudentB, PeriodID: rcPeriodID})
	require.NoError(t, err)
	assert.Equal(t, models.FinancialStatusLate, late.FinancialStatus)
	assert.Zero(t, late.Average)
}

func TestReportCardCreateRejectsSecondCardForPeriod(t *testing.T) {
	f := newReportCardFixture(t, nil)
	f.repo.withCard = []string{rcStudentA}

	_, err := f.svc.Create(context.Background(), CreateReportCardRequest{StudentID: rcStudentA, PeriodID: rcPeriodID})
	appErr := assertAppError(t, err, appErrors.ErrDuplicate)
	assert.Contains(t, appErr.Message, "déjà")
	assert.Empty(t, f.repo.created)
}

func TestReportCardCreateUnknownReferences(t *testing.T) {
	f := newReportCardFixture(t, nil)

	_, err := f.svc.Create(context.Background(), CreateReportCardRequest{StudentID: rcStudentX, PeriodID: rcPeriodID})
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Create(context.Background(), CreateReportCardRequest{StudentID: rcStudentA, PeriodID: rcStudentX})
	assertAppError(t, err, appErrors.ErrNotFound)
}

func TestReportCardBatchCreateInsertsAllInOneTransaction(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newReportCardFixture(t, tx)
	mock.ExpectBegin()
	mock.ExpectCommit()

	cards, err := f.svc.BatchCreate(context.Background(), BatchCreateReportCardsRequest{
		PeriodID:   rcPeriodID,
		StudentIDs: []string{rcStudentA, rcStudentB, rcStudentA},
	})
	require.NoError(t, err)
	assert.Len(t, cards, 2)
	assert.Len(t, f.repo.created, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardBatchCreateValidatesBeforeWriting(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newReportCardFixture(t, tx)

	_, err := f.svc.BatchCreate(context.Background(), BatchCreateReportCardsRequest{
		PeriodID:   rcPeriodID,
		StudentIDs: []string{rcStudentA, rcStudentX},
	})
	appErr := assertAppError(t, err, appErrors.ErrNotFound)
	assert.Contains(t, appErr.Message, rcStudentX)

	f.repo.withCard = []string{rcStudentB}
	_, err = f.svc.BatchCreate(context.Background(), BatchCreateReportCardsRequest{
		PeriodID:   rcPeriodID,
		StudentIDs: []string{rcStudentA, rcStudentB},
	})
	assertAppError(t, err, appErrors.ErrDuplicate)
	assert.Empty(t, f.repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardBatchCreateRollsBackOnInsertFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newReportCardFixture(t, tx)
	f.repo.batchErr = errors.New("insert failed")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.svc.BatchCreate(context.Background(), BatchCreateReportCardsRequest{PeriodID: rcPeriodID, StudentIDs: []string{rcStudentA}})
	assertAppError(t, err, appErrors.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardUpdateEnforcesTransitions(t *testing.T) {
	f := newReportCardFixture(t, nil)
	f.repo.cards["rc-1"] = &models.ReportCardDetail{ReportCard: models.ReportCard{ID: "rc-1", Status: models.ReportCardStatusPublished}}

	_, err := f.svc.Update(context.Background(), "rc-1", UpdateReportCardRequest{Status: models.ReportCardStatusDraft})
	assertAppError(t, err, appErrors.ErrInvalidTransition)

	card, err := f.svc.Update(context.Background(), "rc-1", UpdateReportCardRequest{Status: models.ReportCardStatusArchived})
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardStatusArchived, card.Status)

	_, err = f.svc.Update(context.Background(), "missing", UpdateReportCardRequest{Status: models.ReportCardStatusArchived})
	assertAppError(t, err, appErrors.ErrNotFound)
}

func TestReportCardListScopesParents(t *testing.T) {
	f := newReportCardFixture(t, nil)

	_, _, err := f.svc.List(context.Background(), models.ReportCardFilter{}, &models.JWTClaims{UserID: "parent-user", Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, []string{rcStudentA}, f.repo.lastFilter.StudentIDs)

	_, _, err = f.svc.List(context.Background(), models.ReportCardFilter{}, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, f.repo.lastFilter.StudentIDs)

	_, err = f.svc.ByStudent(context.Background(), rcStudentB, &models.JWTClaims{UserID: "parent-user", Role: models.RoleParent})
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestReportCardByStudentReturnsEveryCard(t *testing.T) {
	f := newReportCardFixture(t, nil)
	for i := 0; i < 120; i++ {
		f.repo.studentCards = append(f.repo.studentCards, models.ReportCardDetail{
			ReportCard: models.ReportCard{ID: fmt.Sprintf("rc-%d", i), StudentID: rcStudentA},
		})
	}

	cards, err := f.svc.ByStudent(context.Background(), rcStudentA, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, cards, 120)
}

func TestReportCardClassSummaryRanksAndCaches(t *testing.T) {
	f := newReportCardFixture(t, nil)
	f.repo.classCards = []models.ReportCardDetail{
		{ReportCard: models.ReportCard{ID: "1", StudentID: "a", Average: 12}, StudentFirstName: "Awa", StudentLastName: "Diop"},
		{ReportCard: models.ReportCard{ID: "2", StudentID: "b", Average: 15}},
		{ReportCard: models.ReportCard{ID: "3", StudentID: "c", Average: 12}},
	}
	admin := &models.JWTClaims{Role: models.RoleAdmin}

	summary, hit, err := f.svc.ClassSummary(context.Background(), "class-1", rcPeriodID, admin)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, summary.Students, 3)
	assert.Equal(t, "b", summary.Students[0].StudentID)
	assert.Equal(t, []int{1, 2, 2}, []int{summary.Students[0].Rank, summary.Students[1].Rank, summary.Students[2].Rank})
	assert.Equal(t, "Awa Diop", summary.Students[1].StudentName)
	assert.InDelta(t, 13.0, summary.ClassAverage, 1e-9)
	assert.Equal(t, 15.0, summary.Highest)
	assert.Equal(t, 12.0, summary.Lowest)

	_, hit, err = f.svc.ClassSummary(context.Background(), "class-1", rcPeriodID, admin)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, f.repo.classQueries)

	_, err = f.svc.BatchDelete(context.Background(), BatchDeleteRequest{IDs: []string{rcStudentA}})
	require.NoError(t, err)
	_, hit, err = f.svc.ClassSummary(context.Background(), "class-1", rcPeriodID, admin)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.repo.classQueries)

	_, _, err = f.svc.ClassSummary(context.Background(), "class-1", rcPeriodID, &models.JWTClaims{Role: models.RoleStudent})
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestReportCardDocumentChecksVisibility(t *testing.T) {
	f := newReportCardFixture(t, nil)
	f.repo.cards["rc-1"] = &models.ReportCardDetail{ReportCard: models.ReportCard{ID: "rc-1", StudentID: rcStudentA, PeriodID: rcPeriodID}}
	f.repo.cards["rc-2"] = &models.ReportCardDetail{ReportCard: models.ReportCard{ID: "rc-2", StudentID: rcStudentB, PeriodID: rcPeriodID}}
	parent := &models.JWTClaims{UserID: "parent-user", Role: models.RoleParent}

	doc, err := f.svc.Document(context.Background(), "rc-1", parent)
	require.NoError(t, err)
	require.Len(t, doc.Courses, 1)
	assert.Equal(t, "Mathématiques", doc.Courses[0].CourseName)

	_, err = f.svc.Document(context.Background(), "rc-2", parent)
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestReportCardBatchStatusValidatesPayload(t *testing.T) {
	f := newReportCardFixture(t, nil)
	_, err := f.svc.BatchUpdateStatus(context.Background(), BatchStatusRequest{IDs: nil, Status: models.ReportCardStatusPublished})
	assertAppError(t, err, appErrors.ErrValidation)

	res, err := f.svc.BatchUpdateStatus(context.Background(), BatchStatusRequest{IDs: []string{rcStudentA, rcStudentB}, Status: models.ReportCardStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Affected)
}
