package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockClassRepo struct {
	classes   map[string]*models.Class
	createErr error
	deleteErr error
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error { return m.createErr }
func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error { return nil }
func (m *mockClassRepo) Delete(ctx context.Context, id string) error           { return m.deleteErr }

func TestClassServiceDeleteReferencedClass(t *testing.T) {
	svc := NewClassService(&mockClassRepo{deleteErr: pqError("23503", "schedules_class_id_fkey")}, nil, nil)

	err := svc.Delete(context.Background(), "c-1")
	appErr := assertAppError(t, err, appErrors.ErrReferenced)
	assert.Contains(t, appErr.Message, "emplois du temps")
}

func TestClassServiceDeleteUnknownClass(t *testing.T) {
	svc := NewClassService(&mockClassRepo{deleteErr: sql.ErrNoRows}, nil, nil)
	assertAppError(t, svc.Delete(context.Background(), "c-1"), appErrors.ErrNotFound)
}

func TestClassServiceCreateDuplicateName(t *testing.T) {
	svc := NewClassService(&mockClassRepo{createErr: pqError("23505", "classes_name_year_key")}, nil, nil)

	_, err := svc.Create(context.Background(), ClassRequest{Name: "6e A", Level: "6e", Year: "2025-2026"})
	assertAppError(t, err, appErrors.ErrDuplicate)
}

type mockPeriodRepo struct {
	periods map[string]*models.Period
	created *models.Period
}

func (m *mockPeriodRepo) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error) {
	return nil, 0, nil
}

func (m *mockPeriodRepo) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.Period) error {
	m.created = period
	return nil
}

func (m *mockPeriodRepo) Update(ctx context.Context, period *models.Period) error { return nil }
func (m *mockPeriodRepo) Delete(ctx context.Context, id string) error             { return nil }

func TestPeriodServiceRequiresChronologicalDates(t *testing.T) {
	repo := &mockPeriodRepo{}
	svc := NewPeriodService(repo, nil, nil)
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), PeriodRequest{Name: "T2", SchoolYear: "2025-2026", StartDate: start, EndDate: start})
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "end_date")

	period, err := svc.Create(context.Background(), PeriodRequest{Name: "T2", SchoolYear: "2025-2026", StartDate: start, EndDate: start.AddDate(0, 3, 0)})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusUpcoming, period.Status)
}

type mockEvaluationRepo struct {
	evaluations map[string]*models.Evaluation
	created     *models.Evaluation
}

func (m *mockEvaluationRepo) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error) {
	return nil, 0, nil
}

func (m *mockEvaluationRepo) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if e, ok := m.evaluations[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	m.created = evaluation
	return nil
}

func (m *mockEvaluationRepo) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return nil
}
func (m *mockEvaluationRepo) Delete(ctx context.Context, id string) error { return nil }

func TestEvaluationServiceDefaults(t *testing.T) {
	repo := &mockEvaluationRepo{}
	svc := NewEvaluationService(repo, nil, nil)

	evaluation, err := svc.Create(context.Background(), EvaluationRequest{
		Title:    "Contrôle 1",
		Date:     time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		CourseID: "5b0e2c66-8c02-4c46-9d0a-3f2f8f1e9e10",
		ClassID:  "0f3c9c1e-3f0b-4a5d-8d4e-4b1f0d2c7a21",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxScore, evaluation.MaxScore)
	assert.Equal(t, 1.0, evaluation.Coefficient)
}
