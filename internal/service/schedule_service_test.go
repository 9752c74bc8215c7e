package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockScheduleRepo struct {
	conflict  *models.ScheduleConflict
	createErr error
	created   *models.Schedule
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	return nil, nil
}

func (m *mockScheduleRepo) FindConflictWithTx(ctx context.Context, tx *sqlx.Tx, classID, teacherID, timeSlotID string) (*models.ScheduleConflict, error) {
	return m.conflict, nil
}

func (m *mockScheduleRepo) CreateWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if m.createErr != nil {
		return m.createErr
	}
	schedule.ID = "sched-1"
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error { return sql.ErrNoRows }

type knownIDs map[string]bool

func (k knownIDs) find(id string) error {
	if k[id] {
		return nil
	}
	return sql.ErrNoRows
}

type stubClassReader struct{ knownIDs }

func (s stubClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if err := s.find(id); err != nil {
		return nil, err
	}
	return &models.Class{ID: id}, nil
}

type stubCourseReader struct{ knownIDs }

func (s stubCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if err := s.find(id); err != nil {
		return nil, err
	}
	return &models.Course{ID: id}, nil
}

type stubTeacherReader struct{ knownIDs }

func (s stubTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if err := s.find(id); err != nil {
		return nil, err
	}
	return &models.Teacher{ID: id}, nil
}

type stubSlotReader struct{ knownIDs }

func (s stubSlotReader) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if err := s.find(id); err != nil {
		return nil, err
	}
	return &models.TimeSlot{ID: id}, nil
}

const (
	schedClass   = "11111111-1111-4111-8111-111111111111"
	schedCourse  = "22222222-2222-4222-8222-222222222222"
	schedTeacher = "33333333-3333-4333-8333-333333333333"
	schedSlot    = "44444444-4444-4444-8444-444444444444"
	schedUnknown = "55555555-5555-4555-8555-555555555555"
)

func newScheduleFixture(t *testing.T, repo *mockScheduleRepo) (*ScheduleService, sqlmock.Sqlmock) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	svc := NewScheduleService(ScheduleDeps{
		Repo:     repo,
		Classes:  stubClassReader{knownIDs{schedClass: true}},
		Courses:  stubCourseReader{knownIDs{schedCourse: true}},
		Teachers: stubTeacherReader{knownIDs{schedTeacher: true}},
		Slots:    stubSlotReader{knownIDs{schedSlot: true}},
		Tx:       tx,
	}, nil, nil)
	return svc, mock
}

func validScheduleRequest() ScheduleRequest {
	return ScheduleRequest{ClassID: schedClass, CourseID: schedCourse, TeacherID: schedTeacher, TimeSlotID: schedSlot, Room: "B12"}
}

func TestScheduleCreateBooksFreeSlot(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc, mock := newScheduleFixture(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	schedule, err := svc.Create(context.Background(), validScheduleRequest())
	require.NoError(t, err)
	assert.Equal(t, "sched-1", schedule.ID)
	assert.Equal(t, "B12", repo.created.Room)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCreateReportsMissingReferences(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc, mock := newScheduleFixture(t, repo)

	cases := map[string]func(*ScheduleRequest){
		"class":   func(r *ScheduleRequest) { r.ClassID = schedUnknown },
		"course":  func(r *ScheduleRequest) { r.CourseID = schedUnknown },
		"teacher": func(r *ScheduleRequest) { r.TeacherID = schedUnknown },
		"slot":    func(r *ScheduleRequest) { r.TimeSlotID = schedUnknown },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validScheduleRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assertAppError(t, err, appErrors.ErrNotFound)
		})
	}
	assert.Nil(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCreateDetectsConflicts(t *testing.T) {
	tests := []struct {
		name      string
		conflict  *models.ScheduleConflict
		createErr error
		wantText  string
	}{
		{name: "class busy", conflict: &models.ScheduleConflict{ScheduleID: "s-9", Dimension: "CLASS"}, wantText: "La classe"},
		{name: "teacher busy", conflict: &models.ScheduleConflict{ScheduleID: "s-9", Dimension: "TEACHER"}, wantText: "L'enseignant"},
		{name: "teacher race", createErr: pqError("23505", "schedules_teacher_slot_key"), wantText: "L'enseignant"},
		{name: "class race", createErr: pqError("23505", "schedules_class_slot_key"), wantText: "La classe"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock := newScheduleFixture(t, &mockScheduleRepo{conflict: tc.conflict, createErr: tc.createErr})
			mock.ExpectBegin()
			mock.ExpectRollback()

			_, err := svc.Create(context.Background(), validScheduleRequest())
			appErr := assertAppError(t, err, appErrors.ErrScheduleConflict)
			assert.Contains(t, appErr.Message, tc.wantText)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScheduleDeleteUnknown(t *testing.T) {
	svc, _ := newScheduleFixture(t, &mockScheduleRepo{})
	err := svc.Delete(context.Background(), "missing")
	assertAppError(t, err, appErrors.ErrNotFound)
}
