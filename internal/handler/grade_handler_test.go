package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type gradeServiceMock struct {
	grades     []models.Grade
	grade      *models.Grade
	average    *models.StudentAverage
	err        error
	lastFilter models.GradeFilter
	listCalled bool
}

func (m *gradeServiceMock) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.grades, models.NewPagination(filter.Page, filter.PageSize, len(m.grades)), m.err
}

func (m *gradeServiceMock) Get(ctx context.Context, id string) (*models.Grade, error) {
	return m.grade, m.err
}

func (m *gradeServiceMock) Create(ctx context.Context, req service.GradeRequest, actor *models.JWTClaims) (*models.Grade, error) {
	return m.grade, m.err
}

func (m *gradeServiceMock) Update(ctx context.Context, id string, req service.GradeRequest) (*models.Grade, error) {
	return m.grade, m.err
}

func (m *gradeServiceMock) Delete(ctx context.Context, id string) error { return m.err }

func (m *gradeServiceMock) StudentAverage(ctx context.Context, studentID, periodID string) (*models.StudentAverage, error) {
	return m.average, m.err
}

// ownershipStub restricts STUDENT and PARENT callers to owned[userID].
type ownershipStub struct {
	owned map[string][]string
}

func (o ownershipStub) OwnedBy(ctx context.Context, claims *models.JWTClaims) ([]string, error) {
	if claims == nil || (claims.Role != models.RoleStudent && claims.Role != models.RoleParent) {
		return nil, nil
	}
	if ids, ok := o.owned[claims.UserID]; ok {
		return ids, nil
	}
	return []string{}, nil
}

func (o ownershipStub) VisibleTo(ctx context.Context, claims *models.JWTClaims, studentID string) (bool, error) {
	ids, err := o.OwnedBy(ctx, claims)
	if ids == nil {
		return true, err
	}
	return contains(ids, studentID), err
}

var gradeOwners = ownershipStub{owned: map[string][]string{
	"parent-1":  {"stu-a", "stu-b"},
	"student-1": {"stu-a"},
}}

func TestGradeListScopesSelfRoles(t *testing.T) {
	cases := []struct {
		name      string
		userID    string
		role      models.UserRole
		query     string
		status    int
		studentID string
		called    bool
	}{
		{"staff passes filters through", "teacher-1", models.RoleTeacher, "?student_id=stu-z", http.StatusOK, "stu-z", true},
		{"student defaults to self", "student-1", models.RoleStudent, "", http.StatusOK, "stu-a", true},
		{"parent picks a child", "parent-1", models.RoleParent, "?student_id=stu-b", http.StatusOK, "stu-b", true},
		{"parent must choose among children", "parent-1", models.RoleParent, "", http.StatusBadRequest, "", false},
		{"foreign student is forbidden", "parent-1", models.RoleParent, "?student_id=stu-z", http.StatusForbidden, "", false},
		{"parent without children sees nothing", "parent-2", models.RoleParent, "", http.StatusOK, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &gradeServiceMock{grades: []models.Grade{{ID: "g-1"}}}
			h := NewGradeHandler(svc, gradeOwners)
			c, w := newGinContext(http.MethodGet, "/grades"+tc.query, nil)
			withClaims(c, tc.userID, tc.role)

			h.List(c)

			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.called, svc.listCalled)
			if tc.called {
				assert.Equal(t, tc.studentID, svc.lastFilter.StudentID)
			}
		})
	}
}

func TestGradeListRejectsBadDate(t *testing.T) {
	h := NewGradeHandler(&gradeServiceMock{}, gradeOwners)
	c, w := newGinContext(http.MethodGet, "/grades?from=yesterday", nil)
	withClaims(c, "admin", models.RoleAdmin)

	h.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error.Fields, "from")
}

func TestGradeGetHidesOtherStudents(t *testing.T) {
	svc := &gradeServiceMock{grade: &models.Grade{ID: "g-1", StudentID: "stu-b"}}
	h := NewGradeHandler(svc, gradeOwners)
	c, w := newGinContext(http.MethodGet, "/grades/g-1", nil)
	withClaims(c, "student-1", models.RoleStudent)

	h.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGradeAverage(t *testing.T) {
	svc := &gradeServiceMock{average: &models.StudentAverage{StudentID: "stu-a", PeriodID: "p-1", Average: 12.5, GradeCount: 4}}
	h := NewGradeHandler(svc, gradeOwners)

	c, w := newGinContext(http.MethodGet, "/grades/average?student_id=stu-a&period_id=p-1", nil)
	withClaims(c, "student-1", models.RoleStudent)
	h.Average(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"student_id":"stu-a","period_id":"p-1","average":12.5,"grade_count":4}`, string(decode(t, w).Data))

	c, w = newGinContext(http.MethodGet, "/grades/average", nil)
	withClaims(c, "admin", models.RoleAdmin)
	h.Average(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Contains(t, env.Error.Fields, "student_id")
	assert.Contains(t, env.Error.Fields, "period_id")

	svc.err = appErrors.Clone(appErrors.ErrNotFound, "Période introuvable")
	c, w = newGinContext(http.MethodGet, "/grades/average?student_id=stu-a&period_id=missing", nil)
	withClaims(c, "admin", models.RoleAdmin)
	h.Average(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
