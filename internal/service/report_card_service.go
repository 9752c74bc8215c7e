package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type reportCardRepository interface {
	List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCardDetail, int, error)
	ListForClassPeriod(ctx context.Context, classID, periodID string) ([]models.ReportCardDetail, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.ReportCardDetail, error)
	FindByID(ctx context.Context, id string) (*models.ReportCardDetail, error)
	StudentsWithCard(ctx context.Context, periodID string, studentIDs []string) ([]string, error)
	Create(ctx context.Context, card *models.ReportCard) error
	CreateBatchWithTx(ctx context.Context, tx *sqlx.Tx, cards []models.ReportCard) error
	Update(ctx context.Context, card *models.ReportCard) error
	BatchUpdateStatus(ctx context.Context, ids []string, status models.ReportCardStatus) (int64, error)
	BatchDelete(ctx context.Context, ids []string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type reportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

type studentGradeReader interface {
	ListForStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]models.Grade, error)
}

type lateInvoiceReader interface {
	StudentsWithLateInvoice(ctx context.Context, studentIDs []string) ([]string, error)
}

type courseAverageReader interface {
	AveragesForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CourseAverage, error)
}

type studentOwnership interface {
	OwnedBy(ctx context.Context, claims *models.JWTClaims) ([]string, error)
}

// CreateReportCardRequest creates one bulletin.
type CreateReportCardRequest struct {
	StudentID    string `json:"student_id" validate:"required,uuid"`
	PeriodID     string `json:"period_id" validate:"required,uuid"`
	Appreciation string `json:"appreciation" validate:"max=2000"`
}

// BatchCreateReportCardsRequest creates one bulletin per student for a period.
type BatchCreateReportCardsRequest struct {
	PeriodID   string   `json:"period_id" validate:"required,uuid"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=500,dive,uuid"`
}

// BatchStatusRequest changes the status of several bulletins.
type BatchStatusRequest struct {
	IDs    []string                `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
	Status models.ReportCardStatus `json:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// BatchDeleteRequest removes several bulletins.
type BatchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
}

// UpdateReportCardRequest edits appreciation and status of a bulletin.
type UpdateReportCardRequest struct {
	Appreciation *string                 `json:"appreciation" validate:"omitempty,max=2000"`
	Status       models.ReportCardStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// ReportCardService implements the bulletin lifecycle.
type ReportCardService struct {
	repo      reportCardRepository
	students  reportStudentReader
	periods   periodReader
	grades    studentGradeReader
	invoices  lateInvoiceReader
	courses   courseAverageReader
	owners    studentOwnership
	tx        txProvider
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// ReportCardDeps groups the collaborators of ReportCardService.
type ReportCardDeps struct {
	Repo     reportCardRepository
	Students reportStudentReader
	Periods  periodReader
	Grades   studentGradeReader
	Invoices lateInvoiceReader
	Courses  courseAverageReader
	Owners   studentOwnership
	Tx       txProvider
	Cache    *CacheService
}

// NewReportCardService constructs ReportCardService.
func NewReportCardService(deps ReportCardDeps, validate *validation.Validator, logger *zap.Logger) *ReportCardService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCardService{
		repo:      deps.Repo,
		students:  deps.Students,
		periods:   deps.Periods,
		grades:    deps.Grades,
		invoices:  deps.Invoices,
		courses:   deps.Courses,
		owners:    deps.Owners,
		tx:        deps.Tx,
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns bulletins. Students and parents only see their own.
func (s *ReportCardService) List(ctx context.Context, filter models.ReportCardFilter, claims *models.JWTClaims) ([]models.ReportCardDetail, *models.Pagination, error) {
	owned, err := s.owners.OwnedBy(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	filter.StudentIDs = owned
	cards, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les bulletins")
	}
	return cards, pagination(filter.Page, filter.PageSize, total), nil
}

// ByStudent lists every bulletin of one student.
func (s *ReportCardService) ByStudent(ctx context.Context, studentID string, claims *models.JWTClaims) ([]models.ReportCardDetail, error) {
	if err := s.ensureVisible(ctx, claims, studentID); err != nil {
		return nil, err
	}
	cards, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de lister les bulletins")
	}
	return cards, nil
}

// Get returns a bulletin the caller may read.
func (s *ReportCardService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.ReportCardDetail, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Bulletin introuvable", "Impossible de charger le bulletin")
	}
	if err := s.ensureVisible(ctx, claims, card.StudentID); err != nil {
		return nil, err
	}
	return card, nil
}

// Create issues a DRAFT bulletin for (student, period). The average covers the period's grades and
// the financial status reflects the student's invoices.
func (s *ReportCardService) Create(ctx context.Context, req CreateReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		return nil, lookupError(err, "Période introuvable", "Impossible de charger la période")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, lookupError(err, "Élève introuvable", "Impossible de charger l'élève")
	}
	existing, err := s.repo.StudentsWithCard(ctx, period.ID, []string{req.StudentID})
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de vérifier les bulletins existants")
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "Un bulletin existe déjà pour cet élève et cette période")
	}
	cards, err := s.draftCards(ctx, period, []string{req.StudentID})
	if err != nil {
		return nil, err
	}
	card := &cards[0]
	card.Appreciation = req.Appreciation
	if err := s.repo.Create(ctx, card); err != nil {
		return nil, writeError(err, "Un bulletin existe déjà pour cet élève et cette période", "Élève ou période inexistant", "Impossible de créer le bulletin")
	}
	s.cache.InvalidateReportCards(ctx)
	s.logger.Info("report card created", zap.String("report_card_id", card.ID), zap.String("student_id", card.StudentID))
	return card, nil
}

// BatchCreate issues a bulletin for every listed student. Every student is checked before the
// first insert and the inserts share one transaction, so either all cards exist afterwards or none.
func (s *ReportCardService) BatchCreate(ctx context.Context, req BatchCreateReportCardsRequest) (cards []models.ReportCard, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	studentIDs := uniqueStrings(req.StudentIDs)
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		return nil, lookupError(err, "Période introuvable", "Impossible de charger la période")
	}
	found, err := s.students.ExistingIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de vérifier les élèves")
	}
	if missing := difference(studentIDs, found); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Élèves introuvables : %s", strings.Join(missing, ", ")))
	}
	existing, err := s.repo.StudentsWithCard(ctx, period.ID, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de vérifier les bulletins existants")
	}
	if len(existing) > 0 {
		sort.Strings(existing)
		return nil, appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("Un bulletin existe déjà pour cette période : %s", strings.Join(existing, ", ")))
	}
	cards, err = s.draftCards(ctx, period, studentIDs)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)
	if err = s.repo.CreateBatchWithTx(ctx, tx, cards); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "Un bulletin existe déjà pour cette période")
		}
		return nil, appErrors.Internal(err, "Impossible de créer les bulletins")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "Impossible de valider les bulletins")
	}
	s.cache.InvalidateReportCards(ctx)
	s.logger.Info("report cards created", zap.String("period_id", period.ID), zap.Int("count", len(cards)))
	return cards, nil
}

// Update edits appreciation and status. Status moves only DRAFT to PUBLISHED to ARCHIVED.
func (s *ReportCardService) Update(ctx context.Context, id string, req UpdateReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Bulletin introuvable", "Impossible de charger le bulletin")
	}
	card := detail.ReportCard
	if req.Status != "" {
		if !card.Status.CanTransitionTo(req.Status) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("Passage de %s à %s non autorisé", card.Status, req.Status))
		}
		card.Status = req.Status
	}
	if req.Appreciation != nil {
		card.Appreciation = *req.Appreciation
	}
	if err := s.repo.Update(ctx, &card); err != nil {
		return nil, appErrors.Internal(err, "Impossible de mettre à jour le bulletin")
	}
	s.cache.InvalidateReportCards(ctx)
	return &card, nil
}

// BatchUpdateStatus sets the status of every listed bulletin in a single statement.
func (s *ReportCardService) BatchUpdateStatus(ctx context.Context, req BatchStatusRequest) (*models.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	affected, err := s.repo.BatchUpdateStatus(ctx, uniqueStrings(req.IDs), req.Status)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de mettre à jour les bulletins")
	}
	s.cache.InvalidateReportCards(ctx)
	return &models.BatchResult{Affected: affected}, nil
}

// BatchDelete removes every listed bulletin in a single statement.
func (s *ReportCardService) BatchDelete(ctx context.Context, req BatchDeleteRequest) (*models.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	affected, err := s.repo.BatchDelete(ctx, uniqueStrings(req.IDs))
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de supprimer les bulletins")
	}
	s.cache.InvalidateReportCards(ctx)
	return &models.BatchResult{Affected: affected}, nil
}

// Delete removes a bulletin.
func (s *ReportCardService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "", "Impossible de supprimer le bulletin")
	}
	s.cache.InvalidateReportCards(ctx)
	return nil
}

// ClassSummary ranks the bulletins of a class for a period, best average first. Ties share a rank.
// The second result reports a cache hit.
func (s *ReportCardService) ClassSummary(ctx context.Context, classID, periodID string, claims *models.JWTClaims) (*models.ClassReportSummary, bool, error) {
	if claims != nil && (claims.Role == models.RoleStudent || claims.Role == models.RoleParent) {
		return nil, false, appErrors.ErrForbidden
	}
	if periodID == "" {
		return nil, false, appErrors.Validation("Données invalides", map[string]string{"period_id": "period_id est obligatoire"})
	}
	key := classSummaryKey(classID, periodID)
	var cached models.ClassReportSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	cards, err := s.repo.ListForClassPeriod(ctx, classID, periodID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "Impossible de charger les bulletins de la classe")
	}
	summary := summariseClass(classID, periodID, cards)
	s.cache.Set(ctx, key, summary, 0)
	return summary, false, nil
}

// Document gathers the per-course averages printed on a bulletin.
func (s *ReportCardService) Document(ctx context.Context, id string, claims *models.JWTClaims) (*models.ReportCardDocument, error) {
	card, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.FindByID(ctx, card.PeriodID)
	if err != nil {
		return nil, lookupError(err, "Période introuvable", "Impossible de charger la période")
	}
	courses, err := s.courses.AveragesForStudent(ctx, card.StudentID, period.StartDate, period.EndDate)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de calculer les moyennes par matière")
	}
	return &models.ReportCardDocument{Card: *card, Courses: courses, GeneratedAt: s.now().UTC()}, nil
}

func (s *ReportCardService) ensureVisible(ctx context.Context, claims *models.JWTClaims, studentID string) error {
	owned, err := s.owners.OwnedBy(ctx, claims)
	if err != nil {
		return err
	}
	if owned == nil {
		return nil
	}
	for _, id := range owned {
		if id == studentID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func (s *ReportCardService) draftCards(ctx context.Context, period *models.Period, studentIDs []string) ([]models.ReportCard, error) {
	late, err := s.invoices.StudentsWithLateInvoice(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de vérifier la situation financière")
	}
	lateSet := make(map[string]struct{}, len(late))
	for _, id := range late {
		lateSet[id] = struct{}{}
	}
	cards := make([]models.ReportCard, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		grades, err := s.grades.ListForStudentBetween(ctx, studentID, period.StartDate, period.EndDate)
		if err != nil {
			return nil, appErrors.Internal(err, "Impossible de calculer la moyenne")
		}
		card := models.ReportCard{
			StudentID:       studentID,
			PeriodID:        period.ID,
			Average:         models.WeightedAverage(grades),
			Status:          models.ReportCardStatusDraft,
			FinancialStatus: models.FinancialStatusPending,
		}
		if _, ok := lateSet[studentID]; ok {
			card.FinancialStatus = models.FinancialStatusLate
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func summariseClass(classID, periodID string, cards []models.ReportCardDetail) *models.ClassReportSummary {
	summary := &models.ClassReportSummary{ClassID: classID, PeriodID: periodID, Students: make([]models.ClassReportRow, 0, len(cards))}
	if len(cards) == 0 {
		return summary
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Average > cards[j].Average })
	var total float64
	summary.Highest = cards[0].Average
	summary.Lowest = cards[len(cards)-1].Average
	rank := 0
	for i, card := range cards {
		if i == 0 || card.Average != cards[i-1].Average {
			rank = i + 1
		}
		total += card.Average
		summary.Students = append(summary.Students, models.ClassReportRow{
			ReportCardID: card.ID,
			StudentID:    card.StudentID,
			StudentName:  card.StudentFirstName + " " + card.StudentLastName,
			Average:      card.Average,
			Rank:         rank,
			Status:       card.Status,
		})
	}
	summary.ClassAverage = total / float64(len(cards))
	return summary
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func difference(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, v := range have {
		present[v] = struct{}{}
	}
	var missing []string
	for _, v := range want {
		if _, ok := present[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
