package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type timeSlotRepository interface {
	List(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	InsertIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, slot *models.TimeSlot) (bool, error)
	Delete(ctx context.Context, id string) error
}

type schoolDayConfigRepository interface {
	List(ctx context.Context) ([]models.SchoolDayConfig, error)
	Upsert(ctx context.Context, cfg *models.SchoolDayConfig) error
	Delete(ctx context.Context, id string) error
}

// TimeSlotRequest creates a slot by hand.
type TimeSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// SchoolDayConfigRequest sets the opening hours of a weekday.
type SchoolDayConfigRequest struct {
	DayOfWeek  int    `json:"day_of_week" validate:"required,min=1,max=7"`
	DayStart   string `json:"day_start" validate:"required,clock"`
	DayEnd     string `json:"day_end" validate:"required,clock"`
	BreakStart string `json:"break_start" validate:"required,clock"`
	BreakEnd   string `json:"break_end" validate:"required,clock"`
}

// TimetableService manages time slots and weekday configurations and generates slots from them.
type TimetableService struct {
	slots       timeSlotRepository
	days        schoolDayConfigRepository
	tx          txProvider
	metrics     *MetricsService
	slotMinutes int
	validator   *validation.Validator
	logger      *zap.Logger
}

// NewTimetableService constructs TimetableService. slotMinutes falls back to DefaultSlotMinutes.
func NewTimetableService(slots timeSlotRepository, days schoolDayConfigRepository, tx txProvider, metrics *MetricsService, slotMinutes int, validate *validation.Validator, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if slotMinutes <= 0 {
		slotMinutes = models.DefaultSlotMinutes
	}
	return &TimetableService{
		slots:       slots,
		days:        days,
		tx:          tx,
		metrics:     metrics,
		slotMinutes: slotMinutes,
		validator:   validate,
		logger:      logger,
	}
}

// ListSlots returns slots, optionally for one weekday.
func (s *TimetableService) ListSlots(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error) {
	slots, err := s.slots.List(ctx, dayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de lister les créneaux")
	}
	return slots, nil
}

// CreateSlot inserts a slot. Start must precede end and (day, start, end) is unique.
func (s *TimetableService) CreateSlot(ctx context.Context, req TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	start, _ := models.ParseClock(req.StartTime)
	end, _ := models.ParseClock(req.EndTime)
	if start >= end {
		return nil, appErrors.Validation("Données invalides", map[string]string{"end_time": "end_time doit être postérieur à start_time"})
	}
	slot := &models.TimeSlot{DayOfWeek: req.DayOfWeek, StartTime: models.FormatClock(start), EndTime: models.FormatClock(end)}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, writeError(err, "Ce créneau existe déjà", "", "Impossible de créer le créneau")
	}
	return slot, nil
}

// DeleteSlot removes a slot no schedule uses.
func (s *TimetableService) DeleteSlot(ctx context.Context, id string) error {
	if err := s.slots.Delete(ctx, id); err != nil {
		return writeError(err, "", "Ce créneau est utilisé par un emploi du temps", "Impossible de supprimer le créneau")
	}
	return nil
}

// ListDayConfigs returns every weekday configuration.
func (s *TimetableService) ListDayConfigs(ctx context.Context) ([]models.SchoolDayConfig, error) {
	configs, err := s.days.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de lister les journées types")
	}
	return configs, nil
}

// UpsertDayConfig creates or replaces the configuration of a weekday.
func (s *TimetableService) UpsertDayConfig(ctx context.Context, req SchoolDayConfigRequest) (*models.SchoolDayConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	cfg := &models.SchoolDayConfig{
		DayOfWeek:  req.DayOfWeek,
		DayStart:   normaliseClock(req.DayStart),
		DayEnd:     normaliseClock(req.DayEnd),
		BreakStart: normaliseClock(req.BreakStart),
		BreakEnd:   normaliseClock(req.BreakEnd),
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, models.ErrInvalidDayOrder) {
			return nil, appErrors.Validation("Horaires incohérents", map[string]string{
				"break_start": "il faut day_start < break_start < break_end < day_end",
			})
		}
		return nil, appErrors.Validation("Données invalides", map[string]string{"day_of_week": err.Error()})
	}
	if err := s.days.Upsert(ctx, cfg); err != nil {
		return nil, writeError(err, "", "", "Impossible d'enregistrer la journée type")
	}
	return cfg, nil
}

// normaliseClock zero-pads the hour so stored times order correctly as text ("8:00" -> "08:00").
// Unparseable values are kept for Validate to report.
func normaliseClock(value string) string {
	minutes, err := models.ParseClock(value)
	if err != nil {
		return value
	}
	return models.FormatClock(minutes)
}

// DeleteDayConfig removes a weekday configuration.
func (s *TimetableService) DeleteDayConfig(ctx context.Context, id string) error {
	if err := s.days.Delete(ctx, id); err != nil {
		return writeError(err, "", "", "Impossible de supprimer la journée type")
	}
	return nil
}

// GenerateTimeSlots derives fixed-length slots from every weekday configuration and inserts the
// ones that do not exist yet, all in one transaction. Running it twice creates nothing new.
func (s *TimetableService) GenerateTimeSlots(ctx context.Context) (result *models.SlotGenerationResult, err error) {
	configs, err := s.days.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de lister les journées types")
	}
	var candidates []models.TimeSlot
	for _, cfg := range configs {
		slots, err := models.GenerateSlots(cfg, s.slotMinutes)
		if err != nil {
			return nil, appErrors.Validation("Journée type invalide", map[string]string{"day_of_week": err.Error()})
		}
		candidates = append(candidates, slots...)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)

	result = &models.SlotGenerationResult{Slots: []models.TimeSlot{}}
	for i := range candidates {
		created, err := s.slots.InsertIfAbsentWithTx(ctx, tx, &candidates[i])
		if err != nil {
			return nil, appErrors.Internal(err, "Impossible de générer les créneaux")
		}
		if created {
			result.Created++
			result.Slots = append(result.Slots, candidates[i])
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "Impossible de valider les créneaux")
	}
	s.metrics.RecordSlotsGenerated(result.Created)
	s.logger.Info("time slots generated",
		zap.Int("configs", len(configs)),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", result.Created))
	return result, nil
}
