package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

// SlotService ranks a doctor's free slots for a date
type SlotService struct {
	appointments repositories.AppointmentRepository
	scorer       *SlotScorer
}

// NewSlotService creates a new slot service
func NewSlotService(appointments repositories.AppointmentRepository, scorer *SlotScorer) *SlotService {
	if scorer == nil {
		scorer = NewSlotScorer()
	}
	return &SlotService{appointments: appointments, scorer: scorer}
}

// GetOptimalSlots returns the ranked free slots of doctorID on date.
func (s *SlotService) GetOptimalSlots(ctx context.Context, doctorID, date string) (*entities.SlotRecommendation, error) {
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctorId is required")
	}
	if date == "" {
		return nil, apperrors.NewValidationError("date is required")
	}
	day, err := utils.ParseSlotDate(date)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date: " + date)
	}

	booked, err := s.appointments.BookedSlots(ctx, doctorID, utils.StoredSlotDate(day))
	if err != nil {
		return nil, err
	}

	slots := s.scorer.Score(booked, date)
	log.Debug().
		Str("doctor_id", doctorID).
		Str("date", date).
		Int("booked", len(booked)).
		Int("free", len(slots)).
		Msg("Scored slots")

	return &entities.SlotRecommendation{
		DoctorID:    doctorID,
		Date:        date,
		Slots:       slots,
		Recommended: s.scorer.Recommended(slots),
		ByPeriod:    s.scorer.ByPeriod(slots),
	}, nil
}
