package services

import (
	"sort"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

// SlotCatalogue is the fixed list of bookable half-hour slots per day.
var SlotCatalogue = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"12:00 PM", "12:30 PM",
	"02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM", "04:00 PM", "04:30 PM",
	"05:00 PM", "05:30 PM", "06:00 PM", "06:30 PM",
}

const (
	slotBaseScore        = 50.0
	slotPeakMorningBonus = 20.0
	slotAfternoonBonus   = 15.0
	slotEdgePenalty      = 10.0
	slotWeekdayBonus     = 10.0
	slotSandwichPenalty  = 5.0
	slotPostLunchBonus   = 5.0
)

// SlotScorer ranks unbooked catalogue slots by heuristic desirability.
type SlotScorer struct {
	catalogue []string
}

// NewSlotScorer creates a scorer over SlotCatalogue
func NewSlotScorer() *SlotScorer {
	return &SlotScorer{catalogue: SlotCatalogue}
}

// Score returns every catalogue slot not in booked, best first. Equal scores
// keep catalogue order. date only affects the weekday bonus; an unparseable
// date earns none.
func (s *SlotScorer) Score(booked []string, date string) []entities.TimeSlot {
	bookedSet := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		bookedSet[b] = struct{}{}
	}
	isBooked := func(i int) bool {
		if i < 0 || i >= len(s.catalogue) {
			return false
		}
		_, ok := bookedSet[s.catalogue[i]]
		return ok
	}

	weekday := false
	if d, err := utils.ParseSlotDate(date); err == nil {
		weekday = !utils.IsWeekend(d)
	}

	slots := make([]entities.TimeSlot, 0, len(s.catalogue))
	for i, slot := range s.catalogue {
		if isBooked(i) {
			continue
		}

		hour, _ := utils.ParseSlotHour(slot)
		score := slotBaseScore

		switch {
		case hour >= 10 && hour <= 11:
			score += slotPeakMorningBonus
		case hour >= 14 && hour <= 16:
			score += slotAfternoonBonus
		case hour == 9 || hour >= 18:
			score -= slotEdgePenalty
		}

		if weekday {
			score += slotWeekdayBonus
		}
		if isBooked(i-1) && isBooked(i+1) {
			score -= slotSandwichPenalty
		}
		if slot == "02:00 PM" || slot == "02:30 PM" {
			score += slotPostLunchBonus
		}

		slots = append(slots, entities.TimeSlot{
			Time:  slot,
			Score: clampScore(score),
			Label: SlotLabel(hour),
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Score > slots[j].Score
	})
	return slots
}

// Recommended returns the best slot, or nil when none are free.
func (s *SlotScorer) Recommended(slots []entities.TimeSlot) *entities.TimeSlot {
	if len(slots) == 0 {
		return nil
	}
	best := slots[0]
	return &best
}

// ByPeriod groups ranked slots by label, preserving rank order.
func (s *SlotScorer) ByPeriod(slots []entities.TimeSlot) entities.SlotsByPeriod {
	grouped := entities.SlotsByPeriod{
		Morning:   []entities.TimeSlot{},
		Afternoon: []entities.TimeSlot{},
		Evening:   []entities.TimeSlot{},
	}
	for _, slot := range slots {
		switch slot.Label {
		case entities.SlotLabelMorning:
			grouped.Morning = append(grouped.Morning, slot)
		case entities.SlotLabelAfternoon:
			grouped.Afternoon = append(grouped.Afternoon, slot)
		case entities.SlotLabelEvening:
			grouped.Evening = append(grouped.Evening, slot)
		}
	}
	return grouped
}

// SlotLabel names the part of day for a 24-hour clock hour.
func SlotLabel(hour int) string {
	switch {
	case hour >= 9 && hour < 12:
		return entities.SlotLabelMorning
	case hour >= 12 && hour < 14:
		return entities.SlotLabelLunch
	case hour >= 14 && hour < 17:
		return entities.SlotLabelAfternoon
	default:
		return entities.SlotLabelEvening
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
