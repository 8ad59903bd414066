package services

import (
	"math"
	"sort"
	"time"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

const (
	totalAppointmentsCap = 20.0
	recentWindow         = 3
	daysSinceCap         = 90.0
	defaultDaysSince     = 30.0
	defaultLeadTimeDays  = 7.0
	leadTimeCap          = 14.0
	unparseableSlotHour  = 12
	morningStartHour     = 9
	afternoonStartHour   = 12
	eveningStartHour     = 17
	emptyHistoryNeutral  = 0.5
	hoursPerDay          = 24
)

// FeatureExtractor turns a patient's prior appointments and a candidate slot
// into a FeatureVector.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a feature extractor
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract builds the feature vector for booking doctorID at slotDate/slotTime.
// history should hold only records before slotDate; see PriorTo. An
// unparseable slotDate is a validation error. An unparseable slotTime is
// read as noon.
func (e *FeatureExtractor) Extract(history []*entities.AppointmentRecord, doctorID, slotDate, slotTime string) (entities.FeatureVector, error) {
	var v entities.FeatureVector
	history = compact(history)

	target, err := utils.ParseSlotDate(slotDate)
	if err != nil {
		return v, apperrors.NewValidationError("invalid slot date: " + slotDate)
	}

	total := len(history)
	var cancelled, paid, notCancelled, attended int
	firstVisit := true
	for _, r := range history {
		if r.Cancelled {
			cancelled++
		} else {
			notCancelled++
			if r.Completed {
				attended++
			}
		}
		if r.Payment {
			paid++
		}
		if r.DoctorID == doctorID {
			firstVisit = false
		}
	}

	if total > 0 {
		v[entities.FeatureCancellationRate] = float64(cancelled) / float64(total)
		v[entities.FeaturePaymentRate] = float64(paid) / float64(total)
	} else {
		v[entities.FeaturePaymentRate] = emptyHistoryNeutral
	}

	if notCancelled > 0 {
		v[entities.FeatureCompletionRate] = float64(attended) / float64(notCancelled)
	} else {
		v[entities.FeatureCompletionRate] = emptyHistoryNeutral
	}

	v[entities.FeatureTotalAppointments] = math.Min(float64(total)/totalAppointmentsCap, 1)

	ordered := chronological(history)
	recent := ordered
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	var recentCancelled int
	for _, r := range recent {
		if r.record.Cancelled {
			recentCancelled++
		}
	}
	v[entities.FeatureRecentCancellations] = float64(recentCancelled) / recentWindow

	days := defaultDaysSince
	if last, ok := lastParsedDate(ordered); ok {
		days = math.Floor(target.Sub(last).Hours() / hoursPerDay)
	}
	v[entities.FeatureDaysSinceLastAppointment] = clamp01(days / daysSinceCap)

	if firstVisit {
		v[entities.FeatureFirstVisitToDoctor] = 1
	}

	v[entities.FeatureAverageLeadTime] = defaultLeadTimeDays / leadTimeCap

	hour, ok := utils.ParseSlotHour(slotTime)
	if !ok {
		hour = unparseableSlotHour
	}
	switch {
	case hour >= morningStartHour && hour < afternoonStartHour:
		v[entities.FeatureMorningSlot] = 1
	case hour >= afternoonStartHour && hour < eveningStartHour:
		v[entities.FeatureAfternoonSlot] = 1
	case hour >= eveningStartHour:
		v[entities.FeatureEveningSlot] = 1
	}

	if utils.IsWeekend(target) {
		v[entities.FeatureWeekend] = 1
	}

	return v, nil
}

// TrainingSet labels records using features computed from the same
// patient's earlier records. include, when non-nil, selects which records
// become samples; every record still counts as history. It also returns how
// many selected records were skipped for an unparseable slot date.
func (e *FeatureExtractor) TrainingSet(records []*entities.AppointmentRecord, include func(*entities.AppointmentRecord) bool) (TrainingSet, int) {
	byPatient := make(map[string][]*entities.AppointmentRecord)
	order := make([]string, 0)
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, seen := byPatient[r.PatientID]; !seen {
			order = append(order, r.PatientID)
		}
		byPatient[r.PatientID] = append(byPatient[r.PatientID], r)
	}

	var set TrainingSet
	var skipped int
	for _, patientID := range order {
		history := byPatient[patientID]
		for _, r := range history {
			if include != nil && !include(r) {
				continue
			}
			at, err := utils.ParseSlotDate(r.SlotDate)
			if err != nil {
				skipped++
				continue
			}
			vector, err := e.Extract(PriorTo(history, at), r.DoctorID, r.SlotDate, r.SlotTime)
			if err != nil {
				skipped++
				continue
			}
			set.Add(vector, r.NoShow())
		}
	}
	return set, skipped
}

// PriorTo returns the records dated strictly before target, oldest first.
// Records whose date cannot be parsed are dropped.
func PriorTo(history []*entities.AppointmentRecord, target time.Time) []*entities.AppointmentRecord {
	out := make([]*entities.AppointmentRecord, 0, len(history))
	for _, d := range chronological(history) {
		if d.ok && d.at.Before(target) {
			out = append(out, d.record)
		}
	}
	return out
}

type datedRecord struct {
	record *entities.AppointmentRecord
	at     time.Time
	ok     bool
}

// chronological orders records by slot date with a stable sort. Records with
// unparseable dates sort first so they never count as the most recent.
func chronological(history []*entities.AppointmentRecord) []datedRecord {
	out := make([]datedRecord, 0, len(history))
	for _, r := range history {
		if r == nil {
			continue
		}
		at, err := utils.ParseSlotDate(r.SlotDate)
		out = append(out, datedRecord{record: r, at: at, ok: err == nil})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ok != out[j].ok {
			return !out[i].ok
		}
		return out[i].at.Before(out[j].at)
	})
	return out
}

func lastParsedDate(ordered []datedRecord) (time.Time, bool) {
	if len(ordered) == 0 || !ordered[len(ordered)-1].ok {
		return time.Time{}, false
	}
	return ordered[len(ordered)-1].at, true
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func compact(history []*entities.AppointmentRecord) []*entities.AppointmentRecord {
	out := history[:0:0]
	for _, r := range history {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
