package services_test

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
)

func record(doctorID, slotDate string, cancelled, completed, payment bool) *entities.AppointmentRecord {
	return &entities.AppointmentRecord{
		ID:        fmt.Sprintf("%s-%s", doctorID, slotDate),
		PatientID: "patient-1",
		DoctorID:  doctorID,
		SlotDate:  slotDate,
		SlotTime:  "10:00 AM",
		Cancelled: cancelled,
		Completed: completed,
		Payment:   payment,
	}
}

func TestFeatureExtractor_EmptyHistory(t *testing.T) {
	v, err := services.NewFeatureExtractor().Extract(nil, "doc-1", "2025-01-15", "10:00 AM")
	require.NoError(t, err)

	assert.Equal(t, 0.0, v[entities.FeatureCancellationRate])
	assert.Equal(t, 0.5, v[entities.FeatureCompletionRate])
	assert.Equal(t, 0.0, v[entities.FeatureTotalAppointments])
	assert.Equal(t, 0.0, v[entities.FeatureRecentCancellations])
	assert.InDelta(t, 30.0/90.0, v[entities.FeatureDaysSinceLastAppointment], 1e-9)
	assert.Equal(t, 1.0, v[entities.FeatureFirstVisitToDoctor])
	assert.Equal(t, 0.5, v[entities.FeatureAverageLeadTime])
	assert.Equal(t, 0.5, v[entities.FeaturePaymentRate])
	assert.Equal(t, 1.0, v[entities.FeatureMorningSlot])
	assert.Equal(t, 0.0, v[entities.FeatureWeekend])
}

func TestFeatureExtractor_TimeBuckets(t *testing.T) {
	tests := []struct {
		slotTime                    string
		morning, afternoon, evening float64
	}{
		{"08:30 AM", 0, 0, 0},
		{"09:00 AM", 1, 0, 0},
		{"11:30 AM", 1, 0, 0},
		{"12:00 PM", 0, 1, 0},
		{"04:30 PM", 0, 1, 0},
		{"05:00 PM", 0, 0, 1},
		{"06:30 PM", 0, 0, 1},
		{"garbage", 0, 1, 0},
	}

	extractor := services.NewFeatureExtractor()
	for _, tt := range tests {
		t.Run(tt.slotTime, func(t *testing.T) {
			v, err := extractor.Extract(nil, "doc-1", "2025-01-15", tt.slotTime)
			require.NoError(t, err)
			assert.Equal(t, tt.morning, v[entities.FeatureMorningSlot])
			assert.Equal(t, tt.afternoon, v[entities.FeatureAfternoonSlot])
			assert.Equal(t, tt.evening, v[entities.FeatureEveningSlot])
		})
	}
}

func TestFeatureExtractor_InvalidDate(t *testing.T) {
	_, err := services.NewFeatureExtractor().Extract(nil, "doc-1", "31_02_2025", "10:00 AM")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFeatureExtractor_RecentCancellationsUseLatestThree(t *testing.T) {
	history := []*entities.AppointmentRecord{
		record("doc-2", "10_1_2025", false, true, true),
		record("doc-2", "1_1_2025", true, false, false),
		record("doc-2", "2_1_2025", true, false, false),
		record("doc-2", "8_1_2025", true, false, false),
		record("doc-2", "9_1_2025", false, true, true),
	}

	v, err := services.NewFeatureExtractor().Extract(history, "doc-2", "2025-01-20", "10:00 AM")
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, v[entities.FeatureRecentCancellations], 1e-9)
	assert.Equal(t, 0.6, v[entities.FeatureCancellationRate])
	assert.Equal(t, 1.0, v[entities.FeatureCompletionRate])
	assert.Equal(t, 0.0, v[entities.FeatureFirstVisitToDoctor])
	assert.InDelta(t, 10.0/90.0, v[entities.FeatureDaysSinceLastAppointment], 1e-9)
}

func TestFeatureExtractor_DaysSinceCapped(t *testing.T) {
	history := []*entities.AppointmentRecord{record("doc-1", "1_1_2024", false, true, true)}

	v, err := services.NewFeatureExtractor().Extract(history, "doc-1", "2025-01-01", "10:00 AM")
	require.NoError(t, err)

	assert.Equal(t, 1.0, v[entities.FeatureDaysSinceLastAppointment])
}

func TestFeatureExtractor_EndToEndFallbackExample(t *testing.T) {
	// 10 prior visits: the first three cancelled, the rest completed, none
	// with doc-target, the last one 10 days before a Saturday evening slot.
	var history []*entities.AppointmentRecord
	for day := 27; day <= 31; day++ {
		history = append(history, record("doc-other", fmt.Sprintf("%d_5_2024", day), day <= 29, day > 29, false))
	}
	for day := 1; day <= 5; day++ {
		history = append(history, record("doc-other", fmt.Sprintf("%d_6_2024", day), false, true, false))
	}

	v, err := services.NewFeatureExtractor().Extract(history, "doc-target", "2024-06-15", "06:00 PM")
	require.NoError(t, err)

	assert.Equal(t, 1.0, v[entities.FeatureFirstVisitToDoctor])
	assert.Equal(t, 1.0, v[entities.FeatureEveningSlot])
	assert.Equal(t, 1.0, v[entities.FeatureWeekend])
	assert.InDelta(t, 0.3, v[entities.FeatureCancellationRate], 1e-9)

	p := services.FallbackProbability(v)
	assert.NotEqual(t, entities.RiskLevelLow, entities.RiskLevelFor(p))
}

func TestFeatureExtractor_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	extractor := services.NewFeatureExtractor()
	times := []string{"08:00 AM", "09:30 AM", "12:30 PM", "06:00 PM", "bad", "14:00"}

	for i := 0; i < 200; i++ {
		var history []*entities.AppointmentRecord
		n := rng.IntN(30)
		for j := 0; j < n; j++ {
			date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.IntN(400))
			history = append(history, record(
				fmt.Sprintf("doc-%d", rng.IntN(3)),
				fmt.Sprintf("%d_%d_%d", date.Day(), int(date.Month()), date.Year()),
				rng.IntN(2) == 0, rng.IntN(2) == 0, rng.IntN(2) == 0,
			))
		}

		v, err := extractor.Extract(history, "doc-1", "2025-03-01", times[rng.IntN(len(times))])
		require.NoError(t, err)

		for k, x := range v {
			assert.GreaterOrEqual(t, x, 0.0, entities.FeatureNames[k])
			assert.LessOrEqual(t, x, 1.0, entities.FeatureNames[k])
		}
		buckets := v[entities.FeatureMorningSlot] + v[entities.FeatureAfternoonSlot] + v[entities.FeatureEveningSlot]
		assert.LessOrEqual(t, buckets, 1.0)
	}
}

func TestPriorTo(t *testing.T) {
	history := []*entities.AppointmentRecord{
		record("doc-1", "15_1_2025", false, true, true),
		record("doc-1", "14_1_2025", false, true, true),
		record("doc-1", "16_1_2025", false, true, true),
		record("doc-1", "not-a-date", false, true, true),
		nil,
	}

	target := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	prior := services.PriorTo(history, target)

	require.Len(t, prior, 1)
	assert.Equal(t, "14_1_2025", prior[0].SlotDate)
}

func TestFeatureExtractor_TrainingSet(t *testing.T) {
	records := []*entities.AppointmentRecord{
		record("doc-1", "10_1_2025", false, true, true),
		record("doc-1", "12_1_2025", true, false, false),
		record("doc-2", "not-a-date", false, true, true),
	}
	extractor := services.NewFeatureExtractor()

	set, skipped := extractor.TrainingSet(records, nil)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []float64{0, 1}, set.Labels)
	assert.Equal(t, 0.0, set.Vectors[0][entities.FeatureTotalAppointments])
	assert.InDelta(t, 1.0/20.0, set.Vectors[1][entities.FeatureTotalAppointments], 1e-9)

	cancelledOnly, skipped := extractor.TrainingSet(records, func(r *entities.AppointmentRecord) bool {
		return r.Cancelled
	})
	require.Equal(t, 1, cancelledOnly.Len())
	assert.Equal(t, 0, skipped)
	assert.Equal(t, set.Vectors[1], cancelledOnly.Vectors[0])
}
