package evaluation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
)

// tenDayHistory gives ten patients one visit per day for ten days. Even
// patients always cancel, odd patients always attend.
func tenDayHistory() []*entities.AppointmentRecord {
	var records []*entities.AppointmentRecord
	for p := 0; p < 10; p++ {
		for day := 1; day <= 10; day++ {
			records = append(records, &entities.AppointmentRecord{
				ID:        fmt.Sprintf("p%d-d%d", p, day),
				PatientID: fmt.Sprintf("p%d", p),
				DoctorID:  "doc-1",
				SlotDate:  fmt.Sprintf("%d_1_2025", day),
				SlotTime:  "10:00 AM",
				Cancelled: p%2 == 0,
				Completed: p%2 == 1,
			})
		}
	}
	return records
}

func TestRunner_ChronologicalSplit(t *testing.T) {
	records := append(tenDayHistory(), &entities.AppointmentRecord{ID: "bad", PatientID: "p0", DoctorID: "doc-1", SlotDate: "unknown"})

	summary, err := NewRunner(logistic.Options{Steps: 1000, LearningRate: 0.5}, 0.2).Run(records)
	require.NoError(t, err)

	assert.Equal(t, 101, summary.Records)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "2025-01-09", summary.Cutoff)
	assert.Equal(t, 80, summary.TrainSamples)
	assert.Equal(t, 20, summary.TestSamples)
	assert.InDelta(t, 0.5, summary.BaseRate, 1e-9)
	assert.GreaterOrEqual(t, summary.Model.Accuracy, 0.9)
	assert.Less(t, summary.Model.Brier, 0.25)

	total := 0
	for _, ls := range summary.ByRiskLevel {
		total += ls.Count
		assert.GreaterOrEqual(t, ls.MeanPredicted, 0.0)
		assert.LessOrEqual(t, ls.MeanPredicted, 1.0)
	}
	assert.Equal(t, 20, total)
}

func TestRunner_DefaultHoldout(t *testing.T) {
	r := NewRunner(logistic.DefaultOptions(), 1.5)
	assert.Equal(t, DefaultHoldout, r.holdout)
}

func TestRunner_NotEnoughData(t *testing.T) {
	sameDay := []*entities.AppointmentRecord{
		{ID: "a", PatientID: "p1", DoctorID: "doc-1", SlotDate: "15_1_2025"},
		{ID: "b", PatientID: "p2", DoctorID: "doc-1", SlotDate: "15_1_2025"},
	}

	_, err := NewRunner(logistic.DefaultOptions(), 0.2).Run(sameDay)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = NewRunner(logistic.DefaultOptions(), 0.2).Run(sameDay[:1])
	assert.ErrorIs(t, err, ErrNotEnoughData)
}
