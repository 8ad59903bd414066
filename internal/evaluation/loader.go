package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

// LoadRecords reads an exported appointment history from a JSON array file.
func LoadRecords(path string) ([]*entities.AppointmentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read appointment export: %w", err)
	}

	var records []*entities.AppointmentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse appointment export: %w", err)
	}

	return records, nil
}

// ValidateRecords checks that every record has an id, a patient, a doctor and
// a parseable slot date.
func ValidateRecords(records []*entities.AppointmentRecord) error {
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		if r == nil {
			return fmt.Errorf("record at index %d: null entry", i)
		}
		if r.ID == "" {
			return fmt.Errorf("record at index %d: missing id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("record at index %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}

		if r.PatientID == "" {
			return fmt.Errorf("record %q: missing patientId", r.ID)
		}
		if r.DoctorID == "" {
			return fmt.Errorf("record %q: missing doctorId", r.ID)
		}
		if _, err := utils.ParseSlotDate(r.SlotDate); err != nil {
			return fmt.Errorf("record %q: invalid slotDate %q", r.ID, r.SlotDate)
		}
	}

	return nil
}
