package entities

import (
	"time"
)

// AppointmentRecord is one historical booking as seen by the scheduling
// intelligence. SlotDate keeps the stored string form (22_12_2025 in the
// booking tables) and SlotTime uses the "hh:mm AM" form.
type AppointmentRecord struct {
	ID        string    `json:"id" db:"id"`
	PatientID string    `json:"patientId" db:"user_id"`
	DoctorID  string    `json:"doctorId" db:"doc_id"`
	SlotDate  string    `json:"slotDate" db:"slot_date"`
	SlotTime  string    `json:"slotTime" db:"slot_time"`
	Amount    float64   `json:"amount" db:"amount"`
	Cancelled bool      `json:"cancelled" db:"cancelled"`
	Completed bool      `json:"isCompleted" db:"is_completed"`
	Payment   bool      `json:"payment" db:"payment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NoShow reports the training label for a record: a cancelled or never
// completed appointment counts as a no-show.
func (a AppointmentRecord) NoShow() bool {
	return a.Cancelled || !a.Completed
}
