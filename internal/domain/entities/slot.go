package entities

// TimeSlot is a scored, unbooked catalogue slot
type TimeSlot struct {
	Time  string  `json:"time"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// Slot period labels
const (
	SlotLabelMorning   = "Morning"
	SlotLabelLunch     = "Lunch"
	SlotLabelAfternoon = "Afternoon"
	SlotLabelEvening   = "Evening"
)

// SlotsByPeriod groups ranked slots by part of day. Lunch slots are not grouped.
type SlotsByPeriod struct {
	Morning   []TimeSlot `json:"morning"`
	Afternoon []TimeSlot `json:"afternoon"`
	Evening   []TimeSlot `json:"evening"`
}

// SlotRecommendation is the ranked availability for a doctor on a date
type SlotRecommendation struct {
	DoctorID    string        `json:"doctorId"`
	Date        string        `json:"date"`
	Slots       []TimeSlot    `json:"slots"`
	Recommended *TimeSlot     `json:"recommended"`
	ByPeriod    SlotsByPeriod `json:"byPeriod"`
}
