package domain

import "time"

// Consultant is a practitioner clients can book.
type Consultant struct {
	ID              string   `json:"id"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email,omitempty"`
	AvatarURL       string   `json:"avatarUrl,omitempty"`
	Specialties     []string `json:"specialties,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	ExperienceYears int      `json:"experienceYears,omitempty"`
	Rating          float64  `json:"rating,omitempty"`
	PricePerSession float64  `json:"pricePerSession,omitempty"`
}

// ConsultantFilter narrows the consultant listing.
type ConsultantFilter struct {
	Search    string
	Specialty string
	Page      int
	PageSize  int
}

// ScheduleSlot is a bookable time window of a consultant.
type ScheduleSlot struct {
	ID           string    `json:"id"`
	ConsultantID string    `json:"consultantId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	IsAvailable  bool      `json:"isAvailable"`
}
