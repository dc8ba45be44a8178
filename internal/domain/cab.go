package domain

import "time"

// Cab represents a vehicle owned by a sub-admin.
// ID and CabNumber are immutable; the remaining fields are metadata.
type Cab struct {
	ID                 string    `json:"id"`
	CabNumber          string    `json:"cabNumber"`
	InsuranceNumber    string    `json:"insuranceNumber,omitempty"`
	InsuranceExpiry    time.Time `json:"insuranceExpiry,omitempty"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	CabImage           string    `json:"cabImage,omitempty"`
	AddedBy            string    `json:"addedBy"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
