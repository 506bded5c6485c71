package response

import (
	"github.com/google/uuid"

	"github.com/cahcet/eloquence-api/internal/domain"
)

const RegistrationSubmitted = "Registration submitted successfully!"

type SubmitRegistrationResponse struct {
	Message        string    `json:"message"`
	RegistrationID uuid.UUID `json:"registrationId"`
}

// EventsResponse is the catalogue plus the UPI address clients build the
// payment QR for.
type EventsResponse struct {
	Events   []domain.Event `json:"events"`
	PayeeVPA string         `json:"payeeVpa,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
