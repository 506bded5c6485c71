package domain

import (
	"time"

	"github.com/google/uuid"
)

// Registrant holds the main registrant's details. JSON keys are camelCase to
// match the mainRegistrantData multipart part.
type Registrant struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	RollNo      string `json:"rollNo"`
	CollegeName string `json:"collegeName"`
	Year        string `json:"year"`
	Degree      string `json:"degree"`
	Department  string `json:"department"`
}

type Registration struct {
	ID                   uuid.UUID
	Registrant           Registrant
	TotalAmount          float64
	PaymentScreenshotURL string
	SubmittedAt          time.Time
	CreatedAt            time.Time
}

type EventRegistration struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	EventID        uuid.UUID
	TeamSize       int
	CreatedAt      time.Time
}

type TeamMember struct {
	ID                  uuid.UUID
	EventRegistrationID uuid.UUID
	Position            int
	Title               string
	Name                string
	Email               string
	Phone               string
	RollNo              string
	CollegeName         string
	Year                string
	Degree              string
	Department          string
	IsTeamLead          bool
	IsAlternateContact  bool
}

// Team is an event registration read back together with its owner and members.
type Team struct {
	EventRegistration EventRegistration
	Registration      Registration
	Members           []TeamMember
}

// SheetRow is one participant line of the admin registration sheet.
type SheetRow struct {
	SerialNo          int    `json:"S.No."`
	TeamNumber        int    `json:"Team Number"`
	TeamSize          int    `json:"Team Size"`
	MainRegistrant    string `json:"Main Registrant Name"`
	MemberName        string `json:"Member Name"`
	CollegeName       string `json:"College Name"`
	PhoneNumber       string `json:"Phone Number"`
	PaymentScreenshot string `json:"Payment Screenshot"`
}

// RegistrationNotice is pushed to connected admins after a submission is accepted.
type RegistrationNotice struct {
	RegistrationID uuid.UUID `json:"registrationId"`
	Name           string    `json:"name"`
	Events         []string  `json:"events"`
	TotalAmount    float64   `json:"totalAmount"`
	SubmittedAt    time.Time `json:"submittedAt"`
}
