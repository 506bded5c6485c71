package domain

import (
	"math"
	"time"
)

// Multipart part names of a registration submission.
const (
	PartMainRegistrant     = "mainRegistrantData"
	PartEventRegistrations = "eventRegistrationsData"
	PartTotalAmount        = "totalAmount"
	PartSubmittedAt        = "submittedAt"
	PartPaymentScreenshot  = "paymentScreenshot"
)

// SubmittedMember is a team member as carried in eventRegistrationsData.
type SubmittedMember struct {
	ID                 string `json:"id,omitempty"`
	Title              string `json:"title"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	RollNo             string `json:"rollNo"`
	CollegeName        string `json:"collegeName"`
	Year               string `json:"year"`
	Degree             string `json:"degree"`
	Department         string `json:"department"`
	IsTeamLead         bool   `json:"isTeamLead"`
	IsAlternateContact bool   `json:"isAlternateContact"`
}

// SubmittedEvent is one element of eventRegistrationsData. EventID carries the slug.
type SubmittedEvent struct {
	EventID     string            `json:"eventId"`
	EventName   string            `json:"eventName"`
	TeamSize    int               `json:"teamSize"`
	TeamMembers []SubmittedMember `json:"teamMembers"`
}

type PaymentArtifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// MaxTotalAmount bounds totals to what a numeric(10,2) column stores.
const MaxTotalAmount = 1e8

// ValidTotal reports whether v is a finite, non-negative amount below MaxTotalAmount.
func ValidTotal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v < MaxTotalAmount
}

type Submission struct {
	Registrant  Registrant
	Events      []SubmittedEvent
	TotalAmount float64
	SubmittedAt time.Time
	Payment     PaymentArtifact
}

func (s Submission) EventSlugs() []string {
	slugs := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		slugs = append(slugs, e.EventID)
	}
	return slugs
}
