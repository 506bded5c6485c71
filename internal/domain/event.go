package domain

import (
	"strconv"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeTech    EventType = "tech"
	EventTypeNonTech EventType = "non-tech"
)

type EventContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Event is a catalogue entry. Slug is serialised as "id" to match the catalogue file.
type Event struct {
	Slug            string       `json:"id"`
	Title           string       `json:"title"`
	Type            EventType    `json:"type"`
	Short           string       `json:"short,omitempty"`
	Venue           string       `json:"venue,omitempty"`
	Timing          string       `json:"timing"`
	RegistrationFee string       `json:"registrationFee"`
	MinMembers      int          `json:"minMembers"`
	MaxMembers      int          `json:"maxMembers"`
	Rules           []string     `json:"rules,omitempty"`
	Contact         EventContact `json:"contact"`
}

// Fee is the per-head amount derived from the free-form fee text.
func (e Event) Fee() int {
	return ParseLeadingInteger(e.RegistrationFee)
}

func (e Event) AllowsTeamSize(n int) bool {
	return n >= e.MinMembers && n <= e.MaxMembers
}

// EventRecord is the row of the events lookup table. Title holds the slug.
type EventRecord struct {
	ID    uuid.UUID
	Title string
}

// ParseLeadingInteger returns the value of the first run of ASCII digits in s,
// or 0 when there is none or it does not fit in an int.
func ParseLeadingInteger(s string) int {
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if start < 0 && isDigit {
			start = i
			continue
		}
		if start >= 0 && !isDigit {
			return atoiOrZero(s[start:i])
		}
	}
	if start < 0 {
		return 0
	}
	return atoiOrZero(s[start:])
}

func atoiOrZero(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
