package wizard

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cahcet/eloquence-api/internal/domain"
)

// Draft is a saved set of answers that can be replayed through a Form.
type Draft struct {
	Registrant domain.Registrant `json:"mainRegistrant"`
	Events     []DraftEvent      `json:"events"`
}

type DraftEvent struct {
	Slug     string                   `json:"eventId"`
	TeamSize int                      `json:"teamSize"`
	Members  []domain.SubmittedMember `json:"teamMembers"`
}

func DecodeDraft(r io.Reader) (Draft, error) {
	var d Draft
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Draft{}, fmt.Errorf("dec.Decode -> %w", err)
	}
	return d, nil
}

// Replay fills the form from d, walking steps 1 to 3 with the same gates a
// user would hit. It stops on the first rejected operation and returns the
// warnings shown along the way.
func Replay(f *Form, d Draft) ([]string, error) {
	var warnings []string

	for _, kv := range registrantFields(d.Registrant) {
		if kv[1] == "" {
			continue
		}
		if err := f.SetField(kv[0], kv[1]); err != nil {
			return warnings, err
		}
	}
	if _, err := f.Next(); err != nil {
		return warnings, err
	}

	for _, e := range d.Events {
		if err := f.AddEvent(e.Slug); err != nil {
			return warnings, fmt.Errorf("%s: %w", e.Slug, err)
		}
	}
	warning, err := f.Next()
	if err != nil {
		return warnings, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}

	for _, e := range d.Events {
		if err := replayTeam(f, e); err != nil {
			return warnings, fmt.Errorf("%s: %w", e.Slug, err)
		}
	}
	if _, err := f.Next(); err != nil {
		return warnings, err
	}

	return warnings, nil
}

func replayTeam(f *Form, e DraftEvent) error {
	if e.TeamSize > 0 {
		if err := f.SetTeamSize(e.Slug, e.TeamSize); err != nil {
			return err
		}
	}

	for _, m := range e.Members {
		id, err := f.AddMember(e.Slug)
		if err != nil {
			return err
		}
		for _, kv := range memberFields(m) {
			// Blank draft values keep the prefilled defaults.
			if kv[1] == "" {
				continue
			}
			if err := f.SetMember(e.Slug, id, kv[0], kv[1]); err != nil {
				return err
			}
		}
		if m.IsTeamLead {
			if err := f.SetMemberFlag(e.Slug, id, FlagTeamLead, true); err != nil {
				return err
			}
		}
		if m.IsAlternateContact {
			if err := f.SetMemberFlag(e.Slug, id, FlagAlternateContact, true); err != nil {
				return err
			}
		}
	}

	return nil
}

func registrantFields(r domain.Registrant) [][2]string {
	return [][2]string{
		{"title", r.Title},
		{"name", r.Name},
		{"email", r.Email},
		{"phone", r.Phone},
		{"rollNo", r.RollNo},
		{"collegeName", r.CollegeName},
		{"year", r.Year},
		{"degree", r.Degree},
		{"department", r.Department},
	}
}

func memberFields(m domain.SubmittedMember) [][2]string {
	return [][2]string{
		{"title", m.Title},
		{"name", m.Name},
		{"email", m.Email},
		{"phone", m.Phone},
		{"rollNo", m.RollNo},
		{"collegeName", m.CollegeName},
		{"year", m.Year},
		{"degree", m.Degree},
		{"department", m.Department},
	}
}
