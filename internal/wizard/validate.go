package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Browser semantics: \s covers Unicode whitespace such as U+00A0 and the
// match must end at the last character, trailing newline included.
var (
	emailPattern = regexp2.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+\z`, regexp2.None)
	phonePattern = regexp2.MustCompile(`^[0-9]{10}\z`, regexp2.None)
)

const (
	msgNoEvents       = "Please select at least one event"
	msgInvalidEmail   = "Please enter a valid email address"
	msgInvalidPhone   = "Please enter a valid 10-digit phone number"
	msgMissingPayment = "Please upload the payment screenshot"
)

// ValidationError carries every message that blocked a transition.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "Please fix the following errors:\n\n" + strings.Join(e.Messages, "\n")
}

type check struct {
	value string
	rules []validation.Rule
}

func required(msg string) validation.Rule {
	return validation.Required.Error(msg)
}

// matches passes empty values, like validation.Match.
func matches(re *regexp2.Regexp, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if ok, err := re.MatchString(s); err != nil || !ok {
			return errors.New(msg)
		}
		return nil
	})
}

// collect runs each check and keeps the first failing rule's message.
func collect(checks ...check) []string {
	var msgs []string
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// Validate returns the messages blocking the given step. An empty result
// means the step is complete.
func (f *Form) Validate(step Step) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.validate(step)
}

func (f *Form) validate(step Step) []string {
	switch step {
	case StepPersonal:
		return f.validatePersonal()
	case StepTeam:
		return f.validateTeam()
	case StepPayConfirm:
		if f.agg.Payment == nil {
			return []string{msgMissingPayment}
		}
	}
	return nil
}

func (f *Form) validatePersonal() []string {
	r := f.agg.Registrant

	return collect(
		check{strings.TrimSpace(r.Name), []validation.Rule{required("Please enter your name")}},
		check{r.Email, []validation.Rule{
			required(msgInvalidEmail),
			matches(emailPattern, msgInvalidEmail),
		}},
		check{r.Phone, []validation.Rule{
			required(msgInvalidPhone),
			matches(phonePattern, msgInvalidPhone),
		}},
		check{strings.TrimSpace(r.RollNo), []validation.Rule{required("Please enter your roll number")}},
		check{strings.TrimSpace(r.CollegeName), []validation.Rule{required("Please enter your college name")}},
		check{strings.TrimSpace(r.Department), []validation.Rule{required("Please enter your department")}},
	)
}

func (f *Form) validateTeam() []string {
	var msgs []string
	for _, e := range f.agg.Events {
		event, ok := f.catalogue.Lookup(e.Slug)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s: This event is no longer available", e.Slug))
			continue
		}
		title := event.Title

		if !event.AllowsTeamSize(e.TeamSize) {
			msgs = append(msgs, fmt.Sprintf("%s: Team size must be between %d and %d", title, event.MinMembers, event.MaxMembers))
		}
		if want := e.TeamSize - 1; len(e.Members) != want {
			msgs = append(msgs, fmt.Sprintf("%s: Please add %d team member(s)", title, want))
		}
		if e.TeamSize >= 3 && e.AlternateID == "" {
			msgs = append(msgs, fmt.Sprintf("%s: Please select an alternate contact for teams with 3+ members", title))
		}

		for i, m := range e.Members {
			n := i + 1
			msgs = append(msgs, collect(
				check{strings.TrimSpace(m.Name), []validation.Rule{
					required(fmt.Sprintf("%s: Please enter the name of team member %d", title, n)),
				}},
				check{m.Email, []validation.Rule{
					matches(emailPattern, fmt.Sprintf("%s: Please enter a valid email address for team member %d", title, n)),
				}},
				check{m.Phone, []validation.Rule{
					matches(phonePattern, fmt.Sprintf("%s: Please enter a valid 10-digit phone number for team member %d", title, n)),
				}},
			)...)
		}
	}
	return msgs
}
