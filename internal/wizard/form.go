// Package wizard holds the client side of a registration: a four step form
// that owns the in-progress aggregate, validates each step, derives the
// payment total and QR, and submits the multipart body.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cahcet/eloquence-api/internal/domain"
)

type Step int

const (
	StepPersonal Step = iota + 1
	StepEvents
	StepTeam
	StepPayConfirm
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "Personal"
	case StepEvents:
		return "Events"
	case StepTeam:
		return "Team"
	case StepPayConfirm:
		return "PayConfirm"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Alert is a message shown to the user verbatim.
type Alert string

func (a Alert) Error() string {
	return string(a)
}

const ErrAlreadyRegistered Alert = "You are already registered for this event!"

var (
	ErrUnknownEvent   = errors.New("event is not in the catalogue")
	ErrNotSelected    = errors.New("event is not selected")
	ErrUnknownMember  = errors.New("team member not found")
	ErrUnknownField   = errors.New("unknown field")
	ErrLastStep       = errors.New("already on the last step")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
)

// Flag is a per-event single-select marker on a team member.
type Flag int

const (
	FlagTeamLead Flag = iota + 1
	FlagAlternateContact
)

type Member struct {
	ID          string
	Title       string
	Name        string
	Email       string
	Phone       string
	RollNo      string
	CollegeName string
	Year        string
	Degree      string
	Department  string
}

// EventEntry is one selected event. The team lead and alternate contact are
// stored as member ids so at most one of each can exist.
type EventEntry struct {
	Slug        string
	TeamSize    int
	Members     []Member
	LeadID      string
	AlternateID string
}

type PaymentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type Aggregate struct {
	Registrant domain.Registrant
	Events     []EventEntry
	Payment    *PaymentFile
}

type Catalogue interface {
	Lookup(slug string) (domain.Event, bool)
}

type Submitter interface {
	Submit(ctx context.Context, sub domain.Submission) (SubmitResult, error)
}

type SubmitResult struct {
	Message        string `json:"message"`
	RegistrationID string `json:"registrationId"`
}

type qrMemo struct {
	total   int
	dataURL string
}

type Form struct {
	mu         sync.Mutex
	catalogue  Catalogue
	payee      string
	step       Step
	agg        Aggregate
	submitting bool
	qr         *qrMemo
	newID      func() string
	now        func() time.Time
}

func NewForm(catalogue Catalogue, payeeVPA string) *Form {
	return &Form{
		catalogue: catalogue,
		payee:     payeeVPA,
		step:      StepPersonal,
		agg:       emptyAggregate(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func emptyAggregate() Aggregate {
	return Aggregate{
		Registrant: domain.Registrant{
			Title:  "Mr.",
			Year:   "I Year",
			Degree: "Engineering",
		},
	}
}

func (f *Form) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.step
}

// Snapshot returns a deep copy of the aggregate.
func (f *Form) Snapshot() Aggregate {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.agg.clone()
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.submitting
}

// SetField updates one main registrant field by its JSON name. No validation
// happens here.
func (f *Form) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.agg.Registrant
	switch field {
	case "title":
		r.Title = value
	case "name":
		r.Name = value
	case "email":
		r.Email = value
	case "phone":
		r.Phone = value
	case "rollNo":
		r.RollNo = value
	case "collegeName":
		r.CollegeName = value
	case "year":
		r.Year = value
	case "degree":
		r.Degree = value
	case "department":
		r.Department = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.agg.Registrant = r

	return nil
}

func (f *Form) AddEvent(slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.catalogue.Lookup(slug); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, slug)
	}
	if f.agg.indexOf(slug) >= 0 {
		return ErrAlreadyRegistered
	}

	events := make([]EventEntry, len(f.agg.Events), len(f.agg.Events)+1)
	copy(events, f.agg.Events)
	f.agg.Events = append(events, EventEntry{Slug: slug, TeamSize: 1})

	return nil
}

func (f *Form) RemoveEvent(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []EventEntry
	for _, e := range f.agg.Events {
		if e.Slug != slug {
			events = append(events, e)
		}
	}
	f.agg.Events = events
}

// SetTeamSize ignores sizes outside the event's bounds.
func (f *Form) SetTeamSize(slug string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.agg.indexOf(slug)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotSelected, slug)
	}
	event, ok := f.catalogue.Lookup(slug)
	if !ok || !event.AllowsTeamSize(n) {
		return nil
	}

	f.updateEvent(i, func(e *EventEntry) { e.TeamSize = n })

	return nil
}

// AddMember appends a blank member prefilled with the main registrant's
// college and department, and returns its id.
func (f *Form) AddMember(slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.agg.indexOf(slug)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotSelected, slug)
	}
	entry := f.agg.Events[i]
	if limit := entry.TeamSize - 1; len(entry.Members) >= limit {
		return "", Alert(fmt.Sprintf("Maximum team members for this event: %d", limit))
	}

	m := Member{
		ID:          f.newID(),
		Title:       "Mr.",
		Year:        "I Year",
		Degree:      "Engineering",
		CollegeName: f.agg.Registrant.CollegeName,
		Department:  f.agg.Registrant.Department,
	}
	f.updateEvent(i, func(e *EventEntry) { e.Members = append(e.Members, m) })

	return m.ID, nil
}

func (f *Form) RemoveMember(slug, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.agg.indexOf(slug)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotSelected, slug)
	}

	f.updateEvent(i, func(e *EventEntry) {
		var members []Member
		for _, m := range e.Members {
			if m.ID != memberID {
				members = append(members, m)
			}
		}
		e.Members = members
		if e.LeadID == memberID {
			e.LeadID = ""
		}
		if e.AlternateID == memberID {
			e.AlternateID = ""
		}
	})

	return nil
}

// SetMember updates one member field by its JSON name. isTeamLead and
// isAlternateContact take a boolean value and behave like SetMemberFlag.
func (f *Form) SetMember(slug, memberID, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, j, err := f.agg.memberIndex(slug, memberID)
	if err != nil {
		return err
	}

	if flag, ok := flagFields[field]; ok {
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		return f.setFlag(i, memberID, flag, on)
	}

	m := f.agg.Events[i].Members[j]
	switch field {
	case "title":
		m.Title = value
	case "name":
		m.Name = value
	case "email":
		m.Email = value
	case "phone":
		m.Phone = value
	case "rollNo":
		m.RollNo = value
	case "collegeName":
		m.CollegeName = value
	case "year":
		m.Year = value
	case "degree":
		m.Degree = value
	case "department":
		m.Department = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.updateEvent(i, func(e *EventEntry) { e.Members[j] = m })

	return nil
}

// SetMemberFlag marks or unmarks a member. Marking clears the same flag on
// every other member of the event.
func (f *Form) SetMemberFlag(slug, memberID string, flag Flag, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, _, err := f.agg.memberIndex(slug, memberID)
	if err != nil {
		return err
	}

	return f.setFlag(i, memberID, flag, on)
}

var flagFields = map[string]Flag{
	"isTeamLead":         FlagTeamLead,
	"isAlternateContact": FlagAlternateContact,
}

func (f *Form) setFlag(i int, memberID string, flag Flag, on bool) error {
	set := func(current string) string {
		if on {
			return memberID
		}
		if current == memberID {
			return ""
		}
		return current
	}

	switch flag {
	case FlagTeamLead:
		f.updateEvent(i, func(e *EventEntry) { e.LeadID = set(e.LeadID) })
	case FlagAlternateContact:
		f.updateEvent(i, func(e *EventEntry) { e.AlternateID = set(e.AlternateID) })
	default:
		return fmt.Errorf("%w: flag %d", ErrUnknownField, flag)
	}

	return nil
}

// SetPaymentFile stores the screenshot; nil clears it.
func (f *Form) SetPaymentFile(file *PaymentFile) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if file == nil {
		f.agg.Payment = nil
		return
	}
	cp := *file
	cp.Data = append([]byte(nil), file.Data...)
	f.agg.Payment = &cp
}

// Next advances when the current step validates. Leaving the Events step with
// more than one event returns a warning to show the user.
func (f *Form) Next() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step == StepPayConfirm {
		return "", ErrLastStep
	}
	if msgs := f.validate(f.step); len(msgs) > 0 {
		return "", &ValidationError{Messages: msgs}
	}

	var warning string
	if f.step == StepEvents {
		warning = f.scheduleWarning()
	}
	f.step++

	return warning, nil
}

func (f *Form) Prev() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step > StepPersonal {
		f.step--
	}
}

// Submit validates the payment step and posts the aggregate. On success the
// form resets; on failure the aggregate is kept so the user can retry.
func (f *Form) Submit(ctx context.Context, client Submitter) (SubmitResult, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	}

	var msgs []string
	if len(f.agg.Events) == 0 {
		msgs = append(msgs, msgNoEvents)
	}
	msgs = append(msgs, f.validate(StepPayConfirm)...)
	if len(msgs) > 0 {
		f.mu.Unlock()
		return SubmitResult{}, &ValidationError{Messages: msgs}
	}

	sub := f.submission()
	f.submitting = true
	f.mu.Unlock()

	result, err := client.Submit(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return SubmitResult{}, err
	}
	f.reset()

	return result, nil
}

func (f *Form) reset() {
	f.agg = emptyAggregate()
	f.step = StepPersonal
	f.qr = nil
}

// submission projects the aggregate onto the wire shape. Callers hold f.mu.
func (f *Form) submission() domain.Submission {
	events := make([]domain.SubmittedEvent, 0, len(f.agg.Events))
	for _, e := range f.agg.Events {
		title := e.Slug
		if event, ok := f.catalogue.Lookup(e.Slug); ok {
			title = event.Title
		}

		members := make([]domain.SubmittedMember, 0, len(e.Members))
		for _, m := range e.Members {
			members = append(members, domain.SubmittedMember{
				ID:                 m.ID,
				Title:              m.Title,
				Name:               m.Name,
				Email:              m.Email,
				Phone:              m.Phone,
				RollNo:             m.RollNo,
				CollegeName:        m.CollegeName,
				Year:               m.Year,
				Degree:             m.Degree,
				Department:         m.Department,
				IsTeamLead:         m.ID == e.LeadID,
				IsAlternateContact: m.ID == e.AlternateID,
			})
		}

		events = append(events, domain.SubmittedEvent{
			EventID:     e.Slug,
			EventName:   title,
			TeamSize:    e.TeamSize,
			TeamMembers: members,
		})
	}

	sub := domain.Submission{
		Registrant:  f.agg.Registrant,
		Events:      events,
		TotalAmount: float64(f.total()),
		SubmittedAt: f.now().UTC(),
	}
	if p := f.agg.Payment; p != nil {
		sub.Payment = domain.PaymentArtifact{
			FileName:    p.Name,
			ContentType: p.ContentType,
			Data:        append([]byte(nil), p.Data...),
		}
	}

	return sub
}

func (f *Form) scheduleWarning() string {
	if len(f.agg.Events) < 2 {
		return ""
	}

	lines := []string{fmt.Sprintf(
		"You have selected %d events. Please confirm there are no scheduling conflicts; payments are non-refundable.",
		len(f.agg.Events),
	)}
	for _, c := range f.conflicts() {
		lines = append(lines, fmt.Sprintf("Schedule conflict: %s & %s (%s)", c[0].Title, c[1].Title, c[0].Timing))
	}

	return strings.Join(lines, "\n")
}

// conflicts lists every pair of selected events sharing a timing string.
func (f *Form) conflicts() [][2]domain.Event {
	var selected []domain.Event
	for _, e := range f.agg.Events {
		if event, ok := f.catalogue.Lookup(e.Slug); ok {
			selected = append(selected, event)
		}
	}

	var pairs [][2]domain.Event
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			if selected[i].Timing != "" && selected[i].Timing == selected[j].Timing {
				pairs = append(pairs, [2]domain.Event{selected[i], selected[j]})
			}
		}
	}

	return pairs
}

// updateEvent applies fn to a copy of entry i and swaps it in, so slices
// handed out earlier are never mutated.
func (f *Form) updateEvent(i int, fn func(e *EventEntry)) {
	entry := f.agg.Events[i].clone()
	fn(&entry)

	events := make([]EventEntry, len(f.agg.Events))
	copy(events, f.agg.Events)
	events[i] = entry
	f.agg.Events = events
}

func (a Aggregate) indexOf(slug string) int {
	for i, e := range a.Events {
		if e.Slug == slug {
			return i
		}
	}
	return -1
}

func (a Aggregate) memberIndex(slug, memberID string) (int, int, error) {
	i := a.indexOf(slug)
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotSelected, slug)
	}
	for j, m := range a.Events[i].Members {
		if m.ID == memberID {
			return i, j, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
}

func (a Aggregate) clone() Aggregate {
	cp := a
	if a.Events != nil {
		cp.Events = make([]EventEntry, len(a.Events))
		for i, e := range a.Events {
			cp.Events[i] = e.clone()
		}
	}
	if a.Payment != nil {
		p := *a.Payment
		p.Data = append([]byte(nil), a.Payment.Data...)
		cp.Payment = &p
	}
	return cp
}

func (e EventEntry) clone() EventEntry {
	cp := e
	if e.Members != nil {
		cp.Members = append([]Member(nil), e.Members...)
	}
	return cp
}
