package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/repository"
)

var screenshotURLPattern = regexp.MustCompile(`^https://cdn\.example\.com/registration-screenshots/\d+_[0-9a-z]+\.[a-z0-9]+$`)

type fakeRepo struct {
	registrations      []domain.Registration
	eventRegistrations []domain.EventRegistration
	members            []domain.TeamMember
	transactions       int

	registrationErr error
	eventRegErr     error
	membersErr      error
}

func (r *fakeRepo) CreateRegistration(_ context.Context, reg domain.Registration) (domain.Registration, error) {
	if r.registrationErr != nil {
		return domain.Registration{}, r.registrationErr
	}
	reg.ID = uuid.New()
	r.registrations = append(r.registrations, reg)
	return reg, nil
}

func (r *fakeRepo) CreateEventRegistration(_ context.Context, er domain.EventRegistration) (domain.EventRegistration, error) {
	if r.eventRegErr != nil {
		return domain.EventRegistration{}, r.eventRegErr
	}
	er.ID = uuid.New()
	r.eventRegistrations = append(r.eventRegistrations, er)
	return er, nil
}

func (r *fakeRepo) CreateTeamMembers(_ context.Context, members []domain.TeamMember) error {
	if r.membersErr != nil {
		return r.membersErr
	}
	r.members = append(r.members, members...)
	return nil
}

// Transaction discards everything fn wrote when it fails.
func (r *fakeRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.transactions++
	regs, ers, ms := len(r.registrations), len(r.eventRegistrations), len(r.members)
	if err := fn(ctx); err != nil {
		r.registrations = r.registrations[:regs]
		r.eventRegistrations = r.eventRegistrations[:ers]
		r.members = r.members[:ms]
		return err
	}
	return nil
}

type fakeEvents map[string]uuid.UUID

func (f fakeEvents) FindBySlug(_ context.Context, slug string) (domain.EventRecord, error) {
	id, ok := f[slug]
	if !ok {
		return domain.EventRecord{}, repository.ErrEventNotFound
	}
	return domain.EventRecord{ID: id, Title: slug}, nil
}

type fakeBlobs struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlobs) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeNotifier struct {
	notices []domain.RegistrationNotice
}

func (n *fakeNotifier) Publish(notice domain.RegistrationNotice) {
	n.notices = append(n.notices, notice)
}

var testEvents = []domain.Event{
	{Slug: "paper-presentation", Title: "Paper Presentation", Type: domain.EventTypeTech, RegistrationFee: "₹100 per head", MinMembers: 1, MaxMembers: 2, Timing: "10:00 AM"},
	{Slug: "treasure-hunt", Title: "Treasure Hunt", Type: domain.EventTypeNonTech, RegistrationFee: "₹150 per head", MinMembers: 2, MaxMembers: 4, Timing: "11:00 AM"},
	{Slug: "coding-debugging", Title: "Coding & Debugging", Type: domain.EventTypeTech, RegistrationFee: "₹50 per head", MinMembers: 1, MaxMembers: 2, Timing: "10:00 AM"},
	{Slug: "chess", Title: "Chess", Type: domain.EventTypeNonTech, RegistrationFee: "₹50 per head", MinMembers: 1, MaxMembers: 1, Timing: "2:00 PM"},
}

type harness struct {
	svc      *RegistrationService
	repo     *fakeRepo
	blobs    *fakeBlobs
	notifier *fakeNotifier
}

func newHarness(opts RegistrationOptions) *harness {
	events := fakeEvents{}
	for _, e := range testEvents {
		events[e.Slug] = uuid.New()
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "registration-screenshots"
	}

	h := &harness{
		repo:     &fakeRepo{},
		blobs:    newFakeBlobs(),
		notifier: &fakeNotifier{},
	}
	h.svc = NewRegistrationService(h.repo, events, h.blobs, catalogue.New(testEvents), h.notifier, opts)
	h.svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	return h
}

func registrant() domain.Registrant {
	return domain.Registrant{
		Title:       "Mr.",
		Name:        "A",
		Email:       "a@b.co",
		Phone:       "9000000001",
		RollNo:      "R1",
		CollegeName: "C",
		Year:        "II Year",
		Degree:      "Engineering",
		Department:  "CSE",
	}
}

func submission(total float64, events ...domain.SubmittedEvent) domain.Submission {
	return domain.Submission{
		Registrant:  registrant(),
		Events:      events,
		TotalAmount: total,
		SubmittedAt: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		Payment: domain.PaymentArtifact{
			FileName:    "pay.PNG",
			ContentType: "image/png",
			Data:        []byte{0x89},
		},
	}
}

func TestRegistrationService_Submit_SoloTechnical(t *testing.T) {
	h := newHarness(RegistrationOptions{})

	regID, err := h.svc.Submit(context.Background(), submission(100, domain.SubmittedEvent{
		EventID: "paper-presentation", EventName: "Paper Presentation", TeamSize: 1,
	}))
	require.NoError(t, err)

	require.Len(t, h.repo.registrations, 1)
	assert.Equal(t, regID, h.repo.registrations[0].ID)
	assert.Equal(t, 100.0, h.repo.registrations[0].TotalAmount)
	assert.Regexp(t, screenshotURLPattern, h.repo.registrations[0].PaymentScreenshotURL)
	assert.Contains(t, h.repo.registrations[0].PaymentScreenshotURL, "/registration-screenshots/1700000000000_")

	require.Len(t, h.repo.eventRegistrations, 1)
	assert.Equal(t, regID, h.repo.eventRegistrations[0].RegistrationID)
	assert.Equal(t, 1, h.repo.eventRegistrations[0].TeamSize)
	assert.Empty(t, h.repo.members)
	assert.Len(t, h.blobs.objects, 1)
	assert.Zero(t, h.repo.transactions)
}

func TestRegistrationService_Submit_TeamOfThree(t *testing.T) {
	h := newHarness(RegistrationOptions{})

	_, err := h.svc.Submit(context.Background(), submission(450, domain.SubmittedEvent{
		EventID:  "treasure-hunt",
		TeamSize: 3,
		TeamMembers: []domain.SubmittedMember{
			{Name: "M1"},
			{Name: "M2", CollegeName: "Other", IsAlternateContact: true},
		},
	}))
	require.NoError(t, err)

	require.Len(t, h.repo.eventRegistrations, 1)
	require.Len(t, h.repo.members, 2)

	first, second := h.repo.members[0], h.repo.members[1]
	assert.Equal(t, "M1", first.Name)
	assert.Equal(t, 0, first.Position)
	assert.False(t, first.IsAlternateContact)
	assert.Equal(t, "C", first.CollegeName)
	assert.Equal(t, "CSE", first.Department)

	assert.Equal(t, "M2", second.Name)
	assert.Equal(t, 1, second.Position)
	assert.True(t, second.IsAlternateContact)
	assert.Equal(t, "Other", second.CollegeName)
	assert.Equal(t, h.repo.eventRegistrations[0].ID, second.EventRegistrationID)
}

func TestRegistrationService_Submit_TwoEventsKeepOrder(t *testing.T) {
	h := newHarness(RegistrationOptions{})

	_, err := h.svc.Submit(context.Background(), submission(150,
		domain.SubmittedEvent{EventID: "coding-debugging", TeamSize: 2, TeamMembers: []domain.SubmittedMember{{Name: "M1"}}},
		domain.SubmittedEvent{EventID: "chess", TeamSize: 1},
	))
	require.NoError(t, err)

	require.Len(t, h.repo.eventRegistrations, 2)
	assert.Equal(t, 2, h.repo.eventRegistrations[0].TeamSize)
	assert.Equal(t, 1, h.repo.eventRegistrations[1].TeamSize)
	require.Len(t, h.repo.members, 1)
	assert.Equal(t, h.repo.eventRegistrations[0].ID, h.repo.members[0].EventRegistrationID)

	require.Len(t, h.notifier.notices, 1)
	assert.Equal(t, []string{"coding-debugging", "chess"}, h.notifier.notices[0].Events)
	assert.Equal(t, "A", h.notifier.notices[0].Name)
}

func TestRegistrationService_Submit_RepeatedSlugWithoutStrictMode(t *testing.T) {
	h := newHarness(RegistrationOptions{})

	_, err := h.svc.Submit(context.Background(), submission(100,
		domain.SubmittedEvent{EventID: "chess", TeamSize: 1},
		domain.SubmittedEvent{EventID: "chess", TeamSize: 1},
	))
	require.NoError(t, err)

	require.Len(t, h.repo.eventRegistrations, 2)
	assert.Equal(t, h.repo.eventRegistrations[0].EventID, h.repo.eventRegistrations[1].EventID)
	assert.NotEqual(t, h.repo.eventRegistrations[0].ID, h.repo.eventRegistrations[1].ID)
}

func TestRegistrationService_Submit_RejectsPayment(t *testing.T) {
	tests := []struct {
		name    string
		payment domain.PaymentArtifact
		wantErr error
	}{
		{name: "missing", payment: domain.PaymentArtifact{}, wantErr: ErrPaymentMissing},
		{name: "not an image", payment: domain.PaymentArtifact{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte{1}}, wantErr: ErrInvalidFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RegistrationOptions{})
			sub := submission(100, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 1})
			sub.Payment = tt.payment

			_, err := h.svc.Submit(context.Background(), sub)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.blobs.objects)
			assert.Empty(t, h.repo.registrations)
		})
	}
}

func TestRegistrationService_Submit_UnknownEventKeepsMainRow(t *testing.T) {
	h := newHarness(RegistrationOptions{})

	_, err := h.svc.Submit(context.Background(), submission(0, domain.SubmittedEvent{EventID: "ghost-event", TeamSize: 1}))

	var notFound *EventNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost-event", notFound.Slug)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Len(t, h.repo.registrations, 1)
	assert.Empty(t, h.repo.eventRegistrations)
	assert.Len(t, h.blobs.objects, 1)
	assert.Empty(t, h.notifier.notices)
}

func TestRegistrationService_Submit_StepFailures(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name     string
		setup    func(h *harness)
		wantStep error
		wantRegs int
	}{
		{
			name:     "upload",
			setup:    func(h *harness) { h.blobs.putErr = dbErr },
			wantStep: ErrUploadFailed,
		},
		{
			name:     "main row",
			setup:    func(h *harness) { h.repo.registrationErr = dbErr },
			wantStep: ErrSaveRegistration,
		},
		{
			name:     "event registration",
			setup:    func(h *harness) { h.repo.eventRegErr = dbErr },
			wantStep: ErrSaveEventRegistration,
			wantRegs: 1,
		},
		{
			name:     "team members",
			setup:    func(h *harness) { h.repo.membersErr = dbErr },
			wantStep: ErrSaveTeamMembers,
			wantRegs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RegistrationOptions{})
			tt.setup(h)

			_, err := h.svc.Submit(context.Background(), submission(100, domain.SubmittedEvent{
				EventID: "coding-debugging", TeamSize: 2, TeamMembers: []domain.SubmittedMember{{Name: "M1"}},
			}))

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.ErrorIs(t, err, tt.wantStep)
			assert.ErrorIs(t, err, dbErr)
			assert.Len(t, h.repo.registrations, tt.wantRegs)
		})
	}
}

func TestRegistrationService_Submit_Transactional(t *testing.T) {
	h := newHarness(RegistrationOptions{Transactional: true})

	_, err := h.svc.Submit(context.Background(), submission(0, domain.SubmittedEvent{EventID: "ghost-event", TeamSize: 1}))
	assert.ErrorIs(t, err, ErrEventNotFound)

	assert.Equal(t, 1, h.repo.transactions)
	assert.Empty(t, h.repo.registrations)
	assert.Empty(t, h.blobs.objects)
	assert.Len(t, h.blobs.deleted, 1)

	regID, err := h.svc.Submit(context.Background(), submission(100, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 1}))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, regID)
	assert.Len(t, h.repo.registrations, 1)
	assert.Len(t, h.blobs.deleted, 1)
}

func TestRegistrationService_Submit_StrictValidation(t *testing.T) {
	tests := []struct {
		name    string
		sub     domain.Submission
		wantErr error
	}{
		{
			name:    "no events",
			sub:     submission(0),
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "team too large",
			sub:     submission(500, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 5, TeamMembers: make([]domain.SubmittedMember, 4)}),
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "member count mismatch",
			sub:     submission(200, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 2}),
			wantErr: ErrInvalidSubmission,
		},
		{
			name: "missing alternate contact",
			sub: submission(450, domain.SubmittedEvent{EventID: "treasure-hunt", TeamSize: 3, TeamMembers: []domain.SubmittedMember{
				{Name: "M1"}, {Name: "M2"},
			}}),
			wantErr: ErrInvalidSubmission,
		},
		{
			name: "two team leads",
			sub: submission(450, domain.SubmittedEvent{EventID: "treasure-hunt", TeamSize: 3, TeamMembers: []domain.SubmittedMember{
				{Name: "M1", IsTeamLead: true},
				{Name: "M2", IsTeamLead: true, IsAlternateContact: true},
			}}),
			wantErr: ErrInvalidSubmission,
		},
		{
			name: "duplicate event",
			sub: submission(100,
				domain.SubmittedEvent{EventID: "chess", TeamSize: 1},
				domain.SubmittedEvent{EventID: "chess", TeamSize: 1},
			),
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "tampered total",
			sub:     submission(1, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 1}),
			wantErr: ErrInvalidSubmission,
		},
		{
			name:    "unknown slug",
			sub:     submission(0, domain.SubmittedEvent{EventID: "ghost-event", TeamSize: 1}),
			wantErr: ErrEventNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RegistrationOptions{StrictValidation: true})

			_, err := h.svc.Submit(context.Background(), tt.sub)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.blobs.objects)
			assert.Empty(t, h.repo.registrations)
		})
	}
}

func TestRegistrationService_Submit_RejectsNonFiniteTotal(t *testing.T) {
	team := domain.SubmittedEvent{EventID: "treasure-hunt", TeamSize: 3, TeamMembers: []domain.SubmittedMember{
		{Name: "M1", IsTeamLead: true},
		{Name: "M2", IsAlternateContact: true},
	}}

	tests := []struct {
		name   string
		total  float64
		strict bool
	}{
		{name: "NaN", total: math.NaN()},
		{name: "positive infinity", total: math.Inf(1)},
		{name: "negative infinity", total: math.Inf(-1)},
		{name: "negative", total: -5},
		{name: "beyond column range", total: 1e300},
		{name: "NaN strict", total: math.NaN(), strict: true},
		{name: "infinity strict", total: math.Inf(1), strict: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RegistrationOptions{StrictValidation: tt.strict})

			_, err := h.svc.Submit(context.Background(), submission(tt.total, team))

			var invalid *InvalidSubmissionError
			require.ErrorAs(t, err, &invalid)
			assert.ErrorIs(t, err, ErrInvalidSubmission)
			assert.Empty(t, h.blobs.objects)
			assert.Empty(t, h.repo.registrations)
			assert.Empty(t, h.repo.eventRegistrations)
			assert.Empty(t, h.repo.members)
			assert.Empty(t, h.notifier.notices)
		})
	}
}

func TestRegistrationService_Verify_NaNTotal(t *testing.T) {
	h := newHarness(RegistrationOptions{StrictValidation: true})

	err := h.svc.verify(submission(math.NaN(), domain.SubmittedEvent{EventID: "chess", TeamSize: 1}))

	var invalid *InvalidSubmissionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"total amount must be 50"}, invalid.Problems)
}

func TestRegistrationService_Submit_StrictAcceptsValid(t *testing.T) {
	h := newHarness(RegistrationOptions{StrictValidation: true})

	_, err := h.svc.Submit(context.Background(), submission(450, domain.SubmittedEvent{
		EventID:  "treasure-hunt",
		TeamSize: 3,
		TeamMembers: []domain.SubmittedMember{
			{Name: "M1", IsTeamLead: true},
			{Name: "M2", IsAlternateContact: true},
		},
	}))
	require.NoError(t, err)
	assert.Len(t, h.repo.members, 2)
}

func TestRegistrationService_Submit_DistinctIDs(t *testing.T) {
	h := newHarness(RegistrationOptions{})
	sub := submission(100, domain.SubmittedEvent{EventID: "paper-presentation", TeamSize: 1})

	first, err := h.svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	second, err := h.svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, h.blobs.objects, 2)
}
