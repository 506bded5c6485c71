package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/repository"
	"github.com/cahcet/eloquence-api/internal/storage"
)

var (
	ErrEventNotFound         = repository.ErrEventNotFound
	ErrPaymentMissing        = errors.New("payment screenshot is required")
	ErrInvalidFileType       = errors.New("payment screenshot is not an image")
	ErrUploadFailed          = errors.New("failed to upload payment screenshot")
	ErrSaveRegistration      = errors.New("failed to save main registration data")
	ErrSaveEventRegistration = errors.New("failed to save event registration data")
	ErrSaveTeamMembers       = errors.New("failed to save team member data")
	ErrInvalidSubmission     = errors.New("submission does not satisfy the event rules")
)

// EventNotFoundError names the slug that could not be resolved.
type EventNotFoundError struct {
	Slug string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("event %q not found", e.Slug)
}

func (e *EventNotFoundError) Unwrap() error {
	return ErrEventNotFound
}

// StepError ties a storage failure to the pipeline step it happened in.
type StepError struct {
	Step error
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Step, e.Err}
}

// InvalidSubmissionError lists every rule a submission breaks.
type InvalidSubmissionError struct {
	Problems []string
}

func (e *InvalidSubmissionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidSubmission, strings.Join(e.Problems, "; "))
}

func (e *InvalidSubmissionError) Unwrap() error {
	return ErrInvalidSubmission
}

type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type EventLookup interface {
	FindBySlug(ctx context.Context, slug string) (domain.EventRecord, error)
}

type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	CreateEventRegistration(ctx context.Context, er domain.EventRegistration) (domain.EventRegistration, error)
	CreateTeamMembers(ctx context.Context, members []domain.TeamMember) error
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Catalogue interface {
	Lookup(slug string) (domain.Event, bool)
}

type Notifier interface {
	Publish(notice domain.RegistrationNotice)
}

type RegistrationOptions struct {
	KeyPrefix        string
	StrictValidation bool
	Transactional    bool
}

type RegistrationService struct {
	repo      RegistrationRepository
	events    EventLookup
	blobs     BlobStore
	catalogue Catalogue
	notifier  Notifier
	opts      RegistrationOptions
	now       func() time.Time
}

// NewRegistrationService builds the submission coordinator. notifier may be nil.
func NewRegistrationService(
	repo RegistrationRepository,
	events EventLookup,
	blobs BlobStore,
	catalogue Catalogue,
	notifier Notifier,
	opts RegistrationOptions,
) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		events:    events,
		blobs:     blobs,
		catalogue: catalogue,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
	}
}

// Submit stores the payment screenshot and then writes the registration rows,
// stopping at the first failure. Rows written before a failure are kept unless
// the service runs in transactional mode.
func (s *RegistrationService) Submit(ctx context.Context, sub domain.Submission) (uuid.UUID, error) {
	if err := checkPayment(sub.Payment); err != nil {
		return uuid.Nil, err
	}
	if !domain.ValidTotal(sub.TotalAmount) {
		return uuid.Nil, &InvalidSubmissionError{Problems: []string{
			fmt.Sprintf("total amount must be a finite amount between 0 and %.0f", domain.MaxTotalAmount),
		}}
	}

	if s.opts.StrictValidation {
		if err := s.verify(sub); err != nil {
			return uuid.Nil, err
		}
	}

	key, err := storage.NewObjectKey(s.opts.KeyPrefix, sub.Payment.FileName, s.now())
	if err != nil {
		return uuid.Nil, &StepError{Step: ErrUploadFailed, Err: err}
	}

	if err = s.blobs.Put(ctx, key, sub.Payment.Data, sub.Payment.ContentType); err != nil {
		return uuid.Nil, &StepError{Step: ErrUploadFailed, Err: fmt.Errorf("s.blobs.Put -> %w", err)}
	}
	url := s.blobs.PublicURL(key)

	var regID uuid.UUID
	if s.opts.Transactional {
		err = s.repo.Transaction(ctx, func(ctx context.Context) error {
			var txErr error
			regID, txErr = s.persist(ctx, sub, url)
			return txErr
		})
		if err != nil {
			s.discardBlob(ctx, key)
			return uuid.Nil, err
		}
	} else {
		regID, err = s.persist(ctx, sub, url)
		if err != nil {
			return uuid.Nil, err
		}
	}

	zap.L().Info("registration accepted",
		zap.String("registration_id", regID.String()),
		zap.Strings("events", sub.EventSlugs()),
		zap.Float64("total_amount", sub.TotalAmount),
	)

	if s.notifier != nil {
		s.notifier.Publish(domain.RegistrationNotice{
			RegistrationID: regID,
			Name:           sub.Registrant.Name,
			Events:         sub.EventSlugs(),
			TotalAmount:    sub.TotalAmount,
			SubmittedAt:    sub.SubmittedAt,
		})
	}

	return regID, nil
}

func (s *RegistrationService) persist(ctx context.Context, sub domain.Submission, screenshotURL string) (uuid.UUID, error) {
	reg, err := s.repo.CreateRegistration(ctx, domain.Registration{
		Registrant:           sub.Registrant,
		TotalAmount:          sub.TotalAmount,
		PaymentScreenshotURL: screenshotURL,
		SubmittedAt:          sub.SubmittedAt,
	})
	if err != nil {
		return uuid.Nil, &StepError{Step: ErrSaveRegistration, Err: fmt.Errorf("s.repo.CreateRegistration -> %w", err)}
	}

	for _, ev := range sub.Events {
		event, err := s.events.FindBySlug(ctx, ev.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return uuid.Nil, &EventNotFoundError{Slug: ev.EventID}
			}
			return uuid.Nil, &StepError{Step: ErrSaveEventRegistration, Err: fmt.Errorf("s.events.FindBySlug -> %w", err)}
		}

		er, err := s.repo.CreateEventRegistration(ctx, domain.EventRegistration{
			RegistrationID: reg.ID,
			EventID:        event.ID,
			TeamSize:       ev.TeamSize,
		})
		if err != nil {
			return uuid.Nil, &StepError{Step: ErrSaveEventRegistration, Err: fmt.Errorf("s.repo.CreateEventRegistration -> %w", err)}
		}

		members := teamMembers(er.ID, ev.TeamMembers, sub.Registrant)
		if len(members) == 0 {
			continue
		}
		if err = s.repo.CreateTeamMembers(ctx, members); err != nil {
			return uuid.Nil, &StepError{Step: ErrSaveTeamMembers, Err: fmt.Errorf("s.repo.CreateTeamMembers -> %w", err)}
		}
	}

	return reg.ID, nil
}

func (s *RegistrationService) discardBlob(ctx context.Context, key string) {
	// The request context may already be cancelled; the cleanup should still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.blobs.Delete(ctx, key); err != nil {
		zap.L().Error("failed to delete orphaned payment screenshot", zap.String("key", key), zap.Error(err))
	}
}

// verify re-checks the event rules against the catalogue and recomputes the total.
func (s *RegistrationService) verify(sub domain.Submission) error {
	var problems []string
	if len(sub.Events) == 0 {
		problems = append(problems, "at least one event must be selected")
	}

	seen := make(map[string]bool, len(sub.Events))
	total := 0
	for _, ev := range sub.Events {
		event, ok := s.catalogue.Lookup(ev.EventID)
		if !ok {
			return &EventNotFoundError{Slug: ev.EventID}
		}

		if seen[ev.EventID] {
			problems = append(problems, fmt.Sprintf("%s: registered more than once", ev.EventID))
			continue
		}
		seen[ev.EventID] = true

		if !event.AllowsTeamSize(ev.TeamSize) {
			problems = append(problems, fmt.Sprintf("%s: team size must be between %d and %d", ev.EventID, event.MinMembers, event.MaxMembers))
		}
		if want := max(ev.TeamSize-1, 0); len(ev.TeamMembers) != want {
			problems = append(problems, fmt.Sprintf("%s: expected %d team members, got %d", ev.EventID, want, len(ev.TeamMembers)))
		}

		leads, alternates := 0, 0
		for _, m := range ev.TeamMembers {
			if m.IsTeamLead {
				leads++
			}
			if m.IsAlternateContact {
				alternates++
			}
		}
		if leads > 1 {
			problems = append(problems, fmt.Sprintf("%s: only one team lead is allowed", ev.EventID))
		}
		if alternates > 1 {
			problems = append(problems, fmt.Sprintf("%s: only one alternate contact is allowed", ev.EventID))
		}
		if ev.TeamSize >= 3 && alternates == 0 {
			problems = append(problems, fmt.Sprintf("%s: an alternate contact is required", ev.EventID))
		}

		total += event.Fee() * ev.TeamSize
	}

	if !(math.Abs(float64(total)-sub.TotalAmount) <= 0.005) {
		problems = append(problems, fmt.Sprintf("total amount must be %d", total))
	}

	if len(problems) > 0 {
		return &InvalidSubmissionError{Problems: problems}
	}

	return nil
}

func checkPayment(p domain.PaymentArtifact) error {
	if p.Data == nil {
		return ErrPaymentMissing
	}
	if !strings.HasPrefix(p.ContentType, "image/") {
		return ErrInvalidFileType
	}

	return nil
}

// teamMembers maps submitted members to rows in submission order. Empty college
// and department fall back to the main registrant's.
func teamMembers(eventRegistrationID uuid.UUID, submitted []domain.SubmittedMember, owner domain.Registrant) []domain.TeamMember {
	members := make([]domain.TeamMember, 0, len(submitted))
	for i, m := range submitted {
		college := m.CollegeName
		if college == "" {
			college = owner.CollegeName
		}
		department := m.Department
		if department == "" {
			department = owner.Department
		}

		members = append(members, domain.TeamMember{
			EventRegistrationID: eventRegistrationID,
			Position:            i,
			Title:               m.Title,
			Name:                m.Name,
			Email:               m.Email,
			Phone:               m.Phone,
			RollNo:              m.RollNo,
			CollegeName:         college,
			Year:                m.Year,
			Degree:              m.Degree,
			Department:          department,
			IsTeamLead:          m.IsTeamLead,
			IsAlternateContact:  m.IsAlternateContact,
		})
	}

	return members
}
