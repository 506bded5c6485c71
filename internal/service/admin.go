package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/pkg/jwthelper"
)

const adminSubject = "admin"

var ErrWrongPassword = errors.New("wrong password")

type TeamReader interface {
	FindTeamsByEventID(ctx context.Context, eventID uuid.UUID) ([]domain.Team, error)
}

type AdminService struct {
	passwordHash []byte
	signingKey   []byte
	tokenTTL     time.Duration
	events       EventLookup
	teams        TeamReader
}

func NewAdminService(passwordHash, signingKey string, tokenTTL time.Duration, events EventLookup, teams TeamReader) *AdminService {
	return &AdminService{
		passwordHash: []byte(passwordHash),
		signingKey:   []byte(signingKey),
		tokenTTL:     tokenTTL,
		events:       events,
		teams:        teams,
	}
}

// Login returns a bearer token when password matches the configured hash.
// An empty hash disables admin login.
func (s *AdminService) Login(_ context.Context, password, userAgent string) (string, error) {
	if len(s.passwordHash) == 0 {
		return "", ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrWrongPassword
	}

	token, err := jwthelper.GenerateToken(s.signingKey, adminSubject, userAgent, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	return token, nil
}

// Sheet flattens every team of an event into one row per participant: the
// main registrant first, then the members in stored order.
func (s *AdminService) Sheet(ctx context.Context, eventSlug string) ([]domain.SheetRow, error) {
	event, err := s.events.FindBySlug(ctx, eventSlug)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, &EventNotFoundError{Slug: eventSlug}
		}
		return nil, fmt.Errorf("s.events.FindBySlug -> %w", err)
	}

	teams, err := s.teams.FindTeamsByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("s.teams.FindTeamsByEventID -> %w", err)
	}

	rows := make([]domain.SheetRow, 0)
	for i, team := range teams {
		owner := team.Registration
		base := domain.SheetRow{
			TeamNumber:        i + 1,
			TeamSize:          team.EventRegistration.TeamSize,
			MainRegistrant:    owner.Registrant.Name,
			PaymentScreenshot: owner.PaymentScreenshotURL,
		}

		row := base
		row.SerialNo = len(rows) + 1
		row.MemberName = owner.Registrant.Name
		row.CollegeName = owner.Registrant.CollegeName
		row.PhoneNumber = owner.Registrant.Phone
		rows = append(rows, row)

		for _, m := range team.Members {
			row = base
			row.SerialNo = len(rows) + 1
			row.MemberName = m.Name
			row.CollegeName = m.CollegeName
			row.PhoneNumber = m.Phone
			rows = append(rows, row)
		}
	}

	return rows, nil
}
