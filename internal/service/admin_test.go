package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/pkg/jwthelper"
)

type fakeTeams map[uuid.UUID][]domain.Team

func (f fakeTeams) FindTeamsByEventID(_ context.Context, eventID uuid.UUID) ([]domain.Team, error) {
	return f[eventID], nil
}

func newAdminService(t *testing.T) (*AdminService, fakeEvents, fakeTeams) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	events := fakeEvents{"treasure-hunt": uuid.New(), "chess": uuid.New()}
	teams := fakeTeams{}

	return NewAdminService(string(hash), "signing-key", time.Hour, events, teams), events, teams
}

func TestAdminService_Login(t *testing.T) {
	svc, _, _ := newAdminService(t)

	token, err := svc.Login(context.Background(), "s3cret", "test-agent")
	require.NoError(t, err)

	claims, err := jwthelper.ParseToken([]byte("signing-key"), token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = svc.Login(context.Background(), "wrong", "test-agent")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAdminService_Login_DisabledWithoutHash(t *testing.T) {
	svc := NewAdminService("", "signing-key", time.Hour, fakeEvents{}, fakeTeams{})

	_, err := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAdminService_Sheet(t *testing.T) {
	svc, events, teams := newAdminService(t)

	teams[events["treasure-hunt"]] = []domain.Team{
		{
			EventRegistration: domain.EventRegistration{TeamSize: 3},
			Registration: domain.Registration{
				Registrant:           domain.Registrant{Name: "A", CollegeName: "C", Phone: "9000000001"},
				PaymentScreenshotURL: "https://cdn.example.com/a.png",
			},
			Members: []domain.TeamMember{
				{Name: "M1", CollegeName: "C", Phone: "9000000002"},
				{Name: "M2", CollegeName: "D"},
			},
		},
		{
			EventRegistration: domain.EventRegistration{TeamSize: 1},
			Registration: domain.Registration{
				Registrant:           domain.Registrant{Name: "B", CollegeName: "E", Phone: "9000000003"},
				PaymentScreenshotURL: "https://cdn.example.com/b.png",
			},
		},
	}

	rows, err := svc.Sheet(context.Background(), "treasure-hunt")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, domain.SheetRow{
		SerialNo: 1, TeamNumber: 1, TeamSize: 3, MainRegistrant: "A", MemberName: "A",
		CollegeName: "C", PhoneNumber: "9000000001", PaymentScreenshot: "https://cdn.example.com/a.png",
	}, rows[0])
	assert.Equal(t, "M1", rows[1].MemberName)
	assert.Equal(t, "A", rows[1].MainRegistrant)
	assert.Equal(t, 3, rows[2].SerialNo)
	assert.Equal(t, "M2", rows[2].MemberName)
	assert.Equal(t, domain.SheetRow{
		SerialNo: 4, TeamNumber: 2, TeamSize: 1, MainRegistrant: "B", MemberName: "B",
		CollegeName: "E", PhoneNumber: "9000000003", PaymentScreenshot: "https://cdn.example.com/b.png",
	}, rows[3])
}

func TestAdminService_Sheet_EmptyAndUnknown(t *testing.T) {
	svc, _, _ := newAdminService(t)

	rows, err := svc.Sheet(context.Background(), "chess")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = svc.Sheet(context.Background(), "ghost-event")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
