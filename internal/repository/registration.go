package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/repository/dao"
)

var ErrRegistrationMissing = dao.ErrRegistrationMissing

type RegistrationDAO interface {
	Insert(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	InsertEventRegistration(ctx context.Context, er dao.EventRegistration) (dao.EventRegistration, error)
	InsertTeamMembers(ctx context.Context, members []dao.TeamMember) error
	FindTeamsByEventID(ctx context.Context, eventID uuid.UUID) ([]dao.EventRegistration, error)
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) CreateRegistration(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	created, err := r.dao.Insert(ctx, r.registrationDomainToDao(reg))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.registrationDaoToDomain(created), nil
}

func (r *RegistrationRepository) CreateEventRegistration(ctx context.Context, er domain.EventRegistration) (domain.EventRegistration, error) {
	created, err := r.dao.InsertEventRegistration(ctx, dao.EventRegistration{
		ID:             er.ID,
		RegistrationID: er.RegistrationID,
		EventID:        er.EventID,
		TeamSize:       er.TeamSize,
	})
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("r.dao.InsertEventRegistration -> %w", err)
	}

	return r.eventRegistrationDaoToDomain(created), nil
}

func (r *RegistrationRepository) CreateTeamMembers(ctx context.Context, members []domain.TeamMember) error {
	rows := make([]dao.TeamMember, len(members))
	for i, m := range members {
		rows[i] = r.memberDomainToDao(m)
	}

	if err := r.dao.InsertTeamMembers(ctx, rows); err != nil {
		return fmt.Errorf("r.dao.InsertTeamMembers -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) FindTeamsByEventID(ctx context.Context, eventID uuid.UUID) ([]domain.Team, error) {
	found, err := r.dao.FindTeamsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTeamsByEventID -> %w", err)
	}

	teams := make([]domain.Team, len(found))
	for i, er := range found {
		members := make([]domain.TeamMember, len(er.TeamMembers))
		for j, m := range er.TeamMembers {
			members[j] = r.memberDaoToDomain(m)
		}
		teams[i] = domain.Team{
			EventRegistration: r.eventRegistrationDaoToDomain(er),
			Registration:      r.registrationDaoToDomain(er.Registration),
			Members:           members,
		}
	}

	return teams, nil
}

func (r *RegistrationRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.dao.Transaction(ctx, fn)
}

func (r *RegistrationRepository) registrationDomainToDao(reg domain.Registration) dao.Registration {
	return dao.Registration{
		ID:                        reg.ID,
		MainRegistrantTitle:       reg.Registrant.Title,
		MainRegistrantName:        reg.Registrant.Name,
		MainRegistrantEmail:       reg.Registrant.Email,
		MainRegistrantPhone:       reg.Registrant.Phone,
		MainRegistrantRollNo:      reg.Registrant.RollNo,
		MainRegistrantCollegeName: reg.Registrant.CollegeName,
		MainRegistrantYear:        reg.Registrant.Year,
		MainRegistrantDegree:      reg.Registrant.Degree,
		MainRegistrantDepartment:  reg.Registrant.Department,
		TotalAmount:               reg.TotalAmount,
		PaymentScreenshotURL:      reg.PaymentScreenshotURL,
		SubmittedAt:               reg.SubmittedAt,
	}
}

func (r *RegistrationRepository) registrationDaoToDomain(reg dao.Registration) domain.Registration {
	return domain.Registration{
		ID: reg.ID,
		Registrant: domain.Registrant{
			Title:       reg.MainRegistrantTitle,
			Name:        reg.MainRegistrantName,
			Email:       reg.MainRegistrantEmail,
			Phone:       reg.MainRegistrantPhone,
			RollNo:      reg.MainRegistrantRollNo,
			CollegeName: reg.MainRegistrantCollegeName,
			Year:        reg.MainRegistrantYear,
			Degree:      reg.MainRegistrantDegree,
			Department:  reg.MainRegistrantDepartment,
		},
		TotalAmount:          reg.TotalAmount,
		PaymentScreenshotURL: reg.PaymentScreenshotURL,
		SubmittedAt:          reg.SubmittedAt,
		CreatedAt:            reg.CreatedAt,
	}
}

func (r *RegistrationRepository) eventRegistrationDaoToDomain(er dao.EventRegistration) domain.EventRegistration {
	return domain.EventRegistration{
		ID:             er.ID,
		RegistrationID: er.RegistrationID,
		EventID:        er.EventID,
		TeamSize:       er.TeamSize,
		CreatedAt:      er.CreatedAt,
	}
}

func (r *RegistrationRepository) memberDomainToDao(m domain.TeamMember) dao.TeamMember {
	return dao.TeamMember{
		ID:                  m.ID,
		EventRegistrationID: m.EventRegistrationID,
		Position:            m.Position,
		Title:               m.Title,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		RollNo:              m.RollNo,
		CollegeName:         m.CollegeName,
		Year:                m.Year,
		Degree:              m.Degree,
		Department:          m.Department,
		IsTeamLead:          m.IsTeamLead,
		IsAlternateContact:  m.IsAlternateContact,
	}
}

func (r *RegistrationRepository) memberDaoToDomain(m dao.TeamMember) domain.TeamMember {
	return domain.TeamMember{
		ID:                  m.ID,
		EventRegistrationID: m.EventRegistrationID,
		Position:            m.Position,
		Title:               m.Title,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		RollNo:              m.RollNo,
		CollegeName:         m.CollegeName,
		Year:                m.Year,
		Degree:              m.Degree,
		Department:          m.Department,
		IsTeamLead:          m.IsTeamLead,
		IsAlternateContact:  m.IsAlternateContact,
	}
}
