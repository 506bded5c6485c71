package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRegistrationMissing = errors.New("referenced registration does not exist")

type Registration struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MainRegistrantTitle       string
	MainRegistrantName        string `gorm:"not null"`
	MainRegistrantEmail       string `gorm:"not null;index"`
	MainRegistrantPhone       string `gorm:"not null"`
	MainRegistrantRollNo      string
	MainRegistrantCollegeName string
	MainRegistrantYear        string
	MainRegistrantDegree      string
	MainRegistrantDepartment  string
	TotalAmount               float64   `gorm:"type:numeric(10,2);not null"`
	PaymentScreenshotURL      string    `gorm:"not null"`
	SubmittedAt               time.Time `gorm:"not null"`
	CreatedAt                 time.Time
	EventRegistrations        []EventRegistration `gorm:"foreignKey:RegistrationID"`
}

func (Registration) TableName() string {
	return "registrations"
}

func (r *Registration) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type EventRegistration struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	RegistrationID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Registration   Registration `gorm:"foreignKey:RegistrationID"`
	EventID        uuid.UUID    `gorm:"type:uuid;not null;index"`
	Event          Event        `gorm:"foreignKey:EventID"`
	TeamSize       int          `gorm:"not null"`
	CreatedAt      time.Time
	TeamMembers    []TeamMember `gorm:"foreignKey:EventRegistrationID"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}

func (r *EventRegistration) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type TeamMember struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventRegistrationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position            int       `gorm:"not null"`
	Title               string
	Name                string `gorm:"not null"`
	Email               string
	Phone               string
	RollNo              string
	CollegeName         string
	Year                string
	Degree              string
	Department          string
	IsTeamLead          bool `gorm:"not null;default:false"`
	IsAlternateContact  bool `gorm:"not null;default:false"`
	CreatedAt           time.Time
}

func (TeamMember) TableName() string {
	return "team_members"
}

func (m *TeamMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

func (d *RegistrationDAO) Insert(ctx context.Context, reg Registration) (Registration, error) {
	if err := conn(ctx, d.db).Omit(clause.Associations).Create(&reg).Error; err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func (d *RegistrationDAO) InsertEventRegistration(ctx context.Context, er EventRegistration) (EventRegistration, error) {
	if err := conn(ctx, d.db).Omit(clause.Associations).Create(&er).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return EventRegistration{}, ErrRegistrationMissing
		}
		return EventRegistration{}, err
	}

	return er, nil
}

// InsertTeamMembers writes all members in one statement, preserving slice order
// in the position column.
func (d *RegistrationDAO) InsertTeamMembers(ctx context.Context, members []TeamMember) error {
	if len(members) == 0 {
		return nil
	}

	return conn(ctx, d.db).Omit(clause.Associations).Create(&members).Error
}

// FindTeamsByEventID loads every event registration of one event with its owner
// and members, oldest first.
func (d *RegistrationDAO) FindTeamsByEventID(ctx context.Context, eventID uuid.UUID) ([]EventRegistration, error) {
	var regs []EventRegistration
	err := conn(ctx, d.db).
		Preload("Registration").
		Preload("TeamMembers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	return regs, nil
}

func (d *RegistrationDAO) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return Transaction(ctx, d.db, fn)
}
