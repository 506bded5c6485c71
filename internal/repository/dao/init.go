package dao

import (
	"context"

	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&Registration{},
		&EventRegistration{},
		&TeamMember{},
	)
}

// TruncateTables empties every registration table, keeping the events lookup.
func TruncateTables(db *gorm.DB) error {
	return db.Exec("TRUNCATE TABLE team_members, event_registrations, registrations CASCADE").Error
}

type txKey struct{}

// conn returns the transaction carried by ctx, if any, else the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Transaction runs fn with a ctx that scopes every DAO call to one transaction.
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
