package correction

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the durable alternative, used when a Postgres DSN is
// configured.
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Get(ctx context.Context, bookingUID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).First(&rec, "booking_uid = ?", bookingUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Put(ctx context.Context, rec *Record) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}
