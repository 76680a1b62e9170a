package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/M-casado/watercolour-processing/logging"
)

// Gorm returns a GORM session over the store's own connection, so reads see
// the same foreign key settings and the single-connection pool stays intact.
func (s *Store) Gorm(logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{Conn: s.db}, &gorm.Config{
		Logger:                 logging.NewGormLogger(logger, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM session on %s: %w", s.path, err)
	}
	return db, nil
}
