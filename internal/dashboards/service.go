package dashboards

import (
	"medai-backend/internal/storage"

	"gorm.io/gorm"
)

// Service serves the read-only model comparison and federated learning
// dashboards. The storage provider is optional; without it only the seeded
// data is shown.
type Service struct {
	db      *gorm.DB
	storage storage.Provider
	bucket  string
}

func NewService(db *gorm.DB, provider storage.Provider, bucket string) *Service {
	return &Service{db: db, storage: provider, bucket: bucket}
}
