package checkout

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/junaidrashid-git/storefront/models"
)

// Recorder keeps an audit trail of checkout attempts.
type Recorder interface {
	Record(ctx context.Context, row *models.CheckoutSession) error

	// Complete marks the attempt with externalID as paid. It reports false when the attempt
	// was already completed.
	Complete(ctx context.Context, sessionID, externalID string) (bool, error)
}

type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, row *models.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *GormRecorder) Complete(ctx context.Context, sessionID, externalID string) (bool, error) {
	first := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CheckoutSession{}).
			Where("external_id = ? AND status <> ?", externalID, models.CheckoutStatusCompleted).
			Update("status", models.CheckoutStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			first = true
			return nil
		}

		var done int64
		if err := tx.Model(&models.CheckoutSession{}).
			Where("external_id = ? AND status = ?", externalID, models.CheckoutStatusCompleted).
			Count(&done).Error; err != nil {
			return err
		}
		if done > 0 {
			return nil
		}

		// Attempt was never recorded: keep a completed row so a redelivery is recognised.
		first = true
		return tx.Create(&models.CheckoutSession{
			SessionID:  sessionID,
			ExternalID: externalID,
			Status:     models.CheckoutStatusCompleted,
		}).Error
	})
	return first, err
}

// BySession lists the attempts of one shopper session, newest first.
func (r *GormRecorder) BySession(ctx context.Context, sessionID string) ([]models.CheckoutSession, error) {
	var rows []models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// memoryRecorder is used without a database. It keeps no audit trail, only the ids of the
// checkouts completed by this process.
type memoryRecorder struct {
	mu        sync.Mutex
	completed map[string]struct{}
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{completed: make(map[string]struct{})}
}

func (*memoryRecorder) Record(context.Context, *models.CheckoutSession) error { return nil }

func (m *memoryRecorder) Complete(_ context.Context, _, externalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completed[externalID]; ok {
		return false, nil
	}
	m.completed[externalID] = struct{}{}
	return true, nil
}
