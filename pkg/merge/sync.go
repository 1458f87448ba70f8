package merge

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidewell-health/platform/pkg/patient"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResyncFlagger marks a repointed record as needing fresh propagation to
// the distributed facility copies. Implementations must write within the
// caller's transaction so the flag commits atomically with the merge.
type ResyncFlagger interface {
	MarkForResync(tx *gorm.DB, entityType, recordID string) error
}

// QueueFlagger records resync flags in the sync_refresh_queue table. A
// record already flagged stays flagged; re-marking is a no-op.
type QueueFlagger struct{}

func NewQueueFlagger() *QueueFlagger {
	return &QueueFlagger{}
}

func (f *QueueFlagger) MarkForResync(tx *gorm.DB, entityType, recordID string) error {
	row := patient.SyncRefreshQueue{
		ID:         uuid.New().String(),
		EntityType: entityType,
		EntityID:   recordID,
		Reason:     "patient-merge",
		CreatedAt:  time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
		DoNothing: true,
	}).Create(&row).Error
}
