package merge

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// reassignColumn repoints a foreign-key column from the losing patient to
// the survivor for an entire table in one set-based update. Soft-deleted
// rows are included on purpose: deletion is a business flag, not an
// existence flag, and history must follow the surviving identity. Target
// existence is not re-validated here; the orchestrator already did that.
func reassignColumn(tx *gorm.DB, model interface{}, column, keepID, loserID string, discriminator map[string]string) (int64, error) {
	query := tx.Model(model).Where(fmt.Sprintf("%s = ?", column), loserID)
	for disc, value := range discriminator {
		query = query.Where(fmt.Sprintf("%s = ?", disc), value)
	}

	result := query.Updates(map[string]interface{}{
		column:       keepID,
		"updated_at": time.Now().UTC(),
	})
	return result.RowsAffected, result.Error
}
