package merge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Maintainer repairs records that were created or synced in after their
// owning patient was merged. A merge committed centrally does not
// instantaneously exist on every facility copy, and a facility can keep
// writing records against the stale patient until it has synced the
// merge; this sweep runs on a schedule and repoints those stragglers.
type Maintainer struct {
	db       *gorm.DB
	registry *Registry
	flagger  ResyncFlagger
}

func NewMaintainer(db *gorm.DB, registry *Registry, flagger ResyncFlagger) *Maintainer {
	return &Maintainer{db: db, registry: registry, flagger: flagger}
}

type pendingPair struct {
	KeepID   string `gorm:"column:keep_id"`
	MergedID string `gorm:"column:merged_id"`
}

// RemergePendingRecords performs the whole sweep in one transaction so
// every "find pending, then fix" pass observes the same snapshot. With
// nothing pending it returns an empty counts map and mutates nothing, so
// back-to-back sweeps are safe: the first run clears the condition the
// second run searches for.
func (m *Maintainer) RemergePendingRecords(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range m.registry.Names() {
			strategy, _ := m.registry.Get(name)
			switch strategy.Kind {
			case StrategyBulk:
				ids, err := m.repointStragglers(tx, strategy)
				if err != nil {
					return fmt.Errorf("repoint %s: %w", name, err)
				}
				if len(ids) == 0 {
					continue
				}
				counts[name] = len(ids)
				if strategy.ResyncSensitive {
					if err := m.flagRecords(tx, name, ids); err != nil {
						return err
					}
				}
			case StrategySpecific:
				pairs, err := m.pendingPairs(tx, strategy.Table)
				if err != nil {
					return fmt.Errorf("find pending %s: %w", name, err)
				}
				var total int64
				var touched []string
				for _, pair := range pairs {
					outcome, err := strategy.Reconcile(tx, pair.KeepID, pair.MergedID)
					if err != nil {
						return fmt.Errorf("reconcile %s for %s: %w", name, pair.MergedID, err)
					}
					total += outcome.count
					touched = append(touched, outcome.records...)
				}
				if total > 0 {
					counts[name] = int(total)
				}
				if strategy.ResyncSensitive {
					if err := m.flagRecords(tx, name, touched); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// EntitiesMissingSpecificHandling reports specific-strategy entity types
// the sweep cannot repair because no reconciler is wired.
func (m *Maintainer) EntitiesMissingSpecificHandling() []string {
	var missing []string
	for _, name := range m.registry.SpecificNames() {
		strategy, _ := m.registry.Get(name)
		if strategy.Reconcile == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// repointStragglers repoints, in one set-based statement joined against
// the patient table, every row whose owner has since been merged. One
// level of a merge chain is resolved per sweep.
func (m *Maintainer) repointStragglers(tx *gorm.DB, strategy Strategy) ([]string, error) {
	var conditions []string
	args := []interface{}{time.Now().UTC()}

	conditions = append(conditions, fmt.Sprintf(
		"%s IN (SELECT id FROM patients WHERE merged_into_id IS NOT NULL)", strategy.FKColumn))
	for column, value := range strategy.Discriminator {
		conditions = append(conditions, fmt.Sprintf("%s = ?", column))
		args = append(args, value)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s = (SELECT merged_into_id FROM patients WHERE patients.id = %s.%s), updated_at = ? WHERE %s RETURNING id",
		strategy.Table, strategy.FKColumn, strategy.Table, strategy.FKColumn,
		strings.Join(conditions, " AND "),
	)

	var ids []string
	if err := tx.Raw(query, args...).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// pendingPairs yields one (keep, merged) pair per merged patient that
// still owns rows in the given table, so several independent merges get
// repaired in the same pass.
func (m *Maintainer) pendingPairs(tx *gorm.DB, table string) ([]pendingPair, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT p.merged_into_id AS keep_id, p.id AS merged_id FROM %s t JOIN patients p ON p.id = t.patient_id WHERE p.merged_into_id IS NOT NULL",
		table,
	)
	var pairs []pendingPair
	if err := tx.Raw(query).Scan(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}

func (m *Maintainer) flagRecords(tx *gorm.DB, entityType string, ids []string) error {
	for _, id := range ids {
		if err := m.flagger.MarkForResync(tx, entityType, id); err != nil {
			return fmt.Errorf("flag %s %s for resync: %w", entityType, id, err)
		}
	}
	return nil
}
