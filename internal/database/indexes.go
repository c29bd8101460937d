package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// composite indexes the struct tags cannot express on their own
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	// public catalog: filter by state, newest first
	{"proposte", "idx_proposte_stato_created_at", "stato, created_at"},
	// "mine" listing
	{"proposte", "idx_proposte_proponente_created_at", "proponente_id, created_at"},
	// comment thread of a proposal in order
	{"commenti", "idx_commenti_proposal_created_at", "proposal_id, created_at"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range compositeIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
