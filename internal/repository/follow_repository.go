package repository

import (
	"fmt"

	"github.com/yukikurage/civic-proposals-api/internal/models"
	"gorm.io/gorm"
)

// GormFollowRepository is a GORM implementation of FollowRepository
type GormFollowRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &GormFollowRepository{db: db}
}

// Create adds the edge and bumps both counters in one transaction
func (r *GormFollowRepository) Create(followerID, followedID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		edge := &models.Follow{FollowerID: followerID, FollowedID: followedID}
		if err := tx.Create(edge).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateFollow
			}
			return err
		}

		if err := adjustCounter(tx, followedID, "followers_count", 1); err != nil {
			return err
		}
		return adjustCounter(tx, followerID, "following_count", 1)
	})
}

// Delete removes the edge and decrements both counters in one transaction
func (r *GormFollowRepository) Delete(followerID, followedID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrFollowNotFound
		}

		if err := adjustCounter(tx, followedID, "followers_count", -1); err != nil {
			return err
		}
		return adjustCounter(tx, followerID, "following_count", -1)
	})
}

// Exists reports whether the edge exists
func (r *GormFollowRepository) Exists(followerID, followedID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// FollowerIDs lists who follows the account, newest first
func (r *GormFollowRepository) FollowerIDs(accountID string) ([]string, error) {
	ids := []string{}
	err := r.db.Model(&models.Follow{}).
		Where("followed_id = ?", accountID).
		Order("created_at DESC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

// FollowingIDs lists whom the account follows, newest first
func (r *GormFollowRepository) FollowingIDs(accountID string) ([]string, error) {
	ids := []string{}
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ?", accountID).
		Order("created_at DESC").
		Pluck("followed_id", &ids).Error
	return ids, err
}

// RecomputeCounters rebuilds the cached counters of every account table from the edge set
func (r *GormFollowRepository) RecomputeCounters() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, kind := range models.AccountLookupOrder {
			table := models.AccountTable(kind)
			sql := fmt.Sprintf(
				"UPDATE %[1]s SET "+
					"followers_count = (SELECT COUNT(*) FROM follows WHERE follows.followed_id = %[1]s.id), "+
					"following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = %[1]s.id)",
				table,
			)
			if err := tx.Exec(sql).Error; err != nil {
				return fmt.Errorf("failed to recompute counters for %s: %w", table, err)
			}
		}
		return nil
	})
}

// adjustCounter applies delta to a counter column of the account, whatever its kind.
// Counters never go below zero.
func adjustCounter(tx *gorm.DB, accountID, column string, delta int) error {
	var reg models.EmailRegistration
	if err := tx.Where("account_id = ?", accountID).First(&reg).Error; err != nil {
		return fmt.Errorf("failed to resolve account kind: %w", err)
	}

	query := tx.Table(models.AccountTable(reg.Kind)).Where("id = ?", accountID)
	if delta < 0 {
		query = query.Where(column+" >= ?", -delta)
	}
	return query.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
