package repository

import (
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a new comment
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByProposal lists the comments of a proposal, oldest first
func (r *GormCommentRepository) ListByProposal(proposalID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete removes a comment; replies to it keep their reply flag but lose the reference
func (r *GormCommentRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := detachReplies(tx, []string{id}); err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountByProposal counts the comments of a proposal
func (r *GormCommentRepository) CountByProposal(proposalID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("proposal_id = ?", proposalID).Count(&count).Error
	return count, err
}

// Count counts all comments
func (r *GormCommentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Count(&count).Error
	return count, err
}

func detachReplies(tx *gorm.DB, commentIDs []string) error {
	return tx.Model(&models.Comment{}).
		Where("reply_to_id IN ?", commentIDs).
		Update("reply_to_id", nil).Error
}
