package repository

import (
	"fmt"
	"strings"

	"github.com/yukikurage/civic-proposals-api/internal/database"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable columns; anything else falls back to creation time
var proposalSortColumns = map[string]string{
	"createdAt": "proposte.created_at",
	"updatedAt": "proposte.updated_at",
	"titolo":    "proposte.titolo",
	"categoria": "proposte.categoria",
	"hyper":     "(SELECT COUNT(*) FROM proposal_hypers WHERE proposal_hypers.proposal_id = proposte.id)",
}

// GormProposalRepository is a GORM implementation of ProposalRepository
type GormProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new ProposalRepository
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &GormProposalRepository{db: db}
}

// Create creates a new proposal
func (r *GormProposalRepository) Create(p *models.Proposal) error {
	return r.db.Create(p).Error
}

// FindByID finds a proposal by ID with optional preloading
func (r *GormProposalRepository) FindByID(id string, preload ...string) (*models.Proposal, error) {
	var proposal models.Proposal
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&proposal).Error; err != nil {
		return nil, err
	}

	return &proposal, nil
}

// List retrieves proposals with filtering and pagination
func (r *GormProposalRepository) List(filter ProposalFilter) ([]models.Proposal, int64, error) {
	query := r.db.Model(&models.Proposal{})

	if len(filter.States) > 0 {
		query = query.Where("proposte.stato IN ?", filter.States)
	}
	if filter.ProponentID != "" {
		query = query.Where("proposte.proponente_id = ?", filter.ProponentID)
	}
	if filter.Categoria != "" {
		query = query.Where("LOWER(proposte.categoria) = ?", strings.ToLower(filter.Categoria))
	}
	if filter.Citta != "" {
		query = query.Where("LOWER(proposte.indirizzo_citta) = ?", strings.ToLower(filter.Citta))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(proposte.titolo) LIKE ? OR LOWER(proposte.descrizione) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var proposals []models.Proposal
	err := query.
		Omit("foto").
		Order(proposalOrder(filter.SortBy, filter.SortOrder)).
		Scopes(database.Paginate(filter.Page)).
		Preload("Hypers").
		Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

func proposalOrder(sortBy, sortOrder string) string {
	column, ok := proposalSortColumns[sortBy]
	if !ok {
		column = proposalSortColumns["createdAt"]
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s, proposte.id %s", column, direction, direction)
}

// UpdateStatus writes the moderation state with a single UPDATE
func (r *GormProposalRepository) UpdateStatus(id string, state models.ProposalState, comment *string) error {
	updates := map[string]interface{}{"stato": state}
	if comment != nil {
		updates["commento"] = *comment
	}

	res := r.db.Model(&models.Proposal{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleHyper removes the membership row if present, otherwise inserts it.
// Each account only ever touches its own row, so concurrent toggles by different
// accounts cannot lose each other's updates.
func (r *GormProposalRepository) ToggleHyper(proposalID, accountID string) (bool, error) {
	res := r.db.Where("proposal_id = ? AND account_id = ?", proposalID, accountID).Delete(&models.ProposalHyper{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	hyper := &models.ProposalHyper{ProposalID: proposalID, AccountID: accountID}
	res = r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(hyper)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// a concurrent toggle by the same account won the insert; report what is stored now
	var count int64
	if err := r.db.Model(&models.ProposalHyper{}).
		Where("proposal_id = ? AND account_id = ?", proposalID, accountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HyperIDs lists the accounts that hyped the proposal
func (r *GormProposalRepository) HyperIDs(proposalID string) ([]string, error) {
	ids := []string{}
	err := r.db.Model(&models.ProposalHyper{}).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Pluck("account_id", &ids).Error
	return ids, err
}

// Delete removes a proposal and its comments and hypers in a transaction
func (r *GormProposalRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Limit(1).Find(&models.Proposal{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteProposals(tx, []string{id})
	})
}

// CountByState counts proposals per moderation state
func (r *GormProposalRepository) CountByState() (map[models.ProposalState]int64, error) {
	var rows []struct {
		Stato models.ProposalState
		Total int64
	}
	if err := r.db.Model(&models.Proposal{}).Select("stato, COUNT(*) AS total").Group("stato").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ProposalState]int64, len(models.ProposalStates))
	for _, s := range models.ProposalStates {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Stato] = row.Total
	}
	return counts, nil
}

// deleteProposals removes proposals and everything attached to them. Must run inside a transaction.
func deleteProposals(tx *gorm.DB, ids []string) error {
	if err := tx.Where("proposal_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("proposal_id IN ?", ids).Delete(&models.ProposalHyper{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Proposal{}).Error
}
