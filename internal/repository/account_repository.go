package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"gorm.io/gorm"
)

// GormAccountRepository is a GORM implementation of AccountRepository
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &GormAccountRepository{db: db}
}

// Create reserves the email in the registry and stores the kind-specific row atomically.
func (r *GormAccountRepository) Create(acc *models.Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}

	rec, err := models.NewAccountRecord(*acc)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		reg := &models.EmailRegistration{
			Email:     acc.Email,
			Kind:      acc.Kind,
			AccountID: acc.ID,
		}
		if err := tx.Create(reg).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to reserve email: %w", err)
		}

		if err := tx.Create(rec).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		*acc = rec.ToAccount()
		return nil
	})
}

// FindByID finds an account by ID
func (r *GormAccountRepository) FindByID(id string) (*models.Account, error) {
	return r.probe("id = ?", id)
}

// FindByEmail finds an account by email
func (r *GormAccountRepository) FindByEmail(email string) (*models.Account, error) {
	return r.probe("email = ?", email)
}

// probe tries each account table in lookup order and stops at the first match.
func (r *GormAccountRepository) probe(query string, arg interface{}) (*models.Account, error) {
	for _, kind := range models.AccountLookupOrder {
		rec, err := models.EmptyAccountRecord(kind)
		if err != nil {
			return nil, err
		}

		err = r.db.Where(query, arg).First(rec).Error
		if err == nil {
			acc := rec.ToAccount()
			return &acc, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// FindByIDs returns the existing accounts among ids
func (r *GormAccountRepository) FindByIDs(ids []string) ([]models.Account, error) {
	if len(ids) == 0 {
		return []models.Account{}, nil
	}

	var accounts []models.Account
	for _, kind := range models.AccountLookupOrder {
		found, err := r.findKind(kind, r.db.Where("id IN ?", ids))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, found...)
	}
	return accounts, nil
}

// EmailExists reports whether the email is already reserved
func (r *GormAccountRepository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.EmailRegistration{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns accounts of the requested kinds, newest first within each kind
func (r *GormAccountRepository) List(kinds ...models.Role) ([]models.Account, error) {
	if len(kinds) == 0 {
		kinds = models.AccountLookupOrder
	}

	accounts := []models.Account{}
	for _, kind := range kinds {
		found, err := r.findKind(kind, r.db.Order("created_at DESC"))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, found...)
	}
	return accounts, nil
}

func (r *GormAccountRepository) findKind(kind models.Role, query *gorm.DB) ([]models.Account, error) {
	query = query.Omit("foto")
	switch kind {
	case models.RoleUser:
		return findAll[models.PrivateUser](query)
	case models.RoleEnte:
		return findAll[models.Organization](query)
	case models.RoleOperatore:
		return findAll[models.Operator](query)
	case models.RoleAdmin:
		return findAll[models.Admin](query)
	}
	return nil, fmt.Errorf("unknown account kind %q", kind)
}

func findAll[T models.AccountRecord](query *gorm.DB) ([]models.Account, error) {
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.ToAccount())
	}
	return accounts, nil
}

// UpdateProfile writes nome, cognome (private users only), bio and photo
func (r *GormAccountRepository) UpdateProfile(acc *models.Account) error {
	updates := map[string]interface{}{
		"nome":       acc.Nome,
		"bio":        acc.Bio,
		"foto":       acc.Foto,
		"foto_mime":  acc.FotoMIME,
		"updated_at": time.Now(),
	}
	if acc.Kind == models.RoleUser {
		updates["cognome"] = acc.Cognome
	}
	return r.updateColumns(acc.Kind, acc.ID, updates)
}

// UpdatePassword replaces the password hash
func (r *GormAccountRepository) UpdatePassword(kind models.Role, id, hash string) error {
	return r.updateColumns(kind, id, map[string]interface{}{
		"password_hash": hash,
		"updated_at":    time.Now(),
	})
}

// SetGoogleID links the account to a Google identity
func (r *GormAccountRepository) SetGoogleID(kind models.Role, id, googleID string) error {
	return r.updateColumns(kind, id, map[string]interface{}{
		"google_id":  googleID,
		"updated_at": time.Now(),
	})
}

func (r *GormAccountRepository) updateColumns(kind models.Role, id string, updates map[string]interface{}) error {
	table := models.AccountTable(kind)
	if table == "" {
		return fmt.Errorf("unknown account kind %q", kind)
	}

	res := r.db.Table(table).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the account and everything it owns in a single transaction
func (r *GormAccountRepository) Delete(kind models.Role, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var proposalIDs []string
		if err := tx.Model(&models.Proposal{}).Where("proponente_id = ?", id).Pluck("id", &proposalIDs).Error; err != nil {
			return err
		}
		if len(proposalIDs) > 0 {
			if err := deleteProposals(tx, proposalIDs); err != nil {
				return err
			}
		}

		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("autore_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := detachReplies(tx, commentIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.ProposalHyper{}).Error; err != nil {
			return err
		}

		if err := detachFollowEdges(tx, id); err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", id).Delete(&models.EmailRegistration{}).Error; err != nil {
			return err
		}

		rec, err := models.EmptyAccountRecord(kind)
		if err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountByKind counts accounts per kind
func (r *GormAccountRepository) CountByKind() (map[models.Role]int64, error) {
	counts := make(map[models.Role]int64, len(models.AccountLookupOrder))
	for _, kind := range models.AccountLookupOrder {
		var count int64
		if err := r.db.Table(models.AccountTable(kind)).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, nil
}

// detachFollowEdges removes every edge touching the account and decrements the
// counterpart counters.
func detachFollowEdges(tx *gorm.DB, accountID string) error {
	var followed []string
	if err := tx.Model(&models.Follow{}).Where("follower_id = ?", accountID).Pluck("followed_id", &followed).Error; err != nil {
		return err
	}
	for _, other := range followed {
		if err := adjustCounter(tx, other, "followers_count", -1); err != nil {
			return err
		}
	}

	var followers []string
	if err := tx.Model(&models.Follow{}).Where("followed_id = ?", accountID).Pluck("follower_id", &followers).Error; err != nil {
		return err
	}
	for _, other := range followers {
		if err := adjustCounter(tx, other, "following_count", -1); err != nil {
			return err
		}
	}

	return tx.Where("follower_id = ? OR followed_id = ?", accountID, accountID).Delete(&models.Follow{}).Error
}

// isDuplicateKey recognises unique violations from every supported driver, including
// drivers that do not translate them into gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
