package dto

import (
	"time"

	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"github.com/yukikurage/civic-proposals-api/internal/storage"
)

// AccountPublicDTO is what anyone may see about an account
type AccountPublicDTO struct {
	ID             string      `json:"id"`
	UserType       models.Role `json:"userType"`
	Nome           string      `json:"nome"`
	Cognome        string      `json:"cognome,omitempty"`
	Bio            string      `json:"bio"`
	Foto           string      `json:"foto,omitempty"`
	FollowersCount int64       `json:"followersCount"`
	FollowingCount int64       `json:"followingCount"`
}

// AccountDTO is the full record, shown to the account itself and to moderators
type AccountDTO struct {
	AccountPublicDTO
	Email         string    `json:"email"`
	CodiceFiscale string    `json:"codiceFiscale,omitempty"`
	HasPassword   bool      `json:"hasPassword"`
	HasOAuth      bool      `json:"hasOAuth"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LoginResponse is returned by both login paths
type LoginResponse struct {
	Token    string      `json:"token"`
	User     AccountDTO  `json:"user"`
	UserType models.Role `json:"userType"`
}

// RegisterResponse is returned on signup
type RegisterResponse struct {
	User             AccountDTO        `json:"user"`
	PasswordStrength security.Strength `json:"passwordStrength"`
}

// PasswordUpdateResponse reports the strength of the accepted password
type PasswordUpdateResponse struct {
	PasswordStrength security.Strength `json:"passwordStrength"`
}

// ToAccountPublicDTO converts an account to its public view
func ToAccountPublicDTO(acc models.Account) AccountPublicDTO {
	view := AccountPublicDTO{
		ID:             acc.ID,
		UserType:       acc.Kind,
		Nome:           acc.Nome,
		Bio:            acc.Bio,
		FollowersCount: acc.FollowersCount,
		FollowingCount: acc.FollowingCount,
	}
	if acc.Kind == models.RoleUser {
		view.Cognome = acc.Cognome
	}
	if acc.HasPhoto() {
		view.Foto = storage.PhotoURL("user", acc.ID)
	}
	return view
}

// ToAccountDTO converts an account to its full view
func ToAccountDTO(acc models.Account) AccountDTO {
	return AccountDTO{
		AccountPublicDTO: ToAccountPublicDTO(acc),
		Email:            acc.Email,
		CodiceFiscale:    acc.CodiceFiscale,
		HasPassword:      acc.HasPassword(),
		HasOAuth:         acc.HasOAuth(),
		CreatedAt:        acc.CreatedAt,
		UpdatedAt:        acc.UpdatedAt,
	}
}

// ToAccountDTOs converts a list of accounts to full views
func ToAccountDTOs(accounts []models.Account) []AccountDTO {
	out := make([]AccountDTO, len(accounts))
	for i, acc := range accounts {
		out[i] = ToAccountDTO(acc)
	}
	return out
}

// ToAccountPublicDTOs converts a list of accounts to public views
func ToAccountPublicDTOs(accounts []models.Account) []AccountPublicDTO {
	out := make([]AccountPublicDTO, len(accounts))
	for i, acc := range accounts {
		out[i] = ToAccountPublicDTO(acc)
	}
	return out
}
