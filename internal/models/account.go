package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credentials is shared by every account kind.
// A usable account has a password hash, a Google id, or both.
type Credentials struct {
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string `gorm:"type:varchar(255)"`
	GoogleID     *string `gorm:"type:varchar(255);index"`
}

// Profile holds the public fields and the cached social counters.
type Profile struct {
	Nome           string `gorm:"type:varchar(100);not null"`
	Bio            string `gorm:"type:varchar(500)"`
	Foto           []byte
	FotoMIME       string `gorm:"type:varchar(50)"`
	FollowersCount int64  `gorm:"not null;default:0"`
	FollowingCount int64  `gorm:"not null;default:0"`
}

type PrivateUser struct {
	ID            string `gorm:"type:varchar(36);primarykey"`
	Credentials   `gorm:"embedded"`
	Profile       `gorm:"embedded"`
	Cognome       string `gorm:"type:varchar(100);not null"`
	CodiceFiscale string `gorm:"type:varchar(32);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Organization struct {
	ID            string `gorm:"type:varchar(36);primarykey"`
	Credentials   `gorm:"embedded"`
	Profile       `gorm:"embedded"`
	CodiceFiscale string `gorm:"type:varchar(32);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Operator struct {
	ID          string `gorm:"type:varchar(36);primarykey"`
	Credentials `gorm:"embedded"`
	Profile     `gorm:"embedded"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Admin struct {
	ID          string `gorm:"type:varchar(36);primarykey"`
	Credentials `gorm:"embedded"`
	Profile     `gorm:"embedded"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PrivateUser) TableName() string  { return AccountTable(RoleUser) }
func (Organization) TableName() string { return AccountTable(RoleEnte) }
func (Operator) TableName() string     { return AccountTable(RoleOperatore) }
func (Admin) TableName() string        { return AccountTable(RoleAdmin) }

func (u *PrivateUser) BeforeCreate(*gorm.DB) error  { return ensureID(&u.ID) }
func (o *Organization) BeforeCreate(*gorm.DB) error { return ensureID(&o.ID) }
func (o *Operator) BeforeCreate(*gorm.DB) error     { return ensureID(&o.ID) }
func (a *Admin) BeforeCreate(*gorm.DB) error        { return ensureID(&a.ID) }

// EmailRegistration reserves an email for exactly one account of one kind.
// Its primary key makes email uniqueness hold across all account tables.
type EmailRegistration struct {
	Email     string `gorm:"type:varchar(255);primarykey"`
	Kind      Role   `gorm:"type:varchar(20);not null"`
	AccountID string `gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt time.Time
}

func (EmailRegistration) TableName() string { return "email_registry" }

// Account is the tagged union over the four account kinds. Kind is the discriminant;
// Cognome is only meaningful for RoleUser, CodiceFiscale for RoleUser and RoleEnte.
type Account struct {
	ID             string
	Kind           Role
	Email          string
	PasswordHash   *string
	GoogleID       *string
	Nome           string
	Cognome        string
	CodiceFiscale  string
	Bio            string
	Foto           []byte
	FotoMIME       string
	FollowersCount int64
	FollowingCount int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account can log in with a local password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// HasOAuth reports whether the account is linked to a Google identity.
func (a *Account) HasOAuth() bool {
	return a.GoogleID != nil && *a.GoogleID != ""
}

// HasPhoto reports whether a profile photo is stored.
func (a *Account) HasPhoto() bool {
	return a.FotoMIME != ""
}

// AccountRecord is implemented by the per-kind persistence models.
type AccountRecord interface {
	AccountKind() Role
	ToAccount() Account
}

func (PrivateUser) AccountKind() Role  { return RoleUser }
func (Organization) AccountKind() Role { return RoleEnte }
func (Operator) AccountKind() Role     { return RoleOperatore }
func (Admin) AccountKind() Role        { return RoleAdmin }

func (u PrivateUser) ToAccount() Account {
	a := baseAccount(RoleUser, u.ID, u.Credentials, u.Profile, u.CreatedAt, u.UpdatedAt)
	a.Cognome = u.Cognome
	a.CodiceFiscale = u.CodiceFiscale
	return a
}

func (o Organization) ToAccount() Account {
	a := baseAccount(RoleEnte, o.ID, o.Credentials, o.Profile, o.CreatedAt, o.UpdatedAt)
	a.CodiceFiscale = o.CodiceFiscale
	return a
}

func (o Operator) ToAccount() Account {
	return baseAccount(RoleOperatore, o.ID, o.Credentials, o.Profile, o.CreatedAt, o.UpdatedAt)
}

func (a Admin) ToAccount() Account {
	return baseAccount(RoleAdmin, a.ID, a.Credentials, a.Profile, a.CreatedAt, a.UpdatedAt)
}

// NewAccountRecord builds the persistence model matching acc.Kind.
func NewAccountRecord(acc Account) (AccountRecord, error) {
	creds := Credentials{Email: acc.Email, PasswordHash: acc.PasswordHash, GoogleID: acc.GoogleID}
	profile := Profile{
		Nome:           acc.Nome,
		Bio:            acc.Bio,
		Foto:           acc.Foto,
		FotoMIME:       acc.FotoMIME,
		FollowersCount: acc.FollowersCount,
		FollowingCount: acc.FollowingCount,
	}

	switch acc.Kind {
	case RoleUser:
		return &PrivateUser{ID: acc.ID, Credentials: creds, Profile: profile, Cognome: acc.Cognome, CodiceFiscale: acc.CodiceFiscale}, nil
	case RoleEnte:
		return &Organization{ID: acc.ID, Credentials: creds, Profile: profile, CodiceFiscale: acc.CodiceFiscale}, nil
	case RoleOperatore:
		return &Operator{ID: acc.ID, Credentials: creds, Profile: profile}, nil
	case RoleAdmin:
		return &Admin{ID: acc.ID, Credentials: creds, Profile: profile}, nil
	}
	return nil, fmt.Errorf("unknown account kind %q", acc.Kind)
}

// EmptyAccountRecord returns a zero persistence model for kind, ready to be scanned into.
func EmptyAccountRecord(kind Role) (AccountRecord, error) {
	return NewAccountRecord(Account{Kind: kind})
}

// AllAccountModels lists the persistence models for migrations.
func AllAccountModels() []interface{} {
	return []interface{}{&PrivateUser{}, &Organization{}, &Operator{}, &Admin{}, &EmailRegistration{}}
}

func baseAccount(kind Role, id string, c Credentials, p Profile, created, updated time.Time) Account {
	return Account{
		ID:             id,
		Kind:           kind,
		Email:          c.Email,
		PasswordHash:   c.PasswordHash,
		GoogleID:       c.GoogleID,
		Nome:           p.Nome,
		Bio:            p.Bio,
		Foto:           p.Foto,
		FotoMIME:       p.FotoMIME,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}
}

func ensureID(id *string) error {
	if *id == "" {
		*id = uuid.NewString()
	}
	return nil
}
