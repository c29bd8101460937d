package models

import (
	"time"

	"gorm.io/gorm"
)

// Address is optional; every field may be empty.
type Address struct {
	Citta  string `gorm:"type:varchar(100);index" json:"citta"`
	Cap    string `gorm:"type:varchar(10)" json:"cap"`
	Via    string `gorm:"type:varchar(200)" json:"via"`
	Civico string `gorm:"type:varchar(20)" json:"civico"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

type Proposal struct {
	ID             string     `gorm:"type:varchar(36);primarykey"`
	Titolo         string     `gorm:"type:varchar(200);not null"`
	Descrizione    string     `gorm:"type:text;not null"`
	Categoria      string     `gorm:"type:varchar(100);index"`
	Indirizzo      Address    `gorm:"embedded;embeddedPrefix:indirizzo_"`
	DataIpotetica  *time.Time
	Foto           []byte
	FotoMIME       string         `gorm:"type:varchar(50)"`
	ProponenteID   string         `gorm:"type:varchar(36);not null;index"`
	ProponenteKind Role           `gorm:"type:varchar(20);not null"`
	Status         ProposalStatus `gorm:"embedded"`
	CreatedAt      time.Time      `gorm:"index"`
	UpdatedAt      time.Time

	// Relations
	Hypers []ProposalHyper `gorm:"foreignKey:ProposalID"`
}

func (Proposal) TableName() string { return "proposte" }

func (p *Proposal) BeforeCreate(*gorm.DB) error { return ensureID(&p.ID) }

// HyperIDs returns the ids of the accounts that hyped the proposal.
func (p *Proposal) HyperIDs() []string {
	ids := make([]string, 0, len(p.Hypers))
	for _, h := range p.Hypers {
		ids = append(ids, h.AccountID)
	}
	return ids
}

// HasPhoto reports whether a photo is stored.
func (p *Proposal) HasPhoto() bool {
	return p.FotoMIME != ""
}

// ProposalHyper is one membership of the hyper set. The composite key keeps
// the set free of duplicates and lets concurrent toggles touch disjoint rows.
type ProposalHyper struct {
	ProposalID string `gorm:"type:varchar(36);primarykey"`
	AccountID  string `gorm:"type:varchar(36);primarykey;index"`
	CreatedAt  time.Time
}

func (ProposalHyper) TableName() string { return "proposal_hypers" }
