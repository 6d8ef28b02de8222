package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxpayerProfile is the filing subject. It is owned by the profile service;
// this service only reads it.
type TaxpayerProfile struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID uuid.UUID `json:"ownerId" gorm:"type:uuid;not null;uniqueIndex"`

	IsVatPayer bool `json:"isVatPayer" gorm:"default:false"`

	// Name parts as required by the party block
	Title     string `json:"title" gorm:"type:varchar(50)"`
	FirstName string `json:"firstName" gorm:"type:varchar(255);not null"`
	LastName  string `json:"lastName" gorm:"type:varchar(255);not null"`

	// Free-text street, e.g. "Zerotinova 510/12"
	Street     string `json:"street" gorm:"type:varchar(255)"`
	City       string `json:"city" gorm:"type:varchar(255)"`
	PostalCode string `json:"postalCode" gorm:"type:varchar(20)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`

	CompanyID string `json:"companyId" gorm:"type:varchar(20)"` // IČO
	TaxID     string `json:"taxId" gorm:"type:varchar(20)"`     // DIČ, usually with a CZ prefix

	BankAccount string `json:"bankAccount" gorm:"type:varchar(50)"`
	BankCode    string `json:"bankCode" gorm:"type:varchar(10)"`
	IBAN        string `json:"iban" gorm:"type:varchar(34)"`

	Phone string `json:"phone" gorm:"type:varchar(50)"`
	Email string `json:"email" gorm:"type:varchar(255)"`

	// 4-digit local office (územní pracoviště) code; empty when not assigned
	LocalOfficeCode string `json:"localOfficeCode" gorm:"type:varchar(4)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *TaxpayerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
