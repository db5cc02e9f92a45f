package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SourceType string

const (
	SourceSolarPanel  SourceType = "solar_panel"
	SourceForestation SourceType = "forestation"
)

func (s SourceType) Valid() bool {
	return s == SourceSolarPanel || s == SourceForestation
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

type RetirementStatus string

const (
	RetirementPending   RetirementStatus = "pending"
	RetirementCompleted RetirementStatus = "completed"
	RetirementCancelled RetirementStatus = "cancelled"
)

type TransactionType string

const (
	TransactionPurchase   TransactionType = "purchase"
	TransactionMint       TransactionType = "mint"
	TransactionTransfer   TransactionType = "transfer"
	TransactionRetirement TransactionType = "retirement"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Wallet is the single authoritative balance record per user.
// total_coins is lifetime credited; only available_coins moves on spends.
type Wallet struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	TotalCoins     decimal.Decimal `db:"total_coins" json:"total_coins"`
	AvailableCoins decimal.Decimal `db:"available_coins" json:"available_coins"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Issuance is the append-only mint record. A marketplace credit batch
// always references the issuance it was listed from.
type Issuance struct {
	ID                  string          `db:"id" json:"id"`
	UserID              string          `db:"user_id" json:"user_id"`
	IssuerName          string          `db:"issuer_name" json:"issuer_name"`
	CoinsIssued         decimal.Decimal `db:"coins_issued" json:"coins_issued"`
	SourceType          SourceType      `db:"source_type" json:"source_type"`
	SourceApplicationID string          `db:"source_application_id" json:"source_application_id"`
	Description         *string         `db:"description" json:"description,omitempty"`
	CalculationMethod   *string         `db:"calculation_method" json:"calculation_method,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// MarketplaceCredit is a sellable batch; coins_issued is the remaining
// supply and is decremented by purchases.
type MarketplaceCredit struct {
	ID                 string             `db:"id" json:"id"`
	IssuanceID         string             `db:"issuance_id" json:"issuance_id"`
	IssuerID           string             `db:"issuer_id" json:"issuer_id"`
	IssuerName         string             `db:"issuer_name" json:"issuer_name"`
	CoinsIssued        decimal.Decimal    `db:"coins_issued" json:"coins_issued"`
	SourceType         SourceType         `db:"source_type" json:"source_type"`
	SourceProjectID    *string            `db:"source_project_id" json:"source_project_id,omitempty"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
	VerifiedAt         *time.Time         `db:"verified_at" json:"verified_at,omitempty"`
	Description        *string            `db:"description" json:"description,omitempty"`
	PricePerCoin       *decimal.Decimal   `db:"price_per_coin" json:"price_per_coin,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

type CreditTransaction struct {
	ID              string            `db:"id" json:"id"`
	UserID          string            `db:"user_id" json:"user_id"`
	CreditID        *string           `db:"credit_id" json:"credit_id,omitempty"`
	RetirementID    *string           `db:"retirement_id" json:"retirement_id,omitempty"`
	CreditsAmount   decimal.Decimal   `db:"credits_amount" json:"credits_amount"`
	CoinsAmount     decimal.Decimal   `db:"coins_amount" json:"coins_amount"`
	TransactionType TransactionType   `db:"transaction_type" json:"transaction_type"`
	Status          TransactionStatus `db:"status" json:"status"`
	Description     *string           `db:"description" json:"description,omitempty"`
	Metadata        string            `db:"metadata" json:"metadata"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

// CreditRetirement is keyed by UUID; the UUID is the only external handle.
type CreditRetirement struct {
	ID                string           `db:"id" json:"retirement_id"`
	UserID            string           `db:"user_id" json:"user_id"`
	CoinsRetired      decimal.Decimal  `db:"coins_retired" json:"coins_retired"`
	CO2OffsetTons     decimal.Decimal  `db:"co2_offset_tons" json:"co2_offset_tons"`
	Status            RetirementStatus `db:"status" json:"status"`
	Reason            string           `db:"reason" json:"reason"`
	CertificateNumber *string          `db:"certificate_number" json:"certificate_number,omitempty"`
	CertificateIssued bool             `db:"certificate_issued" json:"certificate_issued"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// ProjectApplication backs the source application resolver consulted at
// mint time. Analysis pipelines that approve applications live elsewhere.
type ProjectApplication struct {
	ID           string            `db:"id" json:"id"`
	UserID       string            `db:"user_id" json:"user_id"`
	FullName     string            `db:"full_name" json:"full_name"`
	CompanyName  *string           `db:"company_name" json:"company_name,omitempty"`
	ProjectType  SourceType        `db:"project_type" json:"project_type"`
	Status       ApplicationStatus `db:"status" json:"status"`
	Latitude     *float64          `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64          `db:"longitude" json:"longitude,omitempty"`
	AreaHectares *decimal.Decimal  `db:"area_hectares" json:"area_hectares,omitempty"`
	PanelCount   *int              `db:"panel_count" json:"panel_count,omitempty"`
	PanelWattage *int              `db:"panel_wattage" json:"panel_wattage,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}
