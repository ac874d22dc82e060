package models

import "time"

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeCheque PaymentMode = "Cheque"
	PaymentModeOnline PaymentMode = "Online"
)

type Loan struct {
	ID       uint   `gorm:"primaryKey"`
	LoanNo   string `gorm:"size:50;uniqueIndex;not null"`
	LoanDate time.Time
	LoanType string  `gorm:"size:50;not null"`
	CustomType *string `gorm:"size:100"`

	// Member.MemNo of the borrower.
	MemberNo string `gorm:"size:20;not null;index"`

	LoanAmount   float64
	PreviousLoan float64
	Installments int
	Purpose      string      `gorm:"size:255"`
	AuthorizedBy string      `gorm:"size:100"`
	PaymentMode  PaymentMode `gorm:"size:20;default:'Cash'"`

	Bank       *string `gorm:"size:100"`
	ChequeNo   *string `gorm:"size:50"`
	ChequeDate *time.Time

	// Derived at creation, see loan.Derive.
	NetLoan           float64
	InstallmentAmount float64
	NewLoanShare      float64
	PayAmount         float64

	CreatedAt time.Time
}
