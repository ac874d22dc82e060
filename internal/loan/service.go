package loan

import (
	"math"

	"fintcs-backend/internal/models"
)

const (
	interestRate  = 0.07 // flat interest spread over the installments
	shareFraction = 0.10 // share contribution required on a new loan
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Derive fills the calculated financial fields from the entered ones.
// Installments must be validated as non-zero before calling.
func Derive(l *models.Loan) {
	l.NetLoan = l.LoanAmount + l.PreviousLoan
	l.InstallmentAmount = round2((l.LoanAmount*interestRate + l.LoanAmount) / float64(l.Installments))
	l.NewLoanShare = l.LoanAmount * shareFraction
	l.PayAmount = (l.LoanAmount - l.PreviousLoan) - l.NewLoanShare
}
