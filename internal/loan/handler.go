package loan

import (
	"fmt"
	"strings"
	"time"

	"fintcs-backend/internal/audit"
	"fintcs-backend/internal/auth"
	"fintcs-backend/internal/database"
	"fintcs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateLoanRequest struct {
	LoanNo       string             `json:"loan_no"`
	LoanDate     time.Time          `json:"loan_date"`
	LoanType     string             `json:"loan_type"`
	CustomType   *string            `json:"custom_type"`
	MemberNo     string             `json:"member_no"`
	LoanAmount   float64            `json:"loan_amount"`
	PreviousLoan float64            `json:"previous_loan"`
	Installments int                `json:"installments"`
	Purpose      string             `json:"purpose"`
	AuthorizedBy string             `json:"authorized_by"`
	PaymentMode  models.PaymentMode `json:"payment_mode"`
	Bank         *string            `json:"bank"`
	ChequeNo     *string            `json:"cheque_no"`
	ChequeDate   *time.Time         `json:"cheque_date"`
}

type LoanResponse struct {
	ID                uint      `json:"id"`
	LoanNo            string    `json:"loan_no"`
	LoanDate          time.Time `json:"loan_date"`
	LoanType          string    `json:"loan_type"`
	MemberNo          string    `json:"member_no"`
	LoanAmount        float64   `json:"loan_amount"`
	NetLoan           float64   `json:"net_loan"`
	InstallmentAmount float64   `json:"installment_amount"`
	NewLoanShare      float64   `json:"new_loan_share"`
	PayAmount         float64   `json:"pay_amount"`
	CreatedAt         string    `json:"created_at"`
}

func toLoanResponse(l *models.Loan) LoanResponse {
	return LoanResponse{
		ID:                l.ID,
		LoanNo:            l.LoanNo,
		LoanDate:          l.LoanDate,
		LoanType:          l.LoanType,
		MemberNo:          l.MemberNo,
		LoanAmount:        l.LoanAmount,
		NetLoan:           l.NetLoan,
		InstallmentAmount: l.InstallmentAmount,
		NewLoanShare:      l.NewLoanShare,
		PayAmount:         l.PayAmount,
		CreatedAt:         l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func CreateLoanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLoanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.LoanNo = strings.TrimSpace(body.LoanNo)
		if body.LoanNo == "" || body.LoanType == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Loan number and loan type are required")
		}

		var member models.Member
		if err := database.DB.First(&member, "mem_no = ?", body.MemberNo).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Member does not exist")
		}

		if body.Installments <= 0 || body.Installments > 60 {
			return fiber.NewError(fiber.StatusBadRequest, "Installments must be between 1 and 60")
		}

		if body.PaymentMode == "" {
			body.PaymentMode = models.PaymentModeCash
		}
		if body.PaymentMode == models.PaymentModeCheque && body.ChequeDate == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cheque date required for cheque payment")
		}

		loan := models.Loan{
			LoanNo:       body.LoanNo,
			LoanDate:     body.LoanDate,
			LoanType:     body.LoanType,
			CustomType:   body.CustomType,
			MemberNo:     body.MemberNo,
			LoanAmount:   body.LoanAmount,
			PreviousLoan: body.PreviousLoan,
			Installments: body.Installments,
			Purpose:      body.Purpose,
			AuthorizedBy: body.AuthorizedBy,
			PaymentMode:  body.PaymentMode,
			Bank:         body.Bank,
			ChequeNo:     body.ChequeNo,
			ChequeDate:   body.ChequeDate,
		}
		Derive(&loan)

		if err := database.DB.Create(&loan).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot create loan")
		}

		userID, _ := c.Locals(auth.CtxUserIDKey).(uint)
		username, _ := c.Locals(auth.CtxUsernameKey).(string)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    username,
			EntityType:  "loan",
			EntityID:    loan.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Loan %s created for member %s", loan.LoanNo, loan.MemberNo),
			After:       toLoanResponse(&loan),
		})

		return c.Status(fiber.StatusCreated).JSON(toLoanResponse(&loan))
	}
}

func ListLoansHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var loans []models.Loan
		if err := database.DB.Order("id").Find(&loans).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot list loans")
		}

		res := make([]LoanResponse, 0, len(loans))
		for i := range loans {
			res = append(res, toLoanResponse(&loans[i]))
		}
		return c.JSON(res)
	}
}

// ListMembersHandler is the lookup used by the loan entry form: id, member
// number and name only.
func ListMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var members []models.Member
		if err := database.DB.
			Select("id", "mem_no", "name").
			Order("mem_no").
			Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cannot list members")
		}

		type memberEntry struct {
			ID    uint   `json:"id"`
			MemNo string `json:"mem_no"`
			Name  string `json:"name"`
		}

		res := make([]memberEntry, 0, len(members))
		for _, m := range members {
			res = append(res, memberEntry{ID: m.ID, MemNo: m.MemNo, Name: m.Name})
		}
		return c.JSON(res)
	}
}
