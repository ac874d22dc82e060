package loan

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintcs-backend/internal/models"
	"fintcs-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})
	app.Post("/api/loans", CreateLoanHandler())
	app.Get("/api/loans", ListLoansHandler())
	app.Get("/api/loans/members", ListMembersHandler())
	return app
}

func createMember(t *testing.T, db *gorm.DB, memNo, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Member{
		MemNo:          memNo,
		Name:           name,
		BankingDetails: "{}",
		PendingChanges: "{}",
	}).Error)
}

func postLoan(t *testing.T, app *fiber.App, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/loans", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	return resp.StatusCode, decoded
}

func TestCreateLoanDerivesFields(t *testing.T) {
	db := testutil.SetupDB(t)
	app := newTestApp()
	createMember(t, db, "MEM_001", "Asha")

	code, body := postLoan(t, app, fiber.Map{
		"loan_no":       "LN-1",
		"loan_date":     time.Now().UTC(),
		"loan_type":     "General",
		"member_no":     "MEM_001",
		"loan_amount":   10000,
		"previous_loan": 2000,
		"installments":  12,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.EqualValues(t, 12000, body["net_loan"])
	assert.EqualValues(t, 891.67, body["installment_amount"])
	assert.EqualValues(t, 1000, body["new_loan_share"])
	assert.EqualValues(t, 7000, body["pay_amount"])
}

func TestCreateLoanValidation(t *testing.T) {
	db := testutil.SetupDB(t)
	app := newTestApp()
	createMember(t, db, "MEM_001", "Asha")

	// Unknown member
	code, _ := postLoan(t, app, fiber.Map{
		"loan_no": "LN-1", "loan_type": "General", "member_no": "MEM_999",
		"loan_amount": 1000, "installments": 10,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// Installments out of range
	code, _ = postLoan(t, app, fiber.Map{
		"loan_no": "LN-1", "loan_type": "General", "member_no": "MEM_001",
		"loan_amount": 1000, "installments": 61,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// Cheque payment without a cheque date
	code, _ = postLoan(t, app, fiber.Map{
		"loan_no": "LN-1", "loan_type": "General", "member_no": "MEM_001",
		"loan_amount": 1000, "installments": 10, "payment_mode": "Cheque",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}
