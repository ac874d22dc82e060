package member

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintcs-backend/internal/models"
	"fintcs-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	app.Get("/api/members", ListMembersHandler())
	app.Get("/api/members/pending-changes", PendingChangesHandler())
	app.Get("/api/members/:id", GetMemberHandler())
	app.Post("/api/members", CreateMemberHandler())
	app.Put("/api/members/:id", UpdateMemberHandler())
	app.Post("/api/members/:id/approve-changes", ApproveChangesHandler())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestCreateMemberGeneratesSequentialNumbers(t *testing.T) {
	testutil.SetupDB(t)
	app := newTestApp()

	code, body := doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{"name": "Asha"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "MEM_001", body["mem_no"])

	code, body = doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{"name": "Ravi"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "MEM_002", body["mem_no"])

	code, _ = doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMemberUpdateIsStagedUntilApproved(t *testing.T) {
	db := testutil.SetupDB(t)
	app := newTestApp()

	code, body := doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{
		"name": "Asha",
		"city": "Pune",
		"banking_details": fiber.Map{
			"bank_name":      "SBI",
			"account_number": "123",
		},
	})
	require.Equal(t, http.StatusCreated, code)
	id := uint(body["id"].(float64))

	code, _ = doJSON(t, app, http.MethodPut, "/api/members/1", fiber.Map{
		"name": "Asha K",
		"city": "Mumbai",
	})
	require.Equal(t, http.StatusOK, code)

	// Committed fields untouched while the change is staged.
	var m models.Member
	require.NoError(t, db.First(&m, id).Error)
	assert.Equal(t, "Asha", m.Name)
	assert.Equal(t, "Pune", m.City)
	assert.True(t, m.IsPendingApproval)

	code, body = doJSON(t, app, http.MethodPost, "/api/members/1/approve-changes", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Asha K", body["name"])
	assert.Equal(t, "Mumbai", body["city"])
	assert.Equal(t, false, body["is_pending_approval"])

	// A second approve has nothing to apply.
	code, _ = doJSON(t, app, http.MethodPost, "/api/members/1/approve-changes", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPendingChangesListsOnlyStagedMembers(t *testing.T) {
	testutil.SetupDB(t)
	app := newTestApp()

	_, _ = doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{"name": "Asha"})
	_, _ = doJSON(t, app, http.MethodPost, "/api/members", fiber.Map{"name": "Ravi"})
	_, _ = doJSON(t, app, http.MethodPut, "/api/members/2", fiber.Map{"name": "Ravi R"})

	req := httptest.NewRequest(http.MethodGet, "/api/members/pending-changes", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "MEM_002", entries[0]["mem_no"])
}
