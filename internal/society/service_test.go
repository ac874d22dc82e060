package society

import (
	"fmt"
	"testing"

	"fintcs-backend/internal/models"
	"fintcs-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		PasswordHash: "x",
		Role:         role,
		Email:        fmt.Sprintf("%s@example.com", username),
		Name:         username,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func sampleFields(name string) models.SocietyFields {
	return models.SocietyFields{
		SocietyName:        name,
		Address:            "12 Cooperative Lane",
		City:               "Pune",
		Phone:              "020-1234",
		Email:              "office@society.example",
		RegistrationNumber: "REG-42",
		Tabs: models.SocietyTabs{
			Interest: models.InterestRates{Dividend: 4, Loan: 9.5, EmergencyLoan: 11, LAS: 8},
			Limit:    models.LendingLimits{Share: 50000, Loan: 300000, EmergencyLoan: 25000},
		},
	}
}

func approvalCount(t *testing.T, db *gorm.DB) int {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.SocietyApproval{}).Count(&n).Error)
	return int(n)
}

func TestCreateOnlyOnce(t *testing.T) {
	testutil.SetupDB(t)

	soc, err := Create(sampleFields("Alpha"))
	require.NoError(t, err)
	assert.Equal(t, models.SocietyID, soc.ID)
	assert.False(t, soc.IsPendingApproval)

	_, err = Create(sampleFields("Beta"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetReturnsDefaultsWhenAbsent(t *testing.T) {
	testutil.SetupDB(t)

	soc, err := Get()
	require.NoError(t, err)
	assert.Equal(t, models.SocietyID, soc.ID)
	assert.Empty(t, soc.SocietyName)
	assert.False(t, soc.IsPendingApproval)
}

func TestProposeWithNoApproversAppliesImmediately(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)

	res, err := Propose(sampleFields("Alpha"))
	require.NoError(t, err)
	assert.True(t, res.AppliedImmediately)

	soc, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", soc.SocietyName)
	assert.False(t, soc.IsPendingApproval)
	assert.Equal(t, "{}", soc.PendingChanges)
}

func TestProposeStagesPayloadAndSnapshotsRoster(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	createUser(t, db, "u1", models.RoleUser)
	createUser(t, db, "u2", models.RoleUser)

	fields := sampleFields("Alpha")
	res, err := Propose(fields)
	require.NoError(t, err)
	assert.False(t, res.AppliedImmediately)
	assert.Equal(t, 2, res.RequiredApprovals)

	soc, err := Get()
	require.NoError(t, err)
	assert.True(t, soc.IsPendingApproval)
	assert.Equal(t, 2, soc.RequiredApprovals)
	assert.Empty(t, soc.SocietyName) // not applied yet

	staged, err := soc.PendingFields()
	require.NoError(t, err)
	assert.Equal(t, fields, staged)
}

func TestProposeResetsPriorApprovals(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	u1 := createUser(t, db, "u1", models.RoleUser)
	createUser(t, db, "u2", models.RoleUser)
	createUser(t, db, "u3", models.RoleUser)

	_, err := Propose(sampleFields("Alpha"))
	require.NoError(t, err)

	res, err := Approve(u1.ID)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, 2, res.Remaining)
	assert.Equal(t, 1, approvalCount(t, db))

	// New proposal pre-empts the round: u1's approval no longer counts.
	_, err = Propose(sampleFields("Beta"))
	require.NoError(t, err)
	assert.Equal(t, 0, approvalCount(t, db))

	status, err := GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.ApprovedCount)
	assert.Equal(t, 3, status.TotalRequired)
	assert.Equal(t, 3, status.PendingCount)
}

func TestApproveIsIdempotentPerUser(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	u1 := createUser(t, db, "u1", models.RoleUser)
	createUser(t, db, "u2", models.RoleUser)

	_, err := Propose(sampleFields("Alpha"))
	require.NoError(t, err)

	_, err = Approve(u1.ID)
	require.NoError(t, err)

	_, err = Approve(u1.ID)
	assert.ErrorIs(t, err, ErrAlreadyApproved)
	assert.Equal(t, 1, approvalCount(t, db))
}

func TestAdminCannotApprove(t *testing.T) {
	db := testutil.SetupDB(t)
	admin := createUser(t, db, "admin", models.RoleAdmin)
	createUser(t, db, "u1", models.RoleUser)

	// Regardless of pending state: before any proposal...
	_, err := Approve(admin.ID)
	assert.ErrorIs(t, err, ErrAdminApproval)

	// ...and with one outstanding.
	_, err = Propose(sampleFields("Alpha"))
	require.NoError(t, err)

	_, err = Approve(admin.ID)
	assert.ErrorIs(t, err, ErrAdminApproval)
}

func TestApproveWithoutPendingChange(t *testing.T) {
	db := testutil.SetupDB(t)
	u1 := createUser(t, db, "u1", models.RoleUser)

	_, err := Approve(u1.ID)
	assert.ErrorIs(t, err, ErrNoPendingChange)
}

func TestApproveUnknownUser(t *testing.T) {
	testutil.SetupDB(t)

	_, err := Approve(999)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestUnanimityCommitsOnFinalApproval(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	u1 := createUser(t, db, "u1", models.RoleUser)
	u2 := createUser(t, db, "u2", models.RoleUser)

	fields := sampleFields("Alpha")
	_, err := Propose(fields)
	require.NoError(t, err)

	res, err := Approve(u1.ID)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, 1, res.Remaining)

	soc, err := Get()
	require.NoError(t, err)
	assert.True(t, soc.IsPendingApproval)

	res, err = Approve(u2.ID)
	require.NoError(t, err)
	assert.True(t, res.Committed)

	soc, err = Get()
	require.NoError(t, err)
	assert.False(t, soc.IsPendingApproval)
	assert.Equal(t, "{}", soc.PendingChanges)
	assert.Equal(t, 0, soc.RequiredApprovals)
	assert.Equal(t, fields, soc.Fields())
}

func TestThresholdIsSnapshottedAtProposeTime(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	u1 := createUser(t, db, "u1", models.RoleUser)
	u2 := createUser(t, db, "u2", models.RoleUser)

	_, err := Propose(sampleFields("Alpha"))
	require.NoError(t, err)

	// A user joining mid-round does not raise the bar for this round.
	createUser(t, db, "late", models.RoleUser)

	_, err = Approve(u1.ID)
	require.NoError(t, err)

	res, err := Approve(u2.ID)
	require.NoError(t, err)
	assert.True(t, res.Committed)
}

func TestStatusLifecycle(t *testing.T) {
	db := testutil.SetupDB(t)
	createUser(t, db, "admin", models.RoleAdmin)
	u1 := createUser(t, db, "u1", models.RoleUser)
	u2 := createUser(t, db, "u2", models.RoleUser)

	status, err := GetStatus()
	require.NoError(t, err)
	assert.False(t, status.HasPendingChanges)
	assert.Empty(t, status.Users)

	fields := sampleFields("Alpha")
	_, err = Propose(fields)
	require.NoError(t, err)

	status, err = GetStatus()
	require.NoError(t, err)
	assert.True(t, status.HasPendingChanges)
	assert.Equal(t, 2, status.TotalRequired)
	assert.Equal(t, 0, status.ApprovedCount)
	assert.Equal(t, 2, status.PendingCount)
	require.Len(t, status.Users, 2)
	require.NotNil(t, status.PendingChanges)
	assert.Equal(t, fields, *status.PendingChanges)

	_, err = Approve(u1.ID)
	require.NoError(t, err)

	status, err = GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.ApprovedCount)
	assert.Equal(t, 1, status.PendingCount)
	for _, u := range status.Users {
		if u.UserID == u1.ID {
			assert.True(t, u.HasApproved)
			assert.NotNil(t, u.ApprovedAt)
		} else {
			assert.False(t, u.HasApproved)
			assert.Nil(t, u.ApprovedAt)
		}
	}

	_, err = Approve(u2.ID)
	require.NoError(t, err)

	status, err = GetStatus()
	require.NoError(t, err)
	assert.False(t, status.HasPendingChanges)
}
