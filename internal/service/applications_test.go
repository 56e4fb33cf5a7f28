package service

import (
	"context"
	"testing"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication(userID string) models.ApplicationInput {
	return models.ApplicationInput{
		UserID:     userID,
		FullName:   "Karim Uddin",
		Email:      "karim@example.com",
		Phone:      "01700000000",
		DOB:        "2004-05-01",
		Department: "CSE",
		SSCResult:  "5.00",
		HSCResult:  "4.90",
	}
}

func TestSubmitApplication(t *testing.T) {
	accounts, records := newTestAccounts()
	apps := NewApplicationService(records)
	ctx := context.Background()

	user, err := accounts.RegisterUser(ctx, "Karim", "karim@example.com", "pw")
	require.NoError(t, err)
	userID := models.MustRecordIDString(user.ID)

	none, err := apps.ForUser(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = apps.Submit(ctx, validApplication(userID))
	require.NoError(t, err)

	_, err = apps.Submit(ctx, validApplication(userID))
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	app, err := apps.ForUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "CSE", app.Department)

	list, err := apps.Applicants(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Karim", list[0].AccountName)

	counts, err := apps.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.RecordCounts{Users: 1, Applications: 1}, counts)
}

func TestSubmitApplicationValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ApplicationInput)
		field  string
	}{
		{"missing name", func(in *models.ApplicationInput) { in.FullName = " " }, "full_name"},
		{"bad email", func(in *models.ApplicationInput) { in.Email = "karim" }, "email"},
		{"bad date", func(in *models.ApplicationInput) { in.DOB = "01/05/2004" }, "dob"},
		{"unknown department", func(in *models.ApplicationInput) { in.Department = "LAW" }, "department"},
		{"missing hsc", func(in *models.ApplicationInput) { in.HSCResult = "" }, "hsc_result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := NewApplicationService(&memRecords{})
			in := validApplication("u1")
			tt.mutate(&in)

			_, err := apps.Submit(context.Background(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}
