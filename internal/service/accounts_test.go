package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// memRecords is an in-memory AccountStore and ApplicationStore.
type memRecords struct {
	mu     sync.Mutex
	seq    int
	users  []models.User
	admins []models.Admin
	apps   []models.Application
}

func (m *memRecords) nextID(table string) surrealmodels.RecordID {
	m.seq++
	return surrealmodels.NewRecordID(table, fmt.Sprintf("%s-%d", table, m.seq))
}

func (m *memRecords) QueryCreateUser(_ context.Context, in models.UserInput) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, db.ErrAlreadyExists
		}
	}
	u := models.User{ID: m.nextID("user"), Name: in.Name, Email: in.Email, PasswordHash: in.PasswordHash, CreatedAt: time.Now()}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *memRecords) QueryGetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memRecords) QueryGetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if models.MustRecordIDString(u.ID) == id {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memRecords) QueryCreateAdmin(_ context.Context, in models.AdminInput) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.AdminID == in.AdminID {
			return nil, db.ErrAlreadyExists
		}
	}
	a := models.Admin{ID: m.nextID("admin"), Name: in.Name, AdminID: in.AdminID, PasswordHash: in.PasswordHash, CreatedAt: time.Now()}
	m.admins = append(m.admins, a)
	return &a, nil
}

func (m *memRecords) QueryGetAdminByAdminID(_ context.Context, adminID string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.AdminID == adminID {
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memRecords) QueryGetAdmin(_ context.Context, id string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if models.MustRecordIDString(a.ID) == id {
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memRecords) QueryCreateApplication(_ context.Context, in models.ApplicationInput) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.UserID == in.UserID {
			return nil, db.ErrAlreadyExists
		}
	}
	a := models.Application{
		ID: m.nextID("application"), UserID: in.UserID, FullName: in.FullName, Email: in.Email,
		Phone: in.Phone, DOB: in.DOB, Department: in.Department, SSCResult: in.SSCResult,
		HSCResult: in.HSCResult, CreatedAt: time.Now(),
	}
	m.apps = append(m.apps, a)
	return &a, nil
}

func (m *memRecords) QueryGetApplicationByUser(_ context.Context, userID string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memRecords) QueryListApplicants(_ context.Context) ([]models.ApplicantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ApplicantRecord{}
	for i := len(m.apps) - 1; i >= 0; i-- {
		rec := models.ApplicantRecord{Application: m.apps[i]}
		for _, u := range m.users {
			if models.MustRecordIDString(u.ID) == m.apps[i].UserID {
				rec.AccountName = u.Name
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memRecords) QueryCountRecords(_ context.Context) (db.RecordCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return db.RecordCounts{Users: len(m.users), Admins: len(m.admins), Applications: len(m.apps)}, nil
}

func newTestAccounts() (*AccountService, *memRecords) {
	records := &memRecords{}
	svc := NewAccountService(records)
	svc.cost = bcrypt.MinCost
	return svc, records
}

func TestRegisterAndAuthenticateUser(t *testing.T) {
	svc, records := newTestAccounts()
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, " Rahim ", "rahim@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Rahim", user.Name)
	assert.NotEqual(t, "s3cret", records.users[0].PasswordHash, "passwords are stored hashed")

	got, err := svc.AuthenticateUser(ctx, "rahim@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.AuthenticateUser(ctx, "rahim@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.AuthenticateUser(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	byID, err := svc.User(ctx, models.MustRecordIDString(user.ID))
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", byID.Email)
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAccounts()
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, "A", "a@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.RegisterUser(ctx, "B", "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUserValidation(t *testing.T) {
	svc, _ := newTestAccounts()

	_, err := svc.RegisterUser(context.Background(), "", "not-an-email", "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Equal(t, "Invalid email address.", verr.Fields["email"])
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	svc, records := newTestAccounts()
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := svc.RegisterUser(ctx, "Rahim", "rahim@example.com", long)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Must be at most 72 bytes.", verr.Fields["password"])

	_, err = svc.RegisterAdmin(ctx, "Registrar", "adm-1", long)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
	assert.Empty(t, records.users)
	assert.Empty(t, records.admins)

	_, err = svc.RegisterUser(ctx, "Rahim", "rahim@example.com", strings.Repeat("p", 72))
	assert.NoError(t, err)
}

func TestRegisterAndAuthenticateAdmin(t *testing.T) {
	svc, _ := newTestAccounts()
	ctx := context.Background()

	admin, err := svc.RegisterAdmin(ctx, "Registrar", "adm-1", "pw")
	require.NoError(t, err)

	_, err = svc.RegisterAdmin(ctx, "Other", "adm-1", "pw")
	assert.ErrorIs(t, err, ErrAdminIDTaken)

	got, err := svc.AuthenticateAdmin(ctx, "adm-1", "pw")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = svc.AuthenticateAdmin(ctx, "adm-1", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	byKey, err := svc.Admin(ctx, models.MustRecordIDString(admin.ID))
	require.NoError(t, err)
	assert.Equal(t, "Registrar", byKey.Name)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "bad", "a": "missing"}}
	assert.Equal(t, "invalid input: a: missing; b: bad", err.Error())
}
