package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/raphaelgruber/uniassist/internal/service"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// fakeAccounts stores plaintext passwords in memory.
type fakeAccounts struct {
	mu        sync.Mutex
	seq       int
	users     []models.User
	admins    []models.Admin
	passwords map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{passwords: map[string]string{}}
}

func (f *fakeAccounts) RegisterUser(_ context.Context, name, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" || email == "" || password == "" {
		return nil, &service.ValidationError{Fields: map[string]string{"name": "This field is required."}}
	}
	for _, u := range f.users {
		if u.Email == email {
			return nil, service.ErrEmailTaken
		}
	}
	f.seq++
	u := models.User{ID: surrealmodels.NewRecordID("user", fmt.Sprintf("u%d", f.seq)), Name: name, Email: email, CreatedAt: time.Now()}
	f.users = append(f.users, u)
	f.passwords["user:"+email] = password
	return &u, nil
}

func (f *fakeAccounts) AuthenticateUser(_ context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && f.passwords["user:"+email] == password {
			return &u, nil
		}
	}
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAccounts) User(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if models.MustRecordIDString(u.ID) == id {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAccounts) RegisterAdmin(_ context.Context, name, adminID, password string) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.AdminID == adminID {
			return nil, service.ErrAdminIDTaken
		}
	}
	f.seq++
	a := models.Admin{ID: surrealmodels.NewRecordID("admin", fmt.Sprintf("a%d", f.seq)), Name: name, AdminID: adminID, CreatedAt: time.Now()}
	f.admins = append(f.admins, a)
	f.passwords["admin:"+adminID] = password
	return &a, nil
}

func (f *fakeAccounts) AuthenticateAdmin(_ context.Context, adminID, password string) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.AdminID == adminID && f.passwords["admin:"+adminID] == password {
			return &a, nil
		}
	}
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAccounts) Admin(_ context.Context, id string) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if models.MustRecordIDString(a.ID) == id {
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

// fakeApplications accepts any application with a phone number.
type fakeApplications struct {
	mu   sync.Mutex
	apps []models.Application
	// names maps user keys to account names for the applicant list.
	names map[string]string
}

func (f *fakeApplications) Submit(_ context.Context, in models.ApplicationInput) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Phone == "" {
		return nil, &service.ValidationError{Fields: map[string]string{"phone": "This field is required."}}
	}
	for _, a := range f.apps {
		if a.UserID == in.UserID {
			return nil, service.ErrAlreadyApplied
		}
	}
	app := models.Application{
		ID:         surrealmodels.NewRecordID("application", fmt.Sprintf("app%d", len(f.apps)+1)),
		UserID:     in.UserID,
		FullName:   in.FullName,
		Email:      in.Email,
		Phone:      in.Phone,
		DOB:        in.DOB,
		Department: in.Department,
		SSCResult:  in.SSCResult,
		HSCResult:  in.HSCResult,
		CreatedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.apps = append(f.apps, app)
	return &app, nil
}

func (f *fakeApplications) ForUser(_ context.Context, userID string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeApplications) Applicants(context.Context) ([]models.ApplicantRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ApplicantRecord, 0, len(f.apps))
	for _, a := range f.apps {
		out = append(out, models.ApplicantRecord{Application: a, AccountName: f.names[a.UserID]})
	}
	return out, nil
}

func (f *fakeApplications) Counts(context.Context) (db.RecordCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return db.RecordCounts{Users: len(f.names), Applications: len(f.apps)}, nil
}

// fakeChat returns a fixed outcome and records the identities it was called with.
type fakeChat struct {
	mu      sync.Mutex
	result  service.ChatResult
	err     error
	callers []string
	turns   []models.Turn
}

func (f *fakeChat) Send(_ context.Context, userID, message string) (service.ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callers = append(f.callers, userID)
	if message == "" {
		return service.ChatResult{}, service.ErrEmptyMessage
	}
	return f.result, f.err
}

func (f *fakeChat) History(_ context.Context, userID string) ([]models.Turn, error) {
	if userID == "" {
		return []models.Turn{}, nil
	}
	return f.turns, nil
}

func (f *fakeChat) lastCaller() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.callers) == 0 {
		return "<none>"
	}
	return f.callers[len(f.callers)-1]
}
