package service

import (
	"context"
	"errors"
	"strings"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
)

// ErrAlreadyApplied is returned when a user submits a second application.
var ErrAlreadyApplied = errors.New("application already submitted")

// ApplicationStore persists admission applications.
type ApplicationStore interface {
	QueryCreateApplication(ctx context.Context, in models.ApplicationInput) (*models.Application, error)
	QueryGetApplicationByUser(ctx context.Context, userID string) (*models.Application, error)
	QueryListApplicants(ctx context.Context) ([]models.ApplicantRecord, error)
	QueryCountRecords(ctx context.Context) (db.RecordCounts, error)
}

// ApplicationService validates and stores applications.
type ApplicationService struct {
	store ApplicationStore
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(store ApplicationStore) *ApplicationService {
	return &ApplicationService{store: store}
}

// Submit validates in and stores it for in.UserID.
func (s *ApplicationService) Submit(ctx context.Context, in models.ApplicationInput) (*models.Application, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.DOB = strings.TrimSpace(in.DOB)
	in.SSCResult = strings.TrimSpace(in.SSCResult)
	in.HSCResult = strings.TrimSpace(in.HSCResult)

	v := validator{}
	v.required("full_name", in.FullName)
	v.email("email", in.Email)
	v.required("phone", in.Phone)
	v.date("dob", in.DOB)
	if _, ok := models.DepartmentByCode(in.Department); !ok {
		v.add("department", "Not a valid choice.")
	}
	v.required("ssc_result", in.SSCResult)
	v.required("hsc_result", in.HSCResult)
	if err := v.err(); err != nil {
		return nil, err
	}

	app, err := s.store.QueryCreateApplication(ctx, in)
	if errors.Is(err, db.ErrAlreadyExists) {
		return nil, ErrAlreadyApplied
	}
	return app, err
}

// ForUser returns the user's application, or nil if they have not applied.
func (s *ApplicationService) ForUser(ctx context.Context, userID string) (*models.Application, error) {
	app, err := s.store.QueryGetApplicationByUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return app, err
}

// Applicants lists all applications with their account names.
func (s *ApplicationService) Applicants(ctx context.Context) ([]models.ApplicantRecord, error) {
	return s.store.QueryListApplicants(ctx)
}

// Counts summarizes stored records.
func (s *ApplicationService) Counts(ctx context.Context) (db.RecordCounts, error) {
	return s.store.QueryCountRecords(ctx)
}
