package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordCounts summarizes table sizes for the admin dashboard.
type RecordCounts struct {
	Users        int `json:"users"`
	Admins       int `json:"admins"`
	Applications int `json:"applications"`
}

// firstResult returns the first row of the first statement result, or nil.
func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) *T {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil
	}
	return &(*results)[0].Result[0]
}

// QueryCreateUser inserts a student account. A duplicate email returns ErrAlreadyExists.
func (c *Client) QueryCreateUser(ctx context.Context, in models.UserInput) (_ *models.User, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.User](ctx, c.db, `
		CREATE type::record("user", $id) CONTENT {
			name: $name,
			email: $email,
			password_hash: $password_hash
		}
	`, map[string]any{
		"id":            uuid.NewString(),
		"name":          in.Name,
		"email":         in.Email,
		"password_hash": in.PasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", wrapQueryError(err))
	}
	user := firstResult(results)
	if user == nil {
		return nil, fmt.Errorf("create user: no record returned")
	}
	return user, nil
}

// QueryGetUserByEmail returns the account registered with email, or ErrNotFound.
func (c *Client) QueryGetUserByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.User](ctx, c.db,
		`SELECT * FROM user WHERE email = $email LIMIT 1`,
		map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	user := firstResult(results)
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// QueryGetUser returns the account with record key id, or ErrNotFound.
func (c *Client) QueryGetUser(ctx context.Context, id string) (_ *models.User, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.User](ctx, c.db,
		`SELECT * FROM type::record("user", $id)`,
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	user := firstResult(results)
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// QueryCreateAdmin inserts an admin account. A duplicate admin id returns ErrAlreadyExists.
func (c *Client) QueryCreateAdmin(ctx context.Context, in models.AdminInput) (_ *models.Admin, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.Admin](ctx, c.db, `
		CREATE type::record("admin", $id) CONTENT {
			name: $name,
			admin_id: $admin_id,
			password_hash: $password_hash
		}
	`, map[string]any{
		"id":            uuid.NewString(),
		"name":          in.Name,
		"admin_id":      in.AdminID,
		"password_hash": in.PasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", wrapQueryError(err))
	}
	admin := firstResult(results)
	if admin == nil {
		return nil, fmt.Errorf("create admin: no record returned")
	}
	return admin, nil
}

// QueryGetAdminByAdminID returns the admin with the given login id, or ErrNotFound.
func (c *Client) QueryGetAdminByAdminID(ctx context.Context, adminID string) (_ *models.Admin, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.Admin](ctx, c.db,
		`SELECT * FROM admin WHERE admin_id = $admin_id LIMIT 1`,
		map[string]any{"admin_id": adminID})
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	admin := firstResult(results)
	if admin == nil {
		return nil, ErrNotFound
	}
	return admin, nil
}

// QueryGetAdmin returns the admin with record key id, or ErrNotFound.
func (c *Client) QueryGetAdmin(ctx context.Context, id string) (_ *models.Admin, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.Admin](ctx, c.db,
		`SELECT * FROM type::record("admin", $id)`,
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	admin := firstResult(results)
	if admin == nil {
		return nil, ErrNotFound
	}
	return admin, nil
}

// QueryCreateApplication stores an application. A second application for the
// same user returns ErrAlreadyExists.
func (c *Client) QueryCreateApplication(ctx context.Context, in models.ApplicationInput) (_ *models.Application, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.Application](ctx, c.db, `
		CREATE type::record("application", $id) CONTENT {
			user_id: $user_id,
			full_name: $full_name,
			email: $email,
			phone: $phone,
			dob: $dob,
			department: $department,
			ssc_result: $ssc_result,
			hsc_result: $hsc_result
		}
	`, map[string]any{
		"id":         uuid.NewString(),
		"user_id":    in.UserID,
		"full_name":  in.FullName,
		"email":      in.Email,
		"phone":      in.Phone,
		"dob":        in.DOB,
		"department": in.Department,
		"ssc_result": in.SSCResult,
		"hsc_result": in.HSCResult,
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", wrapQueryError(err))
	}
	app := firstResult(results)
	if app == nil {
		return nil, fmt.Errorf("create application: no record returned")
	}
	return app, nil
}

// QueryGetApplicationByUser returns the application filed by userID, or ErrNotFound.
func (c *Client) QueryGetApplicationByUser(ctx context.Context, userID string) (_ *models.Application, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]models.Application](ctx, c.db,
		`SELECT * FROM application WHERE user_id = $user_id LIMIT 1`,
		map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	app := firstResult(results)
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

// applicantRow is the flattened shape returned by QueryListApplicants.
type applicantRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	UserID      string                 `json:"user_id"`
	FullName    string                 `json:"full_name"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	DOB         string                 `json:"dob"`
	Department  string                 `json:"department"`
	SSCResult   string                 `json:"ssc_result"`
	HSCResult   string                 `json:"hsc_result"`
	CreatedAt   time.Time              `json:"created_at"`
	AccountName *string                `json:"account_name"`
}

// QueryListApplicants returns every application joined with its account name,
// newest first.
func (c *Client) QueryListApplicants(ctx context.Context) (_ []models.ApplicantRecord, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]applicantRow](ctx, c.db, `
		SELECT *, type::record("user", user_id).name AS account_name
		FROM application
		ORDER BY created_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}

	out := []models.ApplicantRecord{}
	if results == nil || len(*results) == 0 {
		return out, nil
	}
	for _, row := range (*results)[0].Result {
		rec := models.ApplicantRecord{Application: models.Application{
			ID:         row.ID,
			UserID:     row.UserID,
			FullName:   row.FullName,
			Email:      row.Email,
			Phone:      row.Phone,
			DOB:        row.DOB,
			Department: row.Department,
			SSCResult:  row.SSCResult,
			HSCResult:  row.HSCResult,
			CreatedAt:  row.CreatedAt,
		}}
		if row.AccountName != nil {
			rec.AccountName = *row.AccountName
		}
		out = append(out, rec)
	}
	return out, nil
}

// QueryCountRecords counts users, admins and applications.
func (c *Client) QueryCountRecords(ctx context.Context) (_ RecordCounts, err error) {
	defer c.observe(time.Now(), &err)

	var counts RecordCounts
	for table, dst := range map[string]*int{
		"user":        &counts.Users,
		"admin":       &counts.Admins,
		"application": &counts.Applications,
	} {
		n, err := c.countTable(ctx, table)
		if err != nil {
			return RecordCounts{}, err
		}
		*dst = n
	}
	return counts, nil
}

func (c *Client) countTable(ctx context.Context, table string) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}
	results, err := surrealdb.Query[[]countRow](ctx, c.db,
		fmt.Sprintf("SELECT count() AS count FROM %s GROUP ALL", table), nil)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	if row := firstResult(results); row != nil {
		return row.Count, nil
	}
	return 0, nil
}
