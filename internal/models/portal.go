package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User is a student account on the admission portal.
type User struct {
	ID           surrealmodels.RecordID `json:"id"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	PasswordHash string                 `json:"password_hash"`
	CreatedAt    time.Time              `json:"created_at"`
}

// UserInput is the input for registering a student account.
type UserInput struct {
	Name         string
	Email        string
	PasswordHash string
}

// Admin is an administrator account on the admin site.
type Admin struct {
	ID           surrealmodels.RecordID `json:"id"`
	Name         string                 `json:"name"`
	AdminID      string                 `json:"admin_id"`
	PasswordHash string                 `json:"password_hash"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AdminInput is the input for registering an admin account.
type AdminInput struct {
	Name         string
	AdminID      string
	PasswordHash string
}

// Department is an academic department applicants can apply to.
type Department struct {
	Code  string
	Title string
}

// Departments lists the selectable departments in form order.
var Departments = []Department{
	{Code: "CSE", Title: "Computer Science and Engineering (CSE)"},
	{Code: "EEE", Title: "Electrical and Electronic Engineering (EEE)"},
	{Code: "BBA", Title: "Bachelor of Business Administration (BBA)"},
	{Code: "SWE", Title: "Software Engineering (SWE)"},
	{Code: "ENG", Title: "English"},
}

// DepartmentByCode returns the department with the given code.
func DepartmentByCode(code string) (Department, bool) {
	for _, d := range Departments {
		if d.Code == code {
			return d, true
		}
	}
	return Department{}, false
}

// Application is a submitted admission application. Each user has at most one.
type Application struct {
	ID         surrealmodels.RecordID `json:"id"`
	UserID     string                 `json:"user_id"`
	FullName   string                 `json:"full_name"`
	Email      string                 `json:"email"`
	Phone      string                 `json:"phone"`
	DOB        string                 `json:"dob"` // YYYY-MM-DD
	Department string                 `json:"department"`
	SSCResult  string                 `json:"ssc_result"`
	HSCResult  string                 `json:"hsc_result"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ApplicationInput is the input for submitting an application.
type ApplicationInput struct {
	UserID     string
	FullName   string
	Email      string
	Phone      string
	DOB        string
	Department string
	SSCResult  string
	HSCResult  string
}

// ApplicantRecord pairs an application with the name of the account that filed it,
// as listed on the admin site.
type ApplicantRecord struct {
	Application
	AccountName string `json:"account_name"`
}
