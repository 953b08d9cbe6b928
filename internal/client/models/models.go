// Package models defines the wire shapes of the backend's entities.
// Timestamps are nullable ISO-8601 strings, carried as *string so a null
// in the payload survives a round trip.
package models

import "strings"

// Company is a tenant record on the auth service.
type Company struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	Description string  `json:"description"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// User is an end-user account, linked to exactly one company.
type User struct {
	ID              int      `json:"id"`
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	Surname         string   `json:"surname"`
	Name            string   `json:"name"`
	Middlename      *string  `json:"middlename"`
	Department      *string  `json:"department"`
	RemoteWorkplace *string  `json:"remote_workplace"`
	LocalWorkplace  *string  `json:"local_workplace"`
	Phone           *string  `json:"phone"`
	Cellular        *string  `json:"cellular"`
	Post            *string  `json:"post"`
	CompanyID       int      `json:"company_id"`
	Company         *Company `json:"company"`
	CreatedAt       *string  `json:"created_at"`
	UpdatedAt       *string  `json:"updated_at"`

	// CompanyName is joined client-side from the companies collection.
	CompanyName string `json:"-"`
}

// Admin is an administrator account with many-to-many company membership.
type Admin struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	Surname    string    `json:"surname"`
	Name       string    `json:"name"`
	Middlename *string   `json:"middlename"`
	Department *string   `json:"department"`
	Phone      *string   `json:"phone"`
	Cellular   *string   `json:"cellular"`
	Post       *string   `json:"post"`
	Companies  []Company `json:"companies"`
	CreatedAt  *string   `json:"created_at"`
	UpdatedAt  *string   `json:"updated_at"`

	// CompanyNames is joined client-side from Companies.
	CompanyNames string `json:"-"`
}

// JoinCompanyNames rebuilds the display join from the membership list.
func (a *Admin) JoinCompanyNames() {
	names := make([]string, 0, len(a.Companies))
	for _, c := range a.Companies {
		names = append(names, c.Username)
	}
	a.CompanyNames = strings.Join(names, ", ")
}

// Owner is an account on the auth service itself; the password is write-only.
type Owner struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	Password  string  `json:"password,omitempty"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// Note is a free-form record scoped to the current owner.
type Note struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FileInfo is file metadata on the storage service. The id is a string UUID
// assigned by the server.
type FileInfo struct {
	UUID      string  `json:"uuid"`
	Name      string  `json:"name"`
	Size      int64   `json:"size"`
	UserID    int     `json:"user_id"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`

	// UserName is joined client-side from the users collection.
	UserName string `json:"-"`

	// LocalPath is the source file selected for an upload draft.
	LocalPath string `json:"-"`
}
