package models

import (
	"time"
)

// User is the gateway's view of an upstream user record. The upstream
// service owns the record; the gateway never holds an authoritative copy,
// only whichever page or single record it last fetched.
type User struct {
	ID          string    `json:"_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	CountryCode string    `json:"countryCode"`
	Phone       string    `json:"phone"`
	DOB         string    `json:"dob"` // ISO date (YYYY-MM-DD) or RFC3339 from upstream
	Gender      string    `json:"gender"`
	Role        string    `json:"role"` // "user" or "admin"
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Gender and role enums as the upstream contract spells them.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Pagination mirrors the upstream pagination envelope verbatim. The gateway
// never recomputes any of these fields from row data.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalUsers  int  `json:"totalUsers"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	Limit       int  `json:"limit"`
}

// EmptyPagination is the envelope shown when a directory response is
// malformed or a fetch fails: page 1 of 1, zero records.
func EmptyPagination(limit int) Pagination {
	return Pagination{
		CurrentPage: 1,
		TotalPages:  1,
		TotalUsers:  0,
		HasNextPage: false,
		HasPrevPage: false,
		Limit:       limit,
	}
}

// Profile is the serialized user profile persisted for the lifetime of a
// console session (the analogue of the SPA's localStorage "user" entry).
type Profile struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// GenderBreakdown carries the dashboard gender aggregation.
type GenderBreakdown struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// OTPSettings are the admin-editable OTP toggles. Registration and login
// toggles only take effect while the master toggle is on; the upstream
// service enforces that, the gateway only round-trips the flags.
type OTPSettings struct {
	OTPEnabled                bool `json:"otpEnabled"`
	OTPEnabledForRegistration bool `json:"otpEnabledForRegistration"`
	OTPEnabledForLogin        bool `json:"otpEnabledForLogin"`
}
