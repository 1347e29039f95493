package domain

import "strings"

// Role is the HeartSpace account type reported by the backend.
type Role string

const (
	RoleClient     Role = "Client"
	RoleConsultant Role = "Consultant"
	RoleAdmin      Role = "Admin"
)

// Redirect targets after a successful login.
const (
	RedirectConsultant = "/consultant/dashboard/appointments"
	RedirectAdmin      = "/admin/dashboard"
	RedirectHome       = "/"
	RedirectLogin      = "/login"
)

// ParseRole maps a backend role string onto a Role. Matching is
// case-insensitive; anything unrecognised is treated as a client.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consultant":
		return RoleConsultant
	case "admin", "administrator":
		return RoleAdmin
	default:
		return RoleClient
	}
}

// RedirectPath returns the landing route for a freshly authenticated role.
func (r Role) RedirectPath() string {
	switch r {
	case RoleConsultant:
		return RedirectConsultant
	case RoleAdmin:
		return RedirectAdmin
	default:
		return RedirectHome
	}
}

// User is the identity of the caller as known to the gateway.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Role        Role   `json:"role"`
}

// Credentials are the login form fields.
type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Registration carries the sign-up form fields forwarded to the backend.
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
