package authentic

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the lifecycle state of a user account
type AccountStatus = string

const (
	// AccountStatusPending means the account awaits email activation
	AccountStatusPending AccountStatus = "pending"
	// AccountStatusActive means the account can authenticate
	AccountStatusActive AccountStatus = "active"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsActive      bool       `bun:"is_active" json:"is_active"`
	IsStaff       bool       `bun:"is_staff" json:"-"`
	IsSuperuser   bool       `bun:"is_superuser" json:"-"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Status derives the lifecycle state from the activation flag.
func (u *User) Status() AccountStatus {
	if u.IsActive {
		return AccountStatusActive
	}
	return AccountStatusPending
}

// Serialize renders the user for API responses, excluding the password
// hash, privileged flags, and any extra hidden fields configured by the
// host application.
func (u *User) Serialize(hidden ...string) map[string]any {
	out := map[string]any{
		"id":       u.ID.String(),
		"username": u.Username,
		"email":    u.Email,
	}

	if u.FirstName != "" {
		out["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		out["last_name"] = u.LastName
	}
	if u.Phone != "" {
		out["phone_number"] = u.Phone
	}
	out["is_active"] = u.IsActive
	if u.LastLoginAt != nil {
		out["last_login_at"] = u.LastLoginAt
	}
	if u.CreatedAt != nil {
		out["created_at"] = u.CreatedAt
	}

	for _, field := range hidden {
		delete(out, field)
	}

	return out
}
