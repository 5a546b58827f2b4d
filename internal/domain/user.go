package domain

import "database/sql"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the persisted account record. Password is transient: it is never
// stored or serialised and only feeds the hash on the next write.
type User struct {
	ID             string         `db:"id"`
	FullName       string         `db:"full_name"`
	Email          string         `db:"email"`
	Role           string         `db:"role"`
	PasswordHash   string         `db:"password_hash"`
	Password       string         `db:"-"`
	RefreshToken   sql.NullString `db:"refresh_token"`
	ResetTokenHash sql.NullString `db:"reset_password_token_hash"`
	ResetExpire    sql.NullInt64  `db:"reset_password_expire"`
	AvatarID       string         `db:"avatar_id"`
	AvatarURL      string         `db:"avatar_url"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`
}

type Avatar struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

// PublicUser is the only shape of a user that leaves the process.
type PublicUser struct {
	ID        string `json:"_id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Avatar    Avatar `json:"avatar"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    Avatar{ID: u.AvatarID, URL: u.AvatarURL},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func ValidRole(role string) bool { return role == RoleUser || role == RoleAdmin }
