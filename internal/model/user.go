package model

import (
	"database/sql"
	"time"
)

// Role values stored in users.role. Moderators share the admin surface but
// exist as a distinct value so the two can diverge later.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the assignable role values.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}

// User mirrors the `users` table. Profile fields are nullable in the
// schema; legacy accounts created through email verification have no
// password hash at all, which the account-deletion flow must honor.
//
// Fields:
//  ID           – char(36) UUID primary key.
//  Email        – unique email address.
//  Nickname     – display name, optional.
//  FirstName    – optional profile field.
//  LastName     – optional profile field.
//  City         – optional profile field.
//  Country      – optional profile field.
//  Bio          – optional free text, length-limited.
//  PasswordHash – bcrypt hash; NULL for password-less legacy accounts.
//  Role         – one of user/moderator/admin.
//  Blocked      – set by moderation; blocks every authenticated action.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string
	Email        string
	Nickname     sql.NullString
	FirstName    sql.NullString
	LastName     sql.NullString
	City         sql.NullString
	Country      sql.NullString
	Bio          sql.NullString
	PasswordHash sql.NullString
	Role         string
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the nickname when set, else the email. Used in
// notification messages.
func (u User) DisplayName() string {
	if u.Nickname.Valid && u.Nickname.String != "" {
		return u.Nickname.String
	}
	return u.Email
}

// Identity is the resolved authenticated user for the current request.
// It is produced once per request by the role guard and never cached
// beyond the request.
type Identity struct {
	ID       string
	Email    string
	Nickname string
	Role     string
	Blocked  bool
}

// DisplayName mirrors User.DisplayName for the resolved identity.
func (i Identity) DisplayName() string {
	if i.Nickname != "" {
		return i.Nickname
	}
	return i.Email
}

// Identity projects the per-request identity view of the user row.
func (u User) Identity() Identity {
	nick := ""
	if u.Nickname.Valid {
		nick = u.Nickname.String
	}
	return Identity{ID: u.ID, Email: u.Email, Nickname: nick, Role: u.Role, Blocked: u.Blocked}
}
