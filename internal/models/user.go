package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleDoctor    Role = "doctor"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator, RoleDoctor:
		return true
	}
	return false
}

const (
	DisplayNameMinLength = 3
	DisplayNameMaxLength = 50
)

type User struct {
	ID            int        `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never expose in JSON
	DisplayName   *string    `json:"display_name,omitempty"`
	Role          Role       `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// UserPublic is the public-safe representation of a user
type UserPublic struct {
	ID          int       `json:"id"`
	DisplayName *string   `json:"display_name,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToPublic converts a User to its public representation
func (u *User) ToPublic() *UserPublic {
	return &UserPublic{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// HasDisplayName reports whether the user has picked a display name
func (u *User) HasDisplayName() bool {
	return u.DisplayName != nil && *u.DisplayName != ""
}

// IsAdmin checks if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator checks if the user has moderator role or higher
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
}

// LoginRequest is the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after successful login/register
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateProfileRequest is the request body for updating the caller's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// AdminSetRoleRequest is the request body for changing a user's role
type AdminSetRoleRequest struct {
	Role Role `json:"role"`
}

// AdminSetDisplayNameRequest is the request body for an admin display name edit.
// A blank name clears it.
type AdminSetDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// AdminSetVerifiedRequest is the request body for toggling email verification
type AdminSetVerifiedRequest struct {
	EmailVerified bool `json:"email_verified"`
}

// UserSearchParams contains parameters for the admin user search
type UserSearchParams struct {
	Query  string
	Limit  int
	Offset int
}

// AdminStats represents system-wide statistics
type AdminStats struct {
	TotalUsers        int `json:"total_users"`
	ActiveUsers24h    int `json:"active_users_24h"`
	TotalRecipes      int `json:"total_recipes"`
	PublishedRecipes  int `json:"published_recipes"`
	DraftRecipes      int `json:"draft_recipes"`
	TotalForumPosts   int `json:"total_forum_posts"`
	TotalComments     int `json:"total_comments"`
	TotalFavorites    int `json:"total_favorites"`
	UsersWithoutNames int `json:"users_without_names"`
}
