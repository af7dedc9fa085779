package models

import "time"

// Role is the user role for authorization.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account.
type User struct {
	ID        int64      `json:"id"`
	UserName  *string    `json:"user_name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"` // bcrypt hash
	FullName  string     `json:"full_name"`
	AvatarURL *string    `json:"avatar_url"`
	Birthday  *time.Time `json:"birthday"`
	Gender    *string    `json:"gender"`
	Bio       *string    `json:"bio"`
	Role      Role       `json:"role"`
	XP        int        `json:"xp"`
	Level     int        `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserPublic is the user shape safe to return to other users.
type UserPublic struct {
	ID        int64   `json:"id"`
	UserName  *string `json:"user_name"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// ToPublic strips private fields.
func (u *User) ToPublic() UserPublic {
	return UserPublic{ID: u.ID, UserName: u.UserName, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// UserFollow records that follower follows following.
type UserFollow struct {
	FollowerID  int64     `json:"follower_id"`
	FollowingID int64     `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// XPLog is one XP grant or deduction.
type XPLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"` // e.g. POST, COMMENT, LIKE_RECEIVED
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Badge is an achievement definition.
type Badge struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IconURL     *string `json:"icon_url"`
	MinLevel    int     `json:"min_level"`
}

// UserBadge links a user to an earned badge.
type UserBadge struct {
	UserID   int64     `json:"user_id"`
	BadgeID  int64     `json:"badge_id"`
	Badge    *Badge    `json:"badge,omitempty"`
	EarnedAt time.Time `json:"earned_at"`
}
