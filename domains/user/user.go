package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"user_username"`
	Password  string    `json:"-"`
	Role      string    `json:"user_role"`
	Snum      string    `json:"user_snum"`
	Token     string    `json:"-"`
	FCMToken  string    `json:"-"`
	LastLogin int64     `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// --- Requests / Responses ---

type RegisterRequest struct {
	Username string `json:"user_username"`
	Password string `json:"user_password"`
	IsAdmin  bool   `json:"user_role"`
	Snum     string `json:"user_snum"`
}

type LoginRequest struct {
	Snum     string `json:"user_snum"`
	Password string `json:"user_password"`
	FCMToken string `json:"fcm_token"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type SetFCMTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}

type IUserUsecase interface {
	Register(ctx context.Context, request RegisterRequest) error
	Login(ctx context.Context, request LoginRequest) (LoginResponse, error)
	Logout(ctx context.Context, userID int64) error
	SetFCMToken(ctx context.Context, userID int64, fcmToken string) error
	GetByID(ctx context.Context, userID int64) (*User, error)
}

type IUserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetBySnum(ctx context.Context, snum string) (*User, error)
	// UpdateSession stores the issued token (nil clears it), the push token
	// and the login timestamp in one write.
	UpdateSession(ctx context.Context, userID int64, token *string, fcmToken *string, lastLogin int64) error
	UpdateFCMToken(ctx context.Context, userID int64, fcmToken string) error
	// TokensForUsers resolves the registered, non-empty push tokens for a
	// set of users.
	TokensForUsers(ctx context.Context, userIDs []int64) ([]string, error)
}
