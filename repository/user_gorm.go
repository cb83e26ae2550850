package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/washday/washday/domains/user"
)

type userModel struct {
	ID        int64     `gorm:"primaryKey;column:user_id;autoIncrement"`
	Username  string    `gorm:"column:user_username;uniqueIndex;not null"`
	Password  string    `gorm:"column:user_password;not null"`
	Role      string    `gorm:"column:user_role;not null;default:USER"`
	Snum      string    `gorm:"column:user_snum;uniqueIndex;not null"`
	Token     string    `gorm:"column:user_token"`
	FCMToken  string    `gorm:"column:fcm_token"`
	LastLogin int64     `gorm:"column:last_login"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (userModel) TableName() string {
	return "users"
}

// UserGormRepository implements user.IUserRepository using GORM.
type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userModel{})
}

func (r *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	model := toUserModel(*u)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	return nil
}

func (r *UserGormRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	return r.getOne(ctx, "user_id = ?", userID)
}

func (r *UserGormRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, "user_username = ?", username)
}

func (r *UserGormRepository) GetBySnum(ctx context.Context, snum string) (*user.User, error) {
	return r.getOne(ctx, "user_snum = ?", snum)
}

func (r *UserGormRepository) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).First(&model, query, arg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	u := fromUserModel(model)
	return &u, nil
}

func (r *UserGormRepository) UpdateSession(ctx context.Context, userID int64, token *string, fcmToken *string, lastLogin int64) error {
	updates := map[string]any{"last_login": lastLogin}
	if token != nil {
		updates["user_token"] = *token
	} else {
		updates["user_token"] = ""
	}
	if fcmToken != nil {
		updates["fcm_token"] = *fcmToken
	}

	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserGormRepository) UpdateFCMToken(ctx context.Context, userID int64, fcmToken string) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Update("fcm_token", fcmToken)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserGormRepository) TokensForUsers(ctx context.Context, userIDs []int64) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id IN ? AND fcm_token <> ''", userIDs).
		Pluck("fcm_token", &tokens).Error
	return tokens, err
}

func toUserModel(u user.User) userModel {
	return userModel{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		Role:      u.Role,
		Snum:      u.Snum,
		Token:     u.Token,
		FCMToken:  u.FCMToken,
		LastLogin: u.LastLogin,
	}
}

func fromUserModel(m userModel) user.User {
	return user.User{
		ID:        m.ID,
		Username:  m.Username,
		Password:  m.Password,
		Role:      m.Role,
		Snum:      m.Snum,
		Token:     m.Token,
		FCMToken:  m.FCMToken,
		LastLogin: m.LastLogin,
		CreatedAt: m.CreatedAt,
	}
}
