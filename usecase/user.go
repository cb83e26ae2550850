package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	domainLaundry "github.com/washday/washday/domains/laundry"
	domainUser "github.com/washday/washday/domains/user"
	"github.com/washday/washday/pkg/security"
	"github.com/washday/washday/validations"
)

// defaultRoomID is the room every new account starts subscribed to, so a
// fresh login sees machines immediately.
const defaultRoomID int64 = 1

type serviceUser struct {
	users domainUser.IUserRepository
	subs  domainLaundry.ISubscriptionRepository
}

func NewUserService(users domainUser.IUserRepository, subs domainLaundry.ISubscriptionRepository) domainUser.IUserUsecase {
	return &serviceUser{
		users: users,
		subs:  subs,
	}
}

func (service serviceUser) Register(ctx context.Context, request domainUser.RegisterRequest) error {
	err := validations.ValidateRegister(ctx, request)
	if err != nil {
		return err
	}

	if existing, err := service.users.GetByUsername(ctx, request.Username); err == nil && existing != nil {
		return domainUser.ErrDuplicateUsername
	}
	if existing, err := service.users.GetBySnum(ctx, request.Snum); err == nil && existing != nil {
		return domainUser.ErrDuplicateUsername
	}

	hashed, err := security.HashPassword(request.Password)
	if err != nil {
		return err
	}

	role := domainUser.RoleUser
	if request.IsAdmin {
		role = domainUser.RoleAdmin
	}

	newUser := domainUser.User{
		Username: request.Username,
		Password: hashed,
		Role:     role,
		Snum:     request.Snum,
	}
	if err := service.users.Create(ctx, &newUser); err != nil {
		return err
	}

	if err := service.subs.SubscribeRoom(ctx, newUser.ID, defaultRoomID); err != nil {
		logrus.WithError(err).Warnf("[USER] Default room subscription failed for user %d", newUser.ID)
	}

	logrus.Infof("[USER] Registered user %s (%d)", newUser.Username, newUser.ID)
	return nil
}

func (service serviceUser) Login(ctx context.Context, request domainUser.LoginRequest) (domainUser.LoginResponse, error) {
	var response domainUser.LoginResponse

	err := validations.ValidateLogin(ctx, request)
	if err != nil {
		return response, err
	}

	account, err := service.users.GetBySnum(ctx, request.Snum)
	if err != nil {
		if err == domainUser.ErrUserNotFound {
			return response, domainUser.ErrInvalidCredentials
		}
		return response, err
	}

	if !security.CheckPasswordHash(request.Password, account.Password) {
		return response, domainUser.ErrInvalidCredentials
	}

	token, err := security.GenerateToken(account.ID, account.Role)
	if err != nil {
		return response, err
	}

	var fcmToken *string
	if request.FCMToken != "" {
		fcmToken = &request.FCMToken
	}
	if err := service.users.UpdateSession(ctx, account.ID, &token, fcmToken, time.Now().Unix()); err != nil {
		return response, err
	}

	response.AccessToken = token
	return response, nil
}

func (service serviceUser) Logout(ctx context.Context, userID int64) error {
	return service.users.UpdateSession(ctx, userID, nil, nil, time.Now().Unix())
}

func (service serviceUser) SetFCMToken(ctx context.Context, userID int64, fcmToken string) error {
	err := validations.ValidateSetFCMToken(ctx, domainUser.SetFCMTokenRequest{FCMToken: fcmToken})
	if err != nil {
		return err
	}
	return service.users.UpdateFCMToken(ctx, userID, fcmToken)
}

func (service serviceUser) GetByID(ctx context.Context, userID int64) (*domainUser.User, error) {
	return service.users.GetByID(ctx, userID)
}
