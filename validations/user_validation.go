package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainUser "github.com/washday/washday/domains/user"
	pkgError "github.com/washday/washday/pkg/error"
)

func ValidateRegister(ctx context.Context, request domainUser.RegisterRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Username, validation.Required, validation.Length(3, 30)),
		validation.Field(&request.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&request.Snum, validation.Required, validation.Length(1, 20)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateLogin(ctx context.Context, request domainUser.LoginRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Snum, validation.Required),
		validation.Field(&request.Password, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSetFCMToken(ctx context.Context, request domainUser.SetFCMTokenRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.FCMToken, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
