package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainLaundry "github.com/washday/washday/domains/laundry"
	pkgError "github.com/washday/washday/pkg/error"
)

func ValidateReserve(ctx context.Context, request domainLaundry.ReserveRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.RoomID, validation.Required),
		validation.Field(&request.IsReserved, validation.Min(0), validation.Max(1)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateNotifyMe(ctx context.Context, request domainLaundry.NotifyMeRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.MachineID, validation.Required),
		validation.Field(&request.IsUsing, validation.Min(0), validation.Max(1)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateDeviceSubscribe(ctx context.Context, request domainLaundry.DeviceSubscribeRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.RoomID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateStartCourse(ctx context.Context, request domainLaundry.StartCourseRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.MachineID, validation.Required),
		validation.Field(&request.CourseName, validation.Required, validation.Length(1, 50)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSurvey(ctx context.Context, request domainLaundry.SurveyRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Satisfaction, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&request.Suggestion, validation.Length(0, 2000)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateAdminAddRoom(ctx context.Context, request domainLaundry.AdminAddRoomRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.RoomName, validation.Required, validation.Length(1, 50)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateAdminAddDevice(ctx context.Context, request domainLaundry.AdminAddDeviceRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.MachineName, validation.Required, validation.Length(1, 50)),
		validation.Field(&request.RoomID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateDeviceUpdate(ctx context.Context, request domainLaundry.DeviceUpdateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.MachineUUID, validation.Required),
		validation.Field(&request.Status, validation.Required, validation.In(
			domainLaundry.StatusIdle,
			domainLaundry.StatusWashing,
			domainLaundry.StatusSpinning,
			domainLaundry.StatusDrying,
			domainLaundry.StatusFinished,
		)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
