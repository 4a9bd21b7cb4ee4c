// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/anonchat/internal/domain"
)

// Map converts domain and infra errors into gRPC status errors.
// Domain messages are safe to show; infra errors are not echoed back.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrProfileIncomplete),
		errors.Is(err, domain.ErrAlreadyInSession),
		errors.Is(err, domain.ErrNoActiveSession):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, domain.ErrPremiumRequired):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, domain.ErrInvalidAge),
		errors.Is(err, domain.ErrInvalidGender),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnknownFilter),
		errors.Is(err, domain.ErrSelfPairing):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrDeliveryFailed):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// Unauthenticated creates a gRPC Unauthenticated error.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

// PermissionDenied creates a gRPC PermissionDenied error.
func PermissionDenied(msg string) error {
	return status.Error(codes.PermissionDenied, msg)
}
