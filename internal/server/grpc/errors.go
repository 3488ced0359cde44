package grpc

import (
	"context"
	"errors"
	"sort"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var unauthenticated = []error{
	common.ErrorUnauthorized,
	common.ErrEmailNotVerified,
	common.ErrAccountLocked,
	common.ErrAccountExpired,
	common.ErrCredentialsExpired,
	common.ErrInvalidToken,
	common.ErrTokenExpired,
	common.ErrRefreshTokenExpired,
	common.ErrAccessTokenExpired,
}

// statusErr converts a service error into a gRPC status. Field violations are
// attached as errdetails.BadRequest.
func (s *GRPCServer) statusErr(ctx context.Context, err error) error {
	st := toStatus(err)
	if st.Code() == codes.Internal || st.Code() == codes.Unavailable {
		s.logger.Error(ctx, "request failed", "error", err.Error())
	}
	return st.Err()
}

func toStatus(err error) *status.Status {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return validationStatus(ve)
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.New(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrConflict):
		return status.New(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrEmailAlreadyVerified):
		return status.New(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrEmailDispatch):
		return status.New(codes.Unavailable, common.ErrEmailDispatch.Error())
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	}
	for _, target := range unauthenticated {
		if errors.Is(err, target) {
			return status.New(codes.Unauthenticated, err.Error())
		}
	}
	return status.New(codes.Internal, common.ErrorInternal.Error())
}

func validationStatus(ve *common.ValidationError) *status.Status {
	fields := make([]string, 0, len(ve.Fields))
	for f := range ve.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	br := &errdetails.BadRequest{}
	for _, f := range fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: ve.Fields[f],
		})
	}

	st := status.New(codes.InvalidArgument, ve.Error())
	if withDetails, err := st.WithDetails(br); err == nil {
		return withDetails
	}
	return st
}

// FieldViolations extracts the field → message map from a status error
// produced for a validation failure.
func FieldViolations(err error) map[string]string {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				out[v.GetField()] = v.GetDescription()
			}
		}
	}
	return out
}
