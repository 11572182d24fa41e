package grpccas

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/txkit/storage"
)

// mapRPC turns a status from the server back into the storage sentinel errors.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrImmutable
	default:
		return err
	}
}
