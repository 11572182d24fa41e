package grpccas

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
)

// Server exposes a storage.CAS as the EnvelopeStore service.
type Server struct {
	UnimplementedEnvelopeStoreServer
	CAS storage.CAS

	// Log receives one debug line per request. The zero value discards.
	Log zerolog.Logger
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	b := in.GetValue()
	expected, err := cidutil.Sum(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		s.Log.Warn().Err(err).Int("bytes", len(b)).Msg("put failed")
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	s.Log.Debug().Str("cid", id.String()).Int("bytes", len(b)).Msg("put")
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := parseCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := cidutil.Check(id, b); err != nil {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	s.Log.Debug().Str("cid", id.String()).Msg("get")
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := parseCID(in.GetValue())
	if err != nil {
		return nil, err
	}
	ok, err := s.CAS.Has(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}

func parseCID(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil || !id.Defined() {
		return cid.Undef, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return id, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
