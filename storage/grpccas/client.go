package grpccas

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/txkit/cidutil"
	"xdao.co/txkit/storage"
)

// Client implements storage.CAS over the EnvelopeStore service.
type Client struct {
	cc     *grpc.ClientConn
	client envelopeStoreClient

	// Timeout bounds each RPC when non-zero.
	Timeout time.Duration
}

var _ storage.CAS = (*Client)(nil)

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

// Dial creates a client for target. The connection is established lazily on
// the first RPC.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: envelopeStoreClient{cc: cc}}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	expected, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	if !id.Equals(expected) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if err := cidutil.Check(id, b); err != nil {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
