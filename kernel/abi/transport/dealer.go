package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// Dealer is the engine side socket, one stream to the router
type Dealer struct {
	endpoint string
	conn     *grpc.ClientConn
	stream   grpc.ClientStream
	cancel   context.CancelFunc

	sendMu sync.Mutex
}

// Dial connects to endpoint and waits until the connection is ready or ctx is done
func Dial(ctx context.Context, endpoint string) (*Dealer, error) {
	network, address, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, address)
	}
	conn, err := grpc.NewClient("passthrough:///"+address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(CodecName),
			grpc.MaxCallRecvMsgSize(maxFrameSizeMB<<20),
			grpc.MaxCallSendMsgSize(maxFrameSizeMB<<20),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create client for %s failed.err:%v", endpoint, err)
	}

	if err := waitReady(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := conn.NewStream(streamCtx, &channelStreamDesc, channelMethod)
	if err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("open stream to %s failed.err:%v", endpoint, err)
	}

	return &Dealer{
		endpoint: endpoint,
		conn:     conn,
		stream:   stream,
		cancel:   cancel,
	}, nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return fmt.Errorf("connection shutdown")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
}

func (t *Dealer) Endpoint() string {
	return t.endpoint
}

// Send is safe for concurrent use
func (t *Dealer) Send(data []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.stream.SendMsg(&Frame{Data: data})
}

// Recv must be called by a single reader
func (t *Dealer) Recv() ([]byte, error) {
	frame := new(Frame)
	if err := t.stream.RecvMsg(frame); err != nil {
		return nil, err
	}
	return frame.Data, nil
}

func (t *Dealer) Close() error {
	t.sendMu.Lock()
	t.stream.CloseSend()
	t.sendMu.Unlock()
	t.cancel()
	return t.conn.Close()
}
