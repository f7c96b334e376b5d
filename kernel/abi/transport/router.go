package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xuperchain/xabi/lib/logs"
)

var (
	ErrClosed        = errors.New("transport closed")
	ErrUnknownSender = errors.New("unknown sender")
)

// Message is an inbound frame with the token of the stream it came from
type Message struct {
	Sender string
	Data   []byte
}

type peerStream struct {
	mu     sync.Mutex
	stream grpc.ServerStream
}

func (p *peerStream) send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream.SendMsg(&Frame{Data: data})
}

type socketServer interface {
	serveStream(stream grpc.ServerStream) error
}

// Router is the application side socket. Every connected stream gets a
// sender token, inbound frames of all streams are queued for a single
// consumer and replies are routed back by token.
type Router struct {
	endpoint string
	log      logs.Logger

	servHD *grpc.Server
	lis    net.Listener

	mu     sync.Mutex
	queue  deque.Deque
	notify chan struct{}
	peers  map[string]*peerStream
	closed bool
}

func NewRouter(endpoint string, log logs.Logger) *Router {
	return &Router{
		endpoint: endpoint,
		log:      log,
		notify:   make(chan struct{}, 1),
		peers:    make(map[string]*peerStream),
	}
}

// Bind listens on the endpoint and starts accepting streams
func (t *Router) Bind() error {
	network, address, err := ParseEndpoint(t.endpoint)
	if err != nil {
		return err
	}
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(address), os.ModePerm); err != nil {
			return fmt.Errorf("create socket dir failed.err:%v", err)
		}
		// stale socket of a previous process
		os.Remove(address)
	}
	lis, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("bind %s failed.err:%v", t.endpoint, err)
	}

	t.lis = lis
	t.servHD = grpc.NewServer(
		middleware.WithStreamServerChain(t.streamInterceptors()...),
		grpc.MaxRecvMsgSize(maxFrameSizeMB<<20),
		grpc.MaxSendMsgSize(maxFrameSizeMB<<20),
	)
	t.servHD.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*socketServer)(nil),
		Streams: []grpc.StreamDesc{
			{
				StreamName:    channelName,
				Handler:       channelHandler,
				ServerStreams: true,
				ClientStreams: true,
			},
		},
		Metadata: "xabi",
	}, t)

	go func() {
		if err := t.servHD.Serve(lis); err != nil {
			t.log.Warn("router serve exit", "endpoint", t.endpoint, "err", err)
		}
	}()
	t.log.Info("router bind", "endpoint", t.endpoint)
	return nil
}

func (t *Router) streamInterceptors() []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		t.logStream,
		grpc_recovery.StreamServerInterceptor(grpc_recovery.WithRecoveryHandler(t.recoverStream)),
	}
}

// logStream reports streams that end with an error
func (t *Router) logStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo,
	handler grpc.StreamHandler) error {
	err := handler(srv, ss)
	if err != nil {
		t.log.Warn("stream closed with error", "method", info.FullMethod, "err", err)
	}
	return err
}

// recoverStream closes a panicking stream, the router keeps serving others
func (t *Router) recoverStream(p any) error {
	t.log.Error("stream handler panic", "endpoint", t.endpoint, "panic", p)
	return status.Errorf(codes.Internal, "stream panic: %v", p)
}

func channelHandler(srv any, stream grpc.ServerStream) error {
	return srv.(socketServer).serveStream(stream)
}

func (t *Router) serveStream(stream grpc.ServerStream) error {
	sender := uuid.New().String()
	t.mu.Lock()
	t.peers[sender] = &peerStream{stream: stream}
	t.mu.Unlock()
	t.log.Debug("peer connected", "sender", sender)

	defer func() {
		t.mu.Lock()
		delete(t.peers, sender)
		t.mu.Unlock()
		t.log.Debug("peer disconnected", "sender", sender)
	}()

	for {
		frame := new(Frame)
		err := stream.RecvMsg(frame)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t.push(&Message{Sender: sender, Data: frame.Data})
	}
}

func (t *Router) push(msg *Message) {
	t.mu.Lock()
	t.queue.PushBack(msg)
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// Recv blocks until a frame arrives, the router is closed or ctx is done.
// It must be called by a single consumer.
func (t *Router) Recv(ctx context.Context) (*Message, error) {
	for {
		t.mu.Lock()
		if t.queue.Len() > 0 {
			msg := t.queue.PopFront().(*Message)
			t.mu.Unlock()
			return msg, nil
		}
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-t.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Send replies to the stream identified by sender
func (t *Router) Send(sender string, data []byte) error {
	t.mu.Lock()
	peer, ok := t.peers[sender]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSender, sender)
	}
	return peer.send(data)
}

func (t *Router) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
	if t.servHD != nil {
		t.servHD.Stop()
	}
	if network, address, err := ParseEndpoint(t.endpoint); err == nil && network == "unix" {
		os.Remove(address)
	}
	t.log.Info("router closed", "endpoint", t.endpoint)
}
