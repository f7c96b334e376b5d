// Package transport carries opaque abi frames between the engine and the
// application over a grpc bidirectional stream.
package transport

import (
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype of the raw frame codec
const CodecName = "xabi-frame"

const (
	serviceName    = "xabi.Socket"
	channelName    = "Channel"
	channelMethod  = "/" + serviceName + "/" + channelName
	endpointIPC    = "ipc://"
	endpointTCP    = "tcp://"
	maxFrameSizeMB = 64
)

// Frame is one message on the stream, the payload is never inspected
type Frame struct {
	Data []byte
}

type frameCodec struct{}

func (frameCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*Frame)
	if !ok {
		return nil, fmt.Errorf("frame codec: unexpected type %T", v)
	}
	return f.Data, nil
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*Frame)
	if !ok {
		return fmt.Errorf("frame codec: unexpected type %T", v)
	}
	f.Data = append([]byte(nil), data...)
	return nil
}

func (frameCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(frameCodec{})
}

var channelStreamDesc = grpc.StreamDesc{
	StreamName:    channelName,
	ServerStreams: true,
	ClientStreams: true,
}

// ParseEndpoint splits ipc:///path or tcp://host:port into a net.Listen pair
func ParseEndpoint(endpoint string) (network string, address string, err error) {
	switch {
	case strings.HasPrefix(endpoint, endpointIPC):
		network, address = "unix", strings.TrimPrefix(endpoint, endpointIPC)
	case strings.HasPrefix(endpoint, endpointTCP):
		network, address = "tcp", strings.TrimPrefix(endpoint, endpointTCP)
	default:
		return "", "", fmt.Errorf("unsupported endpoint %s", endpoint)
	}
	if address == "" {
		return "", "", fmt.Errorf("empty address in endpoint %s", endpoint)
	}
	if network == "tcp" {
		if _, _, err := net.SplitHostPort(address); err != nil {
			return "", "", fmt.Errorf("bad tcp endpoint %s: %v", endpoint, err)
		}
	}
	return network, address, nil
}
