package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region constants
// generateMethod is the unary RPC served by the inference sidecar. Requests and
// responses are google.protobuf.Struct so no generated stubs are needed.
const generateMethod = "/companion.inference.v1.Inference/Generate"

// #endregion constants

// #region sidecar-struct
// Sidecar generates text through a local gRPC inference service.
type Sidecar struct {
	conn    *grpc.ClientConn
	invoker grpc.ClientConnInterface
	model   string
}

// #endregion sidecar-struct

// #region constructor
// NewSidecar connects to the inference sidecar at addr.
func NewSidecar(addr, model string) (*Sidecar, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Sidecar{conn: conn, invoker: conn, model: model}, nil
}

// NewSidecarWithConn creates a Sidecar over an injected connection.
// Used for testing without a real gRPC server.
func NewSidecarWithConn(cc grpc.ClientConnInterface, model string) *Sidecar {
	return &Sidecar{invoker: cc, model: model}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if this Sidecar owns one.
func (s *Sidecar) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// #endregion close

// #region generate
// Generate sends a prompt to the sidecar.
func (s *Sidecar) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	req, err := structpb.NewStruct(map[string]any{
		"prompt": prompt,
		"model":  s.model,
	})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := s.invoker.Invoke(ctx, generateMethod, req, resp); err != nil {
		if status.Code(err) == codes.ResourceExhausted {
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return "", fmt.Errorf("sidecar generate: %w", err)
	}

	fields := resp.GetFields()
	if fields["blocked"].GetBoolValue() {
		return "", fmt.Errorf("%w: %s", ErrBlocked, fields["reason"].GetStringValue())
	}
	text := strings.TrimSpace(fields["text"].GetStringValue())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// #endregion generate
