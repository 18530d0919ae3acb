package llm

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region mock
type mockConn struct {
	grpc.ClientConnInterface

	reply      map[string]any
	invokeErr  error
	lastMethod string
	lastReq    *structpb.Struct
}

func (m *mockConn) Invoke(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	m.lastMethod = method
	m.lastReq, _ = args.(*structpb.Struct)
	if m.invokeErr != nil {
		return m.invokeErr
	}
	out, err := structpb.NewStruct(m.reply)
	if err != nil {
		return err
	}
	reply.(*structpb.Struct).Fields = out.Fields
	return nil
}

// #endregion mock

// #region constructor-tests
func TestNewSidecarLazyDial(t *testing.T) {
	s, err := NewSidecar("localhost:0", "local")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer s.Close()
}

func TestSidecarWithConnClose(t *testing.T) {
	s := NewSidecarWithConn(&mockConn{}, "local")
	if err := s.Close(); err != nil {
		t.Fatalf("close without owned conn should be nil, got %v", err)
	}
}

// #endregion constructor-tests

// #region generate-tests
func TestSidecarGenerate_Success(t *testing.T) {
	conn := &mockConn{reply: map[string]any{"text": "  hello there  "}}
	s := NewSidecarWithConn(conn, "local")

	text, err := s.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello there" {
		t.Errorf("expected trimmed text, got %q", text)
	}
	if conn.lastMethod != generateMethod {
		t.Errorf("expected method %s, got %s", generateMethod, conn.lastMethod)
	}
	if got := conn.lastReq.GetFields()["prompt"].GetStringValue(); got != "hi" {
		t.Errorf("expected prompt field 'hi', got %q", got)
	}
}

func TestSidecarGenerate_ResourceExhaustedIsRateLimit(t *testing.T) {
	conn := &mockConn{invokeErr: status.Error(codes.ResourceExhausted, "slow down")}
	s := NewSidecarWithConn(conn, "local")

	_, err := s.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("rate limit should be retryable")
	}
}

func TestSidecarGenerate_OtherErrorPermanent(t *testing.T) {
	conn := &mockConn{invokeErr: status.Error(codes.InvalidArgument, "bad prompt")}
	s := NewSidecarWithConn(conn, "local")

	_, err := s.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Errorf("invalid argument should not be retryable: %v", err)
	}
}

func TestSidecarGenerate_Blocked(t *testing.T) {
	conn := &mockConn{reply: map[string]any{"blocked": true, "reason": "safety"}}
	s := NewSidecarWithConn(conn, "local")

	_, err := s.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestSidecarGenerate_EmptyText(t *testing.T) {
	conn := &mockConn{reply: map[string]any{"text": "   "}}
	s := NewSidecarWithConn(conn, "local")

	_, err := s.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestSidecarGenerate_EmptyPromptSkipsRPC(t *testing.T) {
	conn := &mockConn{}
	s := NewSidecarWithConn(conn, "local")

	if _, err := s.Generate(context.Background(), " "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if conn.lastMethod != "" {
		t.Error("RPC should not be invoked for an empty prompt")
	}
}

// #endregion generate-tests
