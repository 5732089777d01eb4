package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubClient struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &stubClient{name: "local", out: "from local"}
	second := &stubClient{name: "hosted", out: "from hosted"}
	chain := NewChain(0, first, second)

	out, err := chain.Complete(context.Background(), "sys", "user", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "from local" {
		t.Fatalf("expected first provider's output, got %q", out)
	}
	if second.calls != 0 {
		t.Fatalf("second provider should not be called, got %d calls", second.calls)
	}
}

func TestChainFallsThroughOnError(t *testing.T) {
	first := &stubClient{name: "local", err: errors.New("connection refused")}
	second := &stubClient{name: "hosted", out: "fallback answer"}
	chain := NewChain(0, first, second)

	out, err := chain.Complete(context.Background(), "sys", "user", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "fallback answer" {
		t.Fatalf("expected fallback output, got %q", out)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("unexpected call counts: %d, %d", first.calls, second.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	first := &stubClient{name: "local", err: errors.New("down")}
	second := &stubClient{name: "hosted", err: errors.New("also down")}
	chain := NewChain(0, first, second)

	_, err := chain.Complete(context.Background(), "sys", "user", 0)
	if !errors.Is(err, ErrNoModelAvailable) {
		t.Fatalf("expected ErrNoModelAvailable, got %v", err)
	}
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain(0)
	if _, err := chain.Complete(context.Background(), "sys", "user", 0); !errors.Is(err, ErrNoModelAvailable) {
		t.Fatalf("expected ErrNoModelAvailable, got %v", err)
	}
}

type hangingClient struct {
	name string
}

func (h *hangingClient) Name() string { return h.name }

func (h *hangingClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChainExhaustedByTimeoutsReportsDeadline(t *testing.T) {
	chain := NewChain(10*time.Millisecond, &hangingClient{name: "local"})

	_, err := chain.Complete(context.Background(), "sys", "user", 0)
	if !errors.Is(err, ErrNoModelAvailable) {
		t.Fatalf("expected ErrNoModelAvailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the per-call deadline as cause, got %v", err)
	}
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubClient{name: "local", out: "never"}
	chain := NewChain(time.Second, first)

	if _, err := chain.Complete(ctx, "sys", "user", 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if first.calls != 0 {
		t.Fatalf("provider should not be called after cancellation")
	}
}
