package redisutil

import (
	"errors"
	"testing"

	"github.com/fastprodman/shopledger/internal/config"
)

func TestConnect_Disabled(t *testing.T) {
	t.Parallel()

	rdb, err := Connect(t.Context(), config.RedisConfig{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("want ErrDisabled, got %v", err)
	}

	if rdb != nil {
		t.Fatalf("expected nil client")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	// Port 1 is never a redis server.
	_, err := Connect(t.Context(), config.RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatalf("expected ping error")
	}
}
