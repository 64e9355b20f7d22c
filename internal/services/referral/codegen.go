package referral

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/fastprodman/shopledger/internal/errs"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLen   = 8
	attemptsPerRound = 10
	widenBy          = 2
)

var ErrCodeSpaceExhausted = errs.New(errs.ErrUnavailable, "referral code space exhausted")

type CodeChecker interface {
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator draws random codes and checks them against the directory.
// The unique constraint on referral_code stays the final arbiter.
type CodeGenerator struct {
	length int
	exists CodeChecker
	rand   io.Reader
}

func NewCodeGenerator(length int, exists CodeChecker) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLen
	}

	return &CodeGenerator{length: length, exists: exists, rand: rand.Reader}
}

// Generate tries 10 candidates at the configured length, then 10 more two
// characters longer.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for _, length := range []int{g.length, g.length + widenBy} {
		for range attemptsPerRound {
			code, err := g.candidate(length)
			if err != nil {
				return "", err
			}

			taken, err := g.exists.ReferralCodeExists(ctx, code)
			if err != nil {
				return "", fmt.Errorf("check referral code: %w", err)
			}

			if !taken {
				return code, nil
			}
		}
	}

	return "", ErrCodeSpaceExhausted
}

func (g *CodeGenerator) candidate(length int) (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)

	for i := range buf {
		n, err := rand.Int(g.rand, base)
		if err != nil {
			return "", fmt.Errorf("draw referral code: %w", err)
		}

		buf[i] = codeAlphabet[n.Int64()]
	}

	return string(buf), nil
}
