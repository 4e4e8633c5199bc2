// Package otp issues and delivers one-time login codes.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// Digits is the length of generated codes.
const Digits = 6

const (
	codeMin = 100000
	codeMax = 999999
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Notifier delivers a code to the user out of band.
type Notifier interface {
	Notify(ctx context.Context, username, code string) error
}

// RandomGenerator draws 6-digit codes in [100000, 999999] from crypto/rand.
type RandomGenerator struct{}

var _ Generator = RandomGenerator{}

// Generate returns a fresh code.
func (RandomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// LogNotifier writes the code to the server log. Demo only: anyone with log
// access can complete the second factor.
type LogNotifier struct {
	log *zap.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier constructs a LogNotifier; a nil logger discards codes.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// Notify logs the code at warn level so it stands out from request logs.
func (n *LogNotifier) Notify(_ context.Context, username, code string) error {
	n.log.Warn("one-time code issued (demo delivery)",
		zap.String("username", username),
		zap.String("code", code),
	)
	return nil
}
