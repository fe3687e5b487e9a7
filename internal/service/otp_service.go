package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/store"
	"github.com/noah-isme/perfume-store-api/pkg/config"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

const otpKeyPrefix = "otp:"

// OTPService issues and verifies phone verification codes. Delivery is
// simulated: the code is logged instead of sent over SMS.
type OTPService struct {
	kv     store.KV
	cfg    config.OTPConfig
	logger *zap.Logger
}

// NewOTPService creates an instance of OTPService.
func NewOTPService(kv store.KV, cfg config.OTPConfig, logger *zap.Logger) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	return &OTPService{kv: kv, cfg: cfg, logger: logger}
}

// Send issues a fresh code for the phone number. Re-sending replaces the
// previous code and restarts the TTL. The code is returned so development
// builds can surface it in the response.
func (s *OTPService) Send(ctx context.Context, phone string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}

	if err := s.kv.SetWithTTL(ctx, otpKeyPrefix+phone, code, s.cfg.TTL); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to store verification code")
	}

	// SMS delivery simulation.
	s.logger.Info("verification code issued",
		zap.String("phone", phone),
		zap.String("code", code),
		zap.Duration("ttl", s.cfg.TTL))

	return code, nil
}

// Verify checks the presented code and consumes it on success.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.kv.Get(ctx, otpKeyPrefix+phone)
	if err != nil {
		if errors.Is(err, store.ErrKVMiss) {
			return appErrors.Clone(appErrors.ErrOTPExpired, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up verification code")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return appErrors.Clone(appErrors.ErrOTPInvalid, "")
	}

	if err := s.kv.Delete(ctx, otpKeyPrefix+phone); err != nil {
		s.logger.Warn("failed to consume verification code",
			zap.String("phone", phone), zap.Error(err))
	}
	return nil
}

// generate produces a zero-padded numeric code of the configured width.
func (s *OTPService) generate() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.cfg.Digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.cfg.Digits, n), nil
}
