package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/perfume-store-api/pkg/config"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

func otpTestConfig() config.OTPConfig {
	return config.OTPConfig{Digits: 6, TTL: 5 * time.Minute}
}

func TestOTPServiceSendAndVerify(t *testing.T) {
	kv := newMockKV()
	svc := NewOTPService(kv, otpTestConfig(), nil)

	code, err := svc.Send(context.Background(), "+1 555 0100")
	require.NoError(t, err)
	require.Len(t, code, 6, "code is zero-padded to the configured width")

	require.NoError(t, svc.Verify(context.Background(), "+1 555 0100", code))

	err = svc.Verify(context.Background(), "+1 555 0100", code)
	require.Error(t, err, "codes are single use")
	assert.Equal(t, appErrors.ErrOTPExpired.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceVerifyWrongCode(t *testing.T) {
	kv := newMockKV()
	svc := NewOTPService(kv, otpTestConfig(), nil)

	_, err := svc.Send(context.Background(), "+1 555 0100")
	require.NoError(t, err)

	err = svc.Verify(context.Background(), "+1 555 0100", "000000x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPInvalid.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceVerifyUnknownPhone(t *testing.T) {
	svc := NewOTPService(newMockKV(), otpTestConfig(), nil)

	err := svc.Verify(context.Background(), "+1 555 9999", "123456")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPExpired.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceResendReplacesCode(t *testing.T) {
	kv := newMockKV()
	svc := NewOTPService(kv, otpTestConfig(), nil)

	first, err := svc.Send(context.Background(), "+1 555 0100")
	require.NoError(t, err)
	second, err := svc.Send(context.Background(), "+1 555 0100")
	require.NoError(t, err)

	if first != second {
		err = svc.Verify(context.Background(), "+1 555 0100", first)
		require.Error(t, err, "replaced code no longer verifies")
	}
	require.NoError(t, svc.Verify(context.Background(), "+1 555 0100", second))
}
