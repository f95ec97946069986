package security

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPService_GenerateSecret(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	secret, url, err := svc.GenerateSecret("astudent", "")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(url, "otpauth://totp/"))
	assert.Contains(t, url, "Assignment%20Portal")
	assert.Contains(t, url, "astudent")
}

func TestTOTPService_GenerateSecret_IssuerOverride(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	_, url, err := svc.GenerateSecret("astudent", "CS Department")
	require.NoError(t, err)
	assert.Contains(t, url, "CS%20Department")
	assert.NotContains(t, url, "Assignment%20Portal")
}

func TestTOTPService_GenerateSecret_Invalid(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	_, _, err := svc.GenerateSecret("", "")
	assert.Error(t, err)

	_, _, err = svc.GenerateSecret("a:b", "")
	assert.Error(t, err, "the otpauth label format reserves the colon")
}

func TestTOTPService_ValidateCode(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	secret, _, err := svc.GenerateSecret("astudent", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	valid, err := svc.ValidateCode(secret, code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestTOTPService_ValidateCode_WithinSkew(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	secret, _, err := svc.GenerateSecret("astudent", "")
	require.NoError(t, err)

	// A code from the previous period is accepted; the skew is one period.
	code, err := totp.GenerateCode(secret, time.Now().UTC().Add(-30*time.Second))
	require.NoError(t, err)

	valid, err := svc.ValidateCode(secret, code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestTOTPService_ValidateCode_Wrong(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	secret, _, err := svc.GenerateSecret("astudent", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	// Flip one digit.
	wrong := []byte(code)
	if wrong[0] == '0' {
		wrong[0] = '1'
	} else {
		wrong[0] = '0'
	}

	valid, err := svc.ValidateCode(secret, string(wrong))
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestTOTPService_ValidateCode_BadShape(t *testing.T) {
	svc := NewTOTPService("Assignment Portal")

	secret, _, err := svc.GenerateSecret("astudent", "")
	require.NoError(t, err)

	// Wrong length is a wrong code, not an internal error.
	valid, err := svc.ValidateCode(secret, "12345")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = svc.ValidateCode("", "123456")
	assert.Error(t, err)
}
