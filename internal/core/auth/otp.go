package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// One-time codes are TOTP-derived rather than stored: each user holds a
// per-purpose secret, the mailed 6-digit code is the current TOTP value over
// a 10-minute period, and validation accepts one period of skew. Nothing
// secret-equivalent to the code itself ever lands in the database.
const otpPeriod = 600 // seconds

var otpOpts = totp.ValidateOpts{
	Period:    otpPeriod,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// NewOTPSecret mints a fresh secret for one purpose (account verification or
// password reset) bound to the user's email.
func NewOTPSecret(email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "CodeSeed",
		AccountName: email,
		Period:      otpPeriod,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp secret: %w", err)
	}
	return key.Secret(), nil
}

// OTPCode returns the 6-digit code currently valid for the secret.
func OTPCode(secret string, now time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, now, otpOpts)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return code, nil
}

// ValidateOTP reports whether the code is valid for the secret at the given
// time.
func ValidateOTP(code, secret string, now time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now, otpOpts)
	return err == nil && ok
}
