package signup

import (
	"crypto/rand"
	"math/big"
	"time"
)

// OTPDigits is the length of a verification code.
const OTPDigits = 6

// DefaultOTPTTL is how long a code stays redeemable after issuance.
const DefaultOTPTTL = 5 * time.Minute

// GenerateOTP draws a uniformly random numeric code from crypto/rand and
// pairs it with its expiry instant. Leading zeros are preserved; the code
// is a string and must be compared as one.
func GenerateOTP(ttl time.Duration) (OTPChallenge, error) {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}

	code, err := randomDigits(OTPDigits)
	if err != nil {
		return OTPChallenge{}, err
	}

	return OTPChallenge{
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
