package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

const (
	verifyCodePrefix    = "clubdev:verify:email:"
	emailCooldownPrefix = "clubdev:cooldown:email:"
)

type storedCode struct {
	code      string
	expiresAt time.Time
}

var (
	verifyCodes   = map[string]storedCode{}
	verifyCodesMu sync.Mutex
)

// GenerateVerificationCode returns an n-digit numeric code.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

// SaveCode stores a verification code for an email address with a TTL.
func SaveCode(email, code string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := GetRedis().Set(ctx, verifyCodePrefix+email, code, ttl).Err(); err == nil {
		return
	}
	verifyCodesMu.Lock()
	verifyCodes[email] = storedCode{code: code, expiresAt: time.Now().Add(ttl)}
	verifyCodesMu.Unlock()
}

// VerifyAndConsumeCode checks the code for an email and consumes it on a
// match attempt, so a code cannot be brute-forced across requests.
func VerifyAndConsumeCode(email, code string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if val, err := GetRedis().GetDel(ctx, verifyCodePrefix+email).Result(); err == nil {
		return val == code
	}

	verifyCodesMu.Lock()
	defer verifyCodesMu.Unlock()
	entry, ok := verifyCodes[email]
	if !ok {
		return false
	}
	delete(verifyCodes, email)
	return time.Now().Before(entry.expiresAt) && entry.code == code
}

// EmailCooldownTrySet claims the send slot for an email address. It returns
// false while a previous send is still cooling down.
func EmailCooldownTrySet(email string, cooldown time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ok, err := GetRedis().SetNX(ctx, emailCooldownPrefix+email, "1", cooldown).Result()
	if err == nil {
		return ok
	}

	verifyCodesMu.Lock()
	defer verifyCodesMu.Unlock()
	key := "cooldown:" + email
	if entry, held := verifyCodes[key]; held && time.Now().Before(entry.expiresAt) {
		return false
	}
	verifyCodes[key] = storedCode{expiresAt: time.Now().Add(cooldown)}
	return true
}
