package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints and verifies expiring download tokens. A token is
// base64url("jobID|expiryUnix|relPath") plus a hex HMAC-SHA256 of that
// payload, joined with a dot; possession of a valid token is the only
// authorization downloads require.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner builds a signer. A non-positive TTL defaults to 24h.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token binding the job id to the stored file path.
func (s *DownloadSigner) Sign(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("job id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%s|%d|%s", jobID, expiresAt.Unix(), relPath)))
	return payload + "." + s.mac(payload), expiresAt, nil
}

// Verify checks the token's signature and expiry and returns the embedded
// job id and path. Cleanup passes allowExpired to reclaim stale files.
func (s *DownloadSigner) Verify(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	payload, signature, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	if !hmac.Equal([]byte(s.mac(payload)), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return "", "", time.Time{}, fmt.Errorf("malformed token payload")
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid token expiry")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return parts[0], parts[2], expiresAt, nil
}

func (s *DownloadSigner) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
