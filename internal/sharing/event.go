package sharing

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ShareEvent is one user share action. Events are immutable once created;
// they only ever leave the store through TTL expiry or retention cleanup.
type ShareEvent struct {
	ID           string    `json:"id"`
	ContentKey   string    `json:"contentKey"`
	Platform     string    `json:"platform"`
	Title        string    `json:"title,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	ClientIPHash string    `json:"clientIpHash"`
	UserAgent    string    `json:"userAgent,omitempty"`
	Referrer     string    `json:"referrer,omitempty"`
}

// NewShareEvent builds an event for an inbound share. The raw client IP is
// hashed immediately and never retained.
func NewShareEvent(contentKey, platform, title, clientIP, userAgent, referrer string, ts time.Time) *ShareEvent {
	return &ShareEvent{
		ID:           uuid.NewString(),
		ContentKey:   contentKey,
		Platform:     platform,
		Title:        title,
		Timestamp:    ts.UTC(),
		ClientIPHash: HashClientIP(clientIP),
		UserAgent:    userAgent,
		Referrer:     referrer,
	}
}

// HashClientIP one-way hashes a client IP for dedup identity. Only the hash
// is ever written to the store or the logs.
func HashClientIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}
