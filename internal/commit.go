package internal

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// CommitMode selects how a (key, token) pair is folded into a commitment.
type CommitMode string

const (
	// CommitSHA256 is sha256(key ++ token), hex encoded.
	CommitSHA256 CommitMode = "sha256"
	// CommitHMAC is HMAC-SHA256(secret, key ++ token), hex encoded.
	CommitHMAC CommitMode = "hmac"
)

// Committer computes and checks commitments. The zero value is not usable;
// build one with NewCommitter.
type Committer struct {
	mode   CommitMode
	secret []byte
}

func NewCommitter(mode CommitMode, secret []byte) (*Committer, error) {
	switch mode {
	case CommitSHA256:
		return &Committer{mode: mode}, nil
	case CommitHMAC:
		if len(secret) == 0 {
			return nil, errors.New("hmac commitment requires a secret")
		}
		s := make([]byte, len(secret))
		copy(s, secret)
		return &Committer{mode: mode, secret: s}, nil
	default:
		return nil, errors.New("unsupported commitment mode")
	}
}

// Commit is pure: equal inputs always yield equal digests.
func (c *Committer) Commit(key, token string) string {
	if c.mode == CommitHMAC {
		return CommitKeyed(c.secret, key, token)
	}
	return Commit(key, token)
}

// Matches recomputes the commitment for (key, token) and compares it to
// presented in constant time.
func (c *Committer) Matches(key, token, presented string) bool {
	expected := c.Commit(key, token)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

func Commit(key, token string) string {
	sum := sha256.Sum256([]byte(key + token))
	return hex.EncodeToString(sum[:])
}

func CommitKeyed(secret []byte, key, token string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(key))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
