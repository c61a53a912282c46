// Package password generates, hashes and verifies account passwords.
//
// Two stored formats coexist: bcrypt hashes written by this package and
// unsalted SHA-256 hex digests left over from the previous system. Verify
// accepts both and reports which one matched so callers can rehash legacy
// values after a successful login.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the bcrypt input limit. Longer inputs are truncated, not rejected.
const MaxLength = 72

const DefaultLength = 12

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_"

const legacyLength = 64

type HashFormat int

const (
	FormatModern HashFormat = iota
	FormatLegacy
)

func (f HashFormat) String() string {
	if f == FormatLegacy {
		return "legacy-sha256"
	}
	return "bcrypt"
}

// Classify reports the format of a stored hash. A value is legacy iff it is
// exactly 64 lowercase hex characters; anything else is handed to bcrypt.
func Classify(stored string) HashFormat {
	if len(stored) != legacyLength {
		return FormatModern
	}
	for i := 0; i < len(stored); i++ {
		c := stored[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return FormatModern
		}
	}
	return FormatLegacy
}

func IsLegacyFormat(stored string) bool {
	return Classify(stored) == FormatLegacy
}

type VerifyOutcome int

const (
	NoMatch VerifyOutcome = iota
	Match
	LegacyMatch
)

func (o VerifyOutcome) Matched() bool {
	return o != NoMatch
}

type Codec struct {
	cost   int
	random io.Reader

	dummyOnce sync.Once
	dummy     string
}

// NewCodec returns a codec hashing with the given bcrypt cost. Out of range
// costs fall back to bcrypt.DefaultCost.
func NewCodec(cost int) *Codec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Codec{cost: cost, random: rand.Reader}
}

func (c *Codec) Cost() int {
	return c.cost
}

// Generate returns a random password of the given length drawn from letters,
// digits and a fixed punctuation set. A non-positive length uses DefaultLength.
func (c *Codec) Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	max := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(c.random, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

func (c *Codec) Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(truncate(plaintext), c.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify never returns an error: unreadable hashes and internal failures are
// a NoMatch.
func (c *Codec) Verify(plaintext, stored string) (outcome VerifyOutcome) {
	if strings.TrimSpace(stored) == "" {
		return NoMatch
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("component", "Verify").Msg("password verification failed")
			outcome = NoMatch
		}
	}()

	if Classify(stored) == FormatLegacy {
		if subtle.ConstantTimeCompare([]byte(LegacyDigest(plaintext)), []byte(stored)) == 1 {
			return LegacyMatch
		}
		return NoMatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(stored), truncate(plaintext))
	if err == nil {
		return Match
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		log.Warn().Err(err).Str("component", "Verify").Msg("stored hash is not a readable bcrypt hash")
	}
	return NoMatch
}

// VerifyDummy spends the same bcrypt work as a real verification. Used when
// no account matched so that lookup misses and bad passwords take equally long.
func (c *Codec) VerifyDummy(plaintext string) {
	c.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("dummy-password-never-matches"), c.cost)
		if err == nil {
			c.dummy = string(h)
		}
	})
	if c.dummy == "" {
		return
	}
	_ = bcrypt.CompareHashAndPassword([]byte(c.dummy), truncate(plaintext))
}

// LegacyDigest returns the hex SHA-256 digest the previous system stored.
func LegacyDigest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func truncate(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > MaxLength {
		b = b[:MaxLength]
	}
	return b
}
