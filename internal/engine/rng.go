package engine

import (
	"context"
	"crypto/hmac"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	mathrand "math/rand/v2"
)

const (
	MinCrashMultiplier = 1.00
	MaxCrashMultiplier = 1000000.00
	HouseEdge          = 0.01 // 1%
)

// RandomSource supplies one uniform draw in [0,1) per call. Resolution is a
// pure function of the table and the draw, so swapping sources (crypto,
// seeded test PRNG, committed-seed) never changes resolution semantics.
type RandomSource interface {
	Draw() float64
}

type cryptoSource struct{}

func (cryptoSource) Draw() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return mathrand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

// NewCryptoSource returns the production randomness source backed by
// crypto/rand.
func NewCryptoSource() RandomSource {
	return cryptoSource{}
}

type seededSource struct {
	r *mathrand.Rand
}

// NewSeededSource returns a reproducible source for tests and simulations.
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{r: mathrand.New(mathrand.NewPCG(seed, 0))}
}

func (s *seededSource) Draw() float64 {
	return s.r.Float64()
}

// GenerateSeed creates a cryptographically secure random seed.
func GenerateSeed() string {
	b := make([]byte, 32)
	cryptorand.Read(b)
	return hex.EncodeToString(b)
}

// HashCommitment creates a SHA256 hash of the seed for commitment before play.
func HashCommitment(seed string) string {
	h := sha256.New()
	h.Write([]byte(seed))
	return hex.EncodeToString(h.Sum(nil))
}

// DrawFromSeeds derives a uniform value in [0,1) from the committed server
// seed, the player-supplied client seed and a per-play nonce using
// HMAC-SHA256. Players can re-run this after the server seed is revealed.
func DrawFromSeeds(serverSeed, clientSeed string, nonce int) float64 {
	data := fmt.Sprintf("%s:%d", clientSeed, nonce)
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(data))
	hashHex := hex.EncodeToString(h.Sum(nil))

	// First 16 hex characters (64 bits)
	i := new(big.Int)
	i.SetString(hashHex[:16], 16)

	const maxUint64F = 18446744073709551616.0
	return float64(i.Uint64()) / maxUint64F
}

// VerifyDraw lets players check that a revealed seed pair reproduces the draw
// they were settled against.
func VerifyDraw(serverSeed, clientSeed string, nonce int, claimed float64) bool {
	diff := DrawFromSeeds(serverSeed, clientSeed, nonce) - claimed
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-12
}

// CommittedSource is a RandomSource whose draws are derived from a committed
// server seed. The nonce advances on every draw so repeated plays against one
// commitment stay verifiable.
type CommittedSource struct {
	ServerSeed string
	ClientSeed string
	nonce      int
}

// NewCommittedSource generates a fresh server seed. An empty clientSeed gets a
// server-generated one, matching play without a player-supplied seed.
func NewCommittedSource(clientSeed string) *CommittedSource {
	if clientSeed == "" {
		clientSeed = GenerateSeed()
	}
	return &CommittedSource{
		ServerSeed: GenerateSeed(),
		ClientSeed: clientSeed,
	}
}

// Commitment returns the hash published before any draw.
func (c *CommittedSource) Commitment() string {
	return HashCommitment(c.ServerSeed)
}

// Nonce returns the number of draws taken so far.
func (c *CommittedSource) Nonce() int {
	return c.nonce
}

func (c *CommittedSource) Draw() float64 {
	c.nonce++
	return DrawFromSeeds(c.ServerSeed, c.ClientSeed, c.nonce)
}

// CrashPoint maps a uniform draw to a crash multiplier with a 1% house edge
// using an exponential distribution, clamped to [1.00, 1000000.00].
func CrashPoint(draw float64) float64 {
	if draw < HouseEdge {
		return MinCrashMultiplier
	}

	crashValue := (100.0 - HouseEdge*100) / (100.0 - draw*100.0)

	// Round down to 2 decimal places
	m := float64(int(crashValue*100)) / 100.0

	if m < MinCrashMultiplier {
		return MinCrashMultiplier
	}
	if m > MaxCrashMultiplier {
		return MaxCrashMultiplier
	}
	return m
}

// DrawWithTimeout waits for an asynchronous oracle (e.g. a VRF callback) to
// deliver a draw. A stuck oracle surfaces as ErrOracleTimeout for the caller
// to cancel/refund manually; it is never retried here because a retry changes
// the odds.
func DrawWithTimeout(ctx context.Context, draws <-chan float64) (float64, error) {
	select {
	case d := <-draws:
		return d, nil
	case <-ctx.Done():
		return 0, ErrOracleTimeout
	}
}
