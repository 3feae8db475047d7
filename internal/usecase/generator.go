package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	StrategyRandom = "random"
	StrategyHash   = "hash"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeGenerator produces short code candidates. The attempt number starts at
// zero and grows with every collision reported by the repository.
type CodeGenerator interface {
	Generate(originalURL string, attempt int) (string, error)
}

// RandomGenerator draws codes uniformly from the alphanumeric alphabet.
type RandomGenerator struct {
	length int
}

func NewRandomGenerator(length int) *RandomGenerator {
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate(_ string, _ int) (string, error) {
	const op = "usecase.RandomGenerator.Generate"

	code, err := gonanoid.Generate(alphanumeric, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// HashGenerator derives codes from the SHA-256 digest of the original URL, so
// the first candidate for a given URL is always the same. Later attempts salt
// the URL with the attempt number.
type HashGenerator struct {
	length int
}

func NewHashGenerator(length int) *HashGenerator {
	if length > sha256.Size*2 {
		length = sha256.Size * 2
	}
	return &HashGenerator{length: length}
}

func (g *HashGenerator) Generate(originalURL string, attempt int) (string, error) {
	input := originalURL
	if attempt > 0 {
		input += "#" + strconv.Itoa(attempt)
	}

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:g.length], nil
}

// NewGenerator returns the generator for the given strategy.
func NewGenerator(strategy string, length int) (CodeGenerator, error) {
	const op = "usecase.NewGenerator"

	switch strategy {
	case StrategyRandom, "":
		return NewRandomGenerator(length), nil
	case StrategyHash:
		return NewHashGenerator(length), nil
	default:
		return nil, fmt.Errorf("%s: unknown code strategy %q", op, strategy)
	}
}
