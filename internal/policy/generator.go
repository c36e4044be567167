package policy

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	digitChars     = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	similarChars   = "il1Lo0O"

	// MinGeneratedLength and MaxGeneratedLength bound generator requests.
	MinGeneratedLength = 4
	MaxGeneratedLength = 128
)

// GeneratorOptions selects the character classes for a generated password.
type GeneratorOptions struct {
	Length         int
	Uppercase      bool
	Lowercase      bool
	Digits         bool
	Symbols        bool
	ExcludeSimilar bool
}

// DefaultGeneratorOptions is a 16-character password from all classes.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Length:    16,
		Uppercase: true,
		Lowercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// Generate produces a random password from the selected classes, drawing
// from crypto/rand. Every selected class contributes at least one character.
func Generate(opts GeneratorOptions) (string, error) {
	if opts.Length < MinGeneratedLength || opts.Length > MaxGeneratedLength {
		return "", apperr.E(apperr.KindValidation, "password length must be between 4 and 128")
	}

	var classes []string
	if opts.Uppercase {
		classes = append(classes, uppercaseChars)
	}
	if opts.Lowercase {
		classes = append(classes, lowercaseChars)
	}
	if opts.Digits {
		classes = append(classes, digitChars)
	}
	if opts.Symbols {
		classes = append(classes, symbolChars)
	}
	if len(classes) == 0 {
		return "", apperr.E(apperr.KindValidation, "at least one character type must be selected")
	}

	if opts.ExcludeSimilar {
		for i, class := range classes {
			classes[i] = stripSimilar(class)
		}
	}

	charset := strings.Join(classes, "")
	out := make([]byte, opts.Length)
	for i := range out {
		c, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Overwrite a random position for each unrepresented class, repeating
	// until every selected class appears: a repair can evict the only
	// character of another class, so one pass is not enough.
	for {
		repaired := false
		for _, class := range classes {
			if strings.ContainsAny(string(out), class) {
				continue
			}
			pos, err := randomIndex(len(out))
			if err != nil {
				return "", err
			}
			c, err := randomChar(class)
			if err != nil {
				return "", err
			}
			out[pos] = c
			repaired = true
		}
		if !repaired {
			return string(out), nil
		}
	}
}

func stripSimilar(charset string) string {
	var b strings.Builder
	for _, r := range charset {
		if !strings.ContainsRune(similarChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomChar(charset string) (byte, error) {
	i, err := randomIndex(len(charset))
	if err != nil {
		return 0, err
	}
	return charset[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random source: %w", err)
	}
	return int(v.Int64()), nil
}
