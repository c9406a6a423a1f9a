// Package validate implements the typed input validators used by
// input-capture nodes. Validators are pure functions over the raw reply
// text: no network, no clock, no state.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// Error describes a rejected input. The interpreter recovers from it locally
// with a retry prompt; it is never surfaced to the caller of Handle.
type Error struct {
	Kind   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Kind, e.Reason)
}

// RFC-lite: something, an @, a domain with at least one dot. Full RFC 5322
// grammar buys nothing for chat-captured addresses.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "+", "")

// Validate checks raw against the given validation kind and returns the
// normalized value on success. Unknown kinds are rejected at flow-compile
// time, so they are a programming error here.
func Validate(kind, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	switch kind {
	case domain.ValidationText:
		return trimmed, nil

	case domain.ValidationEmail:
		candidate := strings.ToLower(trimmed)
		if !emailPattern.MatchString(candidate) {
			return "", &Error{Kind: kind, Reason: "not a valid email address"}
		}
		return candidate, nil

	case domain.ValidationPhone:
		digits := phoneSeparators.Replace(trimmed)
		for _, r := range digits {
			if r < '0' || r > '9' {
				return "", &Error{Kind: kind, Reason: "contains non-numeric characters"}
			}
		}
		if len(digits) < 8 || len(digits) > 15 {
			return "", &Error{Kind: kind, Reason: "must have between 8 and 15 digits"}
		}
		return digits, nil

	case domain.ValidationNumber:
		// Accept both decimal separators; replies come from pt-BR keyboards.
		candidate := strings.ReplaceAll(trimmed, ",", ".")
		if _, err := strconv.ParseFloat(candidate, 64); err != nil {
			return "", &Error{Kind: kind, Reason: "not a number"}
		}
		return candidate, nil

	case domain.ValidationDocumentID:
		return validateCPF(trimmed)

	default:
		return "", fmt.Errorf("unknown validation kind %q", kind)
	}
}

// validateCPF checks the Brazilian CPF format: 11 digits where the last two
// are check digits computed over the first nine.
func validateCPF(raw string) (string, error) {
	var digits []int
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-' || r == ' ':
			// Formatting commonly typed as 000.000.000-00.
		default:
			return "", &Error{Kind: domain.ValidationDocumentID, Reason: "contains invalid characters"}
		}
	}
	if len(digits) != 11 {
		return "", &Error{Kind: domain.ValidationDocumentID, Reason: "must have 11 digits"}
	}

	// Repdigit sequences (000... through 999...) pass the checksum but are
	// not valid documents.
	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return "", &Error{Kind: domain.ValidationDocumentID, Reason: "checksum failure"}
	}

	if cpfCheckDigit(digits, 9) != digits[9] || cpfCheckDigit(digits, 10) != digits[10] {
		return "", &Error{Kind: domain.ValidationDocumentID, Reason: "checksum failure"}
	}

	var sb strings.Builder
	for _, d := range digits {
		sb.WriteByte(byte('0' + d))
	}
	return sb.String(), nil
}

// cpfCheckDigit computes the check digit over the first n positions, with
// weights n+1 down to 2.
func cpfCheckDigit(digits []int, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += digits[i] * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
