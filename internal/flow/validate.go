package flow

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

const (
	// SkipSentinel lets users skip optional wizard fields.
	SkipSentinel = "skip"

	dateLayout = "2006-01-02 15:04"

	minTitleLen       = 3
	minDescriptionLen = 10
	maxSymbolLen      = 10

	MinSlippageBps = 1
	MaxSlippageBps = 5000
)

var (
	addressPattern  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	handlePattern   = regexp.MustCompile(`^@\w{2,32}$`)
	numericPattern  = regexp.MustCompile(`^\d{1,19}$`)
	symbolPattern   = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	assetCategories = []string{"art", "music", "gaming", "sports", "access"}
)

// AddressPredicate decides whether a string is a well-formed wallet address
// for the target chain. Injectable so another chain's format can be swapped
// in without touching the flows.
type AddressPredicate func(address string) bool

// DefaultAddressPredicate accepts base58 strings of mainnet key length.
func DefaultAddressPredicate(address string) bool {
	return addressPattern.MatchString(address)
}

// ValidateAddress checks a raw recipient address.
func ValidateAddress(raw string, valid AddressPredicate) (string, error) {
	if valid == nil {
		valid = DefaultAddressPredicate
	}

	address := strings.TrimSpace(raw)
	if !valid(address) {
		return "", apperrors.NewValidationError("That doesn't look like a valid wallet address. Please check it and try again.")
	}

	return address, nil
}

// ValidateIdentity checks a directory identity: an @handle or a numeric id.
func ValidateIdentity(raw string) (string, error) {
	identity := strings.TrimSpace(raw)
	if handlePattern.MatchString(identity) || numericPattern.MatchString(identity) {
		return identity, nil
	}

	return "", apperrors.NewValidationError("Send the recipient as @handle or their numeric id.")
}

// ValidateAmount parses a positive finite amount and checks it against the
// balance cached at entry time. The orchestrator re-checks against a fresh
// balance before execution.
func ValidateAmount(raw string, balance float64) (float64, error) {
	amount, err := wallet.ParseAmount(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperrors.NewValidationError("Enter a positive number, e.g. 1.5")
	}

	if amount > balance {
		return 0, apperrors.NewInsufficientFundsError(
			fmt.Sprintf("Insufficient balance: you have %s available.", wallet.FormatAmount(balance)))
	}

	return amount, nil
}

// ValidateFutureDate parses a date and requires it to be strictly in the
// future.
func ValidateFutureDate(raw string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("Use the format YYYY-MM-DD HH:MM, e.g. 2026-12-31 20:00")
	}

	if !parsed.After(now) {
		return time.Time{}, apperrors.NewValidationError("The date must be in the future.")
	}

	return parsed, nil
}

// ValidateImageURL accepts an absolute http(s) URL or the skip sentinel, in
// which case it returns an empty string.
func ValidateImageURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, SkipSentinel) {
		return "", nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", apperrors.NewValidationError("Send a valid http(s) link to an image, or 'skip'.")
	}

	return trimmed, nil
}

// ValidateCategory requires membership in the fixed category set.
func ValidateCategory(raw string) (string, error) {
	category := strings.ToLower(strings.TrimSpace(raw))
	for _, known := range assetCategories {
		if category == known {
			return category, nil
		}
	}

	return "", apperrors.NewValidationError("Pick one of: " + strings.Join(assetCategories, ", "))
}

// Categories returns the closed category set, for prompt rendering.
func Categories() []string {
	out := make([]string, len(assetCategories))
	copy(out, assetCategories)
	return out
}

// ValidateSlippageBps parses a slippage tolerance in basis points.
func ValidateSlippageBps(raw string) (int, error) {
	bps, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || bps < MinSlippageBps || bps > MaxSlippageBps {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("Slippage must be a whole number of basis points between %d and %d.", MinSlippageBps, MaxSlippageBps))
	}

	return bps, nil
}

// ValidateTitle requires a minimum length after trimming.
func ValidateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if len(title) < minTitleLen {
		return "", apperrors.NewValidationError(fmt.Sprintf("The title needs at least %d characters.", minTitleLen))
	}

	return title, nil
}

// ValidateDescription requires a minimum length after trimming.
func ValidateDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if len(description) < minDescriptionLen {
		return "", apperrors.NewValidationError(fmt.Sprintf("The description needs at least %d characters.", minDescriptionLen))
	}

	return description, nil
}

// ValidateSymbol checks a ticker symbol for a minted asset.
func ValidateSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(symbol) {
		return "", apperrors.NewValidationError(fmt.Sprintf("Symbols are 2-%d uppercase letters or digits.", maxSymbolLen))
	}

	return symbol, nil
}

// ValidateSupply parses a positive whole token supply.
func ValidateSupply(raw string) (uint64, error) {
	supply, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || supply == 0 {
		return 0, apperrors.NewValidationError("Supply must be a positive whole number.")
	}

	return supply, nil
}

// ValidatePrice parses a non-negative ticket price. Zero means a free event.
// ParseFloat accepts "NaN" and "Inf" spellings, so finiteness is checked
// explicitly.
func ValidatePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, apperrors.NewValidationError("Enter a ticket price of 0 or more.")
	}

	return price, nil
}
