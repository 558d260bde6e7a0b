// Package mailparse turns raw supplier reply emails into structured offer
// fragments. Extraction is total: malformed input yields a fragment with nil
// fields and the original text as body, never an error.
package mailparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	// A decimal number, optional attached currency symbol, optional comma
	// thousands separators, optional exactly-two decimal digits.
	priceRe = regexp.MustCompile(`([£$€¥¢]?)\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)

	// Standalone currency symbol or 3-letter ISO code.
	currencyRe = regexp.MustCompile(`(?i)([£$€¥¢])|\b(GBP|USD|EUR|JPY|CNY)\b`)

	leadTimeRe = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month)s?`)
)

// Accepted price range. Matches outside it are rejected and scanning continues.
var (
	minPrice = decimal.NewFromFloat(0.01)
	maxPrice = decimal.NewFromInt(1_000_000)
)

// Fragment is the structured result of extracting one reply. Every field that
// may be missing from the text is a pointer; Body always carries the isolated
// plain text (or the original input when isolation failed).
type Fragment struct {
	Price        *decimal.Decimal
	Currency     *string
	LeadTime     *int
	LeadTimeUnit *string // singular: day | week | month
	Body         string
	Subject      string
	FromEmail    string
}

// Extract parses a raw RFC 822 message into a Fragment. Deterministic for
// identical input; never returns an error.
func Extract(raw string) Fragment {
	frag := Fragment{Body: raw}

	env, err := enmime.ReadEnvelope(strings.NewReader(raw))
	if err != nil {
		log.Warn().Err(err).Msg("mailparse: MIME parse failed, using blank-line fallback")
		frag.Body = bodyAfterHeaders(raw)
	} else {
		frag.Subject = env.GetHeader("Subject")
		frag.FromEmail = env.GetHeader("From")
		if text := strings.TrimSpace(env.Text); text != "" {
			frag.Body = env.Text
		} else {
			frag.Body = bodyAfterHeaders(raw)
		}
	}

	frag.Price, frag.Currency = scanPrice(frag.Body)
	frag.LeadTime, frag.LeadTimeUnit = scanLeadTime(frag.Body)
	return frag
}

// bodyAfterHeaders takes everything after the first blank line — the RFC 822
// header/body boundary — as a last-resort body heuristic.
func bodyAfterHeaders(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return raw
}

// scanPrice returns the first in-range price match and its attached currency
// symbol. When the accepted match carries no symbol, the body is scanned
// separately and the first standalone currency indicator wins. Multiple
// prices in one reply are resolved by taking the first qualifying match —
// not the lowest — which is the defined behavior.
func scanPrice(text string) (*decimal.Decimal, *string) {
	var price *decimal.Decimal
	var currency *string

	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		v, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
		if err != nil {
			continue
		}
		if v.LessThan(minPrice) || v.GreaterThan(maxPrice) {
			continue
		}
		price = &v
		if m[1] != "" {
			sym := m[1]
			currency = &sym
		}
		break
	}

	if price != nil && currency == nil {
		if m := currencyRe.FindStringSubmatch(text); m != nil {
			cur := m[1]
			if cur == "" {
				cur = strings.ToUpper(m[2])
			}
			currency = &cur
		}
	}
	return price, currency
}

// scanLeadTime returns the first "<n> day|week|month(s)" match, with the unit
// normalized to its singular lower-case form.
func scanLeadTime(text string) (*int, *string) {
	m := leadTimeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	lead, err := strconv.Atoi(m[1])
	if err != nil || lead < 0 {
		return nil, nil
	}
	unit := strings.ToLower(m[2])
	return &lead, &unit
}
