package service

import (
	"regexp"
	"strings"
)

// There is no reliable message threading with arbitrary supplier mail
// systems, so replies are correlated by address: the RFQ is sent to a
// deterministic address derived from the supplier's name, and inbound
// senders are matched against the same derivation.

var (
	businessSuffixRe = regexp.MustCompile(`\b(co|ltd|llc|inc|corp|company|solutions?|supply|wholesale)\b`)
	nonAlnumSpaceRe  = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
)

// DeriveAddress maps a supplier display name to its expected reply address.
// Pure and stable: the same name always yields the same address, and no
// input can make it fail. Names that reduce to nothing fall back to the
// literal local part "supplier".
func DeriveAddress(supplierName, domain string) string {
	name := strings.ToLower(supplierName)
	name = businessSuffixRe.ReplaceAllString(name, "")
	name = nonAlnumSpaceRe.ReplaceAllString(name, "")
	name = whitespaceRunRe.ReplaceAllString(strings.TrimSpace(name), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "supplier"
	}
	return name + "@" + domain
}
