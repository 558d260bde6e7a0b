package mailparse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessage(body string) string {
	return "From: Acme Sales <sales@acme.example>\r\n" +
		"To: buyer@quotepilot.example\r\n" +
		"Subject: Re: RFQ: M8 hex bolts\r\n" +
		"Message-Id: <abc123@acme.example>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n"
}

func TestExtract_PriceCurrencyAndLeadTime(t *testing.T) {
	frag := Extract(rawMessage("We can supply these at $25.50 per unit with delivery in 3 weeks."))

	require.NotNil(t, frag.Price)
	assert.True(t, frag.Price.Equal(decimal.RequireFromString("25.50")), "got %s", frag.Price)
	require.NotNil(t, frag.Currency)
	assert.Equal(t, "$", *frag.Currency)
	require.NotNil(t, frag.LeadTime)
	assert.Equal(t, 3, *frag.LeadTime)
	require.NotNil(t, frag.LeadTimeUnit)
	assert.Equal(t, "week", *frag.LeadTimeUnit)
	// The full From header is kept; the watcher normalizes it separately.
	assert.Contains(t, frag.FromEmail, "sales@acme.example")
	assert.Equal(t, "Re: RFQ: M8 hex bolts", frag.Subject)
}

func TestExtract_ISOCurrencyCode(t *testing.T) {
	for _, tc := range []struct {
		body string
		want string
	}{
		{"Price is 120.00 EUR per hundred.", "EUR"},
		{"Quoted at 99.99 usd, FOB Shanghai.", "USD"},
		{"Our best is 45.00 GBP.", "GBP"},
	} {
		frag := Extract(rawMessage(tc.body))
		require.NotNil(t, frag.Price, tc.body)
		require.NotNil(t, frag.Currency, tc.body)
		assert.Equal(t, tc.want, *frag.Currency, tc.body)
	}
}

func TestExtract_AttachedSymbolWinsOverLaterCode(t *testing.T) {
	frag := Extract(rawMessage("£80.00 per unit (prices also available in USD)."))

	require.NotNil(t, frag.Currency)
	assert.Equal(t, "£", *frag.Currency)
}

func TestExtract_CommaThousands(t *testing.T) {
	frag := Extract(rawMessage("Tooling charge is $12,500.00 one-off."))

	require.NotNil(t, frag.Price)
	assert.True(t, frag.Price.Equal(decimal.RequireFromString("12500.00")), "got %s", frag.Price)
}

func TestExtract_FirstInRangeMatchWins(t *testing.T) {
	// Two prices in one reply: the first qualifying match is taken, not the
	// lowest.
	frag := Extract(rawMessage("Standard grade $30.00, premium grade $22.00."))

	require.NotNil(t, frag.Price)
	assert.True(t, frag.Price.Equal(decimal.RequireFromString("30.00")))
}

func TestExtract_OutOfRangePricesSkipped(t *testing.T) {
	// Zero is below the floor; scanning continues to the next match.
	frag := Extract(rawMessage("0 stock issues expected. Unit price is $18.00."))

	require.NotNil(t, frag.Price)
	assert.True(t, frag.Price.Equal(decimal.RequireFromString("18.00")))
}

func TestExtract_LeadTimeVariations(t *testing.T) {
	for _, tc := range []struct {
		body string
		n    int
		unit string
	}{
		{"Ships in 10 days.", 10, "day"},
		{"Lead time: 1 week", 1, "week"},
		{"Allow 2 Months for production.", 2, "month"},
		{"ETA 14days from PO.", 14, "day"},
	} {
		frag := Extract(rawMessage(tc.body))
		require.NotNil(t, frag.LeadTime, tc.body)
		assert.Equal(t, tc.n, *frag.LeadTime, tc.body)
		assert.Equal(t, tc.unit, *frag.LeadTimeUnit, tc.body)
	}
}

func TestExtract_NothingExtractable(t *testing.T) {
	frag := Extract(rawMessage("Thanks for reaching out. We'll get back to you shortly."))

	assert.Nil(t, frag.Price)
	assert.Nil(t, frag.Currency)
	assert.Nil(t, frag.LeadTime)
	assert.Nil(t, frag.LeadTimeUnit)
	assert.NotEmpty(t, frag.Body)
}

func TestExtract_MalformedInputNeverPanics(t *testing.T) {
	for _, raw := range []string{
		"",
		"no headers at all, just text with $5.00",
		"From: broken\n\n$9.99 in 2 weeks",
	} {
		frag := Extract(raw)
		assert.NotNil(t, frag.Body)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	raw := rawMessage("We offer $42.00 with 5 day lead time, or EUR pricing on request.")

	first := Extract(raw)
	for i := 0; i < 10; i++ {
		again := Extract(raw)
		assert.Equal(t, first, again)
	}
}
