package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Outbound email templates. Plain text on purpose — supplier mail systems
// range from Exchange to decades-old ticketing bridges.

func rfqSubject(spec string) string {
	if len(spec) > 50 {
		return "RFQ: " + spec[:50] + "..."
	}
	return "RFQ: " + spec
}

func rfqBody(spec string) string {
	return fmt.Sprintf(`Dear Supplier,

We are interested in obtaining a quote for the following specification:

%s

Please provide:
- Unit price and currency
- Minimum order quantity
- Lead time for delivery
- Any additional terms or conditions

We look forward to your competitive quote.

Best regards,
Procurement Team

---
This is an automated RFQ. Please reply with your quote details.
`, spec)
}

func counterSubject(spec string) string {
	if len(spec) > 50 {
		return "Re: RFQ: " + spec[:50] + "..."
	}
	return "Re: RFQ: " + spec
}

func counterBody(spec string, currency string, counterPrice decimal.Decimal) string {
	return fmt.Sprintf(`Dear Supplier,

Thank you for your quote for:

%s

Your offer is above our current budget for this purchase. We would be able
to proceed at a unit price of %s%s. Could you match this price?

We look forward to your response.

Best regards,
Procurement Team
`, spec, currency, counterPrice.StringFixed(2))
}

func purchaseOrderSubject(poNumber string) string {
	return "Purchase Order " + poNumber
}

func purchaseOrderBody(poNumber, spec string, currency string, price decimal.Decimal) string {
	return fmt.Sprintf(`Dear Supplier,

We are pleased to accept your quote for:

%s

Please find our purchase order %s attached, confirming the agreed unit
price of %s%s. Reference the PO number on all correspondence and shipping
documents.

Best regards,
Procurement Team
`, spec, poNumber, currency, price.StringFixed(2))
}
