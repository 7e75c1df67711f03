// Package wa builds WhatsApp deep links and the human readable order and
// booking summaries a business owner receives on their phone.
package wa

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/waconnect/backend/internal/pricing"
)

// Link builds a https://wa.me/ deep link. Everything except digits is stripped
// from the phone number. An empty message yields a bare chat link without the
// text parameter.
func Link(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	link := "https://wa.me/" + digits.String()
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}

// OrderMessage formats the itemized order summary. Amounts that the customer
// typed or that come straight from the catalog keep their natural form; tax and
// total are shown with two decimals because they are computed.
func OrderMessage(customerName string, lines []pricing.Line, totals pricing.Totals, phone, address string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order from %s:\n\n", customerName)
	for _, l := range lines {
		fmt.Fprintf(&b, "%dx %s", l.Qty, l.Name)
		if l.Size != "" {
			fmt.Fprintf(&b, " (Size: %s)", l.Size)
		}
		if l.Color != "" {
			fmt.Fprintf(&b, " (Color: %s)", l.Color)
		}
		fmt.Fprintf(&b, " - ₹%s\n", amount(l.UnitPrice))
	}
	fmt.Fprintf(&b, "\nSubtotal: ₹%s\n", amount(totals.Subtotal))
	fmt.Fprintf(&b, "Tax: ₹%.2f\n", totals.Tax)
	fmt.Fprintf(&b, "Delivery: ₹%s\n", amount(totals.Delivery))
	fmt.Fprintf(&b, "Total: ₹%.2f\n", totals.Total)
	fmt.Fprintf(&b, "\nPhone: %s\nAddress: %s", phone, address)
	return b.String()
}

// BookingMessage formats the one line booking notification.
func BookingMessage(customerName, serviceType, date, timeSlot string) string {
	return fmt.Sprintf("New booking request from %s for %s on %s at %s",
		customerName, serviceType, date, timeSlot)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
