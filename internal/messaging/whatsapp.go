// Package messaging builds the WhatsApp handoff for urgent requests.
package messaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
	"github.com/imrishuroy/printeasy-orderflow/internal/pricing"
)

// BaseURL is the click-to-chat endpoint.
const BaseURL = "https://wa.me/"

// Link builds https://wa.me/<number>?text=<encoded text>. Spaces encode as %20.
func Link(number, text string) string {
	number = strings.TrimPrefix(strings.TrimSpace(number), "+")
	return BaseURL + number + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Rupees formats an amount for the message body. Stored prices are kept
// unrounded; rounding to paise happens here.
func Rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", pricing.Round2(v))
}

// UrgentMessage renders the text the shop receives for an urgent request.
func UrgentMessage(phone, screenshotLink string, docs []orders.Document, total float64) string {
	var b strings.Builder
	b.WriteString("New Urgent Print Request\n")
	fmt.Fprintf(&b, "Phone: %s\n", phone)
	fmt.Fprintf(&b, "Payment Proof Link: %s\n", screenshotLink)
	b.WriteString("Payment Status: Paid (Screenshot Uploaded)\n")

	for i, d := range docs {
		fmt.Fprintf(&b, "--- Document %d ---\n", i+1)
		fmt.Fprintf(&b, "Document Link: %s\n", d.DocLink)
		fmt.Fprintf(&b, "Pages: %d\n", d.Pages)
		fmt.Fprintf(&b, "Copies: %d\n", d.Copies)
		fmt.Fprintf(&b, "Mode: %s\n", mode(d.IsColor))
		fmt.Fprintf(&b, "Layout: %s\n", d.Layout)
		fmt.Fprintf(&b, "Pages per Sheet: %s\n", d.PagesPerSheet)
		fmt.Fprintf(&b, "Page Selection: %s\n", selection(d))
		fmt.Fprintf(&b, "Price: %s\n", Rupees(d.Price))
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "Total Price: %s\n", Rupees(total))
	b.WriteString("Please confirm the order details.")
	return b.String()
}

func mode(color bool) string {
	if color {
		return "Color"
	}
	return "Black & White"
}

func selection(d orders.Document) string {
	if d.PageSelection == orders.CustomPages {
		return fmt.Sprintf("%s (%s)", orders.CustomPages, d.CustomPages)
	}
	return orders.AllPages
}
