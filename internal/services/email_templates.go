package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/reset-corp/reset-backend/internal/models"
)

// ContactBody renders the admin notification for a contact form submission.
func ContactBody(name, email, message string) string {
	var b strings.Builder
	b.WriteString("<h2>New contact request</h2>")
	fmt.Fprintf(&b, "<p><b>Name:</b> %s</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p><b>Email:</b> %s</p>", html.EscapeString(email))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(message))
	return b.String()
}

// QuoteBody renders the admin notification for a quote request.
func QuoteBody(name, email, phone, service, details string) string {
	var b strings.Builder
	b.WriteString("<h2>New quote request</h2>")
	fmt.Fprintf(&b, "<p><b>Name:</b> %s</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p><b>Email:</b> %s</p>", html.EscapeString(email))
	fmt.Fprintf(&b, "<p><b>Phone:</b> %s</p>", html.EscapeString(phone))
	fmt.Fprintf(&b, "<p><b>Service:</b> %s</p>", html.EscapeString(service))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(details))
	return b.String()
}

// OrderConfirmationBody renders the customer's order confirmation.
func OrderConfirmationBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order, %s</h2>", html.EscapeString(order.BillingAddress.FullName))
	fmt.Fprintf(&b, "<p>Order number: <b>%s</b></p>", html.EscapeString(order.OrderNumber))
	b.WriteString("<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%.2f</td></tr>",
			html.EscapeString(item.Name), item.Quantity, item.Price)
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><b>Total: %.2f</b></p>", order.TotalAmount)
	b.WriteString("<p>We will let you know when your order is ready for pickup.</p>")
	return b.String()
}

// OrderStatusBody renders the customer's status-update notification.
func OrderStatusBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order %s</h2>", html.EscapeString(order.OrderNumber))
	fmt.Fprintf(&b, "<p>Your order status is now: <b>%s</b></p>", html.EscapeString(statusLabel(order.Status)))
	return b.String()
}

func statusLabel(status string) string {
	switch status {
	case models.OrderStatusReadyForPickup:
		return "ready for pickup"
	default:
		return status
	}
}
