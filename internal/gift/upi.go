package gift

import (
	"net/url"
	"strconv"
	"strings"
)

// FallbackUPIID is used when the recipient has not set a payment id.
const FallbackUPIID = "example@upi"

// Link describes a UPI payment intent.
type Link struct {
	PayeeID   string
	PayeeName string
	Amount    float64
	Note      string
}

// String renders upi://pay?pa=..&pn=..&am=..&cu=INR&tn=.. with every dynamic
// segment percent-encoded. Parameter order is fixed.
func (l Link) String() string {
	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(encode(l.PayeeID))
	b.WriteString("&pn=")
	b.WriteString(encode(l.PayeeName))
	b.WriteString("&am=")
	b.WriteString(encode(FormatAmount(l.Amount)))
	b.WriteString("&cu=INR&tn=")
	b.WriteString(encode(l.Note))
	return b.String()
}

// FormatAmount renders an amount without trailing zeros: 10, 10.5.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// Note is the transaction note shown in the payment app.
func Note(username string) string {
	return "Gift for " + username + "'s post on Smile & Gift"
}

func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
