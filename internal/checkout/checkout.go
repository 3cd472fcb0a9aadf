// Package checkout turns a cart selection into a provider charge.
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"secondhand/internal/cart"
	"secondhand/internal/commerce"
	"secondhand/internal/domain"
)

const (
	ChargeName = "Secondhand Store Purchase"
	Currency   = "USD"

	MinimumOrderMessage = "Minimum order amount is $0.001 USD"
)

// MinimumOrder is the smallest total the provider accepts.
var MinimumOrder = decimal.RequireFromString("0.001")

var (
	ErrMinimumOrder   = errors.New("checkout: total below minimum order amount")
	ErrBadDescription = errors.New("checkout: malformed charge description")
)

// Select returns the lines whose product id is in selected, in cart order.
// An empty selection selects every line.
func Select(lines []cart.Line, selected []string) []cart.Line {
	if len(selected) == 0 {
		return lines
	}
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	out := make([]cart.Line, 0, len(selected))
	for _, l := range lines {
		if want[l.ProductID] {
			out = append(out, l)
		}
	}
	return out
}

// Total sums price times quantity over the selected lines.
func Total(lines []cart.Line, selected []string) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range Select(lines, selected) {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Description renders lines as "id(qty)" tokens joined by commas.
func Description(lines []cart.Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s(%d)", l.ProductID, l.Quantity))
	}
	return strings.Join(parts, ",")
}

var token = regexp.MustCompile(`^(.+)\((\d+)\)$`)

// ParseDescription reverses Description. Unit prices are left zero.
func ParseDescription(s string) ([]domain.ChargeLine, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []domain.ChargeLine
	for _, part := range strings.Split(s, ",") {
		m := token.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrBadDescription, part)
		}
		qty, err := strconv.Atoi(m[2])
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadDescription, part)
		}
		out = append(out, domain.ChargeLine{ProductID: m[1], Quantity: qty})
	}
	return out, nil
}

// Lines converts cart lines to ledger lines.
func Lines(lines []cart.Line) []domain.ChargeLine {
	out := make([]domain.ChargeLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.ChargeLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.Price})
	}
	return out
}

// BuildChargeRequest checks the floor and builds the request for the given lines.
// It returns ErrMinimumOrder without building anything when the total is too small.
func BuildChargeRequest(sid string, lines []cart.Line, publicURL string) (commerce.ChargeRequest, decimal.Decimal, error) {
	total := Total(lines, nil)
	if total.LessThan(MinimumOrder) {
		return commerce.ChargeRequest{}, total, ErrMinimumOrder
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	items, err := json.Marshal(Lines(lines))
	if err != nil {
		return commerce.ChargeRequest{}, total, err
	}
	base := strings.TrimRight(publicURL, "/")

	return commerce.ChargeRequest{
		Name:        ChargeName,
		Description: Description(lines),
		PricingType: commerce.PricingFixed,
		LocalPrice:  commerce.Money{Amount: total.StringFixed(2), Currency: Currency},
		RedirectURL: base + "/checkout/complete",
		CancelURL:   base + "/checkout/cancel",
		Metadata: map[string]string{
			"products":   strings.Join(ids, ","),
			"session":    sid,
			"line_items": string(items),
		},
	}, total, nil
}
