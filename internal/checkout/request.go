package checkout

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fygaro-bridge/internal/order"
	"fygaro-bridge/internal/payment"
)

const maxLineItems = 100

// ValidationError is a bad or missing /pay parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PayRequest is one shopper's /pay call. It lives for that request only.
type PayRequest struct {
	Shape       payment.RequestShape
	Items       []order.LineItem
	CustomerRef string
}

// ParsePayRequest accepts either variant_id+quantity or a JSON line_items
// list, plus an optional customer_id.
func ParsePayRequest(q url.Values) (*PayRequest, error) {
	req := &PayRequest{CustomerRef: strings.TrimSpace(q.Get("customer_id"))}
	if req.CustomerRef != "" {
		if id, err := strconv.ParseInt(req.CustomerRef, 10, 64); err != nil || id <= 0 {
			return nil, &ValidationError{Field: "customer_id", Reason: "must be a positive integer"}
		}
	}

	rawList := q.Get("line_items")
	hasSingle := q.Has("variant_id") || q.Has("quantity")

	switch {
	case rawList != "" && hasSingle:
		return nil, &ValidationError{Field: "line_items", Reason: "cannot be combined with variant_id"}
	case rawList != "":
		items, err := parseItemList(rawList)
		if err != nil {
			return nil, err
		}
		req.Shape, req.Items = payment.ShapeItemList, items
	case hasSingle:
		item, err := parseSingleItem(q.Get("variant_id"), q.Get("quantity"))
		if err != nil {
			return nil, err
		}
		req.Shape, req.Items = payment.ShapeSingleItem, []order.LineItem{item}
	default:
		return nil, &ValidationError{Field: "variant_id", Reason: "missing"}
	}

	if err := order.ValidateLineItems(req.Items); err != nil {
		return nil, &ValidationError{Field: "line_items", Reason: err.Error()}
	}
	return req, nil
}

func parseSingleItem(variant, quantity string) (order.LineItem, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(variant), 10, 64)
	if err != nil {
		return order.LineItem{}, &ValidationError{Field: "variant_id", Reason: "must be an integer"}
	}

	qty := 1
	if strings.TrimSpace(quantity) != "" {
		if qty, err = strconv.Atoi(strings.TrimSpace(quantity)); err != nil {
			return order.LineItem{}, &ValidationError{Field: "quantity", Reason: "must be an integer"}
		}
	}
	return order.LineItem{VariantID: id, Quantity: qty}, nil
}

func parseItemList(raw string) ([]order.LineItem, error) {
	var items []order.LineItem
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, &ValidationError{Field: "line_items", Reason: "must be a JSON list of {variant_id, quantity}"}
	}
	if len(items) > maxLineItems {
		return nil, &ValidationError{Field: "line_items", Reason: fmt.Sprintf("at most %d items", maxLineItems)}
	}
	return items, nil
}
