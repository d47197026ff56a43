package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fygaro-bridge/internal/logger"
	"fygaro-bridge/internal/metrics"

	"go.uber.org/zap"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	maxResponseBytes  = 1 << 20
)

var numericID = regexp.MustCompile(`^[0-9]+$`)

// ShopifyClient implements Service against the Shopify Admin API.
type ShopifyClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewShopifyClient(storeHost, token, apiVersion string, timeout time.Duration) *ShopifyClient {
	if token == "" {
		logger.L().Warn("Shopify access token is empty")
	}

	return &ShopifyClient{
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", strings.TrimSuffix(storeHost, "/"), apiVersion),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ----------------- CreateOrder -----------------

type shopifyOrder struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TotalPrice string `json:"total_price"`
	Currency   string `json:"currency"`
}

func (c *ShopifyClient) CreateOrder(ctx context.Context, items []LineItem, customerRef string) (*Order, error) {
	if err := ValidateLineItems(items); err != nil {
		return nil, err
	}

	order := map[string]interface{}{
		"line_items":       items,
		"financial_status": FinancialStatusPending,
	}
	if customerRef != "" {
		id, err := strconv.ParseInt(customerRef, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCustomer, customerRef)
		}
		order["customer"] = map[string]int64{"id": id}
	}

	var res struct {
		Order shopifyOrder `json:"order"`
	}
	err := c.do(ctx, "create_order", http.MethodPost, "/orders.json", map[string]interface{}{"order": order}, &res)
	if err != nil {
		return nil, err
	}
	if res.Order.ID == 0 {
		return nil, &UpstreamError{Op: "create_order", StatusCode: http.StatusOK, Err: errors.New("response has no order id")}
	}

	return &Order{
		Reference:   strconv.FormatInt(res.Order.ID, 10),
		Name:        res.Order.Name,
		TotalAmount: res.Order.TotalPrice,
		Currency:    res.Order.Currency,
	}, nil
}

// ----------------- RecordTransaction -----------------

func (c *ShopifyClient) RecordTransaction(ctx context.Context, reference string, kind TransactionKind, status TransactionStatus, amount string) error {
	if !numericID.MatchString(reference) {
		return ErrOrderNotFound
	}

	body := map[string]interface{}{
		"transaction": map[string]string{
			"kind":   string(kind),
			"status": string(status),
			"amount": amount,
		},
	}
	return c.do(ctx, "record_transaction", http.MethodPost, "/orders/"+reference+"/transactions.json", body, nil)
}

// ----------------- SetFinancialStatus -----------------

func (c *ShopifyClient) SetFinancialStatus(ctx context.Context, reference string, status FinancialStatus) error {
	if !numericID.MatchString(reference) {
		return ErrOrderNotFound
	}

	id, _ := strconv.ParseInt(reference, 10, 64)
	body := map[string]interface{}{
		"order": map[string]interface{}{
			"id":               id,
			"financial_status": status,
		},
	}
	return c.do(ctx, "set_financial_status", http.MethodPut, "/orders/"+reference+".json", body, nil)
}

// ----------------- StatusPageURL -----------------

func (c *ShopifyClient) StatusPageURL(ctx context.Context, reference string) (string, error) {
	if !numericID.MatchString(reference) {
		return "", ErrOrderNotFound
	}

	body := map[string]interface{}{
		"query":         statusPageQuery,
		"operationName": statusPageOperation,
		"variables":     map[string]string{"id": orderGID(reference)},
	}

	var res struct {
		Data struct {
			Order *struct {
				StatusPageURL string `json:"statusPageUrl"`
			} `json:"order"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.do(ctx, "status_page_url", http.MethodPost, "/graphql.json", body, &res); err != nil {
		return "", err
	}

	if len(res.Errors) > 0 {
		return "", &UpstreamError{Op: "status_page_url", StatusCode: http.StatusOK, Err: errors.New(res.Errors[0].Message)}
	}
	if res.Data.Order == nil || res.Data.Order.StatusPageURL == "" {
		return "", ErrOrderNotFound
	}
	return res.Data.Order.StatusPageURL, nil
}

// ----------------- transport -----------------

func (c *ShopifyClient) do(ctx context.Context, op, method, path string, in, out interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.OrderServiceCall(op, err, start) }()

	log := logger.FromCtx(ctx).With(zap.String("op", op), zap.String("path", path))

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Order Service request failed", zap.Error(err))
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Error("Failed to read Order Service response", zap.Error(err))
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Warn("Order not found", zap.Int("status", resp.StatusCode))
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: ErrOrderNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Error("Order Service returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		log.Error("Failed decoding Order Service response", zap.Error(err))
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
