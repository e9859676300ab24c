// Package longbridge is a read-only client for the Longbridge OpenAPI. It
// fetches historical filled orders for import; nothing here places trades.
package longbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rychen/capgains/id"
	"github.com/rychen/capgains/trade"
)

// DefaultBaseURL is the production OpenAPI endpoint.
const DefaultBaseURL = "https://openapi.longbridgeapp.com"

// chunkDays keeps each history request inside the API's 90-day window.
const chunkDays = 89

// Client is a Longbridge OpenAPI client restricted to read operations.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	appKey      string
	appSecret   string
	accessToken string
}

func NewClient(appKey, appSecret, accessToken string) *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		appKey:      appKey,
		appSecret:   appSecret,
		accessToken: accessToken,
	}
}

// apiOrder mirrors the wire shape of a history order. Numeric fields come
// back as strings.
type apiOrder struct {
	OrderID          string `json:"order_id"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	ExecutedQuantity string `json:"executed_quantity"`
	ExecutedPrice    string `json:"executed_price"`
	LastDone         string `json:"last_done"`
	Currency         string `json:"currency"`
	UpdatedAt        string `json:"updated_at"`   // unix seconds
	SubmittedAt      string `json:"submitted_at"` // unix seconds
}

type historyResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Orders  []apiOrder `json:"orders"`
		HasMore bool       `json:"has_more"`
	} `json:"data"`
}

// FetchOrders pulls every filled order executed between start and end,
// chunked to respect the API's 90-day range limit. Orders that cannot be
// parsed into a usable fill (zero quantity or price, unknown side) are
// skipped rather than failing the import.
func (c *Client) FetchOrders(ctx context.Context, start, end time.Time) ([]trade.Order, error) {
	var orders []trade.Order

	for chunkStart := start; chunkStart.Before(end); {
		chunkEnd := chunkStart.AddDate(0, 0, chunkDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		chunk, err := c.historyOrders(ctx, chunkStart, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("orders %s..%s: %w",
				chunkStart.Format("2006-01-02"), chunkEnd.Format("2006-01-02"), err)
		}
		for _, raw := range chunk {
			if o, ok := parseOrder(raw); ok {
				orders = append(orders, o)
			}
		}

		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}
	return orders, nil
}

// TestConnection verifies the credentials against the account endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := c.get(ctx, "/v1/asset/account", nil, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("api code %d: %s", resp.Code, resp.Message)
	}
	return nil
}

// OrderFees fetches the charge breakdown for one order. History rows come
// back without fee data; this backfills it.
func (c *Client) OrderFees(ctx context.Context, orderID string) (trade.Fees, error) {
	params := url.Values{}
	params.Set("order_id", orderID)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			ChargeDetail struct {
				TotalAmount string `json:"total_amount"`
			} `json:"charge_detail"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/v1/trade/order", params, &resp); err != nil {
		return trade.Fees{}, err
	}
	if resp.Code != 0 {
		return trade.Fees{}, fmt.Errorf("api code %d: %s", resp.Code, resp.Message)
	}
	return trade.Fees{TotalAmount: resp.Data.ChargeDetail.TotalAmount}, nil
}

func (c *Client) historyOrders(ctx context.Context, start, end time.Time) ([]apiOrder, error) {
	params := url.Values{}
	params.Set("status", "FilledStatus")
	params.Set("start_at", strconv.FormatInt(start.Unix(), 10))
	params.Set("end_at", strconv.FormatInt(end.Unix(), 10))

	var resp historyResponse
	if err := c.get(ctx, "/v1/trade/order/history", params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("api code %d: %s", resp.Code, resp.Message)
	}
	return resp.Data.Orders, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.appKey)
	req.Header.Set("X-Api-Secret", c.appSecret)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

// parseOrder converts a wire order into a trade.Order, reporting ok=false
// for rows that are not usable fills.
func parseOrder(raw apiOrder) (trade.Order, bool) {
	qty, _ := strconv.ParseFloat(raw.ExecutedQuantity, 64)
	if qty <= 0 {
		return trade.Order{}, false
	}

	price, _ := strconv.ParseFloat(raw.ExecutedPrice, 64)
	if price <= 0 {
		price, _ = strconv.ParseFloat(raw.LastDone, 64)
	}
	if price <= 0 {
		return trade.Order{}, false
	}

	var side trade.Side
	switch upper := strings.ToUpper(raw.Side); {
	case strings.Contains(upper, "BUY"):
		side = trade.Buy
	case strings.Contains(upper, "SELL"):
		side = trade.Sell
	default:
		return trade.Order{}, false
	}

	executedAt := parseTimestamp(raw.UpdatedAt)
	if executedAt.IsZero() {
		executedAt = parseTimestamp(raw.SubmittedAt)
	}
	if executedAt.IsZero() {
		return trade.Order{}, false
	}

	currency := strings.ToUpper(raw.Currency)
	if currency == "" {
		currency = inferCurrency(raw.Symbol)
	}

	orderID := raw.OrderID
	if orderID == "" {
		orderID = id.New()
	}

	return trade.Order{
		ID:         orderID,
		Symbol:     raw.Symbol,
		Side:       side,
		Quantity:   qty,
		Price:      price,
		Currency:   currency,
		ExecutedAt: executedAt,
	}, true
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil || unix <= 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// inferCurrency guesses the trading currency from the market suffix when
// the API omits it.
func inferCurrency(symbol string) string {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, ".HK"):
		return "HKD"
	case strings.HasSuffix(s, ".SG"):
		return "SGD"
	}
	return "USD"
}
