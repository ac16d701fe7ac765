package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type razorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewRazorpayGateway(baseURL, keyID, keySecret string) Gateway {
	if keyID == "" || keySecret == "" {
		logger.L().Warn("payment gateway credentials are empty")
	}

	return &razorpayGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("receipt", receipt),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", currency),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/orders", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Add("Content-Type", "application/json")

	log.Info("creating gateway order")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("gateway order request failed", zap.Error(err))
		return "", apperr.Wrap(apperr.KindExternal, "payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindExternal, "failed to read gateway response", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("gateway returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return "", apperr.New(apperr.KindExternal, fmt.Sprintf("gateway error: status %d", resp.StatusCode))
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding gateway response", zap.Error(err))
		return "", apperr.Wrap(apperr.KindExternal, "malformed gateway response", err)
	}

	log.Info("gateway order created", zap.String("gateway_order_id", res.ID))

	return res.ID, nil
}

func (g *razorpayGateway) FetchPayments(ctx context.Context, gatewayOrderID string) ([]Payment, error) {
	log := logger.FromCtx(ctx).With(zap.String("gateway_order_id", gatewayOrderID))

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/orders/%s/payments", g.baseURL, gatewayOrderID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("gateway payments request failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindExternal, "payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "failed to read gateway response", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("gateway returned error",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, apperr.New(apperr.KindExternal, fmt.Sprintf("gateway error: status %d", resp.StatusCode))
	}

	var res struct {
		Items []struct {
			ID          string `json:"id"`
			OrderID     string `json:"order_id"`
			Status      string `json:"status"`
			Amount      int64  `json:"amount"`
			Currency    string `json:"currency"`
			Method      string `json:"method"`
			CreatedAtTS int64  `json:"created_at"`
		} `json:"items"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding gateway payments", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindExternal, "malformed gateway response", err)
	}

	payments := make([]Payment, 0, len(res.Items))
	for _, item := range res.Items {
		payments = append(payments, Payment{
			ID:             item.ID,
			GatewayOrderID: item.OrderID,
			Status:         item.Status,
			AmountMinor:    item.Amount,
			Currency:       item.Currency,
			Method:         item.Method,
			CreatedAt:      time.Unix(item.CreatedAtTS, 0).UTC(),
		})
	}

	return payments, nil
}
