package fulfillment

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

type Client interface {
	PushOrder(ctx context.Context, snap OrderSnapshot) (string, error)
	FetchOrder(ctx context.Context, remoteCode string) (*RemoteOrder, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	tokens  *TokenProvider
}

func NewClient(baseURL, email, password string) Client {
	c := &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	c.tokens = NewTokenProvider(c.loginFunc(email, password))
	return c
}

func (c *httpClient) loginFunc(email, password string) TokenFunc {
	return func(ctx context.Context) (string, time.Time, error) {
		body, err := json.Marshal(map[string]string{
			"email":    email,
			"password": password,
		})
		if err != nil {
			return "", time.Time{}, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/external/auth/login", bytes.NewBuffer(body))
		if err != nil {
			return "", time.Time{}, err
		}
		req.Header.Add("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return "", time.Time{}, apperr.Wrap(apperr.KindExternal, "fulfillment platform unreachable", err)
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", time.Time{}, err
		}
		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, apperr.New(apperr.KindExternal,
				fmt.Sprintf("fulfillment login failed: status %d", resp.StatusCode))
		}

		var res struct {
			Token     string `json:"token"`
			ExpiresIn int64  `json:"expires_in"`
		}
		if err := json.Unmarshal(bodyBytes, &res); err != nil {
			return "", time.Time{}, apperr.Wrap(apperr.KindExternal, "malformed login response", err)
		}

		expiry := time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
		if res.ExpiresIn == 0 {
			expiry = time.Now().Add(24 * time.Hour)
		}

		logger.FromCtx(ctx).Info("fulfillment platform token refreshed")

		return res.Token, expiry, nil
	}
}

func (c *httpClient) PushOrder(ctx context.Context, snap OrderSnapshot) (string, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_code", snap.OrderCode))

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	items := make([]map[string]interface{}, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, map[string]interface{}{
			"name":          it.Name,
			"sku":           it.SKU,
			"units":         it.Quantity,
			"selling_price": it.UnitPriceMinor,
		})
	}

	body := map[string]interface{}{
		"channel_order_id": snap.OrderCode,
		"billing_customer": snap.RecipientName,
		"billing_phone":    snap.Phone,
		"billing_email":    snap.Email,
		"billing_address":  snap.AddressLine1,
		"billing_address2": snap.AddressLine2,
		"billing_city":     snap.City,
		"billing_state":    snap.State,
		"billing_pincode":  snap.PostalCode,
		"billing_country":  snap.Country,
		"payment_method":   snap.PaymentMethod,
		"sub_total":        snap.TotalMinor,
		"cod_amount":       snap.CODMinor,
		"order_items":      items,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/external/orders/create/adhoc", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+token)

	log.Info("pushing order to fulfillment platform")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("fulfillment push failed", zap.Error(err))
		return "", apperr.Wrap(apperr.KindExternal, "fulfillment platform unreachable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("fulfillment platform returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return "", apperr.New(apperr.KindExternal,
			fmt.Sprintf("fulfillment push failed: status %d", resp.StatusCode))
	}

	var res struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", apperr.Wrap(apperr.KindExternal, "malformed push response", err)
	}

	log.Info("order pushed", zap.String("remote_order_id", res.OrderID))

	return res.OrderID, nil
}

func (c *httpClient) FetchOrder(ctx context.Context, remoteCode string) (*RemoteOrder, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_code", remoteCode))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/external/orders?channel_order_id=%s", c.baseURL, remoteCode)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("fulfillment fetch failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindExternal, "fulfillment platform unreachable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.KindNotFound, "remote order not found")
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("fulfillment platform returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, apperr.New(apperr.KindExternal,
			fmt.Sprintf("fulfillment fetch failed: status %d", resp.StatusCode))
	}

	var res struct {
		Data []struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			CourierName string `json:"courier_name"`
			TrackingURL string `json:"tracking_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "malformed fetch response", err)
	}
	if len(res.Data) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "remote order not found")
	}

	return &RemoteOrder{
		ID:          res.Data[0].ID,
		Status:      res.Data[0].Status,
		Courier:     res.Data[0].CourierName,
		TrackingURL: res.Data[0].TrackingURL,
	}, nil
}
