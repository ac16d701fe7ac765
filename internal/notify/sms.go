package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

type httpSMSSender struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
}

func NewHTTPSMSSender(baseURL, apiKey, sender string) SMSSender {
	if apiKey == "" {
		logger.L().Warn("SMS API key is empty")
	}

	return &httpSMSSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *httpSMSSender) Send(ctx context.Context, phone, text string) error {
	log := logger.FromCtx(ctx).With(zap.String("phone", phone))

	body := map[string]interface{}{
		"sender":  s.sender,
		"to":      phone,
		"message": text,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/sms", bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn("SMS send failed", zap.Error(err))
		return apperr.Wrap(apperr.KindExternal, "sms provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn("SMS provider returned error", zap.Int("status", resp.StatusCode))
		return apperr.New(apperr.KindExternal, fmt.Sprintf("sms provider error: status %d", resp.StatusCode))
	}

	return nil
}
