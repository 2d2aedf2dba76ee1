// Package sms delivers OTP codes through the provider's REST API.
//
// Two wire methods exist for the same provider: the legacy body-id
// send (a pre-approved message template identified by bodyId) and the
// current sender-number send. Which one is used is a config decision;
// both produce an SMSResult and never a Go error — transport faults
// are folded into a failed result so the caller cannot forget to
// handle them.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/config"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/phone"
	"github.com/sirupsen/logrus"
)

const (
	MethodSenderNumber = "sender-number"
	MethodBodyID       = "body-id"

	// redacted replaces the credential in every diagnostic payload.
	redacted = "***"

	retStatusOK = 1
)

type Client struct {
	cfg    config.SMSConfig
	client *http.Client
	logger *logrus.Logger
}

func NewClient(cfg config.SMSConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type senderNumberRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	To       string `json:"to"`
	From     string `json:"from"`
	Text     string `json:"text"`
	IsFlash  bool   `json:"isFlash"`
}

type bodyIDRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BodyID   int    `json:"bodyId"`
	Text     string `json:"text"`
	To       string `json:"to"`
}

// SendOTP delivers code to number via the configured method. The
// number is rewritten into the provider's international form first.
func (c *Client) SendOTP(ctx context.Context, number, code string) *models.SMSResult {
	to := phone.ProviderFormat(number)

	switch c.cfg.Method {
	case MethodBodyID:
		return c.sendByBodyID(ctx, number, to, code)
	default:
		return c.sendBySenderNumber(ctx, number, to, code)
	}
}

func (c *Client) sendBySenderNumber(ctx context.Context, number, to, code string) *models.SMSResult {
	payload := senderNumberRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		To:       to,
		From:     c.cfg.SenderNumber,
		Text:     code,
		IsFlash:  false,
	}
	debug := models.SMSDebug{
		Phone: number,
		Request: models.RedactedRequest{
			Username: c.cfg.Username,
			Password: redacted,
			To:       to,
			From:     c.cfg.SenderNumber,
			Text:     code,
		},
	}

	resp, result := c.post(ctx, c.cfg.BaseURL+"/SendSMS", payload, debug)
	if result != nil {
		return result
	}
	debug.Response = resp

	// A successful send returns a numeric message id of at least 11
	// digits; short numeric values are error codes.
	if resp.RetStatus == retStatusOK {
		if _, err := strconv.ParseInt(resp.Value, 10, 64); err == nil && len(resp.Value) >= 11 {
			return &models.SMSResult{Success: true, Response: resp, Debug: debug}
		}
	}

	return c.failure(resp, debug)
}

func (c *Client) sendByBodyID(ctx context.Context, number, to, code string) *models.SMSResult {
	payload := bodyIDRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		BodyID:   c.cfg.BodyID,
		Text:     code,
		To:       to,
	}
	debug := models.SMSDebug{
		Phone: number,
		Request: models.RedactedRequest{
			Username: c.cfg.Username,
			Password: redacted,
			BodyID:   c.cfg.BodyID,
			To:       to,
			Text:     code,
		},
	}

	resp, result := c.post(ctx, c.cfg.BaseURL+"/BaseServiceNumber", payload, debug)
	if result != nil {
		return result
	}
	debug.Response = resp

	// Message ids from the template endpoint are long opaque strings;
	// anything 15 characters or shorter is an error code.
	if resp.RetStatus == retStatusOK && len(resp.Value) > 15 {
		return &models.SMSResult{Success: true, Response: resp, Debug: debug}
	}

	return c.failure(resp, debug)
}

// post performs the provider call and decodes the reply. On any
// transport or decode fault it returns a terminal failed result; the
// caller only proceeds when the second return value is nil.
func (c *Client) post(ctx context.Context, url string, payload interface{}, debug models.SMSDebug) (*models.ProviderResponse, *models.SMSResult) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, c.transportFailure(debug, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, c.transportFailure(debug, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportFailure(debug, fmt.Errorf("call provider: %w", err))
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportFailure(debug, fmt.Errorf("read provider response: %w", err))
	}

	var resp models.ProviderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, c.transportFailure(debug, fmt.Errorf("decode provider response %q: %w", raw, err))
	}

	return &resp, nil
}

func (c *Client) failure(resp *models.ProviderResponse, debug models.SMSDebug) *models.SMSResult {
	debug.ErrorCode = resp.Value
	debug.ErrorMessage = errorMessage(resp.Value)

	c.logger.WithFields(logrus.Fields{
		"phone":      debug.Phone,
		"ret_status": resp.RetStatus,
		"value":      resp.Value,
		"message":    debug.ErrorMessage,
	}).Warn("SMS delivery rejected by provider")

	return &models.SMSResult{Success: false, Response: resp, Debug: debug}
}

func (c *Client) transportFailure(debug models.SMSDebug, err error) *models.SMSResult {
	debug.Transport = err.Error()

	c.logger.WithError(err).WithField("phone", debug.Phone).Error("SMS delivery failed")

	return &models.SMSResult{Success: false, Debug: debug}
}
