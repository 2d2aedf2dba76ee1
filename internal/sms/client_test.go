package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/config"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
)

func testConfig(baseURL, method string) config.SMSConfig {
	return config.SMSConfig{
		BaseURL:      baseURL,
		Username:     "acme",
		Password:     "super-secret-credential",
		BodyID:       48600,
		SenderNumber: "50004001",
		Method:       method,
		Timeout:      2 * time.Second,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func providerStub(t *testing.T, wantPath string, response models.ProviderResponse, gotBody *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, wantPath, r.URL.Path)
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		json.NewEncoder(w).Encode(response)
	}))
}

func TestSendBySenderNumberSuccess(t *testing.T) {
	var body map[string]interface{}
	srv := providerStub(t, "/SendSMS", models.ProviderResponse{
		Value:        "98123456789012",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, &body)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.True(t, result.Success)
	assert.Equal(t, "98123456789012", result.Response.Value)

	// Wire field names are the provider's contract.
	assert.Equal(t, "acme", body["username"])
	assert.Equal(t, "super-secret-credential", body["password"])
	assert.Equal(t, "989123456789", body["to"])
	assert.Equal(t, "50004001", body["from"])
	assert.Equal(t, "123456", body["text"])
	assert.Equal(t, false, body["isFlash"])
}

func TestSendBySenderNumberKnownErrorCode(t *testing.T) {
	srv := providerStub(t, "/SendSMS", models.ProviderResponse{
		Value:        "18",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.False(t, result.Success)
	assert.Equal(t, "18", result.Debug.ErrorCode)
	assert.Equal(t, "شماره موبایل معتبر نمی باشد", result.Debug.ErrorMessage)
}

func TestSendBySenderNumberUnknownErrorCode(t *testing.T) {
	srv := providerStub(t, "/SendSMS", models.ProviderResponse{
		Value:        "77",
		RetStatus:    0,
		StrRetStatus: "Failed",
	}, nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.False(t, result.Success)
	assert.Contains(t, result.Debug.ErrorMessage, "77")
	assert.Contains(t, result.Debug.ErrorMessage, "unknown provider error")
}

func TestSendBySenderNumberNonNumericValueFails(t *testing.T) {
	srv := providerStub(t, "/SendSMS", models.ProviderResponse{
		Value:        "not-a-message-id",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.False(t, result.Success)
}

func TestSendByBodyID(t *testing.T) {
	var body map[string]interface{}
	srv := providerStub(t, "/BaseServiceNumber", models.ProviderResponse{
		Value:        "a-long-opaque-message-identifier",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, &body)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodBodyID), testLogger())
	result := c.SendOTP(context.Background(), "9123456789", "654321")

	assert.True(t, result.Success)
	assert.Equal(t, float64(48600), body["bodyId"])
	assert.Equal(t, "989123456789", body["to"])
	assert.Equal(t, "654321", body["text"])
}

func TestSendByBodyIDShortValueIsError(t *testing.T) {
	srv := providerStub(t, "/BaseServiceNumber", models.ProviderResponse{
		Value:        "11",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodBodyID), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.False(t, result.Success)
	assert.Equal(t, "ارسال نشده", result.Debug.ErrorMessage)
}

func TestTransportErrorBecomesFailedResult(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1", MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Debug.Transport)
}

func TestDebugPayloadRedactsCredential(t *testing.T) {
	srv := providerStub(t, "/SendSMS", models.ProviderResponse{
		Value:        "18",
		RetStatus:    1,
		StrRetStatus: "Ok",
	}, nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, MethodSenderNumber), testLogger())
	result := c.SendOTP(context.Background(), "09123456789", "123456")

	serialized, err := json.Marshal(result.Debug)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(serialized), "super-secret-credential"))
	assert.Equal(t, "***", result.Debug.Request.Password)
}
