package payos

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		ClientID:    "client-1",
		APIKey:      "key-1",
		ChecksumKey: "secret",
		ReturnURL:   "https://shop.example.com/pay/return",
		CancelURL:   "https://shop.example.com/pay/cancel",
	}
	cfg.Normalize()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.Endpoint != defaultEndpoint {
		t.Fatalf("expected default endpoint, got %s", cfg.Endpoint)
	}

	bad := &Config{ClientID: "client-1", APIKey: "key-1"}
	if err := ValidateConfig(bad); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	raw := map[string]interface{}{
		"client_id":    "client-1",
		"api_key":      "key-1",
		"checksum_key": "secret",
		"return_url":   "https://shop.example.com/pay/return",
		"cancel_url":   "https://shop.example.com/pay/cancel",
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	if cfg.ClientID != "client-1" || cfg.TimeoutSeconds != defaultTimeoutSeconds {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := ParseConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for nil config, got %v", err)
	}
}

func TestBuildSignContentSortsKeys(t *testing.T) {
	fields := map[string]interface{}{
		"reference": "FT123",
		"amount":    float64(600000),
		"orderCode": float64(20260828001),
		"code":      "00",
	}
	got := buildSignContent(fields)
	want := "amount=600000&code=00&orderCode=20260828001&reference=FT123"
	if got != want {
		t.Fatalf("sign content mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	cfg := &Config{ChecksumKey: "secret"}
	data := map[string]interface{}{
		"orderCode":           float64(20260828001),
		"amount":              float64(600000),
		"reference":           "FT123",
		"transactionDateTime": "2026-08-28 10:00:00",
		"code":                "00",
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data failed: %v", err)
	}
	payload := &WebhookPayload{
		Code:      "00",
		Data:      json.RawMessage(rawData),
		Signature: signHMAC(buildSignContent(data), cfg.ChecksumKey),
	}
	if err := VerifyWebhookSignature(cfg, payload); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	payload.Signature = "deadbeef"
	if err := VerifyWebhookSignature(cfg, payload); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	payload.Signature = ""
	if err := VerifyWebhookSignature(cfg, payload); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for empty signature, got %v", err)
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"code":"00","desc":"success","success":true,"data":{"orderCode":20260828001,"amount":600000,"reference":"FT123","transactionDateTime":"2026-08-28 10:00:00","code":"00","desc":"ok"},"signature":"abc"}`)
	payload, data, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if payload.Code != "00" || data.OrderCode != 20260828001 || data.Reference != "FT123" {
		t.Fatalf("unexpected webhook payload: %+v %+v", payload, data)
	}

	if _, _, err := ParseWebhook([]byte(`{"code":"00"}`)); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid for missing data, got %v", err)
	}
}
