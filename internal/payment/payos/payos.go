package payos

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"errors"
)

const (
	defaultEndpoint       = "https://api-merchant.payos.vn"
	paymentRequestsPath   = "/v2/payment-requests"
	defaultTimeoutSeconds = 10
)

var (
	ErrConfigInvalid    = errors.New("payos config invalid")
	ErrRequestFailed    = errors.New("payos request failed")
	ErrResponseInvalid  = errors.New("payos response invalid")
	ErrSignatureInvalid = errors.New("payos signature invalid")
)

// Config PayOS 配置
type Config struct {
	ClientID       string `json:"client_id"`       // 商户 Client ID
	APIKey         string `json:"api_key"`         // API Key
	ChecksumKey    string `json:"checksum_key"`    // 签名密钥
	Endpoint       string `json:"endpoint"`        // 网关地址
	ReturnURL      string `json:"return_url"`      // 支付成功跳转地址
	CancelURL      string `json:"cancel_url"`      // 支付取消跳转地址
	TimeoutSeconds int    `json:"timeout_seconds"` // 请求超时秒数
}

// CreateInput PayOS 下单输入
type CreateInput struct {
	OrderCode   int64
	Amount      int64
	Description string
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
	ExpiredAt   time.Time
}

// CreateResult PayOS 下单结果
type CreateResult struct {
	CheckoutURL string
	QRCode      string
	PaymentLink string
	Raw         map[string]interface{}
}

// StatusResult PayOS 支付单查询结果
type StatusResult struct {
	OrderCode int64
	Amount    int64
	Status    string
	Reference string
	Raw       map[string]interface{}
}

// WebhookData PayOS 回调 data 字段
type WebhookData struct {
	OrderCode           int64  `json:"orderCode"`
	Amount              int64  `json:"amount"`
	Description         string `json:"description"`
	Reference           string `json:"reference"`
	TransactionDateTime string `json:"transactionDateTime"`
	Currency            string `json:"currency"`
	Code                string `json:"code"`
	Desc                string `json:"desc"`
}

// WebhookPayload PayOS 回调报文
type WebhookPayload struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// ParseConfig 解析配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.Normalize()
	return &cfg, nil
}

// ValidateConfig 校验 PayOS 配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ChecksumKey) == "" {
		return fmt.Errorf("%w: checksum_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ReturnURL) == "" {
		return fmt.Errorf("%w: return_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.CancelURL) == "" {
		return fmt.Errorf("%w: cancel_url is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 填充网关地址与超时默认值
func (c *Config) Normalize() {
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// CreatePaymentLink 创建 PayOS 支付链接
func CreatePaymentLink(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	if input.OrderCode <= 0 || input.Amount <= 0 {
		return nil, ErrConfigInvalid
	}
	if input.Description == "" {
		input.Description = strconv.FormatInt(input.OrderCode, 10)
	}

	body := map[string]interface{}{
		"orderCode":   input.OrderCode,
		"amount":      input.Amount,
		"description": input.Description,
		"returnUrl":   cfg.ReturnURL,
		"cancelUrl":   cfg.CancelURL,
	}
	if input.BuyerName != "" {
		body["buyerName"] = input.BuyerName
	}
	if input.BuyerEmail != "" {
		body["buyerEmail"] = input.BuyerEmail
	}
	if input.BuyerPhone != "" {
		body["buyerPhone"] = input.BuyerPhone
	}
	if !input.ExpiredAt.IsZero() {
		body["expiredAt"] = input.ExpiredAt.Unix()
	}
	// 创建请求的签名按固定五字段字典序拼接
	signContent := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		input.Amount, cfg.CancelURL, input.Description, input.OrderCode, cfg.ReturnURL)
	body["signature"] = signHMAC(signContent, cfg.ChecksumKey)

	respBytes, err := doRequest(ctx, cfg, http.MethodPost, cfg.Endpoint+paymentRequestsPath, body)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
		Data struct {
			CheckoutURL   string `json:"checkoutUrl"`
			QRCode        string `json:"qrCode"`
			PaymentLinkID string `json:"paymentLinkId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != CodeSuccess {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Desc)
	}
	if strings.TrimSpace(resp.Data.CheckoutURL) == "" {
		return nil, fmt.Errorf("%w: missing checkout url", ErrResponseInvalid)
	}
	return &CreateResult{
		CheckoutURL: strings.TrimSpace(resp.Data.CheckoutURL),
		QRCode:      strings.TrimSpace(resp.Data.QRCode),
		PaymentLink: strings.TrimSpace(resp.Data.PaymentLinkID),
		Raw:         raw,
	}, nil
}

// CheckPaymentStatus 查询 PayOS 支付单状态
func CheckPaymentStatus(ctx context.Context, cfg *Config, orderCode int64) (*StatusResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	if orderCode <= 0 {
		return nil, ErrConfigInvalid
	}
	endpoint := fmt.Sprintf("%s%s/%d", cfg.Endpoint, paymentRequestsPath, orderCode)
	respBytes, err := doRequest(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
		Data struct {
			OrderCode int64  `json:"orderCode"`
			Amount    int64  `json:"amount"`
			Status    string `json:"status"`
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != CodeSuccess {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Desc)
	}
	return &StatusResult{
		OrderCode: resp.Data.OrderCode,
		Amount:    resp.Data.Amount,
		Status:    strings.ToUpper(strings.TrimSpace(resp.Data.Status)),
		Reference: strings.TrimSpace(resp.Data.Reference),
		Raw:       raw,
	}, nil
}

// CodeSuccess PayOS 成功响应码
const CodeSuccess = "00"

// ParseWebhook 解析回调报文
func ParseWebhook(body []byte) (*WebhookPayload, *WebhookData, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, ErrResponseInvalid
	}
	if len(payload.Data) == 0 {
		return nil, nil, ErrResponseInvalid
	}
	var data WebhookData
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return nil, nil, ErrResponseInvalid
	}
	return &payload, &data, nil
}

// VerifyWebhookSignature 验证回调签名（data 字段按键名字典序拼接后 HMAC-SHA256）
func VerifyWebhookSignature(cfg *Config, payload *WebhookPayload) error {
	if cfg == nil || strings.TrimSpace(cfg.ChecksumKey) == "" {
		return ErrConfigInvalid
	}
	if payload == nil || strings.TrimSpace(payload.Signature) == "" {
		return ErrSignatureInvalid
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload.Data, &fields); err != nil {
		return ErrSignatureInvalid
	}
	content := buildSignContent(fields)
	expected := signHMAC(content, cfg.ChecksumKey)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(payload.Signature)))) {
		return ErrSignatureInvalid
	}
	return nil
}

func buildSignContent(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, stringifyValue(fields[k])))
	}
	return strings.Join(pairs, "&")
}

func stringifyValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		// JSON 数字统一按整数或最短小数输出
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func signHMAC(content, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

func doRequest(ctx context.Context, cfg *Config, method, endpoint string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, ErrRequestFailed
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, ErrRequestFailed
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", cfg.ClientID)
	req.Header.Set("x-api-key", cfg.APIKey)

	client := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrRequestFailed
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrRequestFailed
	}
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrRequestFailed
	}
	return respBytes, nil
}
