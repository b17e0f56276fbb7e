package service

import (
	"strings"
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/config"

	"github.com/mojocn/base64Captcha"
)

// CaptchaChallenge 图片验证码挑战
type CaptchaChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaService 登录图片验证码服务
type CaptchaService struct {
	cfg     config.CaptchaConfig
	captcha *base64Captcha.Captcha
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	if cfg.Length <= 0 {
		cfg.Length = 4
	}
	if cfg.Width <= 0 {
		cfg.Width = 160
	}
	if cfg.Height <= 0 {
		cfg.Height = 60
	}
	if cfg.NoiseCount <= 0 {
		cfg.NoiseCount = 6
	}
	if cfg.ExpireSeconds <= 0 {
		cfg.ExpireSeconds = 300
	}
	driver := base64Captcha.NewDriverDigit(cfg.Height, cfg.Width, cfg.Length, 0.6, cfg.NoiseCount)
	store := cache.NewCaptchaStore(time.Duration(cfg.ExpireSeconds) * time.Second)
	return &CaptchaService{
		cfg:     cfg,
		captcha: base64Captcha.NewCaptcha(driver, store),
	}
}

// Enabled 是否启用登录验证码
func (s *CaptchaService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// Generate 生成验证码挑战
func (s *CaptchaService) Generate() (*CaptchaChallenge, error) {
	id, b64, _, err := s.captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaChallenge{
		CaptchaID:   id,
		ImageBase64: b64,
	}, nil
}

// Verify 校验验证码，校验后立即失效
func (s *CaptchaService) Verify(id, code string) bool {
	id = strings.TrimSpace(id)
	code = strings.TrimSpace(code)
	if id == "" || code == "" {
		return false
	}
	return s.captcha.Verify(id, code, true)
}
