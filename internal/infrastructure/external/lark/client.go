package lark

import (
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	ChatID    string // group chat that receives verdicts
	BaseURL   string // optional, defaults to the Feishu open platform
}

// NewSDKClient creates the Lark SDK client used for messaging
func NewSDKClient(cfg Config, logger *zap.Logger) *lark.Client {
	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	logger.Debug("Creating Lark client", zap.String("app_id", cfg.AppID))
	return lark.NewClient(cfg.AppID, cfg.AppSecret, opts...)
}
