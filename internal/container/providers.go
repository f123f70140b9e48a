package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/config"
	"github.com/garyjia/evidence-check/internal/domain/audit"
	"github.com/garyjia/evidence-check/internal/export"
	"github.com/garyjia/evidence-check/internal/infrastructure/external/lark"
	"github.com/garyjia/evidence-check/internal/infrastructure/external/openai"
	"github.com/garyjia/evidence-check/internal/infrastructure/external/vision"
	httpiface "github.com/garyjia/evidence-check/internal/interfaces/http"
	"github.com/garyjia/evidence-check/internal/report"
	"github.com/garyjia/evidence-check/pkg/utils"
)

// ProvideEngine creates the audit engine from the audit section
func ProvideEngine(cfg *config.Config) (*audit.Engine, error) {
	return audit.NewEngine(cfg.EngineConfig())
}

// ProvideDocumentReader creates the report document reader. The handwriting
// engine is only created when enabled.
func ProvideDocumentReader(cfg *config.Config, logger *zap.Logger) (port.OCREngine, error) {
	var handwriting port.OCREngine
	if cfg.OCR.HandwritingEnabled {
		prompts := openai.DefaultPrompts()
		if cfg.OpenAI.PromptsPath != "" {
			loaded, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load prompts: %w", err)
			}
			prompts = loaded
		}
		handwriting = openai.NewTranscriber(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.Model,
			prompts,
			logger.Named("openai"),
		)
	}

	pdf := report.NewPDFTextEngine(cfg.OCR.MaxPDFPages, handwriting, logger.Named("pdf"))
	return report.NewReader(pdf, handwriting, logger.Named("ocr")), nil
}

// ProvideVisionClient creates the vision service client
func ProvideVisionClient(cfg *config.Config, logger *zap.Logger) port.VisionService {
	return vision.NewClient(vision.Config{
		Endpoint:      cfg.Vision.Endpoint,
		Timeout:       cfg.Vision.Timeout,
		MaxUploadSize: cfg.Server.MaxUploadMB << 20,
		MaxAttempts:   cfg.Vision.MaxAttempts,
	}, logger.Named("vision"))
}

// ProvideNotifier creates the Lark verdict notifier, or nil when disabled
func ProvideNotifier(cfg *config.Config, logger *zap.Logger) *lark.Notifier {
	if !cfg.Lark.Enabled {
		return nil
	}

	larkCfg := lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		ChatID:    cfg.Lark.ChatID,
		BaseURL:   cfg.Lark.BaseURL,
	}
	sdkClient := lark.NewSDKClient(larkCfg, logger)
	return lark.NewNotifier(lark.NewChatMessenger(sdkClient, logger.Named("lark")), larkCfg.ChatID, logger.Named("lark"))
}

// ProvideArchiver creates the result archiver, or nil when no directory is set
func ProvideArchiver(cfg *config.Config, logger *zap.Logger) *export.Archiver {
	if cfg.Export.Dir == "" {
		return nil
	}
	return export.NewArchiver(cfg.Export.Dir, logger.Named("export"))
}

// ProvideServer creates the HTTP server
func ProvideServer(cfg *config.Config, auditService service.AuditService, archiver *export.Archiver, logger *zap.Logger) *httpiface.Server {
	serverCfg := httpiface.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	var resultArchiver httpiface.ResultArchiver
	if archiver != nil {
		resultArchiver = archiver
	}
	return httpiface.NewServer(serverCfg, auditService, resultArchiver, utils.NewKVLogger(logger.Named("http")))
}
