package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/convert"
	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/config"
	"github.com/garyjia/evidence-check/internal/container"
	"github.com/garyjia/evidence-check/internal/domain/audit"
	"github.com/garyjia/evidence-check/internal/export"
	"github.com/garyjia/evidence-check/internal/report"
	"github.com/garyjia/evidence-check/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "evidencecheck",
		Short:         "Cross-check incident reports against collision footage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("format", string(export.FormatJSON), "output format: json or yaml")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug output to stderr")
	rootCmd.PersistentFlags().Float64("threshold", audit.DefaultTimeThresholdSeconds, "time match tolerance in seconds")
	rootCmd.PersistentFlags().Int("time-weight", audit.DefaultTimeWeight, "points for a time match")
	rootCmd.PersistentFlags().Int("severity-weight", audit.DefaultSeverityWeight, "points for a severity match")

	rootCmd.AddCommand(
		auditCmd(),
		compareCmd(),
		parseCmd(),
	)
	return rootCmd
}

// auditCmd runs the whole pipeline: read the report, analyze the video, audit
func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a report document against a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath, _ := cmd.Flags().GetString("report")
			videoPath, _ := cmd.Flags().GetString("video")
			xlsxPath, _ := cmd.Flags().GetString("xlsx")

			if err := utils.ValidateVideoFilename(videoPath); err != nil {
				return err
			}

			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.logger.Sync()

			reader, err := container.ProvideDocumentReader(env.cfg, env.logger)
			if err != nil {
				return err
			}
			svc := service.NewAuditService(
				env.engine,
				report.NewParser(env.logger.Named("report")),
				reader,
				container.ProvideVisionClient(env.cfg, env.logger),
				nil,
				utils.NewKVLogger(env.logger.Named("service")),
			)

			doc, err := readDocument(reportPath)
			if err != nil {
				return err
			}

			video, err := os.Open(videoPath)
			if err != nil {
				return fmt.Errorf("failed to open video: %w", err)
			}
			defer video.Close()

			result, err := svc.AnalyzeEvidence(cmd.Context(), service.EvidenceRequest{
				RequestID:      uuid.NewString(),
				Video:          port.VideoFile{Name: filepath.Base(videoPath), Content: video},
				ReportDocument: &doc,
			})
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := export.NewWorkbookWriter(env.logger).SaveAs(result, xlsxPath); err != nil {
					return err
				}
			}
			return export.Write(cmd.OutOrStdout(), env.format, result)
		},
	}
	cmd.Flags().String("report", "", "incident report: text, PDF or scan")
	cmd.Flags().String("video", "", "collision footage")
	cmd.Flags().String("xlsx", "", "also write the result as an Excel workbook")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

// compareCmd audits two observations saved as JSON, without any service
func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Audit previously extracted text and video observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			textPath, _ := cmd.Flags().GetString("text-json")
			videoPath, _ := cmd.Flags().GetString("video-json")

			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}

			textFields, err := readFields(textPath)
			if err != nil {
				return err
			}
			videoFields, err := readFields(videoPath)
			if err != nil {
				return err
			}

			text, err := convert.TextObservation(textFields)
			if err != nil {
				return fmt.Errorf("%s: %w", textPath, err)
			}
			video, err := convert.VideoObservation(videoFields)
			if err != nil {
				return fmt.Errorf("%s: %w", videoPath, err)
			}

			env.logger.Debug("Comparing observations",
				zap.String("text", textPath),
				zap.String("video", videoPath))

			return export.Write(cmd.OutOrStdout(), env.format, env.engine.Audit(text, video))
		},
	}
	cmd.Flags().String("text-json", "", "text observation fields")
	cmd.Flags().String("video-json", "", "video observation fields")
	_ = cmd.MarkFlagRequired("text-json")
	_ = cmd.MarkFlagRequired("video-json")
	return cmd
}

// parseCmd reads a report and prints what it claims
func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <report>",
		Short: "Extract the reported time and severity from a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}

			reader, err := container.ProvideDocumentReader(env.cfg, env.logger)
			if err != nil {
				return err
			}
			svc := service.NewAuditService(env.engine, report.NewParser(env.logger.Named("report")),
				reader, nil, nil, utils.NewKVLogger(env.logger.Named("service")))

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			obs, err := svc.AnalyzeDocument(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), env.format, obs)
		},
	}
}

// environment is what every command needs before doing its work
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *audit.Engine
	format export.Format
}

// newEnvironment loads configuration and applies flags that were set on
// the command line over it
func newEnvironment(cmd *cobra.Command) (*environment, error) {
	flags := cmd.Flags()

	verbose, _ := flags.GetBool("verbose")
	logger, err := utils.NewCLILogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	formatName, _ := flags.GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("threshold") {
		cfg.Audit.TimeThresholdSeconds, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("time-weight") {
		cfg.Audit.TimeWeight, _ = flags.GetInt("time-weight")
	}
	if flags.Changed("severity-weight") {
		cfg.Audit.SeverityWeight, _ = flags.GetInt("severity-weight")
	}

	engine, err := container.ProvideEngine(cfg)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, engine: engine, format: format}, nil
}

func readDocument(path string) (port.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return port.Document{}, fmt.Errorf("failed to read report: %w", err)
	}
	return port.Document{Name: filepath.Base(path), Content: content}, nil
}

func readFields(path string) (map[string]interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(content, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return fields, nil
}
