package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-result-service/internal/config"
	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/logging"
	"quiz-result-service/internal/report"
)

// NewRenderCmd renders a report from a quiz and result stored as JSON files.
func NewRenderCmd(configPath *string) *cobra.Command {
	var quizPath, resultPath, outDir, title string
	var noAnswers, noRecommendations bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a PDF report from quiz and result JSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOptionalConfig(*configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var quiz domain.Quiz
			if err := readJSON(quizPath, &quiz); err != nil {
				return err
			}
			var result domain.QuizResult
			if err := readJSON(resultPath, &result); err != nil {
				return err
			}
			if result.QuizID != "" && result.QuizID != quiz.ID {
				return fmt.Errorf("result belongs to quiz %q, not %q", result.QuizID, quiz.ID)
			}

			opts := report.Options{OmitAnswers: noAnswers, OmitRecommendations: noRecommendations}
			if title != "" {
				opts.Title = title
			}

			renderer := report.NewRenderer(report.Config{Compress: cfg.Report.Compress, Author: cfg.Report.Author}, log.Named("report"))
			doc, err := renderer.Render(quiz, result, opts, time.Now())
			if err != nil {
				return err
			}

			out := filepath.Join(outDir, report.Filename(quiz.Title, result.ID))
			if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			log.Info("report rendered", zap.String("file", out), zap.Int("pages", doc.Pages))
			return nil
		},
	}
	cmd.Flags().StringVar(&quizPath, "quiz", "", "quiz JSON file")
	cmd.Flags().StringVar(&resultPath, "result", "", "result JSON file")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the PDF to")
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().BoolVar(&noAnswers, "no-answers", false, "omit the answer review section")
	cmd.Flags().BoolVar(&noRecommendations, "no-recommendations", false, "omit recommended resources")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

// loadOptionalConfig tolerates a missing file so render works standalone.
func loadOptionalConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil
	}
	return cfg, err
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
