package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-result-service/internal/config"
	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/infra/memory"
)

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRenderCommandWritesReport(t *testing.T) {
	dir := t.TempDir()
	quiz := memory.SampleQuizzes()["english-basics"]
	result := domain.QuizResult{
		ID:         "r-1",
		QuizID:     quiz.ID,
		UserID:     "u1",
		Score:      3,
		MaxScore:   5,
		Percentage: 60,
		Level:      domain.LevelFair,
		Feedback:   "Solid start.",
		Answers:    []domain.Answer{{QuestionID: "q1", OptionID: "q1-a"}},
		TimeSpent:  4,
		Sharing:    domain.SharingPrivate,
	}

	missingConfig := filepath.Join(dir, "missing.yaml")
	cmd := NewRenderCmd(&missingConfig)
	cmd.SetArgs([]string{
		"--quiz", writeJSON(t, dir, "quiz.json", quiz),
		"--result", writeJSON(t, dir, "result.json", result),
		"--out", dir,
		"--no-answers",
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "quiz-results-english-basics-r-1.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRenderCommandRejectsMismatchedQuiz(t *testing.T) {
	dir := t.TempDir()
	quiz := memory.SampleQuizzes()["english-basics"]
	result := domain.QuizResult{ID: "r-2", QuizID: "learning-style"}

	missingConfig := filepath.Join(dir, "missing.yaml")
	cmd := NewRenderCmd(&missingConfig)
	cmd.SetArgs([]string{
		"--quiz", writeJSON(t, dir, "quiz.json", quiz),
		"--result", writeJSON(t, dir, "result.json", result),
		"--out", dir,
	})
	cmd.SilenceUsage = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "learning-style")
}

func TestLoadOptionalConfig(t *testing.T) {
	cfg, err := loadOptionalConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Config{}, cfg)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage:\n  type: s3\n"), 0o644))
	_, err = loadOptionalConfig(bad)
	assert.Error(t, err)
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Len(t, cfg.Classification.Bands, 4)
}
