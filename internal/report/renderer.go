package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"quiz-result-service/internal/domain"
)

// DefaultTitle heads reports rendered without a title override.
const DefaultTitle = "Quiz Results"

// Options drops optional report sections. The zero value renders every
// section under DefaultTitle.
type Options struct {
	OmitAnswers         bool
	OmitRecommendations bool
	Title               string
}

// DefaultOptions includes every section under the standard title.
func DefaultOptions() Options {
	return Options{Title: DefaultTitle}
}

// Config holds renderer-wide settings.
type Config struct {
	Compress bool   `yaml:"compress"`
	Author   string `yaml:"author"`
}

// Document is a rendered report.
type Document struct {
	Bytes []byte
	Pages int
}

// Renderer lays out a quiz and its result as a paginated A4 PDF.
type Renderer struct {
	cfg Config
	log *zap.Logger
}

func NewRenderer(cfg Config, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{cfg: cfg, log: log}
}

// Render produces the report. Given the same inputs and renderedAt the page
// count and section order are identical; renderedAt only appears in the footer
// and document metadata.
func (r *Renderer) Render(quiz domain.Quiz, result domain.QuizResult, opts Options, renderedAt time.Time) (*Document, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCompression(r.cfg.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(renderedAt)
	pdf.SetModificationDate(renderedAt)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("quiz-result-service", true)
	if r.cfg.Author != "" {
		pdf.SetAuthor(r.cfg.Author, true)
	}
	pdf.AliasNbPages("")

	c := newCanvas(pdf)
	stamp := renderedAt.UTC().Format("2006-01-02 15:04 UTC")
	pdf.SetFooterFunc(func() {
		pdf.SetY(pageHeight - margin + 6)
		c.font("I", 8, colorMuted)
		pdf.CellFormat(contentWidth/2, 5, "Generated "+stamp, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	r.title(c, quiz, opts.Title)
	r.scoreSummary(c, result)
	r.quizDetails(c, quiz)
	if !opts.OmitAnswers {
		r.answerReview(c, quiz, result)
	}
	if !opts.OmitRecommendations {
		r.feedback(c, result)
		r.resources(c, result)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return &Document{Bytes: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

func (r *Renderer) title(c *canvas, quiz domain.Quiz, title string) {
	c.paragraph(title, 22, "B", colorText, 0)
	c.y += 1
	if quiz.Title != "" {
		c.paragraph(quiz.Title, 14, "", colorAccent, 0)
	}
	if quiz.Subtitle != "" {
		c.paragraph(quiz.Subtitle, 11, "I", colorMuted, 0)
	}
	c.y += 2
}

func (r *Renderer) scoreSummary(c *canvas, result domain.QuizResult) {
	c.heading("Score Summary", 20)
	c.y = c.drawTable(table{
		Columns: []column{{Header: "Metric", Width: 1, Bold: true}, {Header: "Value", Width: 2}},
		Rows: [][]string{
			{"Score", formatPoints(result.Score) + " / " + formatPoints(result.MaxScore)},
			{"Percentage", strconv.Itoa(result.Percentage) + "%"},
			{"Level", levelLabel(result.Level)},
			{"Time spent", formatMinutes(result.TimeSpent)},
			{"Completed", result.CompletedAt.UTC().Format("2006-01-02 15:04 UTC")},
		},
	})
}

func (r *Renderer) quizDetails(c *canvas, quiz domain.Quiz) {
	c.heading("Quiz Details", 20)
	rows := [][]string{
		{"Title", orDash(quiz.Title)},
		{"Category", orDash(quiz.Category)},
		{"Difficulty", orDash(quiz.Difficulty)},
		{"Questions", strconv.Itoa(len(quiz.Questions))},
		{"Estimated time", formatMinutes(quiz.EstimatedTime)},
	}
	if quiz.Description != "" {
		rows = append(rows, []string{"Description", quiz.Description})
	}
	c.y = c.drawTable(table{
		Columns: []column{{Header: "Field", Width: 1, Bold: true}, {Header: "Details", Width: 2}},
		Rows:    rows,
	})
}

func (r *Renderer) answerReview(c *canvas, quiz domain.Quiz, result domain.QuizResult) {
	selected := make(map[string]string, len(result.Answers))
	for _, a := range result.Answers {
		if _, ok := quiz.Question(a.QuestionID); !ok {
			r.log.Warn("answer references unknown question, skipping highlight",
				zap.String("resultId", result.ID),
				zap.String("quizId", quiz.ID),
				zap.String("questionId", a.QuestionID),
			)
			continue
		}
		selected[a.QuestionID] = a.OptionID
	}

	c.heading("Answer Review", 30)
	weighted := quiz.Weighted()
	for i, q := range quiz.Questions {
		optionID, answered := selected[q.ID]
		if answered {
			if _, ok := q.Option(optionID); !ok {
				r.log.Warn("answer references unknown option, skipping highlight",
					zap.String("resultId", result.ID),
					zap.String("questionId", q.ID),
					zap.String("optionId", optionID),
				)
			}
		}

		c.space(2)
		prompt := fmt.Sprintf("%d. %s", i+1, q.Prompt)
		c.font("B", 11, colorText)
		promptLines := c.wrap(c.tr(prompt), contentWidth)
		c.ensure(float64(len(promptLines))*lineHeight(11) + 2*lineHeight(tableFontSize) + 4*cellPadding)
		c.paragraph(prompt, 11, "B", colorText, 0)
		c.y += 1

		rows := make([][]string, len(q.Options))
		for j, opt := range q.Options {
			marker := ""
			if answered && opt.ID == optionID {
				marker = "Selected"
			}
			rows[j] = []string{opt.Text, optionPoints(q, opt, weighted), marker}
		}
		c.y = c.drawTable(table{
			Columns: []column{
				{Header: "Option", Width: 5},
				{Header: "Points", Width: 1, Align: "R"},
				{Header: "Your answer", Width: 1.6, Align: "C"},
			},
			Rows: rows,
			Highlight: func(row int) bool {
				return answered && q.Options[row].ID == optionID
			},
		})
	}
}

func (r *Renderer) feedback(c *canvas, result domain.QuizResult) {
	c.heading("Feedback", 10)
	c.paragraph(result.Feedback, 11, "", colorText, 0)
	c.heading("Recommendations", 10)
	c.bullets(result.Recommendations, "No recommendations for this result.")
}

func (r *Renderer) resources(c *canvas, result domain.QuizResult) {
	sections := []struct {
		title string
		items []domain.ItemRef
	}{
		{"Recommended Courses", result.ProposedCourses},
		{"Recommended Products", result.ProposedProducts},
		{"Recommended Streaks", result.ProposedStreaks},
	}
	for _, s := range sections {
		c.heading(s.title, 10)
		names := make([]string, len(s.items))
		for i, item := range s.items {
			names[i] = item.Name
		}
		c.bullets(names, "Nothing to suggest right now.")
	}
}

func optionPoints(q domain.Question, opt domain.Option, weighted bool) string {
	if weighted {
		if opt.Value == nil {
			return "0"
		}
		return formatPoints(*opt.Value)
	}
	if opt.Correct {
		return strconv.Itoa(q.Weight())
	}
	return "0"
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMinutes(m int) string {
	if m <= 0 {
		return "-"
	}
	if m == 1 {
		return "1 minute"
	}
	return strconv.Itoa(m) + " minutes"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func levelLabel(l domain.Level) string {
	switch l {
	case domain.LevelExcellent:
		return "Excellent"
	case domain.LevelGood:
		return "Good"
	case domain.LevelFair:
		return "Fair"
	case domain.LevelNeedsImprovement:
		return "Needs Improvement"
	default:
		return orDash(string(l))
	}
}
