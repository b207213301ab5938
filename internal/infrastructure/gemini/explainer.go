package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"devmatch/internal/logger"

	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	maxExplanationRunes = 280
	maxLogLength        = 200
)

// Party is what the model is told about one side of a match.
type Party struct {
	Name       string   `json:"name,omitempty"`
	Experience string   `json:"experience,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// Explainer rewrites the computed explanation of a match into a friendlier
// sentence. Any failure returns the computed explanation unchanged.
type Explainer struct {
	generator contentGenerator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewExplainer(generator contentGenerator, timeout time.Duration, log *zap.Logger) *Explainer {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Explainer{generator: generator, timeout: timeout, logger: log.Named("gemini")}
}

func (e *Explainer) Explain(ctx context.Context, requester, candidate Party, score float64, computed string) string {
	if e == nil || e.generator == nil {
		return computed
	}

	prompt := buildPrompt(requester, candidate, score, computed)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	out, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		e.logger.Warn("explanation fallback", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return computed
	}

	out = sanitize(out)
	if out == "" {
		e.logger.Warn("explanation fallback, empty model output")
		return computed
	}
	e.logger.Debug("explanation generated",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("response_preview", logger.Truncate(out, maxLogLength)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return out
}

func buildPrompt(requester, candidate Party, score float64, computed string) string {
	r, _ := json.MarshalIndent(requester, "", "  ")
	c, _ := json.MarshalIndent(candidate, "", "  ")
	return strings.NewReplacer(
		"{{score}}", strconv.FormatFloat(score, 'f', 2, 64),
		"{{summary}}", computed,
		"{{requester}}", string(r),
		"{{candidate}}", string(c),
	).Replace(promptTemplate)
}

// sanitize keeps the first line, strips wrapping quotes and caps the length.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'` ")
	if utf8.RuneCountInString(s) > maxExplanationRunes {
		s = string([]rune(s)[:maxExplanationRunes])
	}
	return strings.TrimSpace(s)
}
