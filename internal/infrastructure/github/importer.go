package github

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"devmatch/internal/config"
	"devmatch/internal/domain"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const languageSelector = `[itemprop="programmingLanguage"]`

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

// Language is a programming language seen on a user's public repositories.
type Language struct {
	Name  string `json:"name"`
	Repos int    `json:"repos"`
}

// PageRenderer loads a JS-rendered page and returns the text of every element
// matching selector.
type PageRenderer interface {
	Texts(ctx context.Context, url, selector string) ([]string, error)
}

// Importer reads the repository list of a public GitHub profile.
type Importer struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	maxRepos  int
	renderer  PageRenderer
	logger    *zap.Logger
}

func NewImporter(cfg config.GitHubConfig, renderer PageRenderer, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://github.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRepos := cfg.MaxRepos
	if maxRepos <= 0 {
		maxRepos = 30
	}
	return &Importer{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		maxRepos:  maxRepos,
		renderer:  renderer,
		logger:    logger.Named("github"),
	}
}

func ValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// Languages returns the languages of the user's public repositories, most used
// first. It falls back to the headless renderer when the static page lists
// none.
func (i *Importer) Languages(ctx context.Context, username string) ([]Language, error) {
	username = strings.TrimSpace(username)
	if !ValidUsername(username) {
		return nil, fmt.Errorf("%w: invalid github username %q", domain.ErrInvalidArgument, username)
	}
	url := fmt.Sprintf("%s/%s?tab=repositories", i.baseURL, username)

	names, err := i.scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 && i.renderer != nil {
		i.logger.Debug("static page listed no languages, rendering headless", zap.String("username", username))
		names, err = i.renderer.Texts(ctx, url, languageSelector)
		if err != nil {
			return nil, fmt.Errorf("render github profile: %w", err)
		}
	}

	langs := countLanguages(names, i.maxRepos)
	i.logger.Info("github languages imported",
		zap.String("username", username),
		zap.Int("repos", min(len(names), i.maxRepos)),
		zap.Int("languages", len(langs)),
	)
	return langs, nil
}

func (i *Importer) scrape(ctx context.Context, url string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector()
	c.SetRequestTimeout(i.timeout)
	if i.userAgent != "" {
		c.UserAgent = i.userAgent
	}

	var (
		names  []string
		status int
		reqErr error
	)
	c.OnHTML(languageSelector, func(e *colly.HTMLElement) {
		if n := strings.TrimSpace(e.Text); n != "" {
			names = append(names, n)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		reqErr = err
	})

	if err := c.Visit(url); err != nil && reqErr == nil {
		reqErr = err
	}
	c.Wait()

	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: github user", domain.ErrNotFound)
	case reqErr != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch github profile: %w", reqErr)
	}
	return names, nil
}

func countLanguages(names []string, maxRepos int) []Language {
	if len(names) > maxRepos {
		names = names[:maxRepos]
	}
	counts := make(map[string]*Language)
	for _, n := range names {
		key := strings.ToLower(n)
		if l, ok := counts[key]; ok {
			l.Repos++
			continue
		}
		counts[key] = &Language{Name: n, Repos: 1}
	}

	out := make([]Language, 0, len(counts))
	for _, l := range counts {
		out = append(out, *l)
	}
	slices.SortFunc(out, func(a, b Language) int {
		if c := cmp.Compare(b.Repos, a.Repos); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
