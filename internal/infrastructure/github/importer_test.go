package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"devmatch/internal/config"
	"devmatch/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reposPage = `<html><body>
<ul>
  <li><span itemprop="programmingLanguage">Go</span></li>
  <li><span itemprop="programmingLanguage">TypeScript</span></li>
  <li><span itemprop="programmingLanguage">Go</span></li>
  <li><span itemprop="programmingLanguage"> Rust </span></li>
</ul>
</body></html>`

type stubRenderer struct {
	texts []string
	err   error
	calls int
}

func (s *stubRenderer) Texts(context.Context, string, string) ([]string, error) {
	s.calls++
	return s.texts, s.err
}

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/octocat":
			assert.Equal(t, "repositories", r.URL.Query().Get("tab"))
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImporter_Languages(t *testing.T) {
	srv := newServer(t, reposPage)
	renderer := &stubRenderer{}
	imp := NewImporter(config.GitHubConfig{BaseURL: srv.URL}, renderer, nil)

	langs, err := imp.Languages(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, []Language{
		{Name: "Go", Repos: 2},
		{Name: "Rust", Repos: 1},
		{Name: "TypeScript", Repos: 1},
	}, langs)
	assert.Zero(t, renderer.calls)
}

func TestImporter_MaxRepos(t *testing.T) {
	srv := newServer(t, reposPage)
	imp := NewImporter(config.GitHubConfig{BaseURL: srv.URL, MaxRepos: 2}, nil, nil)

	langs, err := imp.Languages(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, []Language{{Name: "Go", Repos: 1}, {Name: "TypeScript", Repos: 1}}, langs)
}

func TestImporter_HeadlessFallback(t *testing.T) {
	srv := newServer(t, `<html><body><div id="app"></div></body></html>`)
	renderer := &stubRenderer{texts: []string{"Python", "Python"}}
	imp := NewImporter(config.GitHubConfig{BaseURL: srv.URL}, renderer, nil)

	langs, err := imp.Languages(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, []Language{{Name: "Python", Repos: 2}}, langs)
	assert.Equal(t, 1, renderer.calls)
}

func TestImporter_RendererError(t *testing.T) {
	srv := newServer(t, `<html><body></body></html>`)
	imp := NewImporter(config.GitHubConfig{BaseURL: srv.URL}, &stubRenderer{err: errors.New("no chrome")}, nil)

	_, err := imp.Languages(context.Background(), "octocat")
	assert.ErrorContains(t, err, "no chrome")
}

func TestImporter_UnknownUser(t *testing.T) {
	srv := newServer(t, reposPage)
	imp := NewImporter(config.GitHubConfig{BaseURL: srv.URL}, nil, nil)

	_, err := imp.Languages(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImporter_InvalidUsername(t *testing.T) {
	imp := NewImporter(config.GitHubConfig{}, nil, nil)

	for _, name := range []string{"", "-lead", "has space", "a/b"} {
		_, err := imp.Languages(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, name)
	}
}
