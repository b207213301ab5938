package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devmatch/internal/delivery/http/handler"
	"devmatch/internal/delivery/http/middleware"
	"devmatch/internal/delivery/http/routes"
	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/matching"
	"devmatch/internal/domain/project"
	"devmatch/internal/domain/skill"
	"devmatch/internal/domain/user"
	"devmatch/internal/pkg/jwt"
	"devmatch/internal/usecase"
	ucauth "devmatch/internal/usecase/auth"
	ucuser "devmatch/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubMatching struct {
	find  func(ctx context.Context, requester uuid.UUID, q matching.Query) ([]matching.ScoredCandidate, error)
	score func(ctx context.Context, a, b uuid.UUID) (float64, error)
}

func (s stubMatching) FindMatches(ctx context.Context, requester uuid.UUID, q matching.Query) ([]matching.ScoredCandidate, error) {
	return s.find(ctx, requester, q)
}

func (s stubMatching) Score(ctx context.Context, a, b uuid.UUID) (float64, error) {
	return s.score(ctx, a, b)
}

type stubMatches struct {
	err  error
	last usecase.RespondInput
}

func (s *stubMatches) Create(_ context.Context, requester uuid.UUID, in usecase.CreateMatchInput) (match.Match, error) {
	if s.err != nil {
		return match.Match{}, s.err
	}
	return match.New(requester, in.RecipientID, in.ProjectID, in.Message, time.Now())
}

func (s *stubMatches) Respond(_ context.Context, matchID, _ uuid.UUID, in usecase.RespondInput) (match.Match, error) {
	s.last = in
	if s.err != nil {
		return match.Match{}, s.err
	}
	return match.Match{ID: matchID, Status: in.Status}, nil
}

func (s *stubMatches) Get(_ context.Context, matchID, _ uuid.UUID) (match.Match, error) {
	return match.Match{ID: matchID}, s.err
}

func (s *stubMatches) ListReceived(context.Context, uuid.UUID) ([]match.Match, error) {
	return nil, s.err
}

func (s *stubMatches) ListSent(context.Context, uuid.UUID) ([]match.Match, error) {
	return nil, s.err
}

func (s *stubMatches) ListPending(context.Context, uuid.UUID) ([]match.Match, error) {
	return nil, s.err
}

func (s *stubMatches) ExpireStale(context.Context) (int, error) { return 0, s.err }

type stubAuth struct {
	synced    ucauth.SyncInput
	loggedOut uuid.UUID
}

func (s *stubAuth) Register(_ context.Context, in ucauth.RegisterInput) (usecase.Session, error) {
	if in.Email == "taken@example.test" {
		return usecase.Session{}, ucauth.ErrEmailAlreadyRegistered
	}
	return usecase.Session{User: user.User{ID: uuid.New(), Email: in.Email}, Tokens: jwt.TokenPair{AccessToken: "a"}}, nil
}

func (s *stubAuth) Login(context.Context, ucauth.LoginInput) (usecase.Session, error) {
	return usecase.Session{}, ucauth.ErrInvalidCredentials
}

func (s *stubAuth) Refresh(context.Context, string) (jwt.TokenPair, error) {
	return jwt.TokenPair{}, usecase.ErrRefreshTokenExpired
}

func (s *stubAuth) Logout(_ context.Context, userID uuid.UUID) error {
	s.loggedOut = userID
	return nil
}

func (s *stubAuth) Sync(_ context.Context, in ucauth.SyncInput) (usecase.Session, bool, error) {
	s.synced = in
	return usecase.Session{User: user.User{ID: uuid.New(), Email: in.Email}}, true, nil
}

type stubUsers struct {
	filter user.DirectoryFilter
}

func (s *stubUsers) GetMe(_ context.Context, id uuid.UUID) (user.User, error) {
	return user.User{ID: id, Email: "me@example.test"}, nil
}

func (s *stubUsers) Get(context.Context, uuid.UUID) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (s *stubUsers) UpdateMe(context.Context, uuid.UUID, ucuser.UpdateProfileInput) (user.User, error) {
	return user.User{}, fmt.Errorf("%w: hoursPerWeek must be within [0,168]", domain.ErrInvalidArgument)
}

func (s *stubUsers) Search(_ context.Context, f user.DirectoryFilter) ([]user.User, error) {
	s.filter = f
	return []user.User{}, nil
}

func (s *stubUsers) SyncGitHub(context.Context, uuid.UUID) (ucuser.GitHubSyncResult, error) {
	return ucuser.GitHubSyncResult{}, nil
}

type stubSkills struct{}

func (stubSkills) List(context.Context) ([]skill.Skill, error) {
	return []skill.Skill{{ID: uuid.New(), Name: "Go", Category: skill.CategoryBackend}}, nil
}

func (stubSkills) Get(context.Context, uuid.UUID) (skill.Skill, error) {
	return skill.Skill{}, skill.ErrNotFound
}

func (stubSkills) Search(_ context.Context, q string, _ int) ([]skill.Skill, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: q is required", domain.ErrInvalidArgument)
	}
	return []skill.Skill{}, nil
}

func (stubSkills) ListByCategory(_ context.Context, c string) ([]skill.Skill, error) {
	_, err := skill.ParseCategory(c)
	return []skill.Skill{}, err
}

type stubProjects struct {
	creator   uuid.UUID
	update    usecase.UpdateProjectInput
	removedBy uuid.UUID
}

func (s *stubProjects) Create(_ context.Context, creator uuid.UUID, in usecase.CreateProjectInput) (project.Project, error) {
	return project.New(creator, in.Title, in.Description, in.RequiredSkills, in.MaxTeamSize, time.Now())
}

func (s *stubProjects) Get(context.Context, uuid.UUID) (project.Project, error) {
	return project.Project{}, project.ErrNotFound
}

func (s *stubProjects) Update(_ context.Context, actor, id uuid.UUID, in usecase.UpdateProjectInput) (project.Project, error) {
	s.update = in
	return project.Project{ID: id, CreatorID: actor, MemberIDs: []uuid.UUID{}}, nil
}

func (s *stubProjects) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return fmt.Errorf("%w: only the creator can manage this project", domain.ErrForbidden)
}

func (s *stubProjects) ListOpen(context.Context, int, int) ([]project.Project, error) {
	return []project.Project{}, nil
}

func (s *stubProjects) ListAcceptingMembers(context.Context, int, int) ([]project.Project, error) {
	return []project.Project{}, nil
}

func (s *stubProjects) ListByCreator(_ context.Context, creator uuid.UUID) ([]project.Project, error) {
	s.creator = creator
	return []project.Project{}, nil
}

func (s *stubProjects) AddMember(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (project.Project, error) {
	return project.Project{}, project.ErrTeamFull
}

func (s *stubProjects) RemoveMember(_ context.Context, actor, id, member uuid.UUID) (project.Project, error) {
	s.removedBy = actor
	return project.Project{ID: id, MemberIDs: []uuid.UUID{}}, nil
}

type testServer struct {
	app      *fiber.App
	tokens   *jwt.HMACService
	userID   uuid.UUID
	token    string
	matches  *stubMatches
	auth     *stubAuth
	users    *stubUsers
	projects *stubProjects
}

func newTestServer(t *testing.T, m stubMatching) *testServer {
	t.Helper()
	s := &testServer{
		tokens:   jwt.NewHMACService("a-secret", "r-secret", time.Minute, time.Hour),
		userID:   uuid.New(),
		matches:  &stubMatches{},
		auth:     &stubAuth{},
		users:    &stubUsers{},
		projects: &stubProjects{},
	}
	pair, err := s.tokens.IssuePair(s.userID, "me@example.test")
	require.NoError(t, err)
	s.token = pair.AccessToken

	s.app = fiber.New()
	s.app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	routes.NewRegistry(routes.Handlers{
		Health:   handler.NewHealthHandler(map[string]handler.Check{"db": func(context.Context) error { return nil }}),
		Auth:     handler.NewAuthHandler(s.auth, "sync-secret"),
		Users:    handler.NewUserHandler(s.users),
		Skills:   handler.NewSkillHandler(stubSkills{}),
		Projects: handler.NewProjectHandler(s.projects),
		Matches:  handler.NewMatchHandler(m, s.matches),
	}, middleware.NewAuthMiddleware(s.tokens), 5*time.Second, 30*time.Second).Register(s.app)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func noMatching() stubMatching {
	return stubMatching{
		find: func(context.Context, uuid.UUID, matching.Query) ([]matching.ScoredCandidate, error) { return nil, nil },
		score: func(context.Context, uuid.UUID, uuid.UUID) (float64, error) {
			return 0, nil
		},
	}
}

func TestFindMatches(t *testing.T) {
	cand := uuid.New()
	var got matching.Query
	var requester uuid.UUID
	s := newTestServer(t, stubMatching{
		find: func(_ context.Context, r uuid.UUID, q matching.Query) ([]matching.ScoredCandidate, error) {
			requester, got = r, q
			return []matching.ScoredCandidate{{CandidateID: cand, Score: 0.8, Explanation: "1 shared skill", SharedSkills: 1}}, nil
		},
	})

	code, env := s.do(t, http.MethodPost, "/api/matches/find", map[string]any{"limit": 5, "experienceLevel": "advanced", "interests": []string{"ai"}})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, s.userID, requester)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, "ADVANCED", string(got.MinExperience))

	var items []matching.ScoredCandidate
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, cand, items[0].CandidateID)
}

func TestFindMatches_EmptyIsArray(t *testing.T) {
	s := newTestServer(t, noMatching())
	code, env := s.do(t, http.MethodPost, "/api/matches/find", map[string]any{})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestFindMatches_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: limit must be positive", domain.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("%w: requester", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: context deadline exceeded", domain.ErrTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.code), func(t *testing.T) {
			s := newTestServer(t, stubMatching{
				find: func(context.Context, uuid.UUID, matching.Query) ([]matching.ScoredCandidate, error) {
					return nil, tc.err
				},
			})
			code, env := s.do(t, http.MethodPost, "/api/matches/find", map[string]any{})
			assert.Equal(t, tc.code, code)
			assert.False(t, env.Success)
			if tc.code == http.StatusInternalServerError {
				assert.NotContains(t, env.Message, "refused")
			}
		})
	}
}

func TestFindMatches_BadExperience(t *testing.T) {
	s := newTestServer(t, noMatching())
	code, _ := s.do(t, http.MethodPost, "/api/matches/find", map[string]any{"experienceLevel": "wizard"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScore(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := newTestServer(t, stubMatching{
		score: func(_ context.Context, x, y uuid.UUID) (float64, error) {
			if x == a && y == b {
				return 0.75, nil
			}
			return 0, domain.ErrNotFound
		},
	})

	code, env := s.do(t, http.MethodGet, "/api/matches/score/"+a.String()+"/"+b.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `0.75`, string(env.Data))

	code, _ = s.do(t, http.MethodGet, "/api/matches/score/not-a-uuid/"+b.String(), nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMatchLifecycleStatuses(t *testing.T) {
	s := newTestServer(t, noMatching())
	recipient := uuid.New()

	code, env := s.do(t, http.MethodPost, "/api/matches", map[string]any{"recipientId": recipient, "message": "hi"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "PENDING", created["status"])
	assert.Equal(t, recipient.String(), created["recipientId"])

	id := uuid.New().String()
	code, _ = s.do(t, http.MethodPut, "/api/matches/"+id+"/respond", map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, match.StatusAccepted, s.matches.last.Status)

	code, _ = s.do(t, http.MethodPut, "/api/matches/"+id+"/respond", map[string]any{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)

	for err, want := range map[error]int{
		fmt.Errorf("%w: only the recipient can respond", domain.ErrForbidden):    http.StatusForbidden,
		fmt.Errorf("%w: ACCEPTED -> REJECTED", domain.ErrInvalidStateTransition): http.StatusConflict,
		fmt.Errorf("%w: match was already answered", domain.ErrConflict):         http.StatusConflict,
		match.ErrNotFound: http.StatusNotFound,
	} {
		s.matches.err = err
		code, env := s.do(t, http.MethodPut, "/api/matches/"+id+"/respond", map[string]any{"status": "REJECTED"})
		assert.Equal(t, want, code)
		assert.Equal(t, err.Error(), env.Message)
	}
}

func TestMatchLists(t *testing.T) {
	s := newTestServer(t, noMatching())
	for _, p := range []string{"received", "sent", "pending"} {
		code, env := s.do(t, http.MethodGet, "/api/matches/"+p, nil)
		require.Equal(t, http.StatusOK, code, p)
		assert.JSONEq(t, `[]`, string(env.Data), p)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, noMatching())

	s.token = ""
	code, env := s.do(t, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	refresh, err := s.tokens.IssuePair(s.userID, "")
	require.NoError(t, err)
	s.token = refresh.RefreshToken
	code, _ = s.do(t, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "refresh token is not an access token")
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, noMatching())

	code, env := s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"email": "new@example.test", "password": "long enough"})
	require.Equal(t, http.StatusCreated, code)
	var session map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "a", session["accessToken"])

	code, _ = s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"email": "taken@example.test", "password": "long enough"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "x@example.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Refresh token expired", env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, s.userID, s.auth.loggedOut)
}

func TestAuthLogoutRequiresAccessToken(t *testing.T) {
	s := newTestServer(t, noMatching())
	s.token = ""
	code, _ := s.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, uuid.Nil, s.auth.loggedOut)

	code, _ = s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "x@example.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthSyncSecret(t *testing.T) {
	s := newTestServer(t, noMatching())
	body := map[string]any{"provider": "github", "providerId": "1", "email": "o@example.test"}

	code, _ := s.do(t, http.MethodPost, "/api/auth/sync", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, s.auth.synced.ProviderID)

	code, env := s.do(t, http.MethodPost, "/api/auth/sync", body, middleware.HeaderSyncSecret, "sync-secret")
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "1", s.auth.synced.ProviderID)
	assert.Contains(t, string(env.Data), `"created":true`)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, noMatching())
	a, b := uuid.New(), uuid.New()

	code, env := s.do(t, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), s.userID.String())

	code, _ = s.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/api/users/me", map[string]any{"hoursPerWeek": 500})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/users?search=ada&skillIds="+a.String()+","+b.String()+"&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, user.DirectoryFilter{Search: "ada", SkillIDs: []uuid.UUID{a, b}, Limit: 5, Offset: 10}, s.users.filter)

	code, _ = s.do(t, http.MethodGet, "/api/users?skillIds=nope", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/users?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSkillAndProjectRoutes(t *testing.T) {
	s := newTestServer(t, noMatching())

	code, _ := s.do(t, http.MethodGet, "/api/skills", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/skills/search?q=go", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/skills/category/cooking", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/skills/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(t, http.MethodPost, "/api/projects", map[string]any{"title": "Hack week", "maxTeamSize": 4})
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"currentTeamSize":1`)
	code, _ = s.do(t, http.MethodPost, "/api/projects", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/projects/open", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestProjectManagementRoutes(t *testing.T) {
	s := newTestServer(t, noMatching())
	id, member, creator := uuid.NewString(), uuid.New(), uuid.New()

	code, env := s.do(t, http.MethodGet, "/api/projects/accepting-members", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, _ = s.do(t, http.MethodGet, "/api/projects/user/"+creator.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, creator, s.projects.creator)
	code, _ = s.do(t, http.MethodGet, "/api/projects/user/nope", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPut, "/api/projects/"+id, map[string]any{"title": "New", "isOpen": false})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, s.projects.update.Title)
	assert.Equal(t, "New", *s.projects.update.Title)
	require.NotNil(t, s.projects.update.Open)
	assert.False(t, *s.projects.update.Open)
	assert.Nil(t, s.projects.update.MaxTeamSize)
	assert.Contains(t, string(env.Data), `"memberIds":[]`)

	code, _ = s.do(t, http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects/"+id+"/members/"+member.String(), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodDelete, "/api/projects/"+id+"/members/"+member.String(), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, s.userID, s.projects.removedBy)
}

func TestRequestTimeoutHeader(t *testing.T) {
	var deadline time.Duration
	s := newTestServer(t, stubMatching{
		find: func(ctx context.Context, _ uuid.UUID, _ matching.Query) ([]matching.ScoredCandidate, error) {
			d, ok := ctx.Deadline()
			if ok {
				deadline = time.Until(d)
			}
			return nil, nil
		},
	})

	code, _ := s.do(t, http.MethodPost, "/api/matches/find", map[string]any{}, middleware.HeaderRequestTimeout, "2m")
	require.Equal(t, http.StatusOK, code)
	assert.LessOrEqual(t, deadline, 30*time.Second, "capped")
	assert.Greater(t, deadline, 5*time.Second)

	code, _ = s.do(t, http.MethodPost, "/api/matches/find", map[string]any{}, middleware.HeaderRequestTimeout, "soon")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, noMatching())
	code, env := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"db":"ok"}`, string(env.Data))
}
