package usecase

import (
	"cmp"
	"context"
	"encoding/json"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/profile"
	"devmatch/internal/domain/project"
	"devmatch/internal/domain/skill"
	"devmatch/internal/domain/user"

	"github.com/google/uuid"
)

func hours(h int) *int { return &h }

func skillID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("skill:"+name))
}

func skillIDs(names ...string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		out = append(out, skillID(n))
	}
	return out
}

// fakeCache is an in-memory Cache. Patterns use glob matching like redis.
type fakeCache struct {
	mu          sync.Mutex
	unavailable bool
	data        map[string][]byte
	deleted     []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Available() bool { return !c.unavailable }

func (c *fakeCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok || c.unavailable {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	if c.unavailable {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *fakeCache) SetIfNotExists(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if c.unavailable {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = []byte(value)
	return true, nil
}

func (c *fakeCache) Release(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if string(c.data[key]) == value {
		delete(c.data, key)
	}
	return nil
}

func (c *fakeCache) keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0)
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

type fakeProfiles struct {
	byID     map[uuid.UUID]profile.Profile
	order    []uuid.UUID
	listErr  error
	getCalls int
}

func newFakeProfiles(ps ...profile.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[uuid.UUID]profile.Profile{}}
	for _, p := range ps {
		f.byID[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (profile.Profile, error) {
	f.getCalls++
	p, ok := f.byID[id]
	if !ok {
		return profile.Profile{}, user.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) ListProfiles(_ context.Context, limit int) ([]profile.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]profile.Profile, 0, len(f.order))
	for _, id := range f.order {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, f.byID[id])
	}
	return out, nil
}

// fakeMatches mimics the compare-and-swap semantics of the postgres repository.
type fakeMatches struct {
	mu   sync.Mutex
	byID map[uuid.UUID]match.Match
	// readBarrier, when set, holds every GetByID until all expected readers
	// have loaded the row.
	readBarrier *sync.WaitGroup
}

func newFakeMatches(ms ...match.Match) *fakeMatches {
	f := &fakeMatches{byID: map[uuid.UUID]match.Match{}}
	for _, m := range ms {
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMatches) Create(_ context.Context, m match.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Status == match.StatusPending && e.Involves(m.RequesterID) && e.Involves(m.RecipientID) && e.SameScope(m.ProjectID) {
			return domain.ErrConflict
		}
	}
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMatches) GetByID(_ context.Context, id uuid.UUID) (match.Match, error) {
	f.mu.Lock()
	m, ok := f.byID[id]
	f.mu.Unlock()
	if f.readBarrier != nil {
		f.readBarrier.Done()
		f.readBarrier.Wait()
	}
	if !ok {
		return match.Match{}, match.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatches) filter(keep func(match.Match) bool) []match.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Match, 0)
	for _, m := range f.byID {
		if keep(m) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b match.Match) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (f *fakeMatches) ListByRecipient(_ context.Context, userID uuid.UUID, status *match.Status) ([]match.Match, error) {
	return f.filter(func(m match.Match) bool {
		return m.RecipientID == userID && (status == nil || m.Status == *status)
	}), nil
}

func (f *fakeMatches) ListByRequester(_ context.Context, userID uuid.UUID) ([]match.Match, error) {
	return f.filter(func(m match.Match) bool { return m.RequesterID == userID }), nil
}

func (f *fakeMatches) ListForUser(_ context.Context, userID uuid.UUID) ([]match.Match, error) {
	return f.filter(func(m match.Match) bool { return m.Involves(userID) }), nil
}

func (f *fakeMatches) UpdateStatusIfPending(_ context.Context, m match.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[m.ID]
	if !ok || stored.Status != match.StatusPending {
		return domain.ErrConflict
	}
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMatches) ExpirePendingBefore(_ context.Context, cutoff, at time.Time) ([]match.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Match, 0)
	for id, m := range f.byID {
		if m.Status != match.StatusPending || !m.CreatedAt.Before(cutoff) {
			continue
		}
		if err := m.Transition(match.StatusExpired, at); err != nil {
			return nil, err
		}
		f.byID[id] = m
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b match.Match) int { return cmp.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

type fakeProjects struct {
	byID map[uuid.UUID]project.Project
}

func newFakeProjects(ps ...project.Project) *fakeProjects {
	f := &fakeProjects{byID: map[uuid.UUID]project.Project{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, p project.Project) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (project.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjects) Update(_ context.Context, p project.Project) error {
	if _, ok := f.byID[p.ID]; !ok {
		return project.ErrNotFound
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return project.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProjects) ListOpen(_ context.Context, limit, offset int) ([]project.Project, error) {
	return f.filter(func(p project.Project) bool { return p.Open }), nil
}

func (f *fakeProjects) ListAcceptingMembers(_ context.Context, limit, offset int) ([]project.Project, error) {
	return f.filter(project.Project.AcceptingMembers), nil
}

func (f *fakeProjects) ListByCreator(_ context.Context, creatorID uuid.UUID) ([]project.Project, error) {
	return f.filter(func(p project.Project) bool { return p.CreatorID == creatorID }), nil
}

func (f *fakeProjects) AddMember(_ context.Context, projectID, userID uuid.UUID, _ time.Time) error {
	p, ok := f.byID[projectID]
	if !ok {
		return project.ErrNotFound
	}
	if p.HasMember(userID) {
		return project.ErrAlreadyMember
	}
	if !p.AcceptingMembers() {
		return project.ErrTeamFull
	}
	p.MemberIDs = append(slices.Clone(p.MemberIDs), userID)
	p.CurrentTeamSize++
	f.byID[projectID] = p
	return nil
}

func (f *fakeProjects) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	p, ok := f.byID[projectID]
	if !ok || !p.HasMember(userID) {
		return project.ErrNotMember
	}
	p.MemberIDs = slices.DeleteFunc(slices.Clone(p.MemberIDs), func(id uuid.UUID) bool { return id == userID })
	p.CurrentTeamSize = max(p.CurrentTeamSize-1, 1)
	f.byID[projectID] = p
	return nil
}

func (f *fakeProjects) filter(keep func(project.Project) bool) []project.Project {
	out := make([]project.Project, 0)
	for _, p := range f.byID {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type fakeSkills struct {
	items     []skill.Skill
	listCalls int
}

func newFakeSkills(names ...string) *fakeSkills {
	f := &fakeSkills{}
	for _, n := range names {
		f.items = append(f.items, skill.Skill{ID: skillID(n), Name: n, Category: skill.CategoryOther})
	}
	return f
}

func (f *fakeSkills) List(context.Context) ([]skill.Skill, error) {
	f.listCalls++
	return slices.Clone(f.items), nil
}

func (f *fakeSkills) GetByID(_ context.Context, id uuid.UUID) (skill.Skill, error) {
	for _, s := range f.items {
		if s.ID == id {
			return s, nil
		}
	}
	return skill.Skill{}, skill.ErrNotFound
}

func (f *fakeSkills) Search(_ context.Context, q string, _ int) ([]skill.Skill, error) {
	out := make([]skill.Skill, 0)
	for _, s := range f.items {
		if strings.Contains(skill.NormalizeName(s.Name), skill.NormalizeName(q)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSkills) ListByCategory(_ context.Context, c skill.Category) ([]skill.Skill, error) {
	out := make([]skill.Skill, 0)
	for _, s := range f.items {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSkills) FindByNames(_ context.Context, names []string) ([]skill.Skill, error) {
	out := make([]skill.Skill, 0)
	for _, s := range f.items {
		for _, n := range names {
			if skill.NormalizeName(n) == skill.NormalizeName(s.Name) {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSkills) MissingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for _, id := range ids {
		if !slices.ContainsFunc(f.items, func(s skill.Skill) bool { return s.ID == id }) {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]user.User
}

func newFakeUsers(us ...user.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]user.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Email == u.Email {
			return domain.ErrConflict
		}
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) find(keep func(user.User) bool) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if keep(u) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	return f.find(func(u user.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	return f.find(func(u user.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetUserByProvider(_ context.Context, provider, providerID string) (user.User, error) {
	return f.find(func(u user.User) bool { return u.AuthProvider == provider && u.ProviderID == providerID })
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := f.GetUserByID(ctx, id)
	return err == nil && u.Active, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, upd user.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Experience != nil {
		u.Experience = *upd.Experience
	}
	if upd.GitHubUsername != nil {
		u.GitHubUsername = *upd.GitHubUsername
	}
	if upd.HoursPerWeek != nil {
		u.HoursPerWeek = upd.HoursPerWeek
	}
	if upd.Interests != nil {
		u.Interests = profile.NormalizeInterests(*upd.Interests)
	}
	if upd.SkillIDs != nil {
		u.Skills = nil
		for _, id := range *upd.SkillIDs {
			u.Skills = append(u.Skills, skill.Skill{ID: id})
		}
	}
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) AddSkills(_ context.Context, id uuid.UUID, skillIDs []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return 0, user.ErrNotFound
	}
	added := 0
	for _, sid := range skillIDs {
		if slices.ContainsFunc(u.Skills, func(s skill.Skill) bool { return s.ID == sid }) {
			continue
		}
		u.Skills = append(u.Skills, skill.Skill{ID: sid})
		added++
	}
	f.byID[id] = u
	return added, nil
}

func (f *fakeUsers) Search(_ context.Context, fl user.DirectoryFilter) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]user.User, 0)
	for _, u := range f.byID {
		if fl.Search == "" || strings.Contains(strings.ToLower(u.FullName), strings.ToLower(fl.Search)) {
			out = append(out, u)
		}
	}
	return out, nil
}

type sentEvent struct {
	userID  uuid.UUID
	event   string
	matchID uuid.UUID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) NotifyMatch(userID uuid.UUID, eventType string, m match.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{userID: userID, event: eventType, matchID: m.ID})
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]user.RefreshToken
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{byUser: map[uuid.UUID]user.RefreshToken{}}
}

func (f *fakeRefreshTokens) Save(_ context.Context, t user.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[t.UserID] = t
	return nil
}

func (f *fakeRefreshTokens) GetByUser(_ context.Context, userID uuid.UUID) (user.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byUser[userID]
	if !ok {
		return user.RefreshToken{}, user.ErrRefreshTokenNotFound
	}
	return t, nil
}

func (f *fakeRefreshTokens) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, userID)
	return nil
}
