package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/csrf"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	pass   map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*models.User{}, pass: map[string]string{}}
}

func (f *fakeUsers) add(name, password string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: uuid.NewString(), UserName: name}
	f.byName[name] = u
	f.pass[name] = password
	return u
}

func (f *fakeUsers) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byName, name)
}

func (f *fakeUsers) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	f.mu.Lock()
	_, taken := f.byName[creds.UserName]
	f.mu.Unlock()
	if taken {
		return nil, common.ErrorAlreadyExists
	}
	return f.add(creds.UserName, creds.Password), nil
}

func (f *fakeUsers) Logon(ctx context.Context, userName, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[userName]
	if !ok || f.pass[userName] != password {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeJobs keeps jobs in memory with the same ownership rules as the real
// service and counts every call that reaches it.
type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[string]models.Job
	calls     int
	mutations int
	panicList bool
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]models.Job{}}
}

func (f *fakeJobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *fakeJobs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeJobs) setPanic(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panicList = v
}

func (f *fakeJobs) get(id string) models.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

func (f *fakeJobs) owned(jobID, userID string) (models.Job, error) {
	j, ok := f.jobs[jobID]
	if !ok {
		return j, common.ErrorNotFound
	}
	if j.OwnerID != userID {
		return j, common.ErrorUnauthorized
	}
	return j, nil
}

func (f *fakeJobs) List(ctx context.Context, userID string) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panicList {
		panic("list exploded")
	}
	out := []*models.Job{}
	for _, j := range f.jobs {
		if j.OwnerID == userID {
			j := j
			out = append(out, &j)
		}
	}
	return out, nil
}

func (f *fakeJobs) Get(ctx context.Context, jobID, userID string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	j, err := f.owned(jobID, userID)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (f *fakeJobs) Create(ctx context.Context, userID string, in models.JobInput) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	j := models.Job{
		ID: uuid.NewString(), OwnerID: userID,
		Company: in.Company, Position: in.Position, Status: in.StatusOrDefault(),
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.jobs[j.ID] = j
	f.mutations++
	return &j, nil
}

func (f *fakeJobs) Update(ctx context.Context, jobID, userID string, patch models.JobPatch) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	j, err := f.owned(jobID, userID)
	if err != nil {
		return nil, err
	}
	in := patch.Apply(j.Input())
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	j.Company, j.Position, j.Status = in.Company, in.Position, in.StatusOrDefault()
	f.jobs[jobID] = j
	f.mutations++
	return &j, nil
}

func (f *fakeJobs) Delete(ctx context.Context, jobID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, err := f.owned(jobID, userID); err != nil {
		return err
	}
	delete(f.jobs, jobID)
	f.mutations++
	return nil
}

// --- environment ---

type testEnv struct {
	t       *testing.T
	srv     *httptest.Server
	mr      *miniredis.Miniredis
	users   *fakeUsers
	jobs    *fakeJobs
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	log := logging.Nop{}
	d := Deps{
		Users:    newFakeUsers(),
		Jobs:     newFakeJobs(),
		Sessions: session.NewManager(session.NewRedisStore(rdb, ""), session.Config{Secret: []byte("s"), TTL: time.Hour}, log),
		CSRF:     csrf.New(csrf.Config{Secret: []byte("c")}, log),
		Metrics:  metrics.New(),
		Logger:   log,

		LogonAttemptsPerMinute: 100,
	}
	if mutate != nil {
		mutate(&d)
	}

	s, err := NewServer("127.0.0.1:0", d)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		rdb.Close()
		mr.Close()
	})

	return &testEnv{
		t: t, srv: srv, mr: mr,
		users:   d.Users.(*fakeUsers),
		jobs:    d.Jobs.(*fakeJobs),
		metrics: d.Metrics,
	}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

// newClient returns a browser-like client with its own cookie jar that does
// not follow redirects.
func (e *testEnv) newClient() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &client{
		t:    e.t,
		base: e.srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type response struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (c *client) do(req *http.Request) response {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return response{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(b), header: resp.Header}
}

func (c *client) get(path string) response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *client) postForm(path string, v url.Values) response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(v.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) sendJSON(method, path, token string, body any) response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = strings.NewReader(string(b))
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.CSRFHeaderName, token)
	}
	return c.do(req)
}

// token fetches a CSRF token for the client's current session.
func (c *client) token() string {
	c.t.Helper()
	res := c.get("/api/csrf")
	require.Equal(c.t, http.StatusOK, res.status)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal([]byte(res.body), &out))
	require.NotEmpty(c.t, out.Token)
	return out.Token
}

func (c *client) logon(name, password string) {
	c.t.Helper()
	res := c.postForm("/sessions/logon", url.Values{
		"username": {name}, "password": {password}, common.CSRFFieldName: {c.token()},
	})
	require.Equal(c.t, http.StatusSeeOther, res.status)
	require.Equal(c.t, "/", res.location)
}

func (c *client) cookie(name string) string {
	u, _ := url.Parse(c.base)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
