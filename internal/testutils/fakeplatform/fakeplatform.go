// Package fakeplatform is an in-memory platform server for tests.
//
// It serves data-concepts collections, batch deletion, job status and token refresh
// under /api/v1, enough for the session and the command line to run end to end.
package fakeplatform

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apierr "github.com/opst/gemdclient/pkg/api/types/errors"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	jobtypes "github.com/opst/gemdclient/pkg/api/types/jobs"
	"github.com/opst/gemdclient/pkg/dataconcepts"
)

const (
	RefreshToken = "refresh-token-for-test"
	AccessToken  = "access-token-for-test"
)

type record struct {
	project string
	dataset string
	tag     string
	body    map[string]any
}

// Platform is the state of the fake.
type Platform struct {
	mu      sync.Mutex
	records []*record
	jobs    map[string]jobtypes.Status
}

// Server is a running fake platform.
type Server struct {
	*Platform
	URL string
}

// Start runs a fake platform until the test ends.
func Start(t *testing.T) *Server {
	t.Helper()
	p := &Platform{jobs: map[string]jobtypes.Status{}}
	srv := httptest.NewServer(p.Handler())
	t.Cleanup(srv.Close)
	return &Server{Platform: p, URL: srv.URL}
}

// Handler builds the echo server of p.
func (p *Platform) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group("/api/v1")
	api.POST("/tokens/refresh", refresh)

	auth := api.Group("", bearer)
	auth.GET("/projects/:project/execution/job-status", p.jobStatus)
	auth.POST("/projects/:project/gemd/batch-delete", p.batchDelete)

	for _, prefix := range []string{"/projects/:project/datasets/:dataset", "/projects/:project"} {
		auth.GET(prefix+"/:segment", p.list)
		auth.GET(prefix+"/:segment/:scope/:id", p.get)
	}
	auth.POST("/projects/:project/datasets/:dataset/:segment", p.register)
	auth.DELETE("/projects/:project/datasets/:dataset/:segment/:scope/:id", p.delete)
	return e
}

// decode reads the JSON body. echo.Context.Bind is not used since it mixes path parameters into maps.
func decode(c echo.Context, v any) error {
	return json.NewDecoder(c.Request().Body).Decode(v)
}

func refresh(c echo.Context) error {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{}
	if err := decode(c, &req); err != nil {
		return apierr.BadRequest("malformed body")
	}
	if req.RefreshToken != RefreshToken {
		return apierr.Unauthorized()
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": AccessToken})
}

func bearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") != "Bearer "+AccessToken {
			return apierr.Unauthorized()
		}
		return next(c)
	}
}

func kindOf(c echo.Context) (dataconcepts.Kind, error) {
	seg := c.Param("segment")
	for _, k := range dataconcepts.Kinds() {
		if k.Segment == seg {
			return k, nil
		}
	}
	return dataconcepts.Kind{}, apierr.NotFound()
}

func uidsOf(body map[string]any) map[string]any {
	uids, _ := body["uids"].(map[string]any)
	return uids
}

// Put stores an object directly, as if it were registered. It returns the canonical id.
func (p *Platform) Put(project, dataset string, body map[string]any) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.put(project, dataset, body)
}

func (p *Platform) put(project, dataset string, body map[string]any) string {
	uids := uidsOf(body)
	if uids == nil {
		uids = map[string]any{}
		body["uids"] = uids
	}
	id, ok := uids[gemd.CanonicalScope].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		uids[gemd.CanonicalScope] = id
	}
	tag, _ := body["type"].(string)

	p.records = slices.DeleteFunc(p.records, func(r *record) bool {
		return r.project == project && uidsOf(r.body)[gemd.CanonicalScope] == id
	})
	p.records = append(p.records, &record{project: project, dataset: dataset, tag: tag, body: body})
	return id
}

// Len returns the number of stored objects.
func (p *Platform) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// SetJob sets the status answered for a job.
func (p *Platform) SetJob(id string, st jobtypes.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[id] = st
}

func (p *Platform) register(c echo.Context) error {
	k, err := kindOf(c)
	if err != nil {
		return err
	}
	body := map[string]any{}
	if err := decode(c, &body); err != nil {
		return apierr.BadRequest("malformed body")
	}
	if body["type"] != k.Tag {
		return apierr.BadRequest(
			"wrong type",
			apierr.WithValidationError("type", "expected "+k.Tag),
		)
	}
	if dry, _ := strconv.ParseBool(c.QueryParam("dry_run")); dry {
		return c.JSON(http.StatusOK, body)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.put(c.Param("project"), c.Param("dataset"), body)
	return c.JSON(http.StatusOK, body)
}

// find returns the matching record. mu should be held.
func (p *Platform) find(project, dataset, tag, scope, id string) (int, *record) {
	for i, r := range p.records {
		if r.project != project || (dataset != "" && r.dataset != dataset) || r.tag != tag {
			continue
		}
		if uidsOf(r.body)[scope] == id {
			return i, r
		}
	}
	return -1, nil
}

func (p *Platform) get(c echo.Context) error {
	k, err := kindOf(c)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, r := p.find(c.Param("project"), c.Param("dataset"), k.Tag, c.Param("scope"), c.Param("id"))
	if r == nil {
		return apierr.NotFound()
	}
	return c.JSON(http.StatusOK, r.body)
}

func hasTag(body map[string]any, tag string) bool {
	tags, _ := body["tags"].([]any)
	return slices.Contains(tags, any(tag))
}

func (p *Platform) list(c echo.Context) error {
	k, err := kindOf(c)
	if err != nil {
		return err
	}
	dataset := c.Param("dataset")
	if dataset == "" {
		dataset = c.QueryParam("dataset_id")
	}
	tag := c.QueryParam("tags")

	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 100
	}
	from := 0
	if cur := c.QueryParam("cursor"); cur != "" {
		if from, err = strconv.Atoi(cur); err != nil {
			return apierr.BadRequest("bad cursor")
		}
	}

	p.mu.Lock()
	matched := []map[string]any{}
	for _, r := range p.records {
		if r.project != c.Param("project") || r.tag != k.Tag {
			continue
		}
		if dataset != "" && r.dataset != dataset {
			continue
		}
		if tag != "" && !hasTag(r.body, tag) {
			continue
		}
		matched = append(matched, r.body)
	}
	p.mu.Unlock()

	if forward, err := strconv.ParseBool(c.QueryParam("forward")); err == nil && !forward {
		slices.Reverse(matched)
	}

	page := struct {
		Contents []map[string]any `json:"contents"`
		Next     string           `json:"next,omitempty"`
	}{Contents: []map[string]any{}}
	if from < len(matched) {
		to := min(from+perPage, len(matched))
		page.Contents = matched[from:to]
		if to < len(matched) {
			page.Next = strconv.Itoa(to)
		}
	}
	return c.JSON(http.StatusOK, page)
}

func (p *Platform) delete(c echo.Context) error {
	k, err := kindOf(c)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	i, r := p.find(c.Param("project"), c.Param("dataset"), k.Tag, c.Param("scope"), c.Param("id"))
	if r == nil {
		return apierr.NotFound()
	}
	if dry, _ := strconv.ParseBool(c.QueryParam("dry_run")); !dry {
		p.records = slices.Delete(p.records, i, i+1)
	}
	return c.NoContent(http.StatusNoContent)
}

func (p *Platform) batchDelete(c echo.Context) error {
	req := struct {
		IDs []struct {
			Scope string `json:"scope"`
			ID    string `json:"id"`
		} `json:"ids"`
	}{}
	if err := decode(c, &req); err != nil {
		return apierr.BadRequest("malformed body")
	}

	type failure struct {
		ID    map[string]string `json:"id"`
		Cause apierr.ApiError   `json:"cause"`
	}
	failures := []failure{}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range req.IDs {
		n := len(p.records)
		p.records = slices.DeleteFunc(p.records, func(r *record) bool {
			return r.project == c.Param("project") && uidsOf(r.body)[l.Scope] == l.ID
		})
		if n == len(p.records) {
			failures = append(failures, failure{
				ID:    map[string]string{"scope": l.Scope, "id": l.ID},
				Cause: apierr.ApiError{Code: http.StatusNotFound, Message: "not found"},
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"failures": failures})
}

func (p *Platform) jobStatus(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("job_id"))
	p.mu.Lock()
	st, ok := p.jobs[id]
	p.mu.Unlock()
	if !ok {
		return apierr.NotFound()
	}
	return c.JSON(http.StatusOK, st)
}
