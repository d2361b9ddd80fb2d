// Package supabase implements the SupabaseClient port against the Supabase
// management API (https://api.supabase.com/v1).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/sync/errgroup"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SupabaseClient = (*Client)(nil)

// DefaultBaseURL is the production management API endpoint.
const DefaultBaseURL = "https://api.supabase.com/v1"

// mfaUsersQuery joins auth users with an aggregate count of their registered
// MFA factors. A user counts as MFA-enabled when the count is positive.
const mfaUsersQuery = `select id, email, phone, ` +
	`(select count(id) from auth.mfa_factors where user_id = auth.users.id) as mfa_factors_count ` +
	`from auth.users`

// rlsTablesQuery lists public-schema tables with their row-security flag.
const rlsTablesQuery = `select tablename as name, rowsecurity as rls_enabled ` +
	`from pg_catalog.pg_tables where schemaname = 'public';`

// APIError is returned for any non-2xx response from the management API.
// It aborts the refresh that triggered the call.
type APIError struct {
	StatusCode int
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase API %s: unexpected status %d", e.Path, e.StatusCode)
}

// Client implements the driven.SupabaseClient port. One client serves one
// customer credential.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a management API client for the given access token with
// an ETag-based caching transport (conditional requests for project listings).
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL: DefaultBaseURL,
		token:   token,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// FetchProjects lists all projects, then resolves each project's PITR status
// via its backup endpoint. The per-project lookups fan out concurrently and
// fail fast: the first error cancels the remaining lookups.
func (c *Client) FetchProjects(ctx context.Context) ([]model.Project, error) {
	var remote []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, "projects", &remote); err != nil {
		return nil, err
	}

	projects := make([]model.Project, len(remote))
	g, gctx := errgroup.WithContext(ctx)
	for i, rp := range remote {
		g.Go(func() error {
			var backups struct {
				PITREnabled bool `json:"pitr_enabled"`
			}
			path := fmt.Sprintf("projects/%s/database/backups", rp.ID)
			if err := c.get(gctx, path, &backups); err != nil {
				return err
			}
			projects[i] = model.Project{
				RemoteID:    rp.ID,
				Name:        rp.Name,
				PITREnabled: backups.PITREnabled,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return projects, nil
}

// FetchUsers runs the MFA aggregate query against every project concurrently
// and flattens the results. Each user carries the name of its project since
// remote user IDs are only unique within a project.
func (c *Client) FetchUsers(ctx context.Context, projects []model.Project) ([]model.User, error) {
	perProject := make([][]model.User, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, project := range projects {
		g.Go(func() error {
			var rows []struct {
				ID              string `json:"id"`
				Email           string `json:"email"`
				Phone           string `json:"phone"`
				MFAFactorsCount int    `json:"mfa_factors_count"`
			}
			if err := c.runQuery(gctx, project.RemoteID, mfaUsersQuery, &rows); err != nil {
				return err
			}

			users := make([]model.User, 0, len(rows))
			for _, row := range rows {
				users = append(users, model.User{
					RemoteID:    row.ID,
					Email:       row.Email,
					Phone:       row.Phone,
					MFAEnabled:  row.MFAFactorsCount > 0,
					ProjectName: project.Name,
				})
			}
			perProject[i] = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(perProject), nil
}

// FetchTables runs the pg_tables query against every project concurrently
// and flattens the results.
func (c *Client) FetchTables(ctx context.Context, projects []model.Project) ([]model.Table, error) {
	perProject := make([][]model.Table, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, project := range projects {
		g.Go(func() error {
			var rows []struct {
				Name       string `json:"name"`
				RLSEnabled bool   `json:"rls_enabled"`
			}
			if err := c.runQuery(gctx, project.RemoteID, rlsTablesQuery, &rows); err != nil {
				return err
			}

			tables := make([]model.Table, 0, len(rows))
			for _, row := range rows {
				tables = append(tables, model.Table{
					Name:        row.Name,
					RLSEnabled:  row.RLSEnabled,
					ProjectName: project.Name,
				})
			}
			perProject[i] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(perProject), nil
}

// runQuery executes a read-only SQL statement through the management API's
// per-project query endpoint and decodes the row set into out.
func (c *Client) runQuery(ctx context.Context, projectRef, query string, out any) error {
	path := fmt.Sprintf("projects/%s/database/query", projectRef)
	return c.do(ctx, http.MethodPost, path, map[string]string{"query": query}, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}

func flatten[E any](groups [][]E) []E {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	flat := make([]E, 0, n)
	for _, g := range groups {
		flat = append(flat, g...)
	}
	return flat
}
