// Package remote is the JSON-over-HTTP binding of the artifact service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

var (
	ErrBaseURLInvalid = errors.New("remote: base url is invalid")
	ErrNotConnected   = errors.New("remote: no project bound to the session")
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 32 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is the service endpoint; RPC methods are posted to
	// BaseURL/<method>.
	BaseURL string
	// WebURL is the browser root used for attachment links. Defaults to the
	// scheme and host of BaseURL.
	WebURL          string
	AttachmentRoute string
	Timeout         time.Duration
	HTTPClient      *http.Client
	Logger          interfaces.Logger
}

// Client talks to the artifact service. Authenticate establishes a session
// cookie that later calls reuse. Calls within one run are sequential.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	resolver  *URLResolver
	logger    interfaces.Logger
	projectID int
}

var _ interfaces.ArtifactClient = (*Client)(nil)

// NewClient validates cfg and builds a client with its own cookie jar.
func NewClient(cfg Config) (*Client, error) {
	endpoint, err := parseBase(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("remote: cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	web := strings.TrimSpace(cfg.WebURL)
	if web == "" {
		web = endpoint.Scheme + "://" + endpoint.Host
	}
	resolver, err := NewURLResolver(URLResolverConfig{BaseURL: web, Route: cfg.AttachmentRoute})
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		resolver: resolver,
		logger:   logging.OrNoOp(cfg.Logger),
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURLInvalid, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q needs an http or https scheme", ErrBaseURLInvalid, raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrBaseURLInvalid, raw)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed, nil
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Fault  *Fault          `json:"fault"`
}

// call posts params to method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	start := time.Now()
	logger := logging.WithFields(c.logger, map[string]any{"method": method}).WithContext(ctx)

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("remote: encode %s: %w", method, err)
	}
	target := *c.endpoint
	target.Path = c.endpoint.Path + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("docsync.remote.call_failed", "error", err)
		return fmt.Errorf("remote: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("remote: read %s response: %w", method, err)
	}
	logger.Debug("docsync.remote.call", "status", resp.StatusCode, "duration", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr == nil && env.Fault != nil {
		env.Fault.Status = resp.StatusCode
		return c.faultError(method, env.Fault)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", method, interfaces.ErrArtifactNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote: %s: unexpected status %d", method, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("remote: decode %s response: %w", method, decodeErr)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("remote: decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) faultError(method string, fault *Fault) error {
	if fault.notFound() {
		return fmt.Errorf("%s: %w: %s", method, interfaces.ErrArtifactNotFound, fault.Reason())
	}
	c.logger.Warn("docsync.remote.fault", "method", method, "reason", fault.Reason())
	return wrapFault(fault)
}

// Authenticate exchanges credentials for a session cookie.
func (c *Client) Authenticate(ctx context.Context, user, secret string) (bool, error) {
	var ok bool
	err := c.call(ctx, "Connection.Authenticate", map[string]any{
		"username": user,
		"password": secret,
	}, &ok)
	return ok, err
}

// ConnectToProject binds the session to a project.
func (c *Client) ConnectToProject(ctx context.Context, projectID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "Connection.ConnectToProject", map[string]any{"project_id": projectID}, &ok); err != nil {
		return false, err
	}
	if ok {
		c.projectID = projectID
	}
	return ok, nil
}

// ProjectID returns the bound project, or zero.
func (c *Client) ProjectID() int {
	return c.projectID
}

func (c *Client) CreateRequirement(ctx context.Context, req interfaces.Requirement, indentOffset int) (*interfaces.Requirement, error) {
	var out interfaces.Requirement
	err := c.call(ctx, "Requirement.Create", map[string]any{
		"requirement":   req,
		"indent_offset": indentOffset,
	}, &out)
	return result(&out, err)
}

func (c *Client) UpdateRequirement(ctx context.Context, req interfaces.Requirement) (*interfaces.Requirement, error) {
	var out interfaces.Requirement
	err := c.call(ctx, "Requirement.Update", map[string]any{"requirement": req}, &out)
	return result(&out, err)
}

func (c *Client) FetchRequirement(ctx context.Context, id int) (*interfaces.Requirement, error) {
	var out interfaces.Requirement
	err := c.call(ctx, "Requirement.Retrieve", map[string]any{"id": id}, &out)
	return result(&out, err)
}

func (c *Client) FetchRequirements(ctx context.Context) ([]interfaces.Requirement, error) {
	var out []interfaces.Requirement
	err := c.call(ctx, "Requirement.List", map[string]any{}, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, task interfaces.Task) (*interfaces.Task, error) {
	var out interfaces.Task
	err := c.call(ctx, "Task.Create", map[string]any{"task": task}, &out)
	return result(&out, err)
}

func (c *Client) UpdateTask(ctx context.Context, task interfaces.Task) (*interfaces.Task, error) {
	var out interfaces.Task
	err := c.call(ctx, "Task.Update", map[string]any{"task": task}, &out)
	return result(&out, err)
}

func (c *Client) FetchTask(ctx context.Context, id int) (*interfaces.Task, error) {
	var out interfaces.Task
	err := c.call(ctx, "Task.Retrieve", map[string]any{"id": id}, &out)
	return result(&out, err)
}

func (c *Client) FetchTasks(ctx context.Context) ([]interfaces.Task, error) {
	var out []interfaces.Task
	err := c.call(ctx, "Task.List", map[string]any{}, &out)
	return out, err
}

func (c *Client) CreateRelease(ctx context.Context, release interfaces.Release) (*interfaces.Release, error) {
	var out interfaces.Release
	err := c.call(ctx, "Release.Create", map[string]any{"release": release}, &out)
	return result(&out, err)
}

func (c *Client) FetchRelease(ctx context.Context, id int) (*interfaces.Release, error) {
	var out interfaces.Release
	err := c.call(ctx, "Release.Retrieve", map[string]any{"id": id}, &out)
	return result(&out, err)
}

func (c *Client) FetchReleases(ctx context.Context) ([]interfaces.Release, error) {
	var out []interfaces.Release
	err := c.call(ctx, "Release.List", map[string]any{}, &out)
	return out, err
}

func (c *Client) CreateTestCaseFolder(ctx context.Context, folder interfaces.TestFolder) (*interfaces.TestFolder, error) {
	var out interfaces.TestFolder
	err := c.call(ctx, "TestFolder.Create", map[string]any{"folder": folder}, &out)
	return result(&out, err)
}

func (c *Client) FetchTestCaseFolder(ctx context.Context, id int) (*interfaces.TestFolder, error) {
	var out interfaces.TestFolder
	err := c.call(ctx, "TestFolder.Retrieve", map[string]any{"id": id}, &out)
	return result(&out, err)
}

func (c *Client) CreateTestCase(ctx context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	var out interfaces.TestCase
	err := c.call(ctx, "TestCase.Create", map[string]any{"test_case": tc}, &out)
	return result(&out, err)
}

func (c *Client) UpdateTestCase(ctx context.Context, tc interfaces.TestCase) (*interfaces.TestCase, error) {
	var out interfaces.TestCase
	err := c.call(ctx, "TestCase.Update", map[string]any{"test_case": tc}, &out)
	return result(&out, err)
}

func (c *Client) FetchTestCase(ctx context.Context, id int) (*interfaces.TestCase, error) {
	var out interfaces.TestCase
	err := c.call(ctx, "TestCase.Retrieve", map[string]any{"id": id}, &out)
	return result(&out, err)
}

func (c *Client) AddTestStep(ctx context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	var out interfaces.TestStep
	err := c.call(ctx, "TestStep.Add", map[string]any{"test_step": step}, &out)
	return result(&out, err)
}

func (c *Client) UpdateTestStep(ctx context.Context, step interfaces.TestStep) (*interfaces.TestStep, error) {
	var out interfaces.TestStep
	err := c.call(ctx, "TestStep.Update", map[string]any{"test_step": step}, &out)
	return result(&out, err)
}

// AddAttachment uploads data against an artifact. The bytes travel base64
// encoded in the JSON body.
func (c *Client) AddAttachment(ctx context.Context, kind interfaces.ArtifactKind, artifactID int, data []byte, filename string) (int, error) {
	var id int
	err := c.call(ctx, "Attachment.Add", map[string]any{
		"artifact_kind": kind,
		"artifact_id":   artifactID,
		"filename":      filename,
		"data":          data,
	}, &id)
	return id, err
}

// ResolveArtifactURL builds the browser URL of an attachment locally.
func (c *Client) ResolveArtifactURL(_ context.Context, hint string, projectID, attachmentID int) (string, error) {
	return c.resolver.Resolve(hint, projectID, attachmentID)
}

func result[T any](out *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return out, nil
}
