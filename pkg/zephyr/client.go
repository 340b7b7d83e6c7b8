// Package zephyr is a client for the Zephyr Scale Cloud automation API.
//
// Only the custom-format execution import is implemented: a zipped JSON report is
// uploaded and Zephyr Scale creates a test cycle holding one execution per record.
package zephyr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Zephyr Scale Cloud API root.
const DefaultBaseURL = "https://api.zephyrscale.smartbear.com/v2"

const customFormatPath = "/automations/executions/custom"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 64 << 10

// TestCycle customizes the test cycle created for an upload.
type TestCycle struct {
	Name               string         `json:"name,omitempty"`
	Description        string         `json:"description,omitempty"`
	JiraProjectVersion int            `json:"jiraProjectVersion,omitempty"`
	FolderID           int            `json:"folderId,omitempty"`
	CustomFields       map[string]any `json:"customFields,omitempty"`
}

// Options configures a Client.
type Options struct {
	BaseURL             string
	Token               string
	ProjectKey          string
	AutoCreateTestCases bool
	TestCycle           *TestCycle
	HTTPClient          *http.Client
	Logger              zerolog.Logger
	UserAgent           string
}

// Run describes the test cycle Zephyr Scale created for an upload.
type Run struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
	URL string `json:"url"`
}

type createRunResponse struct {
	TestCycle Run `json:"testCycle"`
}

// APIError is returned when Zephyr Scale rejects a request.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("zephyr: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("zephyr: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client uploads reports to Zephyr Scale.
type Client struct {
	base       *url.URL
	token      string
	project    string
	autoCreate bool
	cycle      *TestCycle
	http       *http.Client
	log        zerolog.Logger
	userAgent  string
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("zephyr: authorization token is required")
	}
	if opts.ProjectKey == "" {
		return nil, errors.New("zephyr: project key is required")
	}
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "zephyr: parsing base url %q", raw)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("zephyr: base url %q must be http or https", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultClient()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "zephyr-bridge"
	}
	return &Client{
		base:       base,
		token:      opts.Token,
		project:    opts.ProjectKey,
		autoCreate: opts.AutoCreateTestCases,
		cycle:      opts.TestCycle,
		http:       hc,
		log:        opts.Logger.With().Str("component", "zephyr").Logger(),
		userAgent:  ua,
	}, nil
}

// CreateRun uploads the zipped report at archivePath and returns the created test cycle.
// Any transport failure or non-2xx response is returned as an error; nothing is retried.
func (c *Client) CreateRun(ctx context.Context, archivePath string) (*Run, error) {
	body, contentType, err := c.multipartBody(archivePath)
	if err != nil {
		return nil, err
	}

	u := *c.base
	u.Path += customFormatPath
	q := u.Query()
	q.Set("projectKey", c.project)
	q.Set("autoCreateTestCases", strconv.FormatBool(c.autoCreate))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "zephyr: building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.log.Debug().Str("url", u.Redacted()).Str("archive", archivePath).Msg("uploading report")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "zephyr: uploading report")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}

	var out createRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "zephyr: decoding response")
	}
	c.log.Info().Str("test_cycle", out.TestCycle.Key).Str("url", out.TestCycle.URL).Msg("test cycle created")
	return &out.TestCycle, nil
}

func (c *Client) multipartBody(archivePath string) (io.Reader, string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, "", errors.Wrap(err, "zephyr: opening archive")
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(archivePath)))
	h.Set("Content-Type", "application/zip")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", errors.Wrap(err, "zephyr: creating file part")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", errors.Wrap(err, "zephyr: reading archive")
	}

	if c.cycle != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="testCycle"`)
		h.Set("Content-Type", "application/json")
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", errors.Wrap(err, "zephyr: creating testCycle part")
		}
		if err := json.NewEncoder(part).Encode(c.cycle); err != nil {
			return nil, "", errors.Wrap(err, "zephyr: encoding testCycle")
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "zephyr: closing multipart body")
	}
	return &buf, mw.FormDataContentType(), nil
}

func newAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	var payload struct {
		ErrorCode int    `json:"errorCode"`
		Message   string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
