package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/goccy/go-json"
	"github.com/gookit/validate"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
	userAgent      = "HoaxBuster-CLI/1.0"
)

type authMode int

const (
	authNone authMode = iota
	authRequired
	authOptional
)

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	log        logging.Logger
}

// NewHTTPClient creates a client for baseURL. A nil httpClient gets a default
// one with a 30 s timeout; a nil tokens means every request is anonymous.
func NewHTTPClient(baseURL string, httpClient *http.Client, tokens TokenProvider, log logging.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) string { return "" })
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		log:        log.With("component", "api"),
	}
}

func (c *HTTPClient) GetStories(ctx context.Context, withLocation bool) ([]models.Story, error) {
	path := PathStories
	if withLocation {
		path += "?location=1"
	}
	var resp models.StoriesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, "", authRequired, &resp); err != nil {
		return nil, err
	}
	stories := make([]models.Story, 0, len(resp.ListStory))
	for _, s := range resp.ListStory {
		if err := check(&s); err != nil {
			c.log.Warn(ctx, "skipping invalid story", "error", err)
			continue
		}
		stories = append(stories, s)
	}
	return stories, nil
}

func (c *HTTPClient) GetStory(ctx context.Context, id string) (*models.Story, error) {
	var resp models.StoryResponse
	if err := c.do(ctx, http.MethodGet, PathStories+"/"+url.PathEscape(id), nil, "", authRequired, &resp); err != nil {
		return nil, err
	}
	if resp.Story == nil {
		return nil, fmt.Errorf("%w: story missing", ErrInvalidResponse)
	}
	if err := check(resp.Story); err != nil {
		return nil, err
	}
	return resp.Story, nil
}

// AddStory posts a story as the signed-in user. The returned story is nil
// when the server only acknowledges the upload.
func (c *HTTPClient) AddStory(ctx context.Context, s models.NewStory) (*models.Story, error) {
	return c.postStory(ctx, PathStories, s, authRequired)
}

func (c *HTTPClient) AddGuestStory(ctx context.Context, s models.NewStory) (*models.Story, error) {
	return c.postStory(ctx, PathGuestStories, s, authNone)
}

func (c *HTTPClient) postStory(ctx context.Context, path string, s models.NewStory, auth authMode) (*models.Story, error) {
	body, contentType, err := storyForm(s)
	if err != nil {
		return nil, err
	}
	var resp models.StoryResponse
	if err := c.do(ctx, http.MethodPost, path, body, contentType, auth, &resp); err != nil {
		return nil, err
	}
	if resp.Story != nil {
		if err := check(resp.Story); err != nil {
			return nil, err
		}
	}
	return resp.Story, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	body, err := json.Marshal(models.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, bytes.NewReader(body), "application/json", authNone, &resp); err != nil {
		return nil, err
	}
	if resp.LoginResult == nil {
		return nil, fmt.Errorf("%w: loginResult missing", ErrInvalidResponse)
	}
	if err := check(resp.LoginResult); err != nil {
		return nil, err
	}
	return resp.LoginResult, nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) error {
	body, err := json.Marshal(models.Credentials{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	var resp models.MessageResponse
	return c.do(ctx, http.MethodPost, PathRegister, bytes.NewReader(body), "application/json", authNone, &resp)
}

func (c *HTTPClient) CheckHoax(ctx context.Context, text string) (*models.Prediction, error) {
	return c.predict(ctx, PathPredict, text, authRequired)
}

func (c *HTTPClient) CheckHoaxGuest(ctx context.Context, text string) (*models.Prediction, error) {
	return c.predict(ctx, PathGuestCheck, text, authNone)
}

func (c *HTTPClient) predict(ctx context.Context, path, text string, auth authMode) (*models.Prediction, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	var resp models.PredictionResponse
	if err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", auth, &resp); err != nil {
		return nil, err
	}
	if resp.Prediction == nil {
		return nil, fmt.Errorf("%w: prediction missing", ErrInvalidResponse)
	}
	if err := check(resp.Prediction); err != nil {
		return nil, err
	}
	return resp.Prediction, nil
}

// Ping reports whether the API host answers at all. Any HTTP response counts
// as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Send replays a queued mutation. Story submissions are rebuilt as the
// original multipart request; anything else is sent as its JSON body.
func (c *HTTPClient) Send(ctx context.Context, m models.Mutation) error {
	switch m.URL {
	case PathStories, PathGuestStories:
		s, _, err := DecodeStoryPayload(m.Body)
		if err != nil {
			return err
		}
		auth := authRequired
		if m.URL == PathGuestStories {
			auth = authNone
		}
		_, err = c.postStory(ctx, m.URL, s, auth)
		return err
	default:
		var body io.Reader
		if len(m.Body) > 0 {
			body = bytes.NewReader(m.Body)
		}
		var resp models.MessageResponse
		return c.do(ctx, m.Method, m.URL, body, "application/json", authOptional, &resp)
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, auth authMode, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if auth != authNone {
		token := c.tokens.Token(ctx)
		if token == "" && auth == authRequired {
			return fmt.Errorf("%w: no authentication token", ErrUnauthorized)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}
	c.log.Debug(ctx, "request done", "method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	var envelope models.MessageResponse
	_ = json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, envelope.Message)
	}
	if envelope.Error {
		return rejected(envelope.Message, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// check validates a decoded value against its struct tags.
func check(v any) error {
	vd := validate.Struct(v)
	if !vd.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, vd.Errors.One())
	}
	return nil
}

func storyForm(s models.NewStory) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("description", s.Description); err != nil {
		return nil, "", err
	}
	if len(s.Photo) > 0 {
		name := s.PhotoName
		if name == "" {
			name = "photo.jpg"
		}
		part, err := w.CreateFormFile("photo", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(s.Photo); err != nil {
			return nil, "", err
		}
	}
	if s.Lat != nil && s.Lon != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*s.Lat, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
		if err := w.WriteField("lon", strconv.FormatFloat(*s.Lon, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
