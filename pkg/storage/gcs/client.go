package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/logger"
)

const (
	defaultAPIBase    = "https://storage.googleapis.com/storage/v1"
	defaultUploadBase = "https://storage.googleapis.com/upload/storage/v1"
	defaultPublicBase = "https://storage.googleapis.com"
	pingTimeout       = 5 * time.Second
	uploadTimeout     = 30 * time.Second
)

// Client talks to the Cloud Storage JSON API for a single bucket.
type Client struct {
	httpClient *http.Client
	bucket     string
	publicBase string
	apiBase    string
	uploadBase string
	tokens     *tokenSource
}

// Uploader is the surface consumed by settings logo uploads.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient resolves credentials (inline JSON, credentials file, then the
// metadata server) and verifies the bucket is reachable.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: uploadTimeout}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(raw))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := newClient(httpClient, cfg.BucketName, cfg.PublicBase, ts)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func newClient(httpClient *http.Client, bucket, publicBase string, ts *tokenSource) *Client {
	if strings.TrimSpace(publicBase) == "" {
		publicBase = defaultPublicBase
	}
	return &Client{
		httpClient: httpClient,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		apiBase:    defaultAPIBase,
		uploadBase: defaultUploadBase,
		tokens:     ts,
	}
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object, which requires storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.bucket))
	resp, err := c.do(ctx, http.MethodGet, u, "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// Upload stores body as object with a simple media upload and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.tokens == nil {
		return "", errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("gcs object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", object)
	u := fmt.Sprintf("%s/b/%s/o?%s", c.uploadBase, url.PathEscape(c.bucket), q.Encode())

	resp, err := c.do(ctx, http.MethodPost, u, contentType, body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gcs upload failed", resp)
	}

	var stored struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return "", fmt.Errorf("decoding gcs upload response: %w", err)
	}
	if stored.Name == "" {
		stored.Name = object
	}
	return c.PublicURL(stored.Name), nil
}

// PublicURL addresses object through the public storage host.
func (c *Client) PublicURL(object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, strings.Join(segments, "/"))
}

func (c *Client) do(ctx context.Context, method, u, contentType string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s: %s: %s", prefix, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", prefix, resp.Status)
}
