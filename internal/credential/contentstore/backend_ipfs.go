package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ipfs/go-cid"

	dErrors "idverse/pkg/domain-errors"
)

const (
	defaultIPFSTimeout = 5 * time.Second
	maxBlockSize       = 1 << 20
)

// IPFSBackend talks to a local kubo node over its RPC API. Blocks are put as
// raw sha2-256 blocks so the node's CID equals ComputeCID.
type IPFSBackend struct {
	baseURL string
	client  *retryablehttp.Client
	timeout time.Duration
	logger  *slog.Logger
}

// IPFSOption configures an IPFSBackend.
type IPFSOption func(*IPFSBackend)

// WithTimeout bounds every RPC call, retries included.
func WithTimeout(d time.Duration) IPFSOption {
	return func(b *IPFSBackend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithRetryMax sets how many times a transport failure is retried.
func WithRetryMax(n int) IPFSOption {
	return func(b *IPFSBackend) {
		if n >= 0 {
			b.client.RetryMax = n
		}
	}
}

// WithIPFSLogger sets the logger.
func WithIPFSLogger(logger *slog.Logger) IPFSOption {
	return func(b *IPFSBackend) {
		b.logger = logger
	}
}

// NewIPFSBackend creates a client for the kubo RPC API at baseURL
// (e.g. http://127.0.0.1:5001).
func NewIPFSBackend(baseURL string, opts ...IPFSOption) (*IPFSBackend, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ipfs api url %q", baseURL)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = nil
	client.CheckRetry = retryTransportFailures

	b := &IPFSBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: defaultIPFSTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	client.HTTPClient.Timeout = b.timeout
	return b, nil
}

// retryTransportFailures retries connection errors and gateway statuses.
// kubo reports missing blocks as 500, which must not be retried.
func retryTransportFailures(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true, nil
	}
	return false, nil
}

type blockPutResponse struct {
	Key  string `json:"Key"`
	Size int    `json:"Size"`
}

type rpcError struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
	Type    string `json:"Type"`
}

func (b *IPFSBackend) Write(ctx context.Context, id cid.Cid, data []byte) error {
	if len(data) > maxBlockSize {
		return dErrors.New(dErrors.CodeMalformedDocument, "document exceeds maximum block size")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("data", id.String())
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("cid-codec", "raw")
	q.Set("mhtype", "sha2-256")
	q.Set("pin", "false")

	var out blockPutResponse
	if err := b.call(ctx, "block/put", q, body.Bytes(), mw.FormDataContentType(), &out); err != nil {
		return err
	}
	if out.Key != id.String() {
		b.logger.ErrorContext(ctx, "ipfs node returned unexpected cid",
			"expected", id.String(),
			"got", out.Key,
		)
		return dErrors.New(dErrors.CodeStorageUnavailable, "ipfs node returned unexpected cid")
	}
	return nil
}

func (b *IPFSBackend) Read(ctx context.Context, id cid.Cid) ([]byte, error) {
	q := url.Values{}
	q.Set("arg", id.String())
	q.Set("offline", "true")

	var out []byte
	if err := b.call(ctx, "block/get", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *IPFSBackend) Pin(ctx context.Context, id cid.Cid) (bool, error) {
	q := url.Values{}
	q.Set("arg", id.String())
	q.Set("offline", "true")

	err := b.call(ctx, "pin/add", q, nil, "", nil)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks the node answers its version endpoint.
func (b *IPFSBackend) Ping(ctx context.Context) error {
	return b.call(ctx, "version", nil, nil, "", nil)
}

// call POSTs to /api/v0/<cmd>. When out is *[]byte the raw body is returned,
// otherwise a non-nil out is JSON decoded.
func (b *IPFSBackend) call(ctx context.Context, cmd string, q url.Values, body []byte, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	endpoint := b.baseURL + "/api/v0/" + cmd
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var raw any
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, raw)
	if err != nil {
		return fmt.Errorf("build ipfs request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "ipfs request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "ipfs node unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBlockSize+1))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to read ipfs response")
	}
	if resp.StatusCode != http.StatusOK {
		return rpcFailure(resp.StatusCode, payload)
	}

	switch t := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*t = payload
		return nil
	default:
		if err := json.Unmarshal(payload, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "invalid ipfs response")
		}
		return nil
	}
}

func rpcFailure(status int, payload []byte) error {
	var rerr rpcError
	_ = json.Unmarshal(payload, &rerr)
	msg := strings.ToLower(rerr.Message)
	if strings.Contains(msg, "not found") || strings.Contains(msg, "could not find") {
		return ErrNotFound
	}
	if rerr.Message == "" {
		rerr.Message = http.StatusText(status)
	}
	return dErrors.New(dErrors.CodeStorageUnavailable, fmt.Sprintf("ipfs rpc error (%d): %s", status, rerr.Message))
}
