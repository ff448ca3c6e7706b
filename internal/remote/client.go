// Package remote is the catalog API client. Every call is a POST with a
// JSON body and a bearer token header. Failures split into two kinds the
// engine must tell apart: *APIError for a non-2xx response or unparsable
// body, and cancelctl.ErrAborted for a cancelled token.
package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"planscope/internal/cancelctl"
	"planscope/internal/domain"
)

const (
	endpointPrimary  = "/api/v1/plans/query"
	endpointDetail   = "/api/v1/plans/detail"
	endpointChannels = "/api/v1/plans/channels"

	defaultTimeout = 15 * time.Second
)

// APIError is a remote failure that is not a cancellation.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote %s: %s", e.Endpoint, e.Message)
}

// PrimaryQuery selects the primary record set. Zero value means the bulk
// "everything" query. SaleEndDate is a pointer so the open-end-filter
// strategy can send an explicit empty filter instead of omitting the field.
type PrimaryQuery struct {
	PlanCode    string  `json:"planCode,omitempty"`
	Channel     string  `json:"channel,omitempty"`
	ActiveOnly  bool    `json:"activeOnly,omitempty"`
	SaleEndDate *string `json:"saleEndDate,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
	hc      *fasthttp.Client
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		logger:  logger,
		hc:      &fasthttp.Client{},
	}
}

type primaryResponse struct {
	Records []domain.RawRecord `json:"records"`
}

// QueryPrimary resolves one primary record set: one call per explicit plan
// code or channel, or one bulk call for an unfiltered query.
func (c *Client) QueryPrimary(ctx context.Context, q PrimaryQuery) ([]domain.RawRecord, error) {
	var out primaryResponse
	if err := c.post(ctx, endpointPrimary, q, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

type detailRequest struct {
	PlanCode string `json:"planCode"`
}

type detailResponse struct {
	Records []struct {
		Detail string `json:"detail"`
	} `json:"records"`
}

// QueryDetail fetches a plan's rate detail rows, joined into one display
// string: comma-joined non-empty values, de-duplicated, response order kept.
func (c *Client) QueryDetail(ctx context.Context, planCode string) (string, error) {
	var out detailResponse
	if err := c.post(ctx, endpointDetail, detailRequest{PlanCode: planCode}, &out); err != nil {
		return "", err
	}

	seen := make(map[string]struct{}, len(out.Records))
	parts := make([]string, 0, len(out.Records))
	for _, r := range out.Records {
		v := strings.TrimSpace(r.Detail)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", "), nil
}

type channelsResponse struct {
	Records []domain.ChannelRecord `json:"records"`
}

// QueryChannels fetches the per-channel sale windows for one plan, sorted by
// channel code for a stable display order.
func (c *Client) QueryChannels(ctx context.Context, planCode string) ([]domain.ChannelRecord, error) {
	var out channelsResponse
	if err := c.post(ctx, endpointChannels, detailRequest{PlanCode: planCode}, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].Channel < out.Records[j].Channel
	})
	return out.Records, nil
}

type postResult struct {
	status int
	body   []byte
	err    error
}

// post issues the request off the calling goroutine so a cancelled token can
// return immediately. The transport itself cannot cancel an in-flight
// request; a result that resolves after cancellation is simply discarded.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	if ctx.Err() != nil {
		return cancelctl.ErrAborted
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &APIError{Endpoint: endpoint, Message: "encode request: " + err.Error()}
	}

	done := make(chan postResult, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.baseURL + endpoint)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
		req.SetBody(body)

		if err := c.hc.DoTimeout(req, resp, c.timeout); err != nil {
			done <- postResult{err: err}
			return
		}
		b := make([]byte, len(resp.Body()))
		copy(b, resp.Body())
		done <- postResult{status: resp.StatusCode(), body: b}
	}()

	var res postResult
	select {
	case <-ctx.Done():
		return cancelctl.ErrAborted
	case res = <-done:
	}
	if ctx.Err() != nil {
		// Token was cancelled while the response was settling; discard.
		return cancelctl.ErrAborted
	}

	if res.err != nil {
		return &APIError{Endpoint: endpoint, Message: res.err.Error()}
	}
	if res.status < 200 || res.status > 299 {
		c.logger.Warn("remote call failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", res.status))
		return &APIError{Endpoint: endpoint, StatusCode: res.status, Message: truncate(string(res.body), 200)}
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: res.status, Message: "unparsable response: " + err.Error()}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
