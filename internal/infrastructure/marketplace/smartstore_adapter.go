package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sellerops/backend/internal/domain/integration"
)

// smartStoreDefaultTokenTTL is used when the token endpoint omits expires_in.
const smartStoreDefaultTokenTTL = 30 * time.Minute

// SmartStoreGateway implements the MarketGateway interface for the Naver
// SmartStore commerce API. SmartStore authenticates with short-lived OAuth
// client-credentials tokens; tokens are cached per credential so concurrent
// pushes for the same seller do not race the token endpoint.
type SmartStoreGateway struct {
	config     *SmartStoreConfig
	httpClient *http.Client
	exec       *Executor
	tokens     TokenCacheView
}

// TokenCacheView is the subset of the token cache the gateway needs.
type TokenCacheView interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, token string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewSmartStoreGateway creates a new SmartStore gateway with the given
// configuration and token cache.
func NewSmartStoreGateway(config *SmartStoreConfig, exec *Executor, tokens TokenCacheView) (*SmartStoreGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SmartStoreGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		exec:   exec,
		tokens: tokens,
	}, nil
}

// Market returns the market code this gateway handles.
func (g *SmartStoreGateway) Market() integration.MarketCode {
	return integration.MarketCodeSmartStore
}

// ---------------------------------------------------------------------------
// Push Operations
// ---------------------------------------------------------------------------

// PushTracking delivers one shipment notification to SmartStore.
func (g *SmartStoreGateway) PushTracking(ctx context.Context, creds integration.APICredentials, push integration.TrackingPush) integration.PushResult {
	if err := push.Validate(); err != nil {
		return integration.PushResult{Message: err.Error(), Category: integration.FailureInvalid}
	}

	token, outcome := g.token(ctx, creds)
	if token == "" {
		return pushResultFromOutcome(outcome, "")
	}

	dispatch := map[string]any{
		"productOrderId":      push.MarketOrderID,
		"deliveryMethod":      "DELIVERY",
		"deliveryCompanyCode": push.CourierCode,
		"trackingNumber":      push.TrackingNumber,
		"dispatchDate":        time.Now().Format(time.RFC3339),
	}
	path := "/external/v1/pay-order/seller/product-orders/dispatch"

	shapes := []ShapeRequest{
		{
			Name: "dispatch-list",
			Do: g.request(token, http.MethodPost, path, "", map[string]any{
				"dispatchProductOrders": []any{dispatch},
			}),
		},
		{
			Name: "dispatch-object",
			Do:   g.request(token, http.MethodPost, path, "", dispatch),
		},
	}

	result, _ := TryShapes(ctx, g.exec, shapes)
	g.evictOnAuthFailure(ctx, creds, result)
	return pushResultFromOutcome(result, "tracking number registered")
}

// PushReply delivers one CS inquiry answer to SmartStore.
func (g *SmartStoreGateway) PushReply(ctx context.Context, creds integration.APICredentials, push integration.ReplyPush) integration.PushResult {
	if err := push.Validate(); err != nil {
		return integration.PushResult{Message: err.Error(), Category: integration.FailureInvalid}
	}

	token, outcome := g.token(ctx, creds)
	if token == "" {
		return pushResultFromOutcome(outcome, "")
	}

	path := fmt.Sprintf("/external/v1/pay-user/inquiries/%s/answer", url.PathEscape(push.InquiryID))

	shapes := []ShapeRequest{
		{
			Name: "answer-content",
			Do: g.request(token, http.MethodPut, path, "", map[string]any{
				"answerContent": push.Content,
			}),
		},
		{
			Name: "comment-wrapped",
			Do: g.request(token, http.MethodPut, path, "", map[string]any{
				"comment": map[string]any{"content": push.Content},
			}),
		},
	}

	result, _ := TryShapes(ctx, g.exec, shapes)
	g.evictOnAuthFailure(ctx, creds, result)
	return pushResultFromOutcome(result, "inquiry reply registered")
}

// ---------------------------------------------------------------------------
// Pull Operations
// ---------------------------------------------------------------------------

// PullOrders fetches one raw page of product orders. SmartStore paginates
// with 1-indexed page numbers; a page holding a full page of records means
// another page may exist.
func (g *SmartStoreGateway) PullOrders(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("from", window.From.UTC().Format(time.RFC3339))
	query.Set("to", window.To.UTC().Format(time.RFC3339))
	query.Set("rangeType", "PAYED_DATETIME")
	query.Set("page", strconv.Itoa(g.pageNo(page)))
	query.Set("size", strconv.Itoa(g.pageSize(page)))

	return g.pull(ctx, creds, "/external/v1/pay-order/seller/product-orders", query.Encode(), page, orderKeyHints)
}

// PullInquiries fetches one raw page of customer inquiries.
func (g *SmartStoreGateway) PullInquiries(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("startSearchDate", window.From.UTC().Format("2006-01-02"))
	query.Set("endSearchDate", window.To.UTC().Format("2006-01-02"))
	query.Set("page", strconv.Itoa(g.pageNo(page)))
	query.Set("size", strconv.Itoa(g.pageSize(page)))

	return g.pull(ctx, creds, "/external/v1/pay-user/inquiries", query.Encode(), page, inquiryKeyHints)
}

// pull issues one GET through the retry executor. HasMore is inferred from
// the record count because SmartStore envelopes carry no reliable total
// across API revisions.
func (g *SmartStoreGateway) pull(ctx context.Context, creds integration.APICredentials, path, query string, page integration.PullPage, keyHints []string) (*integration.PullResult, error) {
	token, tokenOutcome := g.token(ctx, creds)
	if token == "" {
		return nil, fmt.Errorf("smartstore: token request failed (%s): %s", tokenOutcome.Category, tokenOutcome.Message)
	}

	outcome, resp := g.exec.Do(ctx, g.request(token, http.MethodGet, path, query, nil))
	if !outcome.OK {
		if outcome.Category == integration.FailureAuth {
			_ = g.tokens.Delete(ctx, g.tokenKey(creds))
		}
		return nil, fmt.Errorf("smartstore: pull failed (%s): %s", outcome.Category, outcome.Message)
	}

	size := g.pageSize(page)
	return &integration.PullResult{
		Body:    resp.Body,
		HasMore: countRecords(resp.Body, keyHints) >= size,
		Next: integration.PullPage{
			Page: g.pageNo(page) + 1,
			Size: size,
		},
	}, nil
}

func (g *SmartStoreGateway) pageNo(page integration.PullPage) int {
	if page.Page > 0 {
		return page.Page
	}
	return 1
}

func (g *SmartStoreGateway) pageSize(page integration.PullPage) int {
	if page.Size > 0 {
		return page.Size
	}
	return g.config.PageSize
}

// countRecords counts identifier-bearing objects in a raw page body.
func countRecords(body []byte, keyHints []string) int {
	root, err := decodeJSON(body)
	if err != nil {
		return 0
	}
	return len(CollectObjects(root, keyHints...))
}

// ---------------------------------------------------------------------------
// Token Handling
// ---------------------------------------------------------------------------

// token returns a bearer token for the credential, from cache when possible.
// An empty token means the outcome describes why the exchange failed.
func (g *SmartStoreGateway) token(ctx context.Context, creds integration.APICredentials) (string, integration.RetryOutcome) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return "", integration.RetryOutcome{
			Category: integration.FailureConfig,
			Message:  "smartstore: client id and client secret are required",
		}
	}

	key := g.tokenKey(creds)
	if cached, ok, err := g.tokens.Get(ctx, key); err == nil && ok {
		return cached, integration.RetryOutcome{OK: true}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.AccessKey)
	form.Set("client_secret", creds.SecretKey)
	form.Set("type", "SELF")

	outcome, resp := g.exec.Do(ctx, func(ctx context.Context) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIBaseURL+g.config.TokenPath, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("smartstore: failed to create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		httpResp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxMarketResponseSize))
		if err != nil {
			return nil, fmt.Errorf("smartstore: failed to read token response: %w", err)
		}
		return &Response{StatusCode: httpResp.StatusCode, Body: body}, nil
	})
	if !outcome.OK {
		// A rejected token exchange is an auth problem regardless of the
		// endpoint's status code phrasing.
		if outcome.Category == integration.FailureInvalid {
			outcome.Category = integration.FailureAuth
		}
		return "", outcome
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", integration.RetryOutcome{
			Category: integration.FailureAuth,
			Message:  "smartstore: token response did not contain an access token",
			Attempts: outcome.Attempts,
		}
	}

	ttl := smartStoreDefaultTokenTTL
	if tokenResp.ExpiresIn > 0 {
		ttl = time.Duration(tokenResp.ExpiresIn) * time.Second
	}
	if ttl > g.config.TokenTTLMargin {
		ttl -= g.config.TokenTTLMargin
	}
	// Cache failures are non-fatal: the token is still usable.
	_ = g.tokens.Set(ctx, key, tokenResp.AccessToken, ttl)

	return tokenResp.AccessToken, integration.RetryOutcome{OK: true, Attempts: outcome.Attempts}
}

func (g *SmartStoreGateway) tokenKey(creds integration.APICredentials) string {
	return "smartstore:" + creds.AccessKey
}

// evictOnAuthFailure drops the cached token after an AUTH outcome so the
// next call performs a fresh exchange.
func (g *SmartStoreGateway) evictOnAuthFailure(ctx context.Context, creds integration.APICredentials, outcome integration.RetryOutcome) {
	if outcome.Category == integration.FailureAuth {
		_ = g.tokens.Delete(ctx, g.tokenKey(creds))
	}
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// request builds a RequestFunc carrying the bearer token.
func (g *SmartStoreGateway) request(token, method, path, query string, body any) RequestFunc {
	return func(ctx context.Context) (*Response, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("smartstore: failed to marshal request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		fullURL := g.config.APIBaseURL + path
		if query != "" {
			fullURL += "?" + query
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("smartstore: failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxMarketResponseSize))
		if err != nil {
			return nil, fmt.Errorf("smartstore: failed to read response: %w", err)
		}

		return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
	}
}

// Ensure SmartStoreGateway implements MarketGateway interface
var _ integration.MarketGateway = (*SmartStoreGateway)(nil)
