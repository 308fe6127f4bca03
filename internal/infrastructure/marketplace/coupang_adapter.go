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
	"time"

	"github.com/sellerops/backend/internal/domain/integration"
)

// maxMarketResponseSize limits response body size to prevent memory exhaustion.
const maxMarketResponseSize = 10 * 1024 * 1024 // 10MB max response

// CoupangGateway implements the MarketGateway interface for the Coupang
// WING open API. Every request is signed per call with the seller's vaulted
// credentials; the gateway itself holds no secrets.
type CoupangGateway struct {
	config     *CoupangConfig
	httpClient *http.Client
	exec       *Executor
}

// NewCoupangGateway creates a new Coupang gateway with the given configuration.
func NewCoupangGateway(config *CoupangConfig, exec *Executor) (*CoupangGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CoupangGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		exec: exec,
	}, nil
}

// Market returns the market code this gateway handles.
func (g *CoupangGateway) Market() integration.MarketCode {
	return integration.MarketCodeCoupang
}

// ---------------------------------------------------------------------------
// Push Operations
// ---------------------------------------------------------------------------

// PushTracking delivers one shipment notification to Coupang. Coupang has
// shipped at least two invoice-upload body schemas across API revisions, so
// the shapes are tried in order until one is accepted.
func (g *CoupangGateway) PushTracking(ctx context.Context, creds integration.APICredentials, push integration.TrackingPush) integration.PushResult {
	if res, ok := g.checkPushPreconditions(creds, push.Validate()); !ok {
		return res
	}

	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/orderSheets/invoices", creds.VendorID)

	dto := map[string]any{
		"shipmentBoxId":       push.MarketOrderID,
		"orderId":             push.MarketOrderID,
		"deliveryCompanyCode": push.CourierCode,
		"invoiceNumber":       push.TrackingNumber,
	}
	shapes := []ShapeRequest{
		{
			Name: "dto-list",
			Do: g.request(creds, http.MethodPost, path, "", map[string]any{
				"vendorId":                   creds.VendorID,
				"orderSheetInvoiceApplyDtos": []any{dto},
			}),
		},
		{
			Name: "flat-object",
			Do:   g.request(creds, http.MethodPost, path, "", dto),
		},
	}

	outcome, _ := TryShapes(ctx, g.exec, shapes)
	return pushResultFromOutcome(outcome, "tracking number registered")
}

// PushReply delivers one CS inquiry answer to Coupang.
func (g *CoupangGateway) PushReply(ctx context.Context, creds integration.APICredentials, push integration.ReplyPush) integration.PushResult {
	if res, ok := g.checkPushPreconditions(creds, push.Validate()); !ok {
		return res
	}

	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/onlineInquiries/%s/replies", creds.VendorID, url.PathEscape(push.InquiryID))

	shapes := []ShapeRequest{
		{
			Name: "reply-content",
			Do: g.request(creds, http.MethodPost, path, "", map[string]any{
				"vendorId": creds.VendorID,
				"content":  push.Content,
				"replyBy":  creds.VendorID,
			}),
		},
		{
			Name: "reply-wrapped",
			Do: g.request(creds, http.MethodPost, path, "", map[string]any{
				"reply": map[string]any{
					"content": push.Content,
					"replyBy": creds.VendorID,
				},
			}),
		},
	}

	outcome, _ := TryShapes(ctx, g.exec, shapes)
	return pushResultFromOutcome(outcome, "inquiry reply registered")
}

// checkPushPreconditions reports a CONFIG failure before any HTTP request is
// built when a push is structurally undeliverable.
func (g *CoupangGateway) checkPushPreconditions(creds integration.APICredentials, validationErr error) (integration.PushResult, bool) {
	if validationErr != nil {
		return integration.PushResult{
			Message:  validationErr.Error(),
			Category: integration.FailureInvalid,
		}, false
	}
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return integration.PushResult{
			Message:  "coupang: access key and secret key are required",
			Category: integration.FailureConfig,
		}, false
	}
	if creds.VendorID == "" {
		return integration.PushResult{
			Message:  "coupang: vendor id is required",
			Category: integration.FailureConfig,
		}, false
	}
	return integration.PushResult{}, true
}

// ---------------------------------------------------------------------------
// Pull Operations
// ---------------------------------------------------------------------------

// PullOrders fetches one raw page of order sheets. Coupang paginates with a
// continuation token carried in the response envelope.
func (g *CoupangGateway) PullOrders(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if creds.VendorID == "" {
		return nil, fmt.Errorf("coupang: vendor id is required")
	}

	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/ordersheets", creds.VendorID)

	query := url.Values{}
	query.Set("createdAtFrom", window.From.UTC().Format("2006-01-02T15:04"))
	query.Set("createdAtTo", window.To.UTC().Format("2006-01-02T15:04"))
	query.Set("maxPerPage", strconv.Itoa(g.pageSize(page)))
	if page.Token != "" {
		query.Set("nextToken", page.Token)
	}

	return g.pull(ctx, creds, path, query.Encode(), page)
}

// PullInquiries fetches one raw page of online inquiries.
func (g *CoupangGateway) PullInquiries(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if creds.VendorID == "" {
		return nil, fmt.Errorf("coupang: vendor id is required")
	}

	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/onlineInquiries", creds.VendorID)

	query := url.Values{}
	query.Set("inquiryStartAt", window.From.UTC().Format("2006-01-02"))
	query.Set("inquiryEndAt", window.To.UTC().Format("2006-01-02"))
	query.Set("answeredType", "ALL")
	query.Set("pageSize", strconv.Itoa(g.pageSize(page)))
	if page.Token != "" {
		query.Set("nextToken", page.Token)
	}

	return g.pull(ctx, creds, path, query.Encode(), page)
}

// pull issues one GET through the retry executor and lifts the continuation
// token out of the envelope. The record payload itself stays unparsed.
func (g *CoupangGateway) pull(ctx context.Context, creds integration.APICredentials, path, query string, page integration.PullPage) (*integration.PullResult, error) {
	outcome, resp := g.exec.Do(ctx, g.request(creds, http.MethodGet, path, query, nil))
	if !outcome.OK {
		return nil, fmt.Errorf("coupang: pull failed (%s): %s", outcome.Category, outcome.Message)
	}

	next := coupangNextToken(resp.Body)
	return &integration.PullResult{
		Body:    resp.Body,
		HasMore: next != "",
		Next: integration.PullPage{
			Size:  g.pageSize(page),
			Token: next,
		},
	}, nil
}

func (g *CoupangGateway) pageSize(page integration.PullPage) int {
	if page.Size > 0 {
		return page.Size
	}
	return g.config.PageSize
}

// coupangNextToken reads the continuation token from a response envelope.
// An unreadable envelope means no further pages, never an error.
func coupangNextToken(body []byte) string {
	var envelope struct {
		NextToken string `json:"nextToken"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.NextToken
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// request builds a RequestFunc that signs and issues one HTTP call. The
// Authorization header is computed inside the closure so every retry carries
// a fresh signed-date.
func (g *CoupangGateway) request(creds integration.APICredentials, method, path, query string, body any) RequestFunc {
	return func(ctx context.Context) (*Response, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("coupang: failed to marshal request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		fullURL := g.config.APIBaseURL + path
		if query != "" {
			fullURL += "?" + query
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("coupang: failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", SignCoupangAuthorization(creds.AccessKey, creds.SecretKey, method, path, query, time.Now()))

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxMarketResponseSize))
		if err != nil {
			return nil, fmt.Errorf("coupang: failed to read response: %w", err)
		}

		return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
	}
}

// pushResultFromOutcome folds a terminal retry outcome into a PushResult.
func pushResultFromOutcome(outcome integration.RetryOutcome, successMessage string) integration.PushResult {
	if outcome.OK {
		return integration.PushResult{
			OK:         true,
			Message:    successMessage,
			StatusCode: outcome.StatusCode,
			Attempts:   outcome.Attempts,
		}
	}
	return integration.PushResult{
		Message:    outcome.Message,
		StatusCode: outcome.StatusCode,
		Category:   outcome.Category,
		Attempts:   outcome.Attempts,
	}
}

// Ensure CoupangGateway implements MarketGateway interface
var _ integration.MarketGateway = (*CoupangGateway)(nil)
