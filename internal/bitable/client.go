package bitable

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

	"github.com/haoyun/navtable/internal/logger"
)

// TokenSource yields a tenant access token for a credential scope.
// Forget drops whatever is cached so the next call refetches; the
// client calls it after the service rejects a token.
type TokenSource interface {
	Token(ctx context.Context, creds Credentials) (string, error)
	Forget(ctx context.Context, creds Credentials)
}

// Token is one fetched tenant access token with its absolute expiry.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client talks to the multi-dimensional table service. All calls run
// under a per-call timeout and surface *Error on failure.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tokens  TokenSource
	logger  logger.Logger
}

// NewClient builds a client against baseURL (scheme + host, no trailing
// slash needed). Until SetTokenSource installs a cache, every call
// fetches a fresh tenant token.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	c := &Client{
		baseURL: trimSlash(baseURL),
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  log,
	}
	c.tokens = directTokenSource{c}
	return c
}

// SetTokenSource installs the shared token cache.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// directTokenSource fetches on every call. Fallback when no cache is wired.
type directTokenSource struct{ c *Client }

func (d directTokenSource) Token(ctx context.Context, creds Credentials) (string, error) {
	tok, err := d.c.FetchTenantToken(ctx, creds)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (d directTokenSource) Forget(context.Context, Credentials) {}

// FetchTenantToken obtains a fresh tenant access token. This is the raw
// fetch; production callers go through the TokenCache instead.
func (c *Client) FetchTenantToken(ctx context.Context, creds Credentials) (Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"app_id":     creds.AppID,
		"app_secret": creds.AppSecret,
	})
	if err != nil {
		return Token{}, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return Token{}, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, &Error{Kind: KindNetwork, Op: "tenant_token", Msg: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, &Error{Kind: KindRemoteRejected, Op: "tenant_token", Msg: "undecodable response: " + err.Error()}
	}
	if tr.Code != 0 {
		return Token{}, classify("tenant_token", resp.StatusCode, tr.Code, tr.Msg)
	}

	c.logger.Debug("fetched tenant access token",
		logger.String("app_id", creds.AppID),
		logger.Int("expire_s", tr.Expire))

	return Token{
		Value:     tr.TenantAccessToken,
		ExpiresAt: time.Now().Add(time.Duration(tr.Expire) * time.Second),
	}, nil
}

// ListRecords fetches one page of records. An empty pageToken starts
// from the beginning; the returned Page carries the cursor to continue.
func (c *Client) ListRecords(ctx context.Context, scope Scope, pageSize int, pageToken string) (Page, error) {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	var data listData
	err := c.call(ctx, "list_records", http.MethodGet, c.recordsPath(scope), scope.Credentials, q, nil, &data)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: data.Items, HasMore: data.HasMore, PageToken: data.PageToken}, nil
}

// GetRecord fetches a single record by id.
func (c *Client) GetRecord(ctx context.Context, scope Scope, recordID string) (Record, error) {
	var data recordData
	err := c.call(ctx, "get_record", http.MethodGet, c.recordsPath(scope)+"/"+url.PathEscape(recordID), scope.Credentials, nil, nil, &data)
	if err != nil {
		return Record{}, err
	}
	return data.Record, nil
}

// CreateRecord inserts a record and returns the id the service assigned.
func (c *Client) CreateRecord(ctx context.Context, scope Scope, fields map[string]interface{}) (string, error) {
	var data recordData
	err := c.call(ctx, "create_record", http.MethodPost, c.recordsPath(scope), scope.Credentials, nil,
		map[string]interface{}{"fields": fields}, &data)
	if err != nil {
		return "", err
	}
	return data.Record.ID, nil
}

// UpdateRecord overwrites the given fields of an existing record.
func (c *Client) UpdateRecord(ctx context.Context, scope Scope, recordID string, fields map[string]interface{}) error {
	return c.call(ctx, "update_record", http.MethodPut, c.recordsPath(scope)+"/"+url.PathEscape(recordID), scope.Credentials, nil,
		map[string]interface{}{"fields": fields}, nil)
}

// DeleteRecord removes a record by id.
func (c *Client) DeleteRecord(ctx context.Context, scope Scope, recordID string) error {
	return c.call(ctx, "delete_record", http.MethodDelete, c.recordsPath(scope)+"/"+url.PathEscape(recordID), scope.Credentials, nil, nil, nil)
}

// TableField describes one column of a table to create.
type TableField struct {
	Name string `json:"field_name"`
	Type int    `json:"type"` // 1 = text, 2 = number, 15 = hyperlink
}

// CreateTable creates a new table inside an app and returns its id.
func (c *Client) CreateTable(ctx context.Context, creds Credentials, appToken, name string, fields []TableField) (string, error) {
	table := map[string]interface{}{"name": name}
	if len(fields) > 0 {
		table["fields"] = fields
	}

	var data tableData
	err := c.call(ctx, "create_table", http.MethodPost,
		"/open-apis/bitable/v1/apps/"+url.PathEscape(appToken)+"/tables",
		creds, nil, map[string]interface{}{"table": table}, &data)
	if err != nil {
		return "", err
	}
	return data.TableID, nil
}

func (c *Client) recordsPath(scope Scope) string {
	return "/open-apis/bitable/v1/apps/" + url.PathEscape(scope.AppToken) +
		"/tables/" + url.PathEscape(scope.TableID) + "/records"
}

// call performs one authenticated request and decodes the data payload
// into out (when non-nil).
func (c *Client) call(ctx context.Context, op, method, path string, creds Credentials, query url.Values, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.tokens.Token(ctx, creds)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Msg: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	var env struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return &Error{Kind: KindNotFound, Op: op, Msg: http.StatusText(resp.StatusCode)}
		}
		return &Error{Kind: KindRemoteRejected, Op: op, Msg: "undecodable response: " + err.Error()}
	}

	if env.Code != 0 {
		cerr := classify(op, resp.StatusCode, env.Code, env.Msg)
		if IsAuthExpired(cerr) {
			c.tokens.Forget(ctx, creds)
		}
		return cerr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindRemoteRejected, Op: op, Msg: "undecodable data payload: " + err.Error()}
		}
	}
	return nil
}

func classify(op string, status, code int, msg string) *Error {
	switch {
	case authExpiredCodes[code]:
		return &Error{Kind: KindAuthExpired, Op: op, Code: code, Msg: msg}
	case notFoundCodes[code] || status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Code: code, Msg: msg}
	default:
		return &Error{Kind: KindRemoteRejected, Op: op, Code: code, Msg: msg}
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
