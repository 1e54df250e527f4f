package ttlock

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"resido/internal/logs"
)

// Client — тонкий клиент облака TTLock. Все запросы —
// form-urlencoded/query c camelCase-ключами; параметры собираются явно
// (никакой рефлексии), nil/пустые значения не отправляются.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	hc           *http.Client
	now          func() time.Time
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://euapi.ttlock.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		hc:           &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

// MD5Hex — вендор принимает пароль только как md5 в нижнем регистре.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ─────────────────────────── учётные записи ───────────────────────────

func (c *Client) RegisterUser(ctx context.Context, username, md5Password string) (RegisterResponse, error) {
	vals := url.Values{}
	vals.Set("clientId", c.clientID)
	vals.Set("clientSecret", c.clientSecret)
	vals.Set("username", username)
	vals.Set("password", md5Password)

	var out RegisterResponse
	err := c.post(ctx, "/v3/user/register", vals, &out)
	return out, err
}

func (c *Client) GetAccessToken(ctx context.Context, username, md5Password string) (AccessTokenResponse, error) {
	vals := url.Values{}
	vals.Set("clientId", c.clientID)
	vals.Set("clientSecret", c.clientSecret)
	vals.Set("username", username)
	vals.Set("password", md5Password)

	var out AccessTokenResponse
	if err := c.post(ctx, "/oauth2/token", vals, &out); err != nil {
		return AccessTokenResponse{}, err
	}
	if out.AccessToken == "" {
		return AccessTokenResponse{}, fmt.Errorf("ttlock: empty access token in response")
	}
	return out, nil
}

func (c *Client) ResetPassword(ctx context.Context, username, md5Password string) error {
	vals := url.Values{}
	vals.Set("clientId", c.clientID)
	vals.Set("clientSecret", c.clientSecret)
	vals.Set("username", username)
	vals.Set("password", md5Password)

	return c.post(ctx, "/v3/user/resetPassword", vals, nil)
}

// ─────────────────────────── замки ───────────────────────────

func (c *Client) ListLocks(ctx context.Context, accessToken string, pageNo, pageSize int, alias string) (LockPage, error) {
	vals := c.authValues(accessToken)
	vals.Set("pageNo", strconv.Itoa(pageNo))
	vals.Set("pageSize", strconv.Itoa(pageSize))
	if alias != "" {
		vals.Set("lockAlias", alias)
	}

	var out LockPage
	err := c.get(ctx, "/v3/lock/list", vals, &out)
	return out, err
}

func (c *Client) GetLockDetail(ctx context.Context, accessToken string, lockID int) (LockDetail, error) {
	vals := c.authValues(accessToken)
	vals.Set("lockId", strconv.Itoa(lockID))

	var out LockDetail
	err := c.get(ctx, "/v3/lock/detail", vals, &out)
	return out, err
}

func (c *Client) InitializeLock(ctx context.Context, accessToken, lockData, lockAlias string) (InitializeResult, error) {
	vals := c.authValues(accessToken)
	vals.Set("lockData", lockData)
	if lockAlias != "" {
		vals.Set("lockAlias", lockAlias)
	}

	var out InitializeResult
	err := c.post(ctx, "/v3/lock/initialize", vals, &out)
	return out, err
}

func (c *Client) DeleteLock(ctx context.Context, accessToken string, lockID int) error {
	vals := c.authValues(accessToken)
	vals.Set("lockId", strconv.Itoa(lockID))

	return c.post(ctx, "/v3/lock/delete", vals, nil)
}

func (c *Client) RenameLock(ctx context.Context, accessToken string, lockID int, alias string) error {
	vals := c.authValues(accessToken)
	vals.Set("lockId", strconv.Itoa(lockID))
	vals.Set("lockAlias", alias)

	return c.post(ctx, "/v3/lock/rename", vals, nil)
}

func (c *Client) ListAccessRecords(ctx context.Context, accessToken string, lockID, pageNo, pageSize int) (RecordPage, error) {
	vals := c.authValues(accessToken)
	vals.Set("lockId", strconv.Itoa(lockID))
	vals.Set("pageNo", strconv.Itoa(pageNo))
	vals.Set("pageSize", strconv.Itoa(pageSize))

	var out RecordPage
	err := c.get(ctx, "/v3/lockRecord/list", vals, &out)
	return out, err
}

// ─────────────────────────── транспорт ───────────────────────────

func (c *Client) authValues(accessToken string) url.Values {
	vals := url.Values{}
	vals.Set("clientId", c.clientID)
	vals.Set("accessToken", accessToken)
	return vals
}

func (c *Client) post(ctx context.Context, path string, vals url.Values, out any) error {
	c.stamp(vals)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(vals.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, vals url.Values, out any) error {
	c.stamp(vals)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+vals.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// stamp добавляет обязательный для вендора параметр date (unix ms).
func (c *Client) stamp(vals url.Values) {
	vals.Set("date", strconv.FormatInt(c.now().UnixMilli(), 10))
}

func (c *Client) do(req *http.Request, out any) error {
	logs.Logger.Debugf("ttlock: %s %s", req.Method, req.URL.Path)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ttlock: %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("ttlock: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ttlock: %s: %s: %s", req.URL.Path, resp.Status, string(body))
	}

	// Успешные ответы вендора не всегда несут errcode, поэтому статус
	// разбирается отдельно от полезной нагрузки.
	var status apiStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("ttlock: decode response: %w", err)
	}
	if status.Errcode != 0 {
		return &VendorError{Code: status.Errcode, Msg: status.Errmsg}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("ttlock: decode response: %w", err)
		}
	}
	return nil
}
