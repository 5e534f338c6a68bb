package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TestInfo mirrors one per-test entry as the server reports it.
type TestInfo struct {
	TestID int   `json:"testid"`
	Score  int64 `json:"score"`
	Passed bool  `json:"passed"`
}

// UserInfo is one row of the user listing, passwords excluded by the server.
type UserInfo struct {
	Login    string     `json:"login"`
	Admin    bool       `json:"admin"`
	TestInfo []TestInfo `json:"test_info"`
}

// Client is a thin JSON client for the server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) Register(ctx context.Context, login, password string) error {
	body := map[string]string{"login": login, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var users []UserInfo
	if err := c.do(ctx, http.MethodGet, "/user/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ResetPassword(ctx context.Context, adminLogin, adminPassword, targetLogin, newPassword string) error {
	body := map[string]string{
		"adminLogin":    adminLogin,
		"adminPassword": adminPassword,
		"targetLogin":   targetLogin,
		"newPassword":   newPassword,
	}
	return c.do(ctx, http.MethodPut, "/user/reset-password", body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, adminLogin, adminPassword, targetLogin string) error {
	body := map[string]string{
		"adminLogin":    adminLogin,
		"adminPassword": adminPassword,
		"targetLogin":   targetLogin,
	}
	return c.do(ctx, http.MethodDelete, "/user/delete", body, nil)
}
