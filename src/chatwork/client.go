// Package chatwork provides a client for posting messages to Chatwork rooms.
package chatwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Chatwork v2 API root.
const DefaultBaseURL = "https://api.chatwork.com/v2/"

var (
	ErrAuthFailed   = errors.New("authentication failed")
	ErrRoomNotFound = errors.New("room not found")
)

// Client is a Chatwork API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Chatwork client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// SendMessage posts body to the room and returns the new message ID.
func (c *Client) SendMessage(ctx context.Context, roomID, body string) (string, error) {
	form := url.Values{}
	form.Set("body", body)

	endpoint := c.baseURL + "rooms/" + url.PathEscape(roomID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-ChatWorkToken", c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, resp.Status)
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return out.MessageID, nil
}
