package chatcmder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient is a thin client for the iclgen HTTP API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Generation round trips can be slow
			Timeout: 5 * time.Minute,
		},
	}
}

type fieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type turnResponse struct {
	Reply            string       `json:"reply"`
	Document         *string      `json:"document"`
	ValidationErrors []fieldError `json:"validation_errors"`
	ErrorKind        string       `json:"error_kind"`
}

func (c *apiClient) createSession() (string, error) {
	resp, err := c.httpClient.Post(c.baseURL+"/api/sessions", "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("could not reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("could not decode response: %w", err)
	}

	return result["session_id"], nil
}

func (c *apiClient) submitMessage(sessionID, text string) (*turnResponse, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/sessions/%s/messages", c.baseURL, sessionID)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result turnResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &result, nil
}
