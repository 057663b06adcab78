// internal/clients/directory_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"njangi/internal/association"
)

// DirectoryClient fetches selectable members from the user directory service.
type DirectoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDirectoryClient(baseURL string, httpClient *http.Client) *DirectoryClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DirectoryClient{baseURL: baseURL, httpClient: httpClient}
}

func (c *DirectoryClient) ListMembers(ctx context.Context) ([]association.Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users?status=active", c.baseURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var members []association.Member
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	if members == nil {
		members = []association.Member{}
	}

	return members, nil
}
