package media

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Store deletes externally hosted card media by public id. The card record
// never blocks on this store: deletion failures are logged by the caller and
// the record operation goes ahead.
type Store interface {
	Delete(ctx context.Context, publicID string) error
}

// HTTPStore talks to the media service over plain HTTP.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *HTTPStore) Delete(ctx context.Context, publicID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/media/"+publicID, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("media delete %s: unexpected status %d", publicID, resp.StatusCode)
	}
	return nil
}
