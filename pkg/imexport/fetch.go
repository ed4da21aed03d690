package imexport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// maxImageBytes bounds a single fetched picture.
const maxImageBytes = 16 << 20

// HTTPImageFetcher returns an ImageFetcher that downloads pictures with
// client. A nil client uses http.DefaultClient.
func HTTPImageFetcher(client *http.Client) models.ImageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("image request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching image: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching image: unexpected status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		if len(data) > maxImageBytes {
			return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
		}
		return data, nil
	}
}
