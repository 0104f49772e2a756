package seoulbike

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/models"
)

// Window is one inclusive page range of station indices.
type Window struct {
	Start int
	End   int
}

// Windows partitions the inclusive range [1, bound] into contiguous windows
// of at most pageSize entries. The last window may be shorter. Non-positive
// inputs yield no windows.
func Windows(bound, pageSize int) []Window {
	if bound < 1 || pageSize < 1 {
		return nil
	}

	var windows []Window
	for start := 1; start <= bound; start += pageSize {
		end := start + pageSize - 1
		if end > bound {
			end = bound
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}

// Client fetches station status pages from the Seoul bike API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New constructs a Client. The http.Client's timeout bounds each page request.
func New(httpClient *http.Client, baseURL, apiKey string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

func (c *Client) pageURL(w Window) string {
	return fmt.Sprintf("%s/%s/json/bikeList/%d/%d/", c.baseURL, c.apiKey, w.Start, w.End)
}

// FetchPage retrieves one window of station rows. A response without the
// collection field yields an empty page, not an error.
func (c *Client) FetchPage(ctx context.Context, w Window) ([]models.StationRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(w), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page %d-%d: %w", w.Start, w.End, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page %d-%d: unexpected status %s", w.Start, w.End, resp.Status)
	}

	var payload models.PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode page %d-%d: %w", w.Start, w.End, err)
	}

	if payload.RentBikeStatus == nil {
		return nil, nil
	}
	return payload.RentBikeStatus.Row, nil
}

// FetchAll walks every window of [1, bound] and concatenates the pages in
// window order. Any page failure aborts the whole cycle.
func (c *Client) FetchAll(ctx context.Context, bound, pageSize int) ([]models.StationRow, error) {
	var rows []models.StationRow
	for _, w := range Windows(bound, pageSize) {
		page, err := c.FetchPage(ctx, w)
		if err != nil {
			return nil, err
		}
		log.Info().Int("start", w.Start).Int("end", w.End).Int("rows", len(page)).Msg("Fetched page")
		rows = append(rows, page...)
	}

	log.Info().Int("rows", len(rows)).Msg("Fetch cycle complete")
	return rows, nil
}
