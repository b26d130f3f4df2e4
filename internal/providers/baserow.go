// Package providers supplies station lists from upstream sources: the
// Baserow tables API, with local GeoJSON/CSV files as fallbacks.
package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/petrolscout/stations-api/internal/fetch"
	"github.com/petrolscout/stations-api/internal/models"
)

const DefaultBaserowURL = "https://api.baserow.io"
const defaultBaserowPageSize = 200

type BaserowOptions struct {
	BaseURL  string
	Token    string
	TableID  string
	PageSize int
	Online   func() bool
}

// Baserow lists station rows from a Baserow table, following the paging
// cursor until exhausted.
type Baserow struct {
	client   *fetch.Client
	tableID  string
	pageSize int
}

func NewBaserow(opts BaserowOptions) *Baserow {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaserowURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultBaserowPageSize
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+opts.Token)

	return &Baserow{
		client: fetch.New(fetch.Options{
			BaseURL: opts.BaseURL,
			Header:  header,
			Online:  opts.Online,
		}),
		tableID:  opts.TableID,
		pageSize: opts.PageSize,
	}
}

func (b *Baserow) Name() string {
	return "baserow"
}

func (b *Baserow) Stations(ctx context.Context) ([]models.StationRecord, error) {
	path := fmt.Sprintf("/api/database/rows/table/%s/?user_field_names=true&size=%d", b.tableID, b.pageSize)

	var stations []models.StationRecord
	for path != "" {
		var page models.BaserowRowsResponse
		if err := b.client.GetJSON(ctx, path, &page); err != nil {
			return nil, err
		}

		for _, row := range page.Results {
			stations = append(stations, row.ToStationRecord())
		}

		path = ""
		if page.Next != nil {
			path = *page.Next // absolute URL
		}
	}

	return stations, nil
}
