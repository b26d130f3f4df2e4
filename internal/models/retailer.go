package models

import "github.com/cockroachdb/errors"

// Retailer is one row of the embedded retailer registry: brand name,
// homepage, and an optional favicon URL.
type Retailer struct {
	Name    string  `json:"name"`
	Url     string  `json:"url"`
	Favicon *string `json:"favicon,omitempty"`
}

func (r *Retailer) ToCSV() []string {
	row := []string{
		r.Name,
		r.Url,
		"",
	}
	if r.Favicon != nil {
		row[2] = *r.Favicon
	}

	return row
}

func RetailerFromCSV(record, headers []string) (*Retailer, error) {
	if len(record) < 2 {
		return nil, errors.Newf("expected at least 2 columns, got %d", len(record))
	}
	retailer := &Retailer{
		Name: record[0],
		Url:  record[1],
	}
	if len(record) == 3 && record[2] != "" {
		retailer.Favicon = &record[2]
	}
	return retailer, nil
}
