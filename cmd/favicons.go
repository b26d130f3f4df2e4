package cmd

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/petrolscout/stations-api/internal/brands"
)

// Favicons refreshes the favicon column of the retailer registry by scraping
// each retailer's homepage for a <link rel="icon"> and writes the updated
// CSV to output.
func Favicons(output string) error {
	retailers, err := brands.GetRetailersList()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	for _, retailer := range retailers {
		favicon, err := scrapeFavicon(client, retailer.Url)
		if err != nil {
			log.Printf("no favicon for %s: %v", retailer.Name, err)
			continue
		}
		retailer.Favicon = &favicon
		log.Printf("%s -> %s", retailer.Name, favicon)
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close output file: %v", err)
		}
	}()

	writer := csv.NewWriter(f)
	for _, retailer := range retailers {
		if err := writer.Write(retailer.ToCSV()); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}
	writer.Flush()

	return writer.Error()
}

func scrapeFavicon(client *http.Client, siteURL string) (string, error) {
	resp, err := client.Get(siteURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse HTML")
	}

	href, ok := doc.Find(`link[rel~="icon"]`).First().Attr("href")
	if !ok {
		return "", errors.New("no icon link found")
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
