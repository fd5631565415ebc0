// Package googlebooks enriches scraped catalog records against the
// Google Books volumes API. Lookup order per book is ISBN-13, then
// ISBN-10, then a title and author search; books the API does not know
// still get an empty row so lineage by row number is preserved.
package googlebooks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/libridata/bookmerge/internal/record"
)

// DefaultBaseURL is the public volumes endpoint.
const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// Client queries the Google Books volumes API.
type Client struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewClient creates a Google Books client. An empty API key works but
// the API enforces stricter rate limits, so pauses between lookups get
// longer.
func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		sleep: time.Sleep,
	}
}

// Item mirrors the subset of the API response the enricher reads.
type Item struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Language            string   `json:"language"`
		PageCount           *int     `json:"pageCount"`
		Categories          []string `json:"categories"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
	SaleInfo struct {
		ListPrice *struct {
			Amount       float64 `json:"amount"`
			CurrencyCode string  `json:"currencyCode"`
		} `json:"listPrice"`
	} `json:"saleInfo"`
}

type volumesResponse struct {
	TotalItems int    `json:"totalItems"`
	Items      []Item `json:"items"`
}

// SearchByISBN looks a volume up by exact ISBN. A miss is not an error;
// it returns nil.
func (c *Client) SearchByISBN(isbn string) (*Item, error) {
	resp, err := c.query(url.Values{"q": {"isbn:" + isbn}})
	if err != nil {
		return nil, err
	}
	if resp.TotalItems == 0 || len(resp.Items) == 0 {
		return nil, nil
	}
	return &resp.Items[0], nil
}

// SearchByTitleAuthor looks a volume up by title and author. Subtitles
// after ':' and series markers after '(' are dropped from the title, and
// only the first comma-separated author is used. Of up to five results
// the most complete one wins.
func (c *Client) SearchByTitleAuthor(title, author string) (*Item, error) {
	titleClean := strings.TrimSpace(strings.SplitN(strings.SplitN(title, ":", 2)[0], "(", 2)[0])
	authorClean := strings.TrimSpace(strings.SplitN(author, ",", 2)[0])

	var parts []string
	if titleClean != "" {
		parts = append(parts, "intitle:"+titleClean)
	}
	if authorClean != "" {
		parts = append(parts, "inauthor:"+authorClean)
	}
	if len(parts) == 0 {
		return nil, nil
	}

	resp, err := c.query(url.Values{
		"q":          {strings.Join(parts, "+")},
		"maxResults": {"5"},
	})
	if err != nil {
		return nil, err
	}
	if resp.TotalItems == 0 || len(resp.Items) == 0 {
		return nil, nil
	}
	return selectBestMatch(resp.Items), nil
}

func (c *Client) query(params url.Values) (*volumesResponse, error) {
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}

	resp, err := c.httpClient.Get(c.BaseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("query google books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google books returned status %d: %s", resp.StatusCode, string(body))
	}

	var out volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}
	return &out, nil
}

// selectBestMatch scores each result by field completeness and keeps the
// highest. ISBNs weigh double. Ties keep the earlier result.
func selectBestMatch(items []Item) *Item {
	var best *Item
	bestScore := 0

	for i := range items {
		info := items[i].VolumeInfo
		score := 0
		if info.Title != "" {
			score++
		}
		if len(info.Authors) > 0 {
			score++
		}
		if info.Publisher != "" {
			score++
		}
		if info.PublishedDate != "" {
			score++
		}
		if len(info.IndustryIdentifiers) > 0 {
			score += 2
		}
		if len(info.Categories) > 0 {
			score++
		}
		if items[i].SaleInfo.ListPrice != nil {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = &items[i]
		}
	}
	return best
}

// extractVolume maps an API item onto the landing record shape, keyed to
// the originating scrape row. Authors and categories collapse to
// pipe-delimited strings.
func extractVolume(item *Item, rowNumber int) record.GoogleBooksVolume {
	info := item.VolumeInfo
	v := record.GoogleBooksVolume{
		RowNumber: rowNumber,
		VolumeID:  nonEmpty(item.ID),
		Title:     nonEmpty(info.Title),
		Subtitle:  nonEmpty(info.Subtitle),
		Publisher: nonEmpty(info.Publisher),
		Language:  nonEmpty(info.Language),
		PageCount: info.PageCount,
	}
	if info.PublishedDate != "" {
		v.PublishedDate = record.Ptr(info.PublishedDate)
	}
	if len(info.Authors) > 0 {
		v.Authors = record.Ptr(strings.Join(info.Authors, "|"))
	}
	if len(info.Categories) > 0 {
		v.Categories = record.Ptr(strings.Join(info.Categories, "|"))
	}
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			v.ISBN10 = record.Ptr(id.Identifier)
		case "ISBN_13":
			v.ISBN13 = record.Ptr(id.Identifier)
		}
	}
	if lp := item.SaleInfo.ListPrice; lp != nil {
		v.PriceAmount = record.Ptr(lp.Amount)
		v.PriceCurrency = nonEmpty(lp.CurrencyCode)
	}
	return v
}

// Stats summarizes one enrichment run.
type Stats struct {
	Total    int
	Found    int
	NotFound int
	WithISBN int
}

// Enrich looks every scraped book up and returns one volume row per
// input, empty when the API had no match. Individual lookup errors are
// logged and treated as misses so one flaky request cannot abort a run.
func (c *Client) Enrich(books []record.GoodreadsBook) ([]record.GoogleBooksVolume, Stats) {
	stats := Stats{Total: len(books)}
	volumes := make([]record.GoogleBooksVolume, 0, len(books))

	for i, book := range books {
		item := c.lookup(book)
		if item == nil {
			stats.NotFound++
			volumes = append(volumes, record.GoogleBooksVolume{RowNumber: book.RowNumber})
		} else {
			v := extractVolume(item, book.RowNumber)
			stats.Found++
			if v.ISBN13 != nil {
				stats.WithISBN++
			}
			volumes = append(volumes, v)
		}

		if i < len(books)-1 {
			c.pause()
		}
	}

	slog.Info("enrichment finished",
		"total", stats.Total,
		"found", stats.Found,
		"not_found", stats.NotFound,
		"with_isbn13", stats.WithISBN)
	return volumes, stats
}

func (c *Client) lookup(book record.GoodreadsBook) *Item {
	if book.ISBN13 != nil {
		item, err := c.SearchByISBN(*book.ISBN13)
		if err != nil {
			slog.Warn("isbn13 lookup failed", "isbn", *book.ISBN13, "err", err)
		} else if item != nil {
			return item
		}
	}
	if book.ISBN10 != nil {
		item, err := c.SearchByISBN(*book.ISBN10)
		if err != nil {
			slog.Warn("isbn10 lookup failed", "isbn", *book.ISBN10, "err", err)
		} else if item != nil {
			return item
		}
	}
	if book.Title == nil {
		return nil
	}
	author := ""
	if book.Author != nil {
		author = *book.Author
	}
	item, err := c.SearchByTitleAuthor(*book.Title, author)
	if err != nil {
		slog.Warn("title lookup failed", "title", *book.Title, "err", err)
		return nil
	}
	return item
}

// pause rate-limits between lookups. With an API key requests can come
// faster.
func (c *Client) pause() {
	if c.APIKey != "" {
		c.sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		return
	}
	c.sleep(time.Duration(1000+rand.Intn(500)) * time.Millisecond)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
