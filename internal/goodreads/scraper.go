// Package goodreads scrapes the Goodreads search results for a query and
// drops the raw records in the landing directory. Search pages yield
// title, author, rating and year; ISBNs come from each book's own page.
package goodreads

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/libridata/bookmerge/internal/record"
)

// DefaultBaseURL is the public Goodreads site.
const DefaultBaseURL = "https://www.goodreads.com"

var (
	ratingRe       = regexp.MustCompile(`(\d+\.\d+)\s+avg rating`)
	ratingsCountRe = regexp.MustCompile(`([\d,]+)\s+ratings`)
	yearRe         = regexp.MustCompile(`(?i)published\s+(\d{4})`)
	grAuthorRe     = regexp.MustCompile(`\s*\(Goodreads Author\)\s*`)
	isbn13Re       = regexp.MustCompile(`ISBN13[:\s]+(\d{13})`)
	isbn10Re       = regexp.MustCompile(`ISBN[:\s]+(\d{9}[\dXx])`)
)

// Scraper crawls Goodreads search results.
type Scraper struct {
	BaseURL   string
	UserAgent string
	Query     string
	MaxBooks  int

	httpClient *http.Client
	sleep      func(time.Duration)
}

// FromEnv builds a scraper from the environment. USER_AGENT is required;
// Goodreads rejects the default Go client string. GOODREADS_SEARCH_QUERY
// and GOODREADS_MAX_BOOKS are optional.
func FromEnv() (*Scraper, error) {
	ua := os.Getenv("USER_AGENT")
	if ua == "" {
		return nil, fmt.Errorf("USER_AGENT not set; copy .env.example and configure it")
	}

	query := os.Getenv("GOODREADS_SEARCH_QUERY")
	if query == "" {
		query = "barbacoa"
	}

	maxBooks := 20
	if v := os.Getenv("GOODREADS_MAX_BOOKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid GOODREADS_MAX_BOOKS %q", v)
		}
		maxBooks = n
	}

	return &Scraper{
		BaseURL:   DefaultBaseURL,
		UserAgent: ua,
		Query:     query,
		MaxBooks:  maxBooks,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sleep: time.Sleep,
	}, nil
}

// Scrape walks search result pages until MaxBooks records are collected
// or a page comes back empty. Row numbers are continuous across pages.
func (s *Scraper) Scrape() ([]record.GoodreadsBook, error) {
	var books []record.GoodreadsBook
	page := 1
	nextRow := 1

	for len(books) < s.MaxBooks {
		pageBooks, err := s.scrapeSearchPage(page, nextRow, s.MaxBooks-len(books))
		if err != nil {
			return nil, err
		}
		if len(pageBooks) == 0 {
			break
		}
		books = append(books, pageBooks...)
		nextRow += len(pageBooks)
		slog.Info("search page scraped", "page", page, "accumulated", len(books))
		page++
	}

	return books, nil
}

func (s *Scraper) scrapeSearchPage(page, startRow, max int) ([]record.GoodreadsBook, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&page=%d", s.BaseURL, url.QueryEscape(s.Query), page)

	body, err := s.get(searchURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	books, err := parseSearchPage(body, s.BaseURL, startRow)
	if err != nil {
		return nil, fmt.Errorf("parse search page %d: %w", page, err)
	}
	if len(books) > max {
		books = books[:max]
	}

	for i := range books {
		if books[i].BookURL == nil {
			continue
		}
		isbn10, isbn13, err := s.fetchISBNs(*books[i].BookURL)
		if err != nil {
			slog.Warn("isbn fetch failed", "url", *books[i].BookURL, "err", err)
			continue
		}
		books[i].ISBN10 = isbn10
		books[i].ISBN13 = isbn13
		s.pause()
	}

	return books, nil
}

func (s *Scraper) fetchISBNs(bookURL string) (*string, *string, error) {
	body, err := s.get(bookURL)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	isbn10, isbn13, err := parseBookISBNs(body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse book page: %w", err)
	}
	return isbn10, isbn13, nil
}

func (s *Scraper) get(rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("goodreads returned status %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// pause keeps requests 0.5 to 1.0 seconds apart.
func (s *Scraper) pause() {
	s.sleep(time.Duration(500+rand.Intn(500)) * time.Millisecond)
}

// parseSearchPage extracts the book rows from a search results document.
// A row is any tr whose itemtype mentions Book. Missing fields stay nil;
// a row without even a title is skipped.
func parseSearchPage(r io.Reader, baseURL string, startRow int) ([]record.GoodreadsBook, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var books []record.GoodreadsBook
	row := startRow

	for _, tr := range findAll(doc, isBookRow) {
		book := parseBookRow(tr, baseURL, row)
		if book.Title == nil {
			continue
		}
		books = append(books, book)
		row++
	}
	return books, nil
}

func parseBookRow(tr *html.Node, baseURL string, row int) record.GoodreadsBook {
	book := record.GoodreadsBook{RowNumber: row}

	if a := find(tr, func(n *html.Node) bool {
		return n.Data == "a" && hasClass(n, "bookTitle")
	}); a != nil {
		if title := strings.TrimSpace(text(a)); title != "" {
			book.Title = &title
		}
		if href := attr(a, "href"); href != "" {
			u := baseURL + href
			book.BookURL = &u
		}
	}

	if span := find(tr, func(n *html.Node) bool {
		return n.Data == "span" && attr(n, "itemprop") == "author"
	}); span != nil {
		author := strings.TrimSpace(grAuthorRe.ReplaceAllString(text(span), ""))
		if author != "" {
			book.Author = &author
		}
	}

	if span := find(tr, func(n *html.Node) bool {
		return n.Data == "span" && hasClass(n, "minirating")
	}); span != nil {
		ratingText := text(span)
		if m := ratingRe.FindStringSubmatch(ratingText); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				book.Rating = &v
			}
		}
		if m := ratingsCountRe.FindStringSubmatch(ratingText); m != nil {
			if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				book.RatingsCount = &v
			}
		}
	}

	if m := yearRe.FindStringSubmatch(text(tr)); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			book.PublishedYear = &v
		}
	}

	return book
}

// parseBookISBNs scans a book page for ISBN-13 and ISBN-10 mentions.
func parseBookISBNs(r io.Reader) (*string, *string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	content := text(doc)
	var isbn10, isbn13 *string
	if m := isbn13Re.FindStringSubmatch(content); m != nil {
		isbn13 = &m[1]
	}
	if m := isbn10Re.FindStringSubmatch(content); m != nil {
		isbn10 = &m[1]
	}
	return isbn10, isbn13, nil
}

func isBookRow(n *html.Node) bool {
	return n.Data == "tr" && strings.Contains(attr(n, "itemtype"), "Book")
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && match(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, match)...)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}
