package googlebooks

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/libridata/bookmerge/internal/landing"
	"github.com/libridata/bookmerge/internal/record"
)

const effectiveCppItem = `{
	"id": "vol-1",
	"volumeInfo": {
		"title": "Effective C++",
		"subtitle": "3rd Edition",
		"authors": ["Scott Meyers"],
		"publisher": "Addison-Wesley",
		"publishedDate": "2005-05-12",
		"language": "en",
		"pageCount": 297,
		"categories": ["Computers", "Programming"],
		"industryIdentifiers": [
			{"type": "ISBN_10", "identifier": "0134685997"},
			{"type": "ISBN_13", "identifier": "9780134685991"}
		]
	},
	"saleInfo": {
		"listPrice": {"amount": 45.99, "currencyCode": "USD"}
	}
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("")
	c.BaseURL = srv.URL
	c.sleep = func(time.Duration) {}
	return c
}

func TestSearchByISBN(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprintf(w, `{"totalItems": 1, "items": [%s]}`, effectiveCppItem)
	})

	item, err := c.SearchByISBN("9780134685991")
	if err != nil {
		t.Fatalf("SearchByISBN: %v", err)
	}
	if gotQuery != "isbn:9780134685991" {
		t.Errorf("query = %q", gotQuery)
	}
	if item == nil || item.VolumeInfo.Title != "Effective C++" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestSearchByISBNMiss(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalItems": 0}`)
	})

	item, err := c.SearchByISBN("9999999999999")
	if err != nil {
		t.Fatalf("SearchByISBN: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil on miss, got %+v", item)
	}
}

func TestSearchByTitleAuthorCleansQuery(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprintf(w, `{"totalItems": 1, "items": [%s]}`, effectiveCppItem)
	})

	_, err := c.SearchByTitleAuthor("Effective C++: 55 Specific Ways (Professional)", "Meyers, Scott")
	if err != nil {
		t.Fatalf("SearchByTitleAuthor: %v", err)
	}
	want := "intitle:Effective C+++inauthor:Meyers"
	if gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestSelectBestMatch(t *testing.T) {
	var sparse, rich Item
	sparse.VolumeInfo.Title = "Some Book"

	rich.VolumeInfo.Title = "Some Book"
	rich.VolumeInfo.Authors = []string{"A"}
	rich.VolumeInfo.Publisher = "P"
	rich.VolumeInfo.IndustryIdentifiers = append(rich.VolumeInfo.IndustryIdentifiers,
		struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		}{"ISBN_13", "9780134685991"})

	got := selectBestMatch([]Item{sparse, rich})
	if got == nil || len(got.VolumeInfo.Authors) == 0 {
		t.Errorf("best match should be the richer item, got %+v", got)
	}

	// Equal scores keep the first result.
	got = selectBestMatch([]Item{sparse, sparse})
	if got != nil && got.VolumeInfo.Title != "Some Book" {
		t.Errorf("tie should keep first item")
	}
}

func TestEnrichFallbackOrder(t *testing.T) {
	var queries []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if q == "isbn:0134685997" {
			fmt.Fprintf(w, `{"totalItems": 1, "items": [%s]}`, effectiveCppItem)
			return
		}
		fmt.Fprint(w, `{"totalItems": 0}`)
	})

	books := []record.GoodreadsBook{
		{
			RowNumber: 1,
			Title:     record.Ptr("Effective C++"),
			Author:    record.Ptr("Scott Meyers"),
			ISBN13:    record.Ptr("9999999999999"),
			ISBN10:    record.Ptr("0134685997"),
		},
		{
			RowNumber: 2,
			Title:     record.Ptr("Totally Unknown"),
			Author:    record.Ptr("Nobody"),
		},
	}

	volumes, stats := c.Enrich(books)

	wantQueries := []string{
		"isbn:9999999999999",
		"isbn:0134685997",
		"intitle:Totally Unknown+inauthor:Nobody",
	}
	if len(queries) != len(wantQueries) {
		t.Fatalf("made %d queries %v, want %d", len(queries), queries, len(wantQueries))
	}
	for i, q := range wantQueries {
		if queries[i] != q {
			t.Errorf("query[%d] = %q, want %q", i, queries[i], q)
		}
	}

	if stats.Found != 1 || stats.NotFound != 1 || stats.WithISBN != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if len(volumes) != 2 {
		t.Fatalf("got %d volumes, want 2", len(volumes))
	}
	v := volumes[0]
	if v.RowNumber != 1 {
		t.Errorf("RowNumber = %d", v.RowNumber)
	}
	if v.ISBN13 == nil || *v.ISBN13 != "9780134685991" {
		t.Errorf("ISBN13 = %v", v.ISBN13)
	}
	if v.Authors == nil || *v.Authors != "Scott Meyers" {
		t.Errorf("Authors = %v", v.Authors)
	}
	if v.Categories == nil || *v.Categories != "Computers|Programming" {
		t.Errorf("Categories = %v", v.Categories)
	}
	if v.PriceAmount == nil || *v.PriceAmount != 45.99 {
		t.Errorf("PriceAmount = %v", v.PriceAmount)
	}

	// The miss keeps its row for lineage, everything else nil.
	if volumes[1].RowNumber != 2 || volumes[1].Title != nil {
		t.Errorf("miss row = %+v", volumes[1])
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := t.TempDir() + "/googlebooks_books.csv"

	volumes := []record.GoogleBooksVolume{
		{
			RowNumber:     1,
			VolumeID:      record.Ptr("vol-1"),
			Title:         record.Ptr("Effective C++"),
			Authors:       record.Ptr("Scott Meyers"),
			Publisher:     record.Ptr("Addison-Wesley"),
			PublishedDate: record.Ptr("2005-05-12"),
			Language:      record.Ptr("en"),
			PageCount:     record.Ptr(297),
			ISBN13:        record.Ptr("9780134685991"),
			PriceAmount:   record.Ptr(45.99),
			PriceCurrency: record.Ptr("USD"),
		},
		{RowNumber: 2},
	}

	if err := WriteCSV(path, volumes); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := landing.LoadGoogleBooks(path)
	if err != nil {
		t.Fatalf("LoadGoogleBooks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Title == nil || *got[0].Title != "Effective C++" {
		t.Errorf("Title = %v", got[0].Title)
	}
	if got[0].PageCount == nil || *got[0].PageCount != 297 {
		t.Errorf("PageCount = %v", got[0].PageCount)
	}
	if got[0].PriceAmount == nil || *got[0].PriceAmount != 45.99 {
		t.Errorf("PriceAmount = %v", got[0].PriceAmount)
	}
	if got[1].Title != nil || got[1].ISBN13 != nil {
		t.Errorf("empty row came back non-empty: %+v", got[1])
	}
}
