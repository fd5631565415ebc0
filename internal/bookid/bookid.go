// Package bookid derives the canonical key that identifies one real-world
// book across sources. Three tiers, first match wins:
//
//  1. a checksum-valid ISBN-13, used verbatim
//  2. a valid ISBN-10, converted to its ISBN-13 form
//  3. a content hash over normalized title, normalized author, publisher
//     and year, prefixed so it can never collide with an identifier key
//
// The hash tier is best-effort: two records for the same book that disagree
// on the key material land in different groups, and no later re-merge pass
// tries to unify them.
package bookid

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/libridata/bookmerge/internal/isbn"
	"github.com/libridata/bookmerge/internal/record"
)

// HashPrefix tags tier-3 keys so they are distinguishable from ISBN keys.
const HashPrefix = "hash_"

const hashLen = 16

// Key derives the canonical key for a normalized record. Total and
// deterministic: every record gets a key, and the same record always gets
// the same one.
func Key(nr record.NormalizedRecord) string {
	if nr.ISBN13 != nil && isbn.ValidateISBN13(*nr.ISBN13) {
		return *nr.ISBN13
	}

	if nr.ISBN10 != nil {
		if converted := isbn.ISBN10To13(*nr.ISBN10); converted != nil {
			return *converted
		}
	}

	title := deref(nr.NormalizedTitle)
	author := deref(nr.NormalizedAuthor)
	publisher := deref(nr.Publisher)
	year := ""
	if nr.PublishedYear != nil {
		year = strconv.Itoa(*nr.PublishedYear)
	}

	material := fmt.Sprintf("%s|%s|%s|%s", title, author, publisher, year)
	sum := md5.Sum([]byte(material))
	return HashPrefix + hex.EncodeToString(sum[:])[:hashLen]
}

// Assign computes and stores the canonical key on every record.
func Assign(nrs []record.NormalizedRecord) []record.NormalizedRecord {
	for i := range nrs {
		nrs[i].CanonicalKey = Key(nrs[i])
	}
	return nrs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
