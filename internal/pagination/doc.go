// Package pagination computes page counts and page URLs for the forum's
// offset-paginated listings.
//
// Board listings show BoardPageSize topics per page and topic pages show
// TopicPageSize messages per page. Listing URLs carry the offset after the
// first dot of the query string:
//
//	https://bitcointalk.org/index.php?board=1.0    (first page)
//	https://bitcointalk.org/index.php?board=1.40   (second page)
//	https://bitcointalk.org/index.php?topic=5.20   (second message page)
//
// Page sizes are fixed by the forum and are configuration constants,
// never derived from the page.
package pagination
