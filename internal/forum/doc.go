// Package forum extracts boards, topics and posts from the HTML served by
// SMF-style forums such as bitcointalk.org.
//
// The parser works on documents produced by the fetch package and never
// performs I/O. Markup that does not have the expected shape is reported with
// ErrUnexpectedMarkup so callers can decide whether to skip the page.
package forum
