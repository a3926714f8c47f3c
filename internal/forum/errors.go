package forum

import "errors"

// ErrUnexpectedMarkup is returned when a page lacks the elements the parser
// relies on, usually because the page is an error page or the layout changed.
var ErrUnexpectedMarkup = errors.New("unexpected page markup")
