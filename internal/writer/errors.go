package writer

import "errors"

// ErrQueueClosed is returned by Enqueue after the queue has been stopped.
var ErrQueueClosed = errors.New("write queue is closed")
