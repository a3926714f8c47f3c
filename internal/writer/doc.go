// Package writer persists extracted records through an asynchronous
// append-only write queue.
//
// Producers call Queue.Enqueue, which never blocks on disk I/O. A single drain
// loop started with Queue.Run wakes on a fixed interval, takes the entire
// pending list as one batch and appends each task to its destination file in
// enqueue order. Because tasks are taken in global FIFO order and a batch is
// never reordered, the records of every file appear in the order they were
// enqueued regardless of how many batches were needed.
//
// Stop (or cancelling the context passed to Run) closes the queue to new
// tasks, performs one final drain of everything already enqueued and only then
// lets Run return.
package writer
