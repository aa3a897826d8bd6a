package form

import "sync"

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// User-facing notification messages.
const (
	MsgEmptyText      = "Please enter some text or a URL."
	MsgEncodeFailed   = "QR code generation failed."
	MsgDownloaded     = "Downloaded Successfully"
	MsgInvalidNumeric = "Please enter a valid number."
)

// Notification is a transient message for the user.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Notifier receives notifications emitted by a Controller.
type Notifier interface {
	Notify(n Notification)
}

// Queue is a Notifier that buffers notifications until drained. It is safe
// for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
}

// Notify appends n to the queue.
func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, n)
}

// Drain returns and clears the queued notifications. It never returns nil.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}
