package notification

// Details holds the per-recipient outcome lists of a dispatch.
// Notification and email lists hold recipient emails, push lists hold internal user ids.
type Details struct {
	NotificationsCreated []string `json:"notifications_created"`
	NotificationsFailed  []string `json:"notifications_failed"`
	EmailsSent           []string `json:"emails_sent"`
	EmailsFailed         []string `json:"emails_failed"`
	PushSent             []string `json:"push_sent"`
	PushFailed           []string `json:"push_failed"`
}

// Result is the aggregated outcome of one dispatch.
type Result struct {
	Success              bool    `json:"success"`
	Partial              bool    `json:"partial,omitempty"`
	NotificationsCreated int     `json:"notifications_created"`
	NotificationsFailed  int     `json:"notifications_failed"`
	EmailsSent           int     `json:"emails_sent"`
	EmailsFailed         int     `json:"emails_failed"`
	PushSent             int     `json:"push_sent"`
	PushFailed           int     `json:"push_failed"`
	Details              Details `json:"details"`
}

// NewResult builds a Result from the detail lists, deriving the counters.
func NewResult(d Details, partial bool) *Result {
	d = Details{
		NotificationsCreated: nonNil(d.NotificationsCreated),
		NotificationsFailed:  nonNil(d.NotificationsFailed),
		EmailsSent:           nonNil(d.EmailsSent),
		EmailsFailed:         nonNil(d.EmailsFailed),
		PushSent:             nonNil(d.PushSent),
		PushFailed:           nonNil(d.PushFailed),
	}
	return &Result{
		Success:              true,
		Partial:              partial,
		NotificationsCreated: len(d.NotificationsCreated),
		NotificationsFailed:  len(d.NotificationsFailed),
		EmailsSent:           len(d.EmailsSent),
		EmailsFailed:         len(d.EmailsFailed),
		PushSent:             len(d.PushSent),
		PushFailed:           len(d.PushFailed),
		Details:              d,
	}
}

// nonNil keeps empty lists serialised as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
