package vault

import (
	"strings"
	"time"
)

// Kind classifies the external event a record originated from.
type Kind string

const (
	KindFileDrop    Kind = "file_drop"
	KindEmail       Kind = "email"
	KindChatMessage Kind = "chat_message"
	KindSocialPost  Kind = "social_post"
	KindGeneric     Kind = "generic"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Keywords that mark a task as high priority at ingestion.
var urgentKeywords = []string{
	"urgent", "asap", "invoice", "payment", "help", "price", "pricing",
	"emergency", "immediate", "money", "bank", "transfer", "deadline",
}

// Record is the in-memory form of a task document. Its stage is not stored
// here: the directory the file lives in is the stage.
type Record struct {
	ID           string
	Kind         Kind
	Priority     Priority
	Fields       *Fields
	Body         string
	CreatedAt    time.Time
	LastModified time.Time
}

// ParseRecord builds a Record from document content. modTime is the file's
// last modification time. Priority is taken from the header when present;
// otherwise it is derived from keyword heuristics over subject and body.
func ParseRecord(id string, content string, modTime time.Time) *Record {
	fields, body := ParseDocument(content)

	rec := &Record{
		ID:           id,
		Kind:         kindFromHeader(fields.Get("type")),
		Fields:       fields,
		Body:         body,
		LastModified: modTime,
	}

	switch Priority(strings.ToLower(fields.Get("priority"))) {
	case PriorityHigh:
		rec.Priority = PriorityHigh
	case PriorityNormal:
		rec.Priority = PriorityNormal
	default:
		rec.Priority = DerivePriority(fields.Get("subject") + " " + body)
	}

	rec.CreatedAt = modTime
	for _, key := range []string{"received", "created", "processed"} {
		if ts, ok := parseTimestamp(fields.Get(key)); ok {
			rec.CreatedAt = ts
			break
		}
	}

	return rec
}

// Render serializes the record back into its on-disk document form.
func (r *Record) Render() string {
	return RenderDocument(r.Fields, r.Body)
}

// ScheduledTime returns the parsed scheduled_time field. A record without one
// is immediately eligible.
func (r *Record) ScheduledTime() (time.Time, bool) {
	return parseTimestamp(r.Fields.Get("scheduled_time"))
}

// OriginalID returns the id of the inbound record a reply correlates to.
func (r *Record) OriginalID() string {
	if v := r.Fields.Get("original_id"); v != "" {
		return v
	}
	return r.Fields.Get("original_email_id")
}

func kindFromHeader(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "file_drop", "file":
		return KindFileDrop
	case "email", "email_reply":
		return KindEmail
	case "chat_message", "chat", "whatsapp":
		return KindChatMessage
	case "social_post", "linkedin_post", "linkedin":
		return KindSocialPost
	default:
		return KindGeneric
	}
}

// DerivePriority applies the urgent-keyword heuristics once, at ingestion.
func DerivePriority(text string) Priority {
	lowered := strings.ToLower(text)
	for _, kw := range urgentKeywords {
		if strings.Contains(lowered, kw) {
			return PriorityHigh
		}
	}
	return PriorityNormal
}

func parseTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
