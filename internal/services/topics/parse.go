package topics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// ErrInvalidJSON is returned for files that are not valid JSON.
var ErrInvalidJSON = errors.New("invalid topic JSON")

var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Parse decodes a topic file. The document may be a single topic, an array
// of topics, or an object with a "topics" array. Entries without an id are
// skipped.
func Parse(data []byte) ([]*models.Topic, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.ParseBytes(data)
	var entries []gjson.Result
	switch {
	case doc.IsArray():
		entries = doc.Array()
	case doc.Get("topics").IsArray():
		entries = doc.Get("topics").Array()
	case doc.IsObject():
		entries = []gjson.Result{doc}
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrInvalidJSON)
	}

	var out []*models.Topic
	for _, e := range entries {
		if t := parseTopic(e); t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func parseTopic(r gjson.Result) *models.Topic {
	id := r.Get("id").String()
	if id == "" {
		return nil
	}

	t := &models.Topic{
		ID:        id,
		Name:      r.Get("name").String(),
		CreatedAt: parseTimeField(r.Get("createdAt")),
		UpdatedAt: parseTimeField(r.Get("updatedAt")),
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}

	r.Get("messages").ForEach(func(_, m gjson.Result) bool {
		t.Messages = append(t.Messages, parseMessage(id, len(t.Messages), m))
		return true
	})
	return t
}

func parseMessage(topicID string, index int, r gjson.Result) *models.Message {
	msg := &models.Message{
		ID:        r.Get("id").String(),
		TopicID:   topicID,
		Role:      models.Role(r.Get("role").String()),
		Content:   r.Get("content").String(),
		Status:    models.MessageStatus(r.Get("status").String()),
		CreatedAt: parseTimeField(r.Get("createdAt")),
	}
	if msg.ID == "" {
		// Stable across re-reads so the message is only counted once.
		msg.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(topicID+"#"+strconv.Itoa(index))).String()
	}
	if msg.Status == "" {
		msg.Status = models.StatusSuccess
	}

	if m := r.Get("model"); m.IsObject() && m.Get("id").String() != "" {
		msg.Model = &models.ModelRef{
			ID:       m.Get("id").String(),
			Name:     m.Get("name").String(),
			Provider: m.Get("provider").String(),
		}
	}
	if u := r.Get("usage"); u.IsObject() {
		msg.Usage = &models.TokenUsage{
			PromptTokens:     int(u.Get("prompt_tokens").Int()),
			CompletionTokens: int(u.Get("completion_tokens").Int()),
			TotalTokens:      int(u.Get("total_tokens").Int()),
		}
	}
	if m := r.Get("metrics"); m.IsObject() {
		msg.Metrics = &models.MessageMetrics{
			CompletionTokens: int(m.Get("completion_tokens").Int()),
			TimeCompletionMs: int(m.Get("time_completion_millsec").Int()),
			TimeFirstTokenMs: int(m.Get("time_first_token_millsec").Int()),
		}
	}
	r.Get("knowledgeBaseIds").ForEach(func(_, kb gjson.Result) bool {
		if id := kb.String(); id != "" {
			msg.KnowledgeBaseIDs = append(msg.KnowledgeBaseIDs, id)
		}
		return true
	})
	return msg
}

// parseTimeField reads an ISO string or a Unix timestamp in seconds or milliseconds.
func parseTimeField(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.String:
		for _, format := range timeFormats {
			if t, err := time.Parse(format, r.Str); err == nil {
				return t
			}
		}
	case gjson.Number:
		if r.Num > 1e12 {
			return time.UnixMilli(int64(r.Num))
		}
		return time.Unix(int64(r.Num), 0)
	}
	return time.Time{}
}
