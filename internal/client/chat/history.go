package chat

import (
	"strings"

	"github.com/dmitrijs2005/docsum/internal/client/models"
)

// A persisted exchange row carries a user turn and an AI turn under one id.
// Its halves are displayed under ids derived from the row id. This mapping
// depends on the backend's id space and is kept here only.
func userHalfID(rowID int64) int64 { return rowID * 2 }
func aiHalfID(rowID int64) int64   { return rowID*2 + 1 }

// Expand turns persisted history into displayed messages. A record with a
// role is one message; an exchange row yields up to two, each only when its
// text is present. The result is deduplicated.
func Expand(records []models.MessageRecord) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(records)*2)
	for _, rec := range records {
		switch rec.Kind() {
		case models.RecordSingle:
			role := models.Role(strings.ToUpper(string(rec.Role)))
			out = append(out, rec.AsMessage(role))

		case models.RecordExchange:
			if text, ok := firstOf(rec.Content, rec.Message); ok {
				out = append(out, models.ChatMessage{
					ID: userHalfID(rec.ID), Content: text, Role: models.RoleUser, CreatedAt: rec.CreatedAt,
				})
			}
			if rec.Response != nil {
				out = append(out, models.ChatMessage{
					ID: aiHalfID(rec.ID), Content: *rec.Response, Role: models.RoleAI, CreatedAt: rec.CreatedAt,
				})
			}
		}
	}
	return Dedup(out)
}

func firstOf(vals ...*string) (string, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	return "", false
}

// Dedup keeps the first message of each id, preserving order.
func Dedup(msgs []models.ChatMessage) []models.ChatMessage {
	seen := make(map[int64]struct{}, len(msgs))
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
