package services

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/client"
	"github.com/dmitrijs2005/docsum/internal/client/models"
)

type ChatService interface {
	ListSessions(ctx context.Context, documentID int64) ([]models.ChatSession, error)
	CreateSession(ctx context.Context, documentID int64) (models.ChatSession, error)
	GetSession(ctx context.Context, id int64) (models.ChatSessionDetail, error)
	SendMessage(ctx context.Context, sessionID int64, content string) (models.SendResult, error)
}

// now is swapped in tests.
var now = time.Now

type chatService struct {
	api API
}

func NewChatService(api API) ChatService {
	return &chatService{api: api}
}

func sessionPath(id int64) string {
	return "/chat/sessions/" + strconv.FormatInt(id, 10)
}

type sessionList struct {
	Data []models.ChatSession `json:"data"`
}

func (c *chatService) ListSessions(ctx context.Context, documentID int64) ([]models.ChatSession, error) {
	resp, err := c.api.Get(ctx, "/chat/sessions", client.WithQuery(url.Values{
		"documentId": {strconv.FormatInt(documentID, 10)},
	}))
	if err != nil {
		return nil, err
	}

	var out sessionList
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []models.ChatSession{}
	}
	return out.Data, nil
}

type createSessionRequest struct {
	DocumentID int64  `json:"documentId"`
	Title      string `json:"title"`
}

// SessionTitle is the default name of a new chat, in local time.
func SessionTitle(t time.Time) string {
	return "Chat " + t.Local().Format("1/2/2006, 3:04:05 PM")
}

func (c *chatService) CreateSession(ctx context.Context, documentID int64) (models.ChatSession, error) {
	resp, err := c.api.Post(ctx, "/chat/sessions", createSessionRequest{
		DocumentID: documentID,
		Title:      SessionTitle(now()),
	})
	if err != nil {
		return models.ChatSession{}, err
	}

	var s models.ChatSession
	if err := decodeEnvelope(resp, "session", &s); err != nil {
		return models.ChatSession{}, err
	}
	return s, nil
}

func (c *chatService) GetSession(ctx context.Context, id int64) (models.ChatSessionDetail, error) {
	resp, err := c.api.Get(ctx, sessionPath(id))
	if err != nil {
		return models.ChatSessionDetail{}, err
	}

	var s models.ChatSessionDetail
	if err := resp.Decode(&s); err != nil {
		return models.ChatSessionDetail{}, err
	}
	return s, nil
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (c *chatService) SendMessage(ctx context.Context, sessionID int64, content string) (models.SendResult, error) {
	resp, err := c.api.Post(ctx, sessionPath(sessionID)+"/messages", sendMessageRequest{Content: content})
	if err != nil {
		return models.SendResult{}, err
	}

	var r models.SendResult
	if err := resp.Decode(&r); err != nil {
		return models.SendResult{}, err
	}
	return r, nil
}
