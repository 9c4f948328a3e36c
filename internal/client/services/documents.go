package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/docsum/internal/client/client"
	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/validation"
)

const (
	DefaultPageSize    = 10
	DefaultSearchLimit = 10
	DefaultSortBy      = "createdAt"
	DefaultSortOrder   = "desc"
)

// UploadRequest describes a document to upload. Title defaults to the file
// name up to its first dot.
type UploadRequest struct {
	FileName string
	Size     int64
	Body     io.Reader
	Title    string
}

type DocumentService interface {
	List(ctx context.Context, q models.ListQuery) (models.DocumentPage, error)
	Get(ctx context.Context, id int64) (models.Document, error)
	Upload(ctx context.Context, req UploadRequest) (models.Document, error)
	Delete(ctx context.Context, id int64) error
	Summarize(ctx context.Context, id int64) error
	GenerateEmbeddings(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

type documentService struct {
	api API
}

func NewDocumentService(api API) DocumentService {
	return &documentService{api: api}
}

func documentPath(id int64) string {
	return "/documents/" + strconv.FormatInt(id, 10)
}

func (d *documentService) List(ctx context.Context, q models.ListQuery) (models.DocumentPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = DefaultSortOrder
	}

	resp, err := d.api.Get(ctx, "/documents", client.WithQuery(url.Values{
		"page":      {strconv.Itoa(q.Page)},
		"limit":     {strconv.Itoa(q.Limit)},
		"sortBy":    {q.SortBy},
		"sortOrder": {q.SortOrder},
	}))
	if err != nil {
		return models.DocumentPage{}, err
	}

	var page models.DocumentPage
	if err := resp.Decode(&page); err != nil {
		return models.DocumentPage{}, err
	}
	if page.Data == nil {
		page.Data = []models.Document{}
	}
	return page, nil
}

func (d *documentService) Get(ctx context.Context, id int64) (models.Document, error) {
	resp, err := d.api.Get(ctx, documentPath(id))
	if err != nil {
		return models.Document{}, err
	}
	var doc models.Document
	if err := decodeEnvelope(resp, "document", &doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Upload validates the file and posts it as multipart field "document".
func (d *documentService) Upload(ctx context.Context, req UploadRequest) (models.Document, error) {
	br := bufio.NewReaderSize(req.Body, validation.SniffLen)
	head, err := br.Peek(validation.SniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return models.Document{}, fmt.Errorf("read %s: %w", req.FileName, err)
	}
	if err := validation.ValidateUpload(req.FileName, req.Size, head); err != nil {
		return models.Document{}, err
	}

	title := req.Title
	if title == "" {
		title = validation.DefaultTitle(req.FileName)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", req.FileName)
	if err != nil {
		return models.Document{}, fmt.Errorf("create form file: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(br, validation.MaxUploadSize+1))
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", req.FileName, err)
	}
	// Size may be unknown or wrong for streamed sources.
	if err := validation.ValidateUpload(req.FileName, n, nil); err != nil {
		return models.Document{}, err
	}
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			return models.Document{}, fmt.Errorf("write title: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return models.Document{}, fmt.Errorf("close form: %w", err)
	}

	resp, err := d.api.Post(ctx, "/documents/upload", nil, client.WithBody(&buf, mw.FormDataContentType()))
	if err != nil {
		return models.Document{}, err
	}

	var doc models.Document
	if err := decodeEnvelope(resp, "document", &doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (d *documentService) Delete(ctx context.Context, id int64) error {
	_, err := d.api.Delete(ctx, documentPath(id))
	return err
}

func (d *documentService) Summarize(ctx context.Context, id int64) error {
	_, err := d.api.Post(ctx, documentPath(id)+"/summarize", nil)
	return err
}

func (d *documentService) GenerateEmbeddings(ctx context.Context, id int64) error {
	_, err := d.api.Post(ctx, documentPath(id)+"/embeddings", nil)
	return err
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
}

func (d *documentService) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	resp, err := d.api.Post(ctx, "/documents/search", searchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	var out searchResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []models.SearchResult{}
	}
	return out.Results, nil
}
