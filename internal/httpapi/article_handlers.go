package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"confportal.org/internal/article"
	"confportal.org/internal/audit"
	"confportal.org/internal/portal"
)

const (
	articleDownloadName = "СТАТЬЯ.pdf"
	multipartMemory     = 8 << 20
)

// showArticle is the article metadata; the document is served by /file/download.
type showArticle struct {
	ArticleID string    `json:"article_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	article.Fields
}

func toShowArticle(s article.Submission) showArticle {
	return showArticle{ArticleID: s.ID, UserID: s.AuthorID, CreatedAt: s.CreatedAt, Fields: s.Fields}
}

func writeArticles(w http.ResponseWriter, r *http.Request, subs []article.Submission, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showArticle, 0, len(subs))
	for _, s := range subs {
		out = append(out, toShowArticle(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateArticle reads the 18 article fields from a multipart or urlencoded
// form, renders the PDF and stores both. An uploaded file counts against the
// upload limit and is discarded.
func (a *API) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeServiceError(w, r, fmt.Errorf("%w: %w", portal.ErrInvalidInput, err))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var fields article.Fields
	for _, nf := range fields.Named() {
		*nf.Value = r.FormValue(nf.Name)
	}
	if raw := r.FormValue("body"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			writeServiceError(w, r, fmt.Errorf("%w: body: %v", portal.ErrInvalidInput, err))
			return
		}
	}

	sub, err := a.articles.Submit(r.Context(), principal(r).ID, fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "article.submitted", map[string]any{
		"article_id": sub.ID,
		"pdf_bytes":  len(sub.Document),
	})
	writeJSON(w, http.StatusOK, toShowArticle(sub))
}

func (a *API) handleDownloadArticle(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "article_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc, err := a.articles.Document(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": articleDownloadName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (a *API) handleArticles(w http.ResponseWriter, r *http.Request) {
	subs, err := a.articles.List(r.Context())
	writeArticles(w, r, subs, err)
}

func (a *API) handleArticlesByAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	subs, err := a.articles.ByAuthor(r.Context(), id)
	writeArticles(w, r, subs, err)
}

func (a *API) handleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "article_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sub, err := a.articles.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShowArticle(sub))
}
