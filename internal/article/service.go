package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"confportal.org/internal/ids"
	"confportal.org/internal/obs"
	"confportal.org/internal/portal"
	"confportal.org/internal/render"
)

type Service struct {
	store    Store
	renderer Renderer
	now      func() time.Time
}

func NewService(store Store, renderer Renderer) *Service {
	return &Service{store: store, renderer: renderer, now: time.Now}
}

// Submit validates fields, renders the PDF and stores row and document together.
// A render failure writes nothing. Identical submissions produce distinct rows.
func (s *Service) Submit(ctx context.Context, authorID string, fields Fields) (Submission, error) {
	if strings.TrimSpace(authorID) == "" {
		return Submission{}, fmt.Errorf("%w: author is required", portal.ErrInvalidInput)
	}
	for _, f := range fields.Named() {
		*f.Value = strings.TrimSpace(*f.Value)
		if !render.HasText(*f.Value) {
			obs.CountSubmission("invalid")
			return Submission{}, fmt.Errorf("%w: %s is required", portal.ErrInvalidInput, f.Name)
		}
	}

	pdf, err := s.renderer.Render(ctx, fields.document())
	if err != nil {
		obs.CountSubmission("render_failed")
		if !errors.Is(err, render.ErrRenderFailure) {
			err = fmt.Errorf("%w: %v", render.ErrRenderFailure, err)
		}
		return Submission{}, err
	}
	if len(pdf) == 0 {
		obs.CountSubmission("render_failed")
		return Submission{}, fmt.Errorf("%w: empty document", render.ErrRenderFailure)
	}

	saved, err := s.store.CreateArticle(ctx, Submission{
		ID:        ids.NewEntityID(),
		AuthorID:  authorID,
		Fields:    fields,
		Document:  pdf,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		obs.CountSubmission("persist_failed")
		return Submission{}, fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}
	obs.CountSubmission("ok")
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	return s.store.ArticleByID(ctx, id)
}

func (s *Service) ByAuthor(ctx context.Context, authorID string) ([]Submission, error) {
	return s.store.ArticlesByAuthor(ctx, authorID)
}

func (s *Service) List(ctx context.Context) ([]Submission, error) {
	return s.store.Articles(ctx)
}

// Document returns the stored PDF of an article.
func (s *Service) Document(ctx context.Context, id string) ([]byte, error) {
	return s.store.ArticleDocument(ctx, id)
}
