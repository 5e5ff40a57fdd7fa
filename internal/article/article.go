// Package article turns submitted article fields into a typeset PDF and stores
// both as one row.
package article

import (
	"context"
	"errors"
	"time"

	"confportal.org/internal/render"
)

// ErrPersistFailure wraps store errors raised while saving a submission.
var ErrPersistFailure = errors.New("article: persist failure")

// Fields are the 18 text fields of a submission, native language first.
type Fields struct {
	ArticleName          string `json:"article_name"`
	EnglArticleName      string `json:"engl_article_name"`
	Authors              string `json:"authors"`
	EnglAuthors          string `json:"engl_authors"`
	AuthorCityFirst      string `json:"author_city_first"`
	AuthorCitySecond     string `json:"author_city_second"`
	EnglAuthorCityFirst  string `json:"engl_author_city_first"`
	EnglAuthorCitySecond string `json:"engl_author_city_second"`
	Annotation           string `json:"annotation"`
	Keywords             string `json:"keywords"`
	EnglAnnotation       string `json:"engl_annotation"`
	EnglKeywords         string `json:"engl_keywords"`
	Introduction         string `json:"introduction"`
	Theory               string `json:"theory"`
	Results              string `json:"results"`
	Conclusion           string `json:"conclusion"`
	Thanks               string `json:"thanks"`
	ListOfSources        string `json:"list_of_sources"`
}

// Named returns the fields keyed by their form names, in form order.
func (f *Fields) Named() []NamedField {
	return []NamedField{
		{"article_name", &f.ArticleName},
		{"engl_article_name", &f.EnglArticleName},
		{"authors", &f.Authors},
		{"engl_authors", &f.EnglAuthors},
		{"author_city_first", &f.AuthorCityFirst},
		{"author_city_second", &f.AuthorCitySecond},
		{"engl_author_city_first", &f.EnglAuthorCityFirst},
		{"engl_author_city_second", &f.EnglAuthorCitySecond},
		{"annotation", &f.Annotation},
		{"keywords", &f.Keywords},
		{"engl_annotation", &f.EnglAnnotation},
		{"engl_keywords", &f.EnglKeywords},
		{"introduction", &f.Introduction},
		{"theory", &f.Theory},
		{"results", &f.Results},
		{"conclusion", &f.Conclusion},
		{"thanks", &f.Thanks},
		{"list_of_sources", &f.ListOfSources},
	}
}

// NamedField points at one field of a Fields value.
type NamedField struct {
	Name  string
	Value *string
}

func (f Fields) document() render.Document {
	return render.Document{
		Title:                f.ArticleName,
		TitleEnglish:         f.EnglArticleName,
		Authors:              f.Authors,
		AuthorsEnglish:       f.EnglAuthors,
		AffiliationFirst:     f.AuthorCityFirst,
		AffiliationSecond:    f.AuthorCitySecond,
		AffiliationFirstEng:  f.EnglAuthorCityFirst,
		AffiliationSecondEng: f.EnglAuthorCitySecond,
		Abstract:             f.Annotation,
		Keywords:             f.Keywords,
		AbstractEnglish:      f.EnglAnnotation,
		KeywordsEnglish:      f.EnglKeywords,
		Introduction:         f.Introduction,
		Theory:               f.Theory,
		Results:              f.Results,
		Conclusion:           f.Conclusion,
		Acknowledgements:     f.Thanks,
		References:           f.ListOfSources,
	}
}

// Submission is a stored article. Document is only populated by Submit and by
// Store.ArticleDocument; listings carry metadata only.
type Submission struct {
	ID        string
	AuthorID  string
	Fields    Fields
	Document  []byte
	CreatedAt time.Time
}

// Store persists submissions. CreateArticle must write the row and its document in
// one statement or transaction.
type Store interface {
	CreateArticle(ctx context.Context, s Submission) (Submission, error)
	ArticleByID(ctx context.Context, id string) (Submission, error)
	ArticlesByAuthor(ctx context.Context, authorID string) ([]Submission, error)
	Articles(ctx context.Context) ([]Submission, error)
	ArticleDocument(ctx context.Context, id string) ([]byte, error)
}

// Renderer produces the PDF for a submission.
type Renderer interface {
	Render(ctx context.Context, doc render.Document) ([]byte, error)
}
