package pg

import (
	"context"
	"strconv"
	"strings"

	"confportal.org/internal/article"
)

var articleFieldColumns = func() string {
	var f article.Fields
	names := make([]string, 0, 18)
	for _, nf := range f.Named() {
		names = append(names, nf.Name)
	}
	return strings.Join(names, ", ")
}()

func articleMetaColumns() string {
	return `article_id, user_id, ` + articleFieldColumns + `, created_at`
}

func scanArticle(row scanner) (article.Submission, error) {
	var a article.Submission
	dest := []any{&a.ID, &a.AuthorID}
	for _, nf := range a.Fields.Named() {
		dest = append(dest, nf.Value)
	}
	dest = append(dest, &a.CreatedAt)
	err := row.Scan(dest...)
	return a, err
}

// CreateArticle writes metadata and document in a single insert; the table's
// check constraint rejects an empty document.
func (s *Store) CreateArticle(ctx context.Context, sub article.Submission) (article.Submission, error) {
	named := sub.Fields.Named()
	args := []any{sub.ID, sub.AuthorID}
	for _, nf := range named {
		args = append(args, *nf.Value)
	}
	args = append(args, sub.Document, sub.CreatedAt)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := `insert into articles(article_id, user_id, ` + articleFieldColumns + `, doc_article, created_at) values (` +
		strings.Join(placeholders, ",") + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return article.Submission{}, mapErr(err, "article "+sub.ID)
	}
	return sub, nil
}

func (s *Store) ArticleByID(ctx context.Context, id string) (article.Submission, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, `select `+articleMetaColumns()+` from articles where article_id = $1`, id))
	if err != nil {
		return article.Submission{}, mapErr(err, "article "+id)
	}
	return a, nil
}

func (s *Store) ArticlesByAuthor(ctx context.Context, authorID string) ([]article.Submission, error) {
	return s.listArticles(ctx, `select `+articleMetaColumns()+` from articles where user_id = $1 order by created_at, article_id`, authorID)
}

func (s *Store) Articles(ctx context.Context) ([]article.Submission, error) {
	return s.listArticles(ctx, `select `+articleMetaColumns()+` from articles order by created_at, article_id`)
}

func (s *Store) listArticles(ctx context.Context, query string, args ...any) ([]article.Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "articles")
	}
	defer rows.Close()

	out := []article.Submission{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ArticleDocument(ctx context.Context, id string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `select doc_article from articles where article_id = $1`, id).Scan(&doc)
	if err != nil {
		return nil, mapErr(err, "article "+id)
	}
	return doc, nil
}
