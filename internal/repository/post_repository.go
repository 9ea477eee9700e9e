package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ignews/pkg/prismic"

	"github.com/lib/pq"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostRepository is a Postgres mirror of the content service. It answers the
// same queries, and its next_page cursors point at the mirror search API.
type PostRepository struct {
	db        *sql.DB
	searchURL string
}

func NewPostRepository(db *sql.DB, searchURL string) *PostRepository {
	return &PostRepository{db: db, searchURL: searchURL}
}

func (r *PostRepository) Name() string {
	return "mirror"
}

// SaveDocument upserts a document by uid. It reports false when the stored
// copy was already identical.
func (r *PostRepository) SaveDocument(ctx context.Context, doc *prismic.Document) (bool, error) {
	first, err := prismic.ParseDate(doc.FirstPublicationDate)
	if err != nil {
		return false, err
	}
	last, err := prismic.ParseDate(doc.LastPublicationDate)
	if err != nil {
		return false, err
	}

	data := string(doc.Data)
	if data == "" || data == "null" {
		data = "{}"
	}

	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	var uid string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO post_document(uid, doc_id, type, first_publication_date, last_publication_date, data, tags)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (uid) DO UPDATE SET
			doc_id = EXCLUDED.doc_id,
			type = EXCLUDED.type,
			first_publication_date = EXCLUDED.first_publication_date,
			last_publication_date = EXCLUDED.last_publication_date,
			data = EXCLUDED.data,
			tags = EXCLUDED.tags,
			synced_at = NOW()
		WHERE post_document.data IS DISTINCT FROM EXCLUDED.data
			OR post_document.last_publication_date IS DISTINCT FROM EXCLUDED.last_publication_date
			OR post_document.tags IS DISTINCT FROM EXCLUDED.tags
		RETURNING uid
	`, doc.UID, doc.ID, doc.Type, first, last, data, pq.Array(tags)).Scan(&uid)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *PostRepository) GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error) {
	page, pageSize := clampPage(q.Page, q.PageSize)

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM post_document WHERE type = $1
	`, docType).Scan(&total)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, doc_id, type, first_publication_date, last_publication_date, data, tags
		FROM post_document
		WHERE type = $1
		ORDER BY first_publication_date DESC NULLS LAST, uid
		LIMIT $2 OFFSET $3
	`, docType, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []prismic.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		doc.Data, err = prismic.SelectFields(doc.Data, docType, q.Fetch)
		if err != nil {
			return nil, fmt.Errorf("select fields of %s: %w", doc.UID, err)
		}

		results = append(results, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize

	res := &prismic.Page{
		Page:             page,
		ResultsPerPage:   pageSize,
		ResultsSize:      len(results),
		TotalResultsSize: total,
		TotalPages:       totalPages,
		Results:          results,
	}

	if page < totalPages {
		next := r.pageURL(docType, page+1, pageSize, q.Fetch)
		res.NextPage = &next
	}
	if page > 1 {
		prev := r.pageURL(docType, page-1, pageSize, q.Fetch)
		res.PrevPage = &prev
	}

	return res, nil
}

func (r *PostRepository) GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT uid, doc_id, type, first_publication_date, last_publication_date, data, tags
		FROM post_document
		WHERE type = $1 AND uid = $2
	`, docType, uid)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// FetchPage resolves a cursor produced by this repository.
func (r *PostRepository) FetchPage(ctx context.Context, cursor string) (*prismic.Page, error) {
	docType, q, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	return r.GetByType(ctx, docType, q)
}

// Prune deletes the documents of docType whose uid is not in keep and
// returns the deleted uids.
func (r *PostRepository) Prune(ctx context.Context, docType string, keep []string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM post_document
		WHERE type = $1 AND NOT (uid = ANY($2))
		RETURNING uid
	`, docType, pq.Array(keep))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return uids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*prismic.Document, error) {
	var doc prismic.Document
	var first, last sql.NullTime
	var data []byte

	err := s.Scan(&doc.UID, &doc.ID, &doc.Type, &first, &last, &data, pq.Array(&doc.Tags))
	if err != nil {
		return nil, err
	}

	if first.Valid {
		doc.FirstPublicationDate = prismic.FormatDate(&first.Time)
	}
	if last.Valid {
		doc.LastPublicationDate = prismic.FormatDate(&last.Time)
	}
	doc.Data = data

	return &doc, nil
}

func (r *PostRepository) pageURL(docType string, page, pageSize int, fetch []string) string {
	values := url.Values{}
	values.Set("type", docType)
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(pageSize))
	if len(fetch) > 0 {
		values.Set("fetch", strings.Join(fetch, ","))
	}
	return r.searchURL + "?" + values.Encode()
}

func parseCursor(cursor string) (string, prismic.Query, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return "", prismic.Query{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}

	values := u.Query()

	docType := values.Get("type")
	if docType == "" {
		return "", prismic.Query{}, fmt.Errorf("invalid cursor %q: missing type", cursor)
	}

	var q prismic.Query
	if fetch := values.Get("fetch"); fetch != "" {
		q.Fetch = strings.Split(fetch, ",")
	}
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PageSize, _ = strconv.Atoi(values.Get("pageSize"))

	return docType, q, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
