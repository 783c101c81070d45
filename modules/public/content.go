package public

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/slug"
)

// Content types a page can carry.
const (
	ContentTypePage         = "page"
	ContentTypeAnnouncement = "announcement"
	ContentTypeBlog         = "blog"
)

func validContentType(t string) bool {
	switch t {
	case ContentTypePage, ContentTypeAnnouncement, ContentTypeBlog:
		return true
	}
	return false
}

// Content is one editable page of the church's public site: an about
// page, an announcement, a blog post. Visitors only ever see published
// entries; admins manage the full set.
type Content struct {
	ID              uuid.UUID  `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Body            string     `json:"body,omitempty"`
	Excerpt         string     `json:"excerpt,omitempty"`
	Type            string     `json:"content_type"`
	ImageURL        string     `json:"featured_image_url,omitempty"`
	Published       bool       `json:"is_published"`
	Featured        bool       `json:"is_featured"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ContentInput creates a new page. The slug names the page in public
// URLs and must be unique within the church.
type ContentInput struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	Excerpt         string `json:"excerpt"`
	Type            string `json:"content_type"`
	ImageURL        string `json:"featured_image_url"`
	Published       *bool  `json:"is_published"`
	Featured        bool   `json:"is_featured"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
}

func (in *ContentInput) validate() error {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if err := slug.Validate(in.Slug); err != nil {
		return ErrInvalidContentSlug
	}
	if in.Title == "" {
		return ErrMissingContentTitle
	}
	if in.Type == "" {
		in.Type = ContentTypePage
	}
	if !validContentType(in.Type) {
		return ErrInvalidContentType
	}
	return nil
}

const contentColumns = `id, slug, title, COALESCE(body, ''), COALESCE(excerpt, ''),
	content_type, COALESCE(featured_image_url, ''), is_published, is_featured,
	published_at, COALESCE(meta_title, ''), COALESCE(meta_description, ''),
	created_by, created_at, updated_at`

func scanContent(row interface{ Scan(dest ...any) error }) (*Content, error) {
	var c Content
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Body, &c.Excerpt,
		&c.Type, &c.ImageURL, &c.Published, &c.Featured,
		&c.PublishedAt, &c.MetaTitle, &c.MetaDescription,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContent adds a page. Newly published pages get their publication
// timestamp immediately.
func (s *Service) CreateContent(ctx context.Context, in ContentInput, createdBy uuid.UUID) (*Content, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	published := true
	if in.Published != nil {
		published = *in.Published
	}

	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	var by *uuid.UUID
	if createdBy != uuid.Nil {
		by = &createdBy
	}
	row := db.QueryRow(ctx, `
		INSERT INTO public_content (slug, title, body, excerpt, content_type,
			featured_image_url, is_published, is_featured, meta_title,
			meta_description, published_at, created_by)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''),
			$7, $8, NULLIF($9, ''), NULLIF($10, ''),
			CASE WHEN $7 THEN now() END, $11)
		RETURNING `+contentColumns,
		in.Slug, in.Title, in.Body, in.Excerpt, in.Type, in.ImageURL,
		published, in.Featured, in.MetaTitle, in.MetaDescription, by)

	c, err := scanContent(row)
	if pg.IsDuplicateKeyError(err) {
		return nil, ErrContentSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("public: create content: %w", err)
	}
	s.log.InfoContext(ctx, "content created",
		slog.String("content_id", c.ID.String()), slog.String("slug", c.Slug))
	return c, nil
}

// ListContent returns every page, drafts included, freshest edits first.
func (s *Service) ListContent(ctx context.Context) ([]*Content, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT `+contentColumns+` FROM public_content ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("public: list content: %w", err)
	}
	defer rows.Close()

	var out []*Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("public: scan content: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PublishedContent returns one published page by slug; drafts are
// invisible to visitors.
func (s *Service) PublishedContent(ctx context.Context, pageSlug string) (*Content, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `
		SELECT `+contentColumns+` FROM public_content
		WHERE slug = $1 AND is_published`, pageSlug)
	c, err := scanContent(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("public: get content: %w", err)
	}
	return c, nil
}

// ContentUpdate carries the optional fields of a page patch. The slug is
// immutable so published URLs keep working.
type ContentUpdate struct {
	Title           *string `json:"title"`
	Body            *string `json:"body"`
	Excerpt         *string `json:"excerpt"`
	Type            *string `json:"content_type"`
	ImageURL        *string `json:"featured_image_url"`
	Published       *bool   `json:"is_published"`
	Featured        *bool   `json:"is_featured"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
}

func (s *Service) UpdateContent(ctx context.Context, id uuid.UUID, upd ContentUpdate) (*Content, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Body != nil {
		add("body", *upd.Body)
	}
	if upd.Excerpt != nil {
		add("excerpt", *upd.Excerpt)
	}
	if upd.Type != nil {
		if !validContentType(*upd.Type) {
			return nil, ErrInvalidContentType
		}
		add("content_type", *upd.Type)
	}
	if upd.ImageURL != nil {
		add("featured_image_url", *upd.ImageURL)
	}
	if upd.Published != nil {
		add("is_published", *upd.Published)
		if *upd.Published {
			sets = append(sets, "published_at = COALESCE(published_at, now())")
		}
	}
	if upd.Featured != nil {
		add("is_featured", *upd.Featured)
	}
	if upd.MetaTitle != nil {
		add("meta_title", *upd.MetaTitle)
	}
	if upd.MetaDescription != nil {
		add("meta_description", *upd.MetaDescription)
	}
	if len(args) == 0 {
		return nil, ErrNoContentChanges
	}

	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	args = append(args, id)
	row := db.QueryRow(ctx, fmt.Sprintf(
		`UPDATE public_content SET %s WHERE id = $%d RETURNING `+contentColumns,
		strings.Join(sets, ", "), len(args)), args...)

	c, err := scanContent(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("public: update content: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `DELETE FROM public_content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("public: delete content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}
	return nil
}
