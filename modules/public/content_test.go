package public

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentInputValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults to page type", func(t *testing.T) {
		t.Parallel()
		in := ContentInput{Slug: "quienes-somos", Title: "Quiénes somos"}
		require.NoError(t, in.validate())
		assert.Equal(t, ContentTypePage, in.Type)
	})

	t.Run("trims slug and title", func(t *testing.T) {
		t.Parallel()
		in := ContentInput{Slug: "  horarios ", Title: " Horarios de culto "}
		require.NoError(t, in.validate())
		assert.Equal(t, "horarios", in.Slug)
		assert.Equal(t, "Horarios de culto", in.Title)
	})

	t.Run("rejects bad slugs", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "Mayúsculas", "has space", "under_score"} {
			in := ContentInput{Slug: s, Title: "ok"}
			assert.ErrorIs(t, in.validate(), ErrInvalidContentSlug, s)
		}
	})

	t.Run("rejects missing title", func(t *testing.T) {
		t.Parallel()
		in := ContentInput{Slug: "anuncio", Title: "   "}
		assert.ErrorIs(t, in.validate(), ErrMissingContentTitle)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		t.Parallel()
		in := ContentInput{Slug: "anuncio", Title: "Anuncio", Type: "video"}
		assert.ErrorIs(t, in.validate(), ErrInvalidContentType)
	})

	t.Run("accepts announcement and blog", func(t *testing.T) {
		t.Parallel()
		for _, typ := range []string{ContentTypeAnnouncement, ContentTypeBlog} {
			in := ContentInput{Slug: "post", Title: "Post", Type: typ}
			require.NoError(t, in.validate())
		}
	})
}
