package service

import (
	"strings"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/slug"
)

const (
	// maxPostTitleLength caps the length of post titles.
	maxPostTitleLength = 200
	// maxPostMarkdownLength caps the length of post markdown.
	maxPostMarkdownLength = 200000
	// maxPostExcerptLength caps the length of a given excerpt.
	maxPostExcerptLength = 1000
	// maxPostTagLength caps the length of post tags.
	maxPostTagLength = 64
	// maxPostTags caps the number of tags on one post.
	maxPostTags = 20
	// maxCategoryNameLength caps the length of category names.
	maxCategoryNameLength = 64
)

// sanitizeOptionalText trims input, checks for null bytes, enforces maxLen runes, and returns the sanitized value.
func sanitizeOptionalText(input string, maxLen int, field string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", errors.Wrapf(ErrInvalidPost, "%s contains invalid null byte", field)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", errors.Wrapf(ErrInvalidPost, "%s exceeds max length %d", field, maxLen)
	}
	return trimmed, nil
}

// sanitizeRequiredText trims input, enforces maxLen runes, and returns the sanitized value or an error.
func sanitizeRequiredText(input string, maxLen int, field string) (string, error) {
	trimmed, err := sanitizeOptionalText(input, maxLen, field)
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return "", errors.Wrapf(ErrInvalidPost, "%s is required", field)
	}
	return trimmed, nil
}

// sanitizeNewPost validates every field of in and returns the cleaned copy.
// Tags are trimmed and deduplicated keeping their order.
func sanitizeNewPost(in NewPostInput) (out NewPostInput, err error) {
	out.Published = in.Published
	if out.Title, err = sanitizeRequiredText(in.Title, maxPostTitleLength, "title"); err != nil {
		return out, err
	}
	if strings.TrimSpace(in.Markdown) == "" {
		return out, errors.Wrap(ErrInvalidPost, "markdown is required")
	}
	if utf8.RuneCountInString(in.Markdown) > maxPostMarkdownLength {
		return out, errors.Wrapf(ErrInvalidPost, "markdown exceeds max length %d", maxPostMarkdownLength)
	}
	out.Markdown = in.Markdown
	if out.Excerpt, err = sanitizeOptionalText(in.Excerpt, maxPostExcerptLength, "excerpt"); err != nil {
		return out, err
	}
	if out.Category, err = sanitizeOptionalText(in.Category, maxCategoryNameLength, "category"); err != nil {
		return out, err
	}

	out.Tags = dao.NormalizeNames(in.Tags)
	if len(out.Tags) > maxPostTags {
		return out, errors.Wrapf(ErrInvalidPost, "at most %d tags", maxPostTags)
	}
	for _, tag := range out.Tags {
		if _, err = sanitizeRequiredText(tag, maxPostTagLength, "tag"); err != nil {
			return out, err
		}
	}

	return out, nil
}

// sanitizeSlug slugs are short base36 strings
func sanitizeSlug(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > slug.MaxLength {
		return "", errors.Wrapf(ErrPostNotFound, "bad slug %q", raw)
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return "", errors.Wrapf(ErrPostNotFound, "bad slug %q", raw)
		}
	}

	return s, nil
}
