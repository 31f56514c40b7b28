// Package slug derives short url identifiers for new posts.
//
// Slugs are a 32-bit rolling hash of title, author and creation time
// rendered in base-36. They are not cryptographic; uniqueness is
// checked against existing posts and a collision is retried only once.
package slug

import (
	"context"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
)

// MaxLength slugs never exceed this many characters
const MaxLength = 10

// ErrSlugCollision both the first slug and its retry are taken
var ErrSlugCollision = errors.New("slug collision")

// Hash slug for title, author and timestamp.
//
// h = 31*h + c over the UTF-16 code units of "title-authorID-unixMillis",
// wrapped to int32, absolute value in base-36, cut to MaxLength.
func Hash(title string, authorID uint, ts time.Time) string {
	seed := title + "-" + strconv.FormatUint(uint64(authorID), 10) +
		"-" + strconv.FormatInt(ts.UnixMilli(), 10)

	var h int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		h = 31*h + int32(unit)
	}

	// widen first, -MinInt32 does not fit in int32
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}

	s := strconv.FormatInt(abs, 36)
	if len(s) > MaxLength {
		s = s[:MaxLength]
	}

	return s
}

// ExistsFunc reports whether slug is already used by a post
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Clock returns the current time
type Clock func() time.Time

// Generator produces slugs that are unique at the time of the check
type Generator struct {
	exists ExistsFunc
	clock  Clock
}

// NewGenerator new generator, clock defaults to the shared UTC clock
func NewGenerator(exists ExistsFunc, clock Clock) (*Generator, error) {
	if exists == nil {
		return nil, errors.New("exists func is required")
	}
	if clock == nil {
		clock = gutils.Clock.GetUTCNow
	}

	return &Generator{exists: exists, clock: clock}, nil
}

// Generate slug for a new post.
//
// On collision the slug is regenerated once with a later timestamp;
// a second collision returns ErrSlugCollision.
func (g *Generator) Generate(ctx context.Context, title string, authorID uint) (string, error) {
	first := g.clock()
	s := Hash(title, authorID, first)
	taken, err := g.exists(ctx, s)
	if err != nil {
		return "", errors.Wrapf(err, "check slug %q", s)
	}
	if !taken {
		return s, nil
	}

	retry := g.clock()
	if retry.UnixMilli() <= first.UnixMilli() {
		retry = first.Add(time.Millisecond)
	}

	s2 := Hash(title, authorID, retry)
	if s2 == s {
		return "", errors.Wrapf(ErrSlugCollision, "slug %q", s)
	}
	if taken, err = g.exists(ctx, s2); err != nil {
		return "", errors.Wrapf(err, "check slug %q", s2)
	}
	if taken {
		return "", errors.Wrapf(ErrSlugCollision, "slugs %q and %q", s, s2)
	}

	return s2, nil
}
