package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/library/log"
)

var searchCMD = &cobra.Command{
	Use:   "search <query>",
	Short: "search posts, tags and categories",
	Long: `run a ranked search against the configured blog store and print one page of results.

Example:
  laisky-blog-search search react --type posts --page 2 -c settings.yml`,
	Args: cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		defer closeStore(ctx)

		out, err := runSearch(ctx, cmd, args[0])
		if err != nil {
			log.Logger.Panic("search", zap.Error(err))
		}

		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string) (string, error) {
	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return "", errors.Wrap(err, "get page")
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return "", errors.Wrap(err, "get limit")
	}
	rawType, err := cmd.Flags().GetString("type")
	if err != nil {
		return "", errors.Wrap(err, "get type")
	}
	typ, err := search.ParseResultType(rawType)
	if err != nil {
		return "", err
	}

	resp, err := app.ranker.Search(ctx, search.Request{
		Query: query,
		Page:  page,
		Limit: limit,
		Type:  typ,
	})
	if err != nil {
		return "", errors.Wrapf(err, "search %q", query)
	}

	return renderResults(resp), nil
}

// renderResults one styled line per result under a summary header
func renderResults(resp *search.Response) string {
	header := headerStyle.Render(fmt.Sprintf("%d results for %q (page %d, %d per page)",
		resp.Total, resp.Query, resp.Page, resp.Limit))
	if len(resp.Results) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, detailStyle.Render("nothing found"))
	}

	lines := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		title, detail := describeResult(r)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			typeStyle.Render(string(r.Type)),
			scoreStyle.Render(fmt.Sprintf("%.0f", r.Score)),
			titleStyle.Render(title),
			" ",
			detailStyle.Render(detail),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, boxStyle.Render(strings.Join(lines, "\n")))
}

func describeResult(r search.Result) (title, detail string) {
	switch {
	case r.Post != nil:
		detail = "/" + r.Post.Slug
		if tags := r.Post.TagNames(); len(tags) != 0 {
			detail += " #" + strings.Join(tags, " #")
		}
		return r.Post.Title, detail
	case r.Tag != nil:
		return r.Tag.Name, fmt.Sprintf("%d posts", r.Tag.PostCount)
	case r.Category != nil:
		return r.Category.Name, fmt.Sprintf("%d posts", r.Category.PostCount)
	default:
		return "", ""
	}
}

func init() {
	rootCMD.AddCommand(searchCMD)
	searchCMD.Flags().String("type", string(search.TypeAll), "one of all/posts/tags/categories")
	searchCMD.Flags().Int("page", search.DefaultPage, "page number, starts from 1")
	searchCMD.Flags().Int("limit", search.DefaultLimit, "results per page")
}
