package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"favmovies/internal/microservices/http-api/dto"
)

const commandTimeout = 45 * time.Second

var (
	rankColor   = color.New(color.FgCyan, color.Bold).SprintFunc()
	titleColor  = color.New(color.Bold).SprintFunc()
	ratingColor = color.New(color.FgYellow).SprintFunc()
	okColor     = color.New(color.FgGreen).SprintfFunc()
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your movies in ranking order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		list, err := movies.ListMovies(ctx)
		if err != nil {
			return fmt.Errorf("failed to list movies: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No movies yet. Add one with 'favmovies search <title>'.")
			return nil
		}

		// best ranked first
		views := dto.FromModelsToViews(list)
		for i := len(views) - 1; i >= 0; i-- {
			v := views[i]
			fmt.Fprintf(out, "#%s %s (%s) [id %d]\n", rankColor(v.Ranking), titleColor(v.Title), v.Year, v.ID)
			fmt.Fprintf(out, "   Rating: %s\n", ratingColor(v.Rating))
			fmt.Fprintf(out, "   Review: %s\n", v.Review)
			fmt.Fprintln(out, strings.Repeat("-", 50))
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search TMDb for movies to add",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		title := strings.Join(args, " ")
		candidates, err := movies.BeginAdd(ctx, title)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(candidates) == 0 {
			fmt.Fprintf(out, "No movies matched %q.\n", title)
			return nil
		}

		fmt.Fprintf(out, "Found %d movies:\n\n", len(candidates))
		for _, c := range candidates {
			fmt.Fprintf(out, "%8d  %s (%s)\n", c.ExternalID, titleColor(c.Title), c.ReleaseDate)
		}
		fmt.Fprintln(out, "\nAdd one with 'favmovies add <tmdb-id>'.")
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [tmdb-id]",
	Short: "Add a movie by its TMDb id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		externalID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		m, err := movies.SelectCandidate(ctx, externalID)
		if err != nil {
			return fmt.Errorf("failed to add movie: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, okColor("Added %s (id %d).", m.Title, m.ID))
		fmt.Fprintf(out, "Rate it with: favmovies rate %d <rating> <review>\n", m.ID)
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate [id] [rating] [review]",
	Short: "Set the rating and review of a movie",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		m, err := movies.EditMovie(ctx, id, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return fmt.Errorf("failed to rate movie: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), okColor("Rated %s: %s", m.Title, *m.Rating))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a movie from your list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		if err := movies.DeleteMovie(ctx, id); err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), okColor("Movie %d removed.", id))
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(listCmd, searchCmd, addCmd, rateCmd, deleteCmd)
}
