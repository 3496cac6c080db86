package command

// root.go defines the favmovies root command and opens the movie store
// shared by every subcommand.

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"favmovies/internal/app"
	"favmovies/internal/config"
	"favmovies/internal/logger"
	"favmovies/internal/microservices/http-api/service"
)

var verbose bool // log SQL and TMDb traffic to stderr

// movies is set by the root PersistentPreRunE before any subcommand runs.
var movies service.MovieService

var (
	closeApp   = func() {}
	openMovies = defaultOpenMovies
)

var rootCmd = &cobra.Command{
	Use:   "favmovies",
	Short: "favmovies - manage your favourite movies from the terminal",
	Long: `favmovies works on the same movie list as the web server. It can:
- List your movies in ranking order
- Search TMDb and add a movie by its TMDb id
- Rate, review and delete movies

Configuration is read from .env and the environment, like the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openMovies(verbose)
		if err != nil {
			return err
		}
		movies = svc
		closeApp = closeFn
		return nil
	},
}

// Execute runs the root command. Called once by main.main().
func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute closes the store whether or not the command succeeded.
func execute() error {
	defer func() {
		closeApp()
		closeApp = func() {}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL and TMDb requests to stderr")
}

func defaultOpenMovies(verbose bool) (service.MovieService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	l := logger.NewWithOutput(cfg, os.Stderr)
	if verbose {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetOutput(io.Discard)
	}

	a, err := app.New(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return a.Movies, a.Close, nil
}
