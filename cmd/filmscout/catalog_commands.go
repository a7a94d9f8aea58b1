package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filmscout/internal/tmdb"
	"filmscout/internal/tools"
)

const overviewWidth = 60

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var args tools.SearchArgs
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for a movie or TV series by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.Query = strings.Join(positional, " ")
			return ctx.withCatalog(cmd, func(_ *tmdb.Client, service *tools.Service) error {
				titles, err := service.SearchTitle(cmd.Context(), args)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tools.Result{Results: titles})
				}
				printTitles(cmd, titles)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&args.Type, "type", "t", tmdb.MediaMovie, "Title type: movie or tv")
	cmd.Flags().IntVarP(&args.Year, "year", "y", 0, "Restrict to a release or first-air year")
	cmd.Flags().StringVar(&args.Language, "language", "", "Result language (for example en-US)")
	return cmd
}

func newDetailsCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "details <id>",
		Short: "Show full details for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			id, err := parseID(positional[0])
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(_ *tmdb.Client, service *tools.Service) error {
				details, err := service.GetDetails(cmd.Context(), tools.DetailsArgs{ID: id, Type: mediaType})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tools.Result{Result: details})
				}
				printDetails(cmd, details)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "type", "t", tmdb.MediaMovie, "Title type: movie or tv")
	return cmd
}

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:     "recommend <id>",
		Aliases: []string{"recommendations"},
		Short:   "Recommend titles similar to the given one",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			id, err := parseID(positional[0])
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(_ *tmdb.Client, service *tools.Service) error {
				items, err := service.GetRecommendations(cmd.Context(), tools.RecommendationArgs{ID: id, Type: mediaType})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tools.Result{Results: items})
				}
				printRecommendations(cmd, items)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "type", "t", tmdb.MediaMovie, "Title type: movie or tv")
	return cmd
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var args tools.DiscoverArgs
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse popular titles filtered by genre and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withCatalog(cmd, func(_ *tmdb.Client, service *tools.Service) error {
				titles, err := service.Discover(cmd.Context(), args)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tools.Result{Results: titles})
				}
				printTitles(cmd, titles)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&args.Type, "type", "t", tmdb.MediaMovie, "Title type: movie or tv")
	cmd.Flags().StringSliceVarP(&args.Genres, "genre", "g", nil, "Genre names, comma separated or repeated")
	cmd.Flags().IntVarP(&args.Year, "year", "y", 0, "Restrict to a release or first-air year")
	cmd.Flags().StringVar(&args.SortBy, "sort-by", "", "Sort order: popularity or vote_average")
	cmd.Flags().StringVar(&args.Language, "language", "", "Result language (for example en-US)")
	return cmd
}

func newGenresCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List the genre names discover understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withCatalog(cmd, func(client *tmdb.Client, _ *tools.Service) error {
				list, err := client.Genres(cmd.Context(), mediaType)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, list)
				}
				rows := make([][]string, 0, len(list.Genres))
				for _, genre := range list.Genres {
					rows = append(rows, []string{strconv.Itoa(genre.ID), genre.Name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Genre"}, rows, []columnAlignment{alignRight, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mediaType, "type", "t", tmdb.MediaMovie, "Title type: movie or tv")
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: expected a positive TMDB id", value)
	}
	return id, nil
}
