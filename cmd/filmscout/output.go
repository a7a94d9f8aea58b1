package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"filmscout/internal/tools"
)

var moneyPrinter = message.NewPrinter(language.English)

func printTitles(cmd *cobra.Command, titles []tools.NormalizedTitle) {
	out := cmd.OutOrStdout()
	if len(titles) == 0 {
		fmt.Fprintln(out, "No titles found")
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(titles))
	for _, title := range titles {
		rows = append(rows, []string{
			strconv.FormatInt(title.ID, 10),
			title.Title,
			formatYear(title.Year),
			colorRating(formatRating(title.Rating), title.Rating, colorize),
			truncate(title.Overview, overviewWidth),
		})
	}
	headers := []string{"ID", "Title", "Year", "Rating", "Overview"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func printRecommendations(cmd *cobra.Command, items []tools.RecommendationItem) {
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No recommendations available")
		return
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			formatYear(item.Year),
			item.Reason,
		})
	}
	headers := []string{"ID", "Title", "Year", "Why"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func printDetails(cmd *cobra.Command, details *tools.NormalizedDetails) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	heading := details.Title
	if details.Year != nil {
		heading = fmt.Sprintf("%s (%d)", heading, *details.Year)
	}
	fmt.Fprintln(out, heading)
	if details.Tagline != nil {
		fmt.Fprintf(out, "  %s\n", *details.Tagline)
	}
	fmt.Fprintln(out)

	rows := [][]string{
		{"ID", strconv.FormatInt(details.ID, 10)},
		{"Type", details.Type},
		{"Rating", colorRating(fmt.Sprintf("%s (%d votes)", formatRating(details.Rating), details.VoteCount), details.Rating, colorize)},
	}
	if len(details.Genres) > 0 {
		rows = append(rows, []string{"Genres", strings.Join(details.Genres, ", ")})
	}
	rows = appendOptional(rows, "Status", details.Status)
	rows = appendOptional(rows, "Released", details.ReleaseDate)
	if details.Runtime != nil {
		rows = append(rows, []string{"Runtime", fmt.Sprintf("%d min", *details.Runtime)})
	}
	if details.Budget != nil {
		rows = append(rows, []string{"Budget", formatMoney(*details.Budget)})
	}
	if details.Revenue != nil {
		rows = append(rows, []string{"Revenue", formatMoney(*details.Revenue)})
	}
	rows = appendOptional(rows, "First aired", details.FirstAirDate)
	rows = appendOptional(rows, "Last aired", details.LastAirDate)
	if details.SeasonCount != nil {
		rows = append(rows, []string{"Seasons", strconv.Itoa(*details.SeasonCount)})
	}
	if details.EpisodeCount != nil {
		rows = append(rows, []string{"Episodes", strconv.Itoa(*details.EpisodeCount)})
	}
	if len(details.Networks) > 0 {
		rows = append(rows, []string{"Networks", strings.Join(details.Networks, ", ")})
	}
	if len(details.Creators) > 0 {
		rows = append(rows, []string{"Created by", strings.Join(details.Creators, ", ")})
	}
	rows = appendOptional(rows, "Poster", details.PosterPath)
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	fmt.Fprintln(out)
	fmt.Fprintln(out, details.Overview)
}

func appendOptional(rows [][]string, label string, value *string) [][]string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return rows
	}
	return append(rows, []string{label, *value})
}

func formatYear(year *int) string {
	if year == nil {
		return "-"
	}
	return strconv.Itoa(*year)
}

func formatRating(rating float64) string {
	if rating == 0 {
		return "-"
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

// formatMoney renders whole dollars with thousands separators.
func formatMoney(amount int64) string {
	return moneyPrinter.Sprintf("$%d", amount)
}

func truncate(value string, width int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:width-1])) + "…"
}
