package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aluiziolira/go-product-parser/analysis"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

const titleWidth = 40

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func printRunSummary(w io.Writer, result *models.ScrapeResult) {
	t := newTable(w)
	t.SetTitle("Run %s", result.RunID)
	t.AppendRows([]table.Row{
		{"Pages parsed", result.PageCount},
		{"Requests", result.RequestCount},
		{"Products", len(result.Products)},
		{"Skipped entries", result.SkippedEntries},
		{"Detail failures", result.EnrichFailures},
		{"Stopped because", string(result.Stop)},
		{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond).String()},
	})
	if len(result.ErrorsByType) > 0 {
		t.AppendRow(table.Row{"Error types", fmt.Sprint(result.ErrorsByType)})
	}
	t.Render()
}

func printStatistics(w io.Writer, stats analysis.Statistics) {
	if !stats.HasData() {
		fmt.Fprintln(w, "No products collected, nothing to summarize.")
		return
	}

	t := newTable(w)
	t.SetTitle("Statistics")
	t.AppendRows([]table.Row{
		{"Total products", stats.Total},
		{"In stock", stats.InStock},
		{"Out of stock", stats.OutOfStock},
		{"Average price", "£" + stats.AvgPrice.StringFixed(2)},
		{"Price range", fmt.Sprintf("£%s - £%s", stats.MinPrice.StringFixed(2), stats.MaxPrice.StringFixed(2))},
		{"Average rating", fmt.Sprintf("%s (%s/5)", stars(int(stats.AvgRating.IntPart())), stats.AvgRating.StringFixed(1))},
	})
	t.Render()
}

func printDeals(w io.Writer, selection analysis.DealSelection) {
	criteria := selection.Criteria
	if len(selection.Deals) == 0 {
		fmt.Fprintf(w, "No deals under £%s with %d+ stars.\n", criteria.MaxPrice.StringFixed(2), criteria.MinRating)
		return
	}

	t := newTable(w)
	t.SetTitle("Best deals (under £%s, %d+ stars): %d of %d",
		criteria.MaxPrice.StringFixed(2), criteria.MinRating, len(selection.Deals), selection.Matched)
	t.AppendHeader(table.Row{"#", "Title", "Price", "Rating"})
	for i, p := range selection.Deals {
		t.AppendRow(table.Row{i + 1, shorten(p.Title, titleWidth), p.Price, stars(p.Rating)})
	}
	t.Render()
}

func stars(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("★", n)
}

func shorten(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
