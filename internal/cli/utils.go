// Package cli provides output helpers for the granthalaya command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/shastra"
	"github.com/shastralib/granthalaya/pkg/utils"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// WriteValidationReport writes a validation result to w. The text form lists
// one finding per line as "path: reason", in document order.
func WriteValidationReport(w io.Writer, result shastra.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	if result.OK {
		chapters := len(result.Doc.Chapters)
		verses := 0
		for _, ch := range result.Doc.Chapters {
			verses += len(ch.Verses)
		}
		fmt.Fprintf(w, "Document is valid: %d chapters, %d verses\n", chapters, verses)
		return nil
	}
	fmt.Fprintf(w, "Document is invalid: %d findings\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return nil
}

// WriteSummary reports a completed ingestion.
func WriteSummary(w io.Writer, summary *models.Summary) {
	fmt.Fprintf(w, "Scripture ingested: %d chapters, %d verses\n", summary.Chapters, summary.Verses)
	fmt.Fprintf(w, "  ID:         %s\n", summary.ID)
	fmt.Fprintf(w, "  Raw:        %s\n", summary.RawPath)
	fmt.Fprintf(w, "  Normalized: %s\n", summary.NormalizedPath)
}

// WriteSearchResults writes verse search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fuzzy := ""
	if response.Fuzzy {
		fuzzy = " (fuzzy)"
	}
	fmt.Fprintf(w, "Found %d verses for %q%s in %dms\n", response.Total, response.Query, fuzzy, response.QueryTime)
	if response.Total == 0 && len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean %q?\n", response.Suggestions[0])
	}
	for _, hit := range response.Hits {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%d.%d  score %.4f\n", hit.Location.Chapter, hit.Location.Verse, hit.Score)
		if hit.Snippet != "" {
			fmt.Fprintf(w, "%s\n", hit.Snippet)
		}
	}
	return nil
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, report *models.StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if report.Scripture.Ingested {
		fmt.Fprintf(w, "Scripture: %d chapters, %d verses\n",
			report.Scripture.Chapters, report.Scripture.Verses)
	} else {
		fmt.Fprintln(w, "Scripture: not ingested")
	}
	fmt.Fprintf(w, "Catalog:   %d books\n", report.Books)
	fmt.Fprintf(w, "Indexed:   %d verses\n", report.IndexedVerses)
	c := report.Ingestions
	fmt.Fprintf(w, "Journal:   %d ingestions (%d accepted, %d rejected, %d failed, %d partial)\n",
		c.Total, c.Accepted, c.Rejected, c.Failed, c.Partial)
	if report.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Disk:      %s\n", utils.FormatBytes(report.DiskUsageBytes))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
