package risk

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	rule    = "================================================================================"
	subRule = "----------------------------------------"
)

// WriteReport renders a as the plain-text risk report.
func WriteReport(w io.Writer, a Assessment) error {
	var b strings.Builder
	q := a.Query

	fmt.Fprintf(&b, "\n%s\nRISK ASSESSMENT REPORT\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Facility: %s\nTitle:    %s\n\n", q.Facility, q.Title)

	fmt.Fprintf(&b, "Facility Totals (Impact-Driven):\n%s\n", subRule)
	if a.Found {
		fmt.Fprintf(&b, "  Total Affected:    %s\n", field(a, "totalAffected"))
		fmt.Fprintf(&b, "  Job Title Count:   %s\n", field(a, "jobTitleCount"))
		fmt.Fprintf(&b, "  Notice Count:      %s\n", field(a, "noticeCount"))
	} else {
		b.WriteString("  (Facility not found in rollup data)\n")
		b.WriteString("  This may indicate zero impact or missing data\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Direct Match at Your Facility:\n%s\n", subRule)
	fmt.Fprintf(&b, "  Affected Count:    %d\n", a.DirectMatch.Total)
	fmt.Fprintf(&b, "  Notices:           %s\n\n", list(a.DirectMatch.Notices))

	fmt.Fprintf(&b, "Top Titles at %s (by affected count):\n%s\n", q.Facility, subRule)
	if len(a.TopTitles) == 0 {
		b.WriteString("  (No impact data for this facility)\n")
	}
	for _, t := range a.TopTitles {
		fmt.Fprintf(&b, "  %5d  %s\n", t.Affected, t.Title)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Where Else '%s' Appears (top facilities):\n%s\n", q.Title, subRule)
	if len(a.TopFacilities) == 0 {
		b.WriteString("  (Title not found in impact dataset)\n")
	}
	for _, f := range a.TopFacilities {
		fmt.Fprintf(&b, "  %5d  %-15s  notices=%s\n", f.Affected, f.FacilityID, list(f.Notices))
	}
	b.WriteString("\n")

	if a.Nearby != nil {
		fmt.Fprintf(&b, "Nearest Facilities With '%s':\n%s\n", q.Title, subRule)
		if len(a.Nearby) == 0 {
			b.WriteString("  (No geocoded facilities in range)\n")
		}
		for _, n := range a.Nearby {
			fmt.Fprintf(&b, "  %8.1f km  %-15s  affected=%d\n", n.DistanceKm, n.FacilityID, n.Affected)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n\n", rule)
	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "risk: write report")
}

func field(a Assessment, col string) string {
	for k, v := range a.Facility {
		if strings.EqualFold(k, col) {
			return strings.TrimSpace(v)
		}
	}
	return "N/A"
}

func list(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
