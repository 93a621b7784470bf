package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
)

// PrintReport renders a run report. JSON and YAML emit the report as is;
// the table form lists the counts first, then an indexed list of errors,
// then the discrepancy details.
func (p *Printer) PrintReport(r *imagesync.Report) error {
	if p.format != FormatTable {
		return p.Print(r)
	}

	title := fmt.Sprintf("Image sync %s", r.Mode)
	if r.DryRun {
		title += " (dry run)"
	}
	p.Heading(title)

	if err := SimpleTable(p.out, summaryPairs(r)); err != nil {
		return err
	}

	if len(r.Errors) > 0 {
		p.Heading(fmt.Sprintf("Errors (%d)", len(r.Errors)))
		for i, e := range r.Errors {
			p.Error(fmt.Sprintf("%d. %s", i+1, e))
		}
	}

	if len(r.Outcomes) > 0 {
		p.Heading("Repairs")
		if err := PrintTable(p.out, outcomeTable(r.Outcomes)); err != nil {
			return err
		}
	} else if len(r.Broken) > 0 {
		p.Heading("Broken references")
		if err := PrintTable(p.out, brokenTable(r.Broken)); err != nil {
			return err
		}
	}

	if len(r.Orphans) > 0 {
		p.Heading("Orphan objects")
		orphans := NewTableData("Key")
		for _, k := range r.Orphans {
			orphans.AddRow(k)
		}
		if err := PrintTable(p.out, orphans); err != nil {
			return err
		}
	}

	switch {
	case r.Cancelled:
		p.Warning("\nRun cancelled before completion.")
	case r.LimitReached:
		p.Warning("\nA configured limit stopped the run early; run again to continue.")
	case r.DryRun && r.Mode != imagesync.ModeAnalyze && (r.FixedCount > 0 || r.OrphanCount > 0):
		p.Warning("\nDry run: nothing was changed. Re-run with --no-dry-run to apply.")
	case len(r.Errors) == 0:
		p.Success("\nDone.")
	}
	return nil
}

func summaryPairs(r *imagesync.Report) [][2]string {
	itoa := strconv.Itoa
	return [][2]string{
		{"Run", r.RunID},
		{"Mode", string(r.Mode)},
		{"Dry run", strconv.FormatBool(r.DryRun)},
		{"References scanned", itoa(r.ReferencesScanned)},
		{"Objects scanned", itoa(r.ObjectsScanned)},
		{"Matched", itoa(r.MatchedCount)},
		{"Broken references", itoa(r.BrokenCount)},
		{"Orphan objects", itoa(r.OrphanCount)},
		{"Fixed", itoa(r.FixedCount)},
		{"Orphans removed", itoa(r.RemovedOrphanCount)},
		{"Errors", itoa(len(r.Errors))},
		{"Duration", r.Duration().Round(time.Millisecond).String()},
	}
}

func brokenTable(broken []imagesync.BrokenReference) *TableData {
	t := NewTableData("Entity", "Locator", "Candidate")
	for _, b := range broken {
		candidate := b.CandidateKey
		if candidate == "" {
			candidate = "-"
		}
		t.AddRow(b.EntityID, b.Locator, candidate)
	}
	return t
}

func outcomeTable(outcomes []imagesync.OutcomeRecord) *TableData {
	t := NewTableData("Entity", "Outcome", "Detail")
	for _, o := range outcomes {
		detail := "-"
		switch {
		case o.NewLocator != "":
			detail = o.NewLocator
		case o.Reason != "":
			detail = o.Reason
		case o.Error != "":
			detail = o.Error
		}
		t.AddRow(o.EntityID, o.Kind, detail)
	}
	return t
}
