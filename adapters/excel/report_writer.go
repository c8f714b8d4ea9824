package excel

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"seqab/domain/plan"
	"seqab/ports"
)

// ReportWriterImpl renders an experiment plan to an Excel workbook: a
// summary sheet with the configuration, boundaries and realized error rates,
// and a stopping-sizes sheet with the percentile table.
type ReportWriterImpl struct{}

// NewReportWriter creates the Excel report writer
func NewReportWriter() ports.ReportWriter {
	return &ReportWriterImpl{}
}

// WriteReport saves the workbook to path.
func (w *ReportWriterImpl) WriteReport(_ context.Context, p *plan.ExperimentPlan, path string) error {
	if p == nil {
		return fmt.Errorf("plan cannot be nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, p); err != nil {
		return err
	}
	if p.Result != nil {
		if err := w.writeStoppingSizes(f, p.Result); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}

func (w *ReportWriterImpl) writeSummary(f *excelize.File, p *plan.ExperimentPlan) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Experiment", p.Name},
		{"Family", string(p.Spec.Family)},
		{"Null parameter", p.Spec.Null},
		{"Alternative parameter", p.Spec.Alt},
	}
	if p.Spec.Sigma > 0 {
		rows = append(rows, []interface{}{"Sigma", p.Spec.Sigma})
	}
	rows = append(rows,
		[]interface{}{"Alpha", p.Targets.Alpha},
		[]interface{}{"Beta", p.Targets.Beta},
		[]interface{}{"Upper boundary (A)", p.Bounds.Upper},
		[]interface{}{"Lower boundary (B)", p.Bounds.Lower},
	)

	if r := p.Result; r != nil {
		rows = append(rows,
			[]interface{}{"Method", string(r.Method)},
			[]interface{}{"Repetitions", r.Repetitions},
			[]interface{}{"Seed", r.Seed},
			[]interface{}{"Realized alpha", r.RealizedAlpha},
			[]interface{}{"Realized beta", r.RealizedBeta},
			[]interface{}{"Converged", r.Convergence.Converged},
		)
		if r.ASN != nil && r.ASN.Valid {
			rows = append(rows,
				[]interface{}{"ASN under null", r.ASN.UnderNull},
				[]interface{}{"ASN under alternative", r.ASN.UnderAlternative},
			)
		}
	}
	if p.RaceWalk != nil {
		rows = append(rows,
			[]interface{}{"Race-walk conversions", p.RaceWalk.Conversions},
			[]interface{}{"Race-walk barrier", p.RaceWalk.Barrier},
		)
	}
	if p.Reference != nil {
		rows = append(rows, []interface{}{"Fixed-horizon per group", p.Reference.PerGroup})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriterImpl) writeStoppingSizes(f *excelize.File, r *plan.SimulationResult) error {
	const sheet = "Stopping Sizes"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"Percentile", "Under null", "Under alternative"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	percentiles := make([]float64, 0, len(r.NullPercentiles))
	for p := range r.NullPercentiles {
		percentiles = append(percentiles, p)
	}
	sort.Float64s(percentiles)

	for i, p := range percentiles {
		row := []interface{}{p, r.NullPercentiles[p], r.AltPercentiles[p]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
