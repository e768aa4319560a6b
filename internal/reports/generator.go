package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/fdg312/coach-hub/internal/mealplans"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/jung-kurt/gofpdf"
)

// Core fonts are cp1252; these letters have no glyph there.
var cp1252Fold = strings.NewReplacer("č", "c", "ć", "c", "đ", "d", "Č", "C", "Ć", "C", "Đ", "D")

// Generator renders canonical plans for download.
type Generator struct {
	labels labels
}

func NewGenerator(locale string) *Generator {
	return &Generator{labels: labelsFor(locale)}
}

// RenderWeeklyPlanPDF lays out the targets, one section per day and the
// weekly averages.
func (g *Generator) RenderWeeklyPlanPDF(plan mealplans.WeeklyPlan) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(g.labels.title, true)
	pdf.SetAutoPageBreak(true, 15)
	utf := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return utf(cp1252Fold.Replace(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(g.labels.title))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", g.labels.targets, g.formatTargets(plan.UserTargets))))
	pdf.Ln(6)
	wt := plan.WeeklyTotals
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", g.labels.weekly, g.formatMacros(wt.AvgCalories, wt.AvgProtein, wt.AvgCarbs, wt.AvgFat))))
	pdf.Ln(10)

	for _, day := range plan.Days {
		g.drawDay(pdf, tr, day)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawDay(pdf *gofpdf.Fpdf, tr func(string) string, day mealplans.CanonicalDay) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(230, 236, 242)
	pdf.CellFormat(0, 8, tr(strings.TrimSpace(day.DayName+" "+day.Date)), "", 1, "L", true, 0, "")

	if day.Meals.Count() == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, tr(g.labels.empty), "", 1, "L", false, 0, "")
	}

	for _, slot := range mealplans.Slots {
		meal := day.Meals.Get(slot)
		if meal == nil {
			continue
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(28, 6, tr(g.labels.slots[slot]), "", 0, "L", false, 0, "")
		pdf.CellFormat(92, 6, tr(meal.Name), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		t := meal.Totals
		pdf.CellFormat(0, 6, tr(g.formatMacros(t.Calories, t.Protein, t.Carbs, t.Fat)), "", 1, "R", false, 0, "")

		var parts []string
		for _, c := range meal.Components {
			if c.Grams > 0 {
				parts = append(parts, fmt.Sprintf("%s %sg", c.Name, formatNumber(c.Grams)))
			} else {
				parts = append(parts, c.Name)
			}
		}
		if len(parts) > 0 {
			pdf.SetX(pdf.GetX() + 28)
			pdf.MultiCell(0, 4.5, tr(strings.Join(parts, ", ")), "", "L", false)
		}
		if meal.Description != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetX(pdf.GetX() + 28)
			pdf.MultiCell(0, 4.5, tr(meal.Description), "", "L", false)
		}
	}

	t := day.DailyTotals
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s: %s", g.labels.total, g.formatMacros(t.Calories, t.Protein, t.Carbs, t.Fat))), "T", 1, "R", false, 0, "")
	pdf.Ln(4)
}

// RenderWeeklyPlanCSV writes one row per meal.
func (g *Generator) RenderWeeklyPlanCSV(plan mealplans.WeeklyPlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "day_name", "slot", "meal", "components", "calories", "protein", "carbs", "fat"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, day := range plan.Days {
		for _, slot := range mealplans.Slots {
			meal := day.Meals.Get(slot)
			if meal == nil {
				continue
			}
			names := make([]string, len(meal.Components))
			for i, c := range meal.Components {
				names[i] = c.Name
			}
			row := []string{
				day.Date,
				day.DayName,
				string(slot),
				meal.Name,
				strings.Join(names, "; "),
				formatNumber(meal.Totals.Calories),
				formatNumber(meal.Totals.Protein),
				formatNumber(meal.Totals.Carbs),
				formatNumber(meal.Totals.Fat),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) formatTargets(t nutrition.Targets) string {
	return g.formatMacros(t.TargetCalories, t.Macros.Protein, t.Macros.Carbs, t.Macros.Fats)
}

func (g *Generator) formatMacros(calories, protein, carbs, fat float64) string {
	l := g.labels
	return fmt.Sprintf("%s %s, %s %sg, %s %sg, %s %sg",
		formatNumber(calories), l.calories,
		l.protein, formatNumber(protein),
		l.carbs, formatNumber(carbs),
		l.fat, formatNumber(fat))
}

// formatNumber drops a trailing ".0".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
