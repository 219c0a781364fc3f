// Package export выгружает захваты в CSV и Excel.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"retail-audit/internal/models"
	"retail-audit/internal/scoring"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Capturas"

// Row — захват вместе с данными магазина
type Row struct {
	Capture models.Capture
	Store   models.Store
}

func header(categories []models.Category) []string {
	h := []string{"fecha", "tienda", "nombre", "ciudad", "estatus", "score_pct", "notas"}
	for _, c := range categories {
		h = append(h, c.Key+"_cumple", c.Key+"_notas", c.Key+"_rating")
	}
	return h
}

func record(r Row, categories []models.Category) []string {
	score := scoring.Score(r.Capture, categories) * 100
	rec := []string{
		r.Capture.Date,
		r.Capture.StoreCode,
		r.Store.Name,
		r.Store.City,
		string(r.Store.Status),
		strconv.FormatFloat(score, 'f', 1, 64),
		r.Capture.Notes,
	}
	for _, c := range categories {
		it, ok := r.Capture.Item(c.Key)
		compliant := "no"
		if ok && it.Compliant {
			compliant = "si"
		}
		rating := ""
		if ok && it.Rating != nil {
			rating = strconv.Itoa(*it.Rating)
		}
		rec = append(rec, compliant, it.Notes, rating)
	}
	return rec
}

func WriteCSV(w io.Writer, rows []Row, categories []models.Category) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(categories)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r, categories)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, rows []Row, categories []models.Category) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	h := toAny(header(categories))
	if err := f.SetSheetRow(sheetName, "A1", &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := toAny(record(r, categories))
		// score как число, чтобы по нему можно было сортировать в Excel
		values[5] = scoring.Score(r.Capture, categories) * 100
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
