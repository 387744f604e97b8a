package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/domain"
	"financas/internal/service"
)

var csvHeader = []string{
	"id",
	"data",
	"descricao",
	"tipo",
	"valor",
	"categoria",
	"reserva",
	"etiquetas",
}

// writeCSVFile renders the snapshot's transactions to path and returns the
// number of data rows written. The file is written beside path and renamed
// into place so a partial file is never left under the final name.
func writeCSVFile(path string, snapshot *service.Snapshot) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	rows, err := writeCSV(tmp, snapshot)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("move export file: %w", err)
	}
	return rows, nil
}

func writeCSV(f *os.File, snapshot *service.Snapshot) (int, error) {
	categories := make(map[string]string, len(snapshot.Categories))
	for _, c := range snapshot.Categories {
		categories[c.ID] = c.Name
	}
	reserves := make(map[string]string, len(snapshot.Reserves))
	for _, r := range snapshot.Reserves {
		reserves[r.ID] = r.Name
	}
	tags := make(map[string]string, len(snapshot.Tags))
	for _, t := range snapshot.Tags {
		tags[t.ID] = t.Name
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, tx := range snapshot.Transactions {
		if err := w.Write(transactionRecord(tx, categories, reserves, tags)); err != nil {
			return 0, fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(snapshot.Transactions), nil
}

func transactionRecord(tx domain.Transaction, categories, reserves, tags map[string]string) []string {
	var category, reserve string
	if tx.CategoryID != nil {
		category = categories[*tx.CategoryID]
	}
	if tx.ReserveID != nil {
		reserve = reserves[*tx.ReserveID]
	}
	names := make([]string, 0, len(tx.TagIDs))
	for _, id := range tx.TagIDs {
		if name, ok := tags[id]; ok {
			names = append(names, name)
		}
	}

	return []string{
		tx.ID,
		tx.OccurredAt.UTC().Format(time.DateOnly),
		safeCell(tx.Description),
		string(tx.Kind),
		tx.Amount.StringFixed(2),
		safeCell(category),
		safeCell(reserve),
		safeCell(strings.Join(names, ";")),
	}
}

// safeCell prefixes free text that a spreadsheet would evaluate as a formula.
func safeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
