// package formatter writes backups and the membership analysis to JSON, CSV, Excel and terminal text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alexanderalber/spotify-playlist-manager/internal/models"
	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultAnalysisCSV  = "spotify_analysis.csv"
	DefaultAnalysisXLSX = "spotify_analysis.xlsx"
	analysisSheet       = "Analysis"
)

// BackupFilename returns the timestamped backup file name, e.g. spotify_backup_20240301_120000.json
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("spotify_backup_%s.json", now.Format("20060102_150405"))
}

// WriteBackupJSON writes backup as indented JSON into dir and returns the file path.
//
// Playlist and track names are written verbatim, without escaping non-ASCII or HTML characters.
func WriteBackupJSON(backup models.Backup, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := shared.MarshalJSON(backup, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	path := filepath.Join(dir, BackupFilename(now))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return path, nil
}

// BackupSummary returns one "name: N tracks" line per playlist, sorted by name.
func BackupSummary(backup models.Backup) []string {
	names := make([]string, 0, len(backup))
	for name := range backup {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %d tracks", name, len(backup[name].Tracks)))
	}
	return lines
}

// analysisRecords flattens the matrix into string rows, header first. Membership cells are "1" or "0".
func analysisRecords(analysis *models.Analysis) [][]string {
	records := [][]string{analysis.Header()}
	for _, row := range analysis.Rows {
		record := []string{row.Song.ID, row.Song.Name, row.Song.Artist, row.Song.AddedAt}
		for _, in := range row.InLists {
			record = append(record, flag(in))
		}
		records = append(records, record)
	}
	return records
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// AnalysisToCSV converts the analysis matrix to CSV with columns: id, name, artist, added_at, playlist names...
func AnalysisToCSV(analysis *models.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.WriteAll(analysisRecords(analysis)); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteAnalysisCSV writes the analysis to path, defaulting to spotify_analysis.csv, and returns the path.
func WriteAnalysisCSV(analysis *models.Analysis, path string) (string, error) {
	if path == "" {
		path = DefaultAnalysisCSV
	}

	data, err := AnalysisToCSV(analysis)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// AnalysisToXLSX builds the analysis workbook. Membership cells are numeric so the sheet can be summed.
func AnalysisToXLSX(analysis *models.Analysis) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(analysisSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	header := analysis.Header()
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(analysisSheet, cell, name)
	}

	for r, row := range analysis.Rows {
		values := []any{row.Song.ID, row.Song.Name, row.Song.Artist, row.Song.AddedAt}
		for _, in := range row.InLists {
			if in {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(analysisSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		f.SetCellStyle(analysisSheet, "A1", last, headerStyle)
	}

	for i := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 12.0
		if i == 1 || i == 2 {
			width = 30
		}
		f.SetColWidth(analysisSheet, col, col, width)
	}

	return f, nil
}

// WriteAnalysisXLSX writes the analysis workbook to path, defaulting to spotify_analysis.xlsx, and returns the path.
func WriteAnalysisXLSX(analysis *models.Analysis, path string) (string, error) {
	if path == "" {
		path = DefaultAnalysisXLSX
	}

	f, err := AnalysisToXLSX(analysis)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// AnalysisPreview renders the header and the first n rows as a terminal table.
func AnalysisPreview(analysis *models.Analysis, n int) string {
	records := analysisRecords(analysis)
	rows := records[1:]
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(records[0]...).
		Rows(rows...)

	return fmt.Sprintf("%s\n%d songs × %d playlists", t.String(), len(analysis.Rows), len(analysis.Playlists))
}
