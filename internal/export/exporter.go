package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"video-resolver/pkg/models"
)

// ExportFormat represents different export formats
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
)

// BatchRecord is one row of a batch resolution report
type BatchRecord struct {
	InputURL   string          `json:"input_url"`
	Platform   models.Platform `json:"platform"`
	Success    bool            `json:"success"`
	VideoURL   string          `json:"video_url,omitempty"`
	Thumbnail  string          `json:"thumbnail,omitempty"`
	Quality    models.Quality  `json:"quality,omitempty"`
	Duration   string          `json:"duration,omitempty"`
	Strategy   string          `json:"strategy,omitempty"`
	Error      string          `json:"error,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// NewBatchRecord builds a report row from one resolution
func NewBatchRecord(inputURL string, platform models.Platform, result *models.ResolutionResult) BatchRecord {
	rec := BatchRecord{
		InputURL:   inputURL,
		Platform:   platform,
		ResolvedAt: time.Now(),
	}
	if result.Succeeded() {
		rec.Success = true
		rec.VideoURL = result.Outcome.VideoURL
		rec.Thumbnail = result.Outcome.ThumbnailURL
		rec.Quality = result.Outcome.Quality
		rec.Duration = models.FormatDuration(result.Outcome.DurationSeconds)
		rec.Strategy = result.Outcome.StrategyName
	} else {
		rec.Error = result.Message
	}
	return rec
}

var reportColumns = []string{
	"Input URL", "Platform", "Success", "Video URL", "Thumbnail",
	"Quality", "Duration", "Strategy", "Error", "Resolved At",
}

// Exporter writes batch resolution reports to disk
type Exporter struct {
	format     ExportFormat
	filePath   string
	dateFormat string
}

// NewExporter creates an exporter for the given format and path
func NewExporter(format ExportFormat, filePath string) *Exporter {
	return &Exporter{
		format:     format,
		filePath:   filePath,
		dateFormat: "2006-01-02 15:04:05",
	}
}

// Export writes the records in the configured format
func (e *Exporter) Export(records []BatchRecord) error {
	if err := os.MkdirAll(filepath.Dir(e.filePath), 0755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	switch e.format {
	case FormatCSV:
		return e.exportToCSV(records)
	case FormatXLSX:
		return e.exportToXLSX(records)
	case FormatJSON:
		return e.exportToJSON(records)
	default:
		return fmt.Errorf("unsupported export format: %s", e.format)
	}
}

func (e *Exporter) recordToRow(rec BatchRecord) []string {
	return []string{
		rec.InputURL,
		string(rec.Platform),
		fmt.Sprintf("%t", rec.Success),
		rec.VideoURL,
		rec.Thumbnail,
		string(rec.Quality),
		rec.Duration,
		rec.Strategy,
		rec.Error,
		rec.ResolvedAt.Format(e.dateFormat),
	}
}

func (e *Exporter) exportToCSV(records []BatchRecord) error {
	file, err := os.Create(e.filePath)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(reportColumns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(e.recordToRow(rec)); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	return nil
}

func (e *Exporter) exportToXLSX(records []BatchRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Resolutions"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	for i, column := range reportColumns {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, column)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		for colIdx, value := range e.recordToRow(rec) {
			cell := fmt.Sprintf("%c%d", 'A'+colIdx, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	if err := f.SaveAs(e.filePath); err != nil {
		return fmt.Errorf("error saving XLSX file: %w", err)
	}
	return nil
}

func (e *Exporter) exportToJSON(records []BatchRecord) error {
	file, err := os.Create(e.filePath)
	if err != nil {
		return fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
