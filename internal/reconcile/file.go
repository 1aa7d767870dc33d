package reconcile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ParseFile reads a crawler export (CSV or XLSX, by extension) into raw book
// records. The first non-empty row is the header; unknown columns are ignored.
func ParseFile(fileName string, payload []byte) ([]domain.RawBookRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([]domain.RawBookRecord, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rowsToRecords(rows)
}

func parseExcel(payload []byte) ([]domain.RawBookRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rowsToRecords(rows)
}

func rowsToRecords(rows [][]string) ([]domain.RawBookRecord, error) {
	var header []string
	records := []domain.RawBookRecord{}

	for _, row := range rows {
		if rowEmpty(row) {
			continue
		}
		if header == nil {
			header = normalizeHeader(row)
			continue
		}
		records = append(records, rowToRecord(header, row))
	}

	if header == nil {
		return nil, errors.New("no header row detected")
	}
	return records, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(row []string) []string {
	header := make([]string, len(row))
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		name = strings.ReplaceAll(name, " ", "_")
		header[i] = name
	}
	return header
}

func rowToRecord(header []string, row []string) domain.RawBookRecord {
	var record domain.RawBookRecord
	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := row[i]
		switch name {
		case "title":
			record.Title = value
		case "price":
			record.Price = value
		case "rating":
			record.Rating = value
		case "availability":
			record.Availability = value
		case "category":
			record.Category = value
		case "description":
			record.Description = value
		case "upc":
			record.UPC = value
		case "number_of_reviews":
			record.NumberOfReviews = value
		case "cover":
			record.Cover = value
		case "product_type":
			record.ProductType = value
		}
	}
	return record
}
