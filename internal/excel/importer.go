package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/srs"
	"github.com/example/studydeck/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	UserID      int64  // Owner of the imported topics and cards
	FrontColumn string // Column with the card front
	BackColumn  string // Column with the card back
	TopicColumn string // Column with the topic title
	SheetName   string // Name of the sheet to import
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn: "A",
		BackColumn:  "B",
		TopicColumn: "C",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	TopicsCreated  int
	CardsCreated   int
	Skipped        int
	Errors         []string
}

// ImportCards imports cards from an Excel or CSV file. Each imported card
// gets a level-1 progress record for the importing user; missing topics
// are created with a default config.
func ImportCards(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(ctx, config)
	}
	return importFromExcel(ctx, config)
}

// row is one parsed spreadsheet line
type row struct {
	front string
	back  string
	topic string
}

// importFromExcel imports cards from an Excel file
func importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", config.SheetName, err)
	}

	frontIdx := columnIndex(config.FrontColumn)
	backIdx := columnIndex(config.BackColumn)
	topicIdx := columnIndex(config.TopicColumn)

	var parsed []row
	for i, cells := range rows {
		if i+1 < config.StartRow {
			continue
		}
		parsed = append(parsed, row{
			front: cellAt(cells, frontIdx),
			back:  cellAt(cells, backIdx),
			topic: cellAt(cells, topicIdx),
		})
	}
	return importRows(ctx, config, parsed)
}

// importFromCSV imports cards from a CSV file with front,back,topic columns
func importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var parsed []row
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++
		if line < config.StartRow {
			continue
		}
		parsed = append(parsed, row{
			front: cellAt(record, 0),
			back:  cellAt(record, 1),
			topic: cellAt(record, 2),
		})
	}
	return importRows(ctx, config, parsed)
}

// importRows writes parsed rows to the database
func importRows(ctx context.Context, config ImportConfig, rows []row) (*ImportResult, error) {
	topicRepo := database.NewTopicRepository()
	cardRepo := database.NewCardRepository()
	configRepo := database.NewConfigRepository()
	progressRepo := database.NewProgressRepository()

	result := &ImportResult{}
	topicIDs := make(map[string]int64)
	now := time.Now().UTC()

	for i, r := range rows {
		result.TotalProcessed++
		if r.front == "" || r.topic == "" {
			result.Skipped++
			continue
		}

		topicID, ok := topicIDs[r.topic]
		if !ok {
			topic, err := topicRepo.GetByTitle(ctx, config.UserID, r.topic)
			if errors.Is(err, database.ErrNotFound) {
				topic = &models.Topic{UserID: config.UserID, Title: r.topic}
				if err := topicRepo.Create(ctx, topic); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+config.StartRow, err))
					continue
				}
				cfg := &models.Config{
					TopicID:         topic.ID,
					UserID:          config.UserID,
					RecallThreshold: models.DefaultRecallThreshold,
				}
				if err := configRepo.CreateIfAbsent(ctx, cfg); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+config.StartRow, err))
					continue
				}
				result.TopicsCreated++
			} else if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+config.StartRow, err))
				continue
			}
			topicID = topic.ID
			topicIDs[r.topic] = topicID
		}

		card := &models.Card{TopicID: topicID, Front: r.front, Back: r.back}
		if err := cardRepo.Create(ctx, card); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+config.StartRow, err))
			continue
		}
		progress := srs.NewProgress(config.UserID, card.ID, now)
		if err := progressRepo.CreateIfAbsent(ctx, &progress); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+config.StartRow, err))
			continue
		}
		result.CardsCreated++
	}

	return result, nil
}

// columnIndex converts a spreadsheet column letter to a zero-based index
func columnIndex(column string) int {
	idx, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0
	}
	return idx - 1
}

// cellAt returns the trimmed cell value or "" when the row is short
func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
