package core

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strconv"
	"strings"
)

// Column layout of the bulk import file: url,url2,views,hist,sequence (no header).
const (
	importColURL      = 0
	importColSequence = 4
)

// ImportURLs reads a headerless CSV and creates one URL per row, attributed to
// createdBy. Addresses without a scheme get https://. Rows naming an address that
// already exists are skipped; malformed rows are reported and do not stop the import.
func ImportURLs(r io.Reader, createdBy string) (models.ImportResult, error) {
	result := models.ImportResult{}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("reading import file: %w", err)
		}
		line, _ = reader.FieldPos(0)
		if len(record) == 0 || strings.TrimSpace(record[importColURL]) == "" {
			continue
		}

		address := strings.TrimSpace(record[importColURL])
		if !strings.Contains(address, "://") {
			address = "https://" + address
		}
		sequence := 0
		if len(record) > importColSequence {
			if raw := strings.TrimSpace(record[importColSequence]); raw != "" {
				sequence, err = strconv.Atoi(raw)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid sequence '%s'", line, raw))
					continue
				}
			}
		}

		if _, err := database.GetURLByAddress(database.DB, address); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return result, err
		}

		if _, err := CreateURL(address, "", sequence, createdBy); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Created++
	}
	logger.Info("ImportURLs: created=%d skipped=%d errors=%d (by %s)", result.Created, result.Skipped, len(result.Errors), createdBy)
	return result, nil
}
