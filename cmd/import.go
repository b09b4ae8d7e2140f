package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ecg-viewer/database"
	"ecg-viewer/models"
	"ecg-viewer/waveform"
)

// Required CSV columns; id, report, format, sample_rate, age and sex are optional.
var requiredColumns = []string{"patient_id", "test_id", "date_of_test", "path"}

func importCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import [recordings.csv]",
		Short: "Import recording metadata from a CSV file",
		Long: `Columns: id, patient_id, test_id, date_of_test (YYYY-MM-DD), report, path,
format (npy|wfdb), sample_rate, age, sex (m|f). Paths are relative to server.datasetdir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			recordings, err := parseRecordingsCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			db, err := database.InitDB(s.cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			n, err := importRecordings(cmd.Context(), database.NewStore(db), recordings)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d recordings\n", n, len(recordings))
			return err
		},
	}
}

func importRecordings(ctx context.Context, store *database.Store, recordings []models.Recording) (int, error) {
	for i := range recordings {
		if err := store.CreateRecording(ctx, &recordings[i]); err != nil {
			return i, fmt.Errorf("row %d (%s): %w", i+1, recordings[i].Path, err)
		}
		slog.Debug("Recording imported", "id", recordings[i].ID, "patient", recordings[i].PatientID)
	}
	return len(recordings), nil
}

func parseRecordingsCSV(r io.Reader) ([]models.Recording, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var recordings []models.Recording
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(name string) string {
			if i, ok := columns[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		rec, err := recordingFromRow(get)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recordings = append(recordings, rec)
	}
	return recordings, nil
}

func recordingFromRow(get func(string) string) (models.Recording, error) {
	rec := models.Recording{
		PatientID: get("patient_id"),
		TestID:    get("test_id"),
		Report:    get("report"),
		Path:      get("path"),
	}
	if rec.Path == "" {
		return rec, errors.New("empty path")
	}

	if id := get("id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return rec, fmt.Errorf("id %q: %w", id, err)
		}
		rec.ID = parsed.String()
	}

	date, err := time.Parse(time.DateOnly, get("date_of_test"))
	if err != nil {
		return rec, fmt.Errorf("date_of_test: %w", err)
	}
	rec.DateOfTest = date

	format, err := waveform.ParseFormat(get("format"))
	if err != nil {
		return rec, err
	}
	if format == "" {
		format = waveform.FormatNPY
	}
	rec.Format = string(format)

	if v := get("sample_rate"); v != "" {
		if rec.SampleRate, err = strconv.ParseFloat(v, 64); err != nil || rec.SampleRate <= 0 {
			return rec, fmt.Errorf("sample_rate %q is not a positive number", v)
		}
	}
	if v := get("age"); v != "" {
		if rec.Age, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("age: %w", err)
		}
	}

	switch strings.ToLower(get("sex")) {
	case "m", "male":
		rec.Sex = "M"
	case "f", "female":
		rec.Sex = "F"
	case "":
	default:
		return rec, fmt.Errorf("sex %q: expected m or f", get("sex"))
	}

	return rec, nil
}
