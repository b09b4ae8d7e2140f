package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sbinet/npyio"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ecg-viewer/config"
	"ecg-viewer/database"
	"ecg-viewer/waveform"
)

func testSettings(t *testing.T, yaml string) *settings {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	v := viper.New()
	cfg, err := config.Load(v, path)
	require.NoError(t, err)
	return &settings{path: path, v: v, cfg: cfg}
}

func writeSingleLead(t *testing.T, n int) string {
	t.Helper()
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i%500) + 1
	}
	path := filepath.Join(t.TempDir(), "lead.npy")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, npyio.Write(f, samples))
	require.NoError(t, f.Close())
	return path
}

func TestRunNormalize(t *testing.T) {
	s := testSettings(t, "waveform:\n  fillmissingleads: true\n")
	path := writeSingleLead(t, 5000)

	var out bytes.Buffer
	require.NoError(t, runNormalize(&out, s, path, normalizeOptions{}))

	var got struct {
		Shape [2]int      `json:"shape"`
		Data  [][]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, [2]int{12, 2000}, got.Shape)
	require.Len(t, got.Data, 12)
	assert.InDelta(t, 0.001, got.Data[0][0], 1e-12)
	assert.InDelta(t, 0.0, got.Data[1][0], 0)
}

func TestRunNormalizeErrors(t *testing.T) {
	s := testSettings(t, "log:\n  level: error\n")
	path := writeSingleLead(t, 5000)

	err := runNormalize(&bytes.Buffer{}, s, path, normalizeOptions{})
	assert.ErrorIs(t, err, waveform.ErrShapeMismatch, "one lead without fill-missing")

	err = runNormalize(&bytes.Buffer{}, s, filepath.Join(t.TempDir(), "missing.npy"), normalizeOptions{})
	assert.ErrorIs(t, err, waveform.ErrNotFound)

	err = runNormalize(&bytes.Buffer{}, s, path, normalizeOptions{format: "edf"})
	assert.ErrorIs(t, err, waveform.ErrConfig)
}

func TestParseRecordingsCSV(t *testing.T) {
	t.Parallel()

	input := `id,patient_id,test_id,date_of_test,report,path,format,sample_rate,age,sex
0F8FAD5B-D9CB-469F-A165-70867728950E,p-1,t-1,2023-11-02,"Sinus rhythm, LVH",p-1/t-1,,,67,m
,p-2,t-7,2024-01-15,,mit/100,mit,360,,F
`
	recs, err := parseRecordingsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", recs[0].ID)
	assert.Equal(t, "Sinus rhythm, LVH", recs[0].Report)
	assert.Equal(t, "npy", recs[0].Format)
	assert.Equal(t, "M", recs[0].Sex)
	assert.Equal(t, 67, recs[0].Age)
	assert.True(t, recs[0].DateOfTest.Equal(time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)))

	assert.Empty(t, recs[1].ID)
	assert.Equal(t, "wfdb", recs[1].Format)
	assert.InDelta(t, 360.0, recs[1].SampleRate, 0)
	assert.Equal(t, "F", recs[1].Sex)
}

func TestParseRecordingsCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty file"},
		{"missing column", "patient_id,test_id,path\np,t,x\n", `missing column "date_of_test"`},
		{"bad date", "patient_id,test_id,date_of_test,path\np,t,02-11-2023,x\n", "line 2"},
		{"bad sex", "patient_id,test_id,date_of_test,path,sex\np,t,2023-11-02,x,x\n", "sex"},
		{"bad format", "patient_id,test_id,date_of_test,path,format\np,t,2023-11-02,x,edf\n", "unknown format"},
		{"bad id", "id,patient_id,test_id,date_of_test,path\nnope,p,t,2023-11-02,x\n", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecordingsCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImportRecordings(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "import.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := database.NewStore(db)

	recs, err := parseRecordingsCSV(strings.NewReader("patient_id,test_id,date_of_test,path\np-1,t-1,2024-02-01,a\np-1,t-2,2024-02-03,b\n"))
	require.NoError(t, err)

	n, err := importRecordings(context.Background(), store, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	listed, err := store.ListRecordings(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "t-2", listed[0].TestID)
	assert.Len(t, listed[0].ID, 36)
}

func TestRootCommandWiring(t *testing.T) {
	t.Parallel()

	root := RootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "normalize", "adduser", "import"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
