package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/models"
)

func record(id string) models.JobRecord {
	rec := models.NewJobRecord(id, "Title "+id, "Desc")
	rec.SetWorkArrangement(models.Hybrid)
	return rec
}

func TestAppendRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonl")

	require.NoError(t, AppendRecord(path, record("1")))
	require.NoError(t, AppendRecord(path, record("2")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec models.JobRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		got = append(got, rec.ID())
		assert.Equal(t, models.Hybrid, rec.WorkArrangement())
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestSaveAndLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")

	require.NoError(t, SaveRecords(path, []models.JobRecord{record("a"), record("b")}))
	recs, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Title b", recs[1].Title())

	require.NoError(t, SaveRecords(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestSaveAndLoadIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")

	require.NoError(t, SaveIDs(path, []string{"3", "1", "3"}))
	ids, err := LoadIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "3"}, ids)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadIDs_Missing(t *testing.T) {
	ids, err := LoadIDs(filepath.Join(t.TempDir(), "nope.json"))
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadIDs_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := LoadIDs(path)
	assert.Error(t, err)
}
