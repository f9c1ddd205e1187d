package store

import (
	"categorizer-server/src/db"
	"categorizer-server/src/models"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() []models.Rule {
	disabled := false
	return []models.Rule{
		{
			ID:        "r1",
			Priority:  10,
			Condition: models.Condition{Field: "description", Op: models.OpContains, Value: "salary"},
			Action:    models.SetCategoryAction("Salary"),
		},
		{
			ID:        "r2",
			Enabled:   &disabled,
			Priority:  5,
			Condition: models.Condition{Field: "amount", Op: models.OpGt, Value: 25.5},
			Action:    models.FlagAction("review"),
		},
		{
			ID:        "r3",
			Priority:  5,
			Condition: models.Condition{Field: "vendor", Op: models.OpEquals, Value: "ACME"},
			Action: models.NewAction("tag", map[string]interface{}{
				"tags": []interface{}{"b2b", "supplier"},
			}),
		},
	}
}

// exerciseRuleStore runs the behaviour every backend must share.
func exerciseRuleStore(t *testing.T, s RuleStore) {
	t.Helper()
	ctx := context.Background()

	rules, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	want := sampleRules()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Save replaces the whole collection.
	require.NoError(t, s.Save(ctx, want[2:]))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r3", got[0].ID)

	require.NoError(t, s.Save(ctx, nil))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFile_JSON(t *testing.T) {
	exerciseRuleStore(t, NewFile(filepath.Join(t.TempDir(), "rules.json")))
}

func TestFile_YAML(t *testing.T) {
	exerciseRuleStore(t, NewFile(filepath.Join(t.TempDir(), "rules.yaml")))
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseRuleStore(t, s)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPostgres(pool)
	require.NoError(t, s.Save(ctx, nil))
	exerciseRuleStore(t, s)
}

func TestFile_CorruptDataIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "not a list"`), 0644))

	_, err := NewFile(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFile_BlankFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0644))

	rules, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestFile_SaveCreatesDirectoryAndLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "rules.json")

	require.NoError(t, NewFile(path).Save(context.Background(), sampleRules()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rules.json", entries[0].Name())
}

func TestFile_PreservesUnknownActionKeysAndOpaquePayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	raw := `[
	  {"id": "a", "condition": {"field": "description", "op": "contains", "value": "x"},
	   "action": {"type": "notify", "channel": "email", "extra": {"level": 2}}},
	  {"id": "b", "condition": {"field": "description", "op": "equals", "value": "y"},
	   "action": "legacy-string-action"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	s := NewFile(path)
	rules, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, models.ActionType("notify"), rules[0].Action.Type)
	assert.Equal(t, "email", rules[0].Action.Payload["channel"])
	assert.Equal(t, models.ActionType(""), rules[1].Action.Type)

	require.NoError(t, s.Save(context.Background(), rules))
	again, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rules, again)
}
