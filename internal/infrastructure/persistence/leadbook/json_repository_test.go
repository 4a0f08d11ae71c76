package leadbook

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/leadqual/internal/domain/lead"
)

func newRepo(t *testing.T) (*JSONRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "leadbook.json")
	return NewJSONRepository(path), path
}

func TestJSONRepository_MissingFileIsEmpty(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	leads, err := repo.ListLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	rules, err := repo.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	_, err = repo.GetLead(ctx, "missing")
	assert.ErrorIs(t, err, lead.ErrLeadNotFound)
}

func TestJSONRepository_SaveAndLoadLead(t *testing.T) {
	repo, path := newRepo(t)
	ctx := context.Background()

	created := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	l := lead.Lead{
		ID:           "lead_1",
		Name:         "Tariro Moyo",
		Company:      "Acme Logistics",
		Score:        30,
		Tags:         []string{"fleet"},
		CustomFields: map[string]string{"region": "SADC"},
		CreatedAt:    created,
	}
	require.NoError(t, repo.SaveLead(ctx, l))

	_, err := os.Stat(path)
	require.NoError(t, err)

	// 別インスタンスから読み出せること
	loaded, err := NewJSONRepository(path).GetLead(ctx, "lead_1")
	require.NoError(t, err)
	assert.Equal(t, l.Company, loaded.Company)
	assert.Equal(t, l.CustomFields, loaded.CustomFields)
	assert.True(t, created.Equal(loaded.CreatedAt))

	// 更新は位置を保つ
	require.NoError(t, repo.SaveLead(ctx, lead.Lead{ID: "lead_2", Company: "Beta"}))
	l.Score = 50
	require.NoError(t, repo.SaveLead(ctx, l))

	leads, err := repo.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead_1", leads[0].ID)
	assert.Equal(t, 50, leads[0].Score)
}

func TestJSONRepository_DeleteLead(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveLead(ctx, lead.Lead{ID: "a"}))
	require.NoError(t, repo.SaveLead(ctx, lead.Lead{ID: "b"}))

	require.NoError(t, repo.DeleteLead(ctx, "a"))
	assert.ErrorIs(t, repo.DeleteLead(ctx, "a"), lead.ErrLeadNotFound)

	leads, err := repo.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "b", leads[0].ID)
}

func TestJSONRepository_ReplaceBook(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveLead(ctx, lead.Lead{ID: "a", Score: 1}))

	rule := lead.ScoringRule{
		ID:        "rule_1",
		Name:      "Logistics",
		Condition: lead.Condition{Field: "industry", Operator: lead.OpEquals, Value: "Logistics"},
		Points:    -5,
		Active:    true,
	}
	require.NoError(t, repo.ReplaceBook(ctx, []lead.Lead{{ID: "a", Score: 9}, {ID: "c"}}, []lead.ScoringRule{rule}))

	leads, err := repo.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, 9, leads[0].Score)

	rules, err := repo.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, -5, rules[0].Points)
	assert.Equal(t, lead.OpEquals, rules[0].Condition.Operator)

	require.NoError(t, repo.ReplaceBook(ctx, leads, nil))
	rules, err = repo.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestJSONRepository_CorruptFile(t *testing.T) {
	repo, path := newRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := repo.ListLeads(context.Background())
	assert.Error(t, err)
}

func TestJSONRepository_ConcurrentSaves(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.SaveLead(ctx, lead.Lead{ID: string(rune('a' + i))}))
		}(i)
	}
	wg.Wait()

	leads, err := repo.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 20)
}
