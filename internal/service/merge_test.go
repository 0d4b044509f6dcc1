package service

import (
	"testing"

	"TrialSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, title, sponsor string) *model.TrialRecord {
	return &model.TrialRecord{
		ID:      id,
		Title:   title,
		Sponsor: sponsor,
		Type:    model.TypeUnknown,
		Status:  model.StatusUnknown,
		Source:  model.SourceCTGov,
	}
}

func TestMergeAppendsNewRecords(t *testing.T) {
	existing := []*model.TrialRecord{record("A", "first", "Acme")}
	incoming := []*model.TrialRecord{record("B", "second", "Beta")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "A", merged[0].ID)
	assert.Equal(t, "B", merged[1].ID)
}

func TestMergeMorePopulatedWins(t *testing.T) {
	existing := []*model.TrialRecord{record("X", "study", model.SponsorUnknown)}
	incoming := []*model.TrialRecord{record("X", "study", "Acme")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Sponsor)
}

func TestMergeLessPopulatedLoses(t *testing.T) {
	richer := record("X", "study", "Acme")
	richer.StartDate = "2024-01-01"
	existing := []*model.TrialRecord{richer}
	incoming := []*model.TrialRecord{record("X", "study", "Beta")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Sponsor)
	assert.Equal(t, "2024-01-01", merged[0].StartDate)
}

func TestMergeEqualPopulationKeepsExisting(t *testing.T) {
	existing := []*model.TrialRecord{record("X", "study", "Acme")}
	incoming := []*model.TrialRecord{record("X", "study", "Beta")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Sponsor)
}

func TestMergeSourceImmutableOnReplace(t *testing.T) {
	old := record("X", "study", model.SponsorUnknown)
	old.Source = model.SourceEUCTR
	incoming := record("X", "study", "Acme")
	incoming.Source = model.SourceCTGov

	merged := Merge([]*model.TrialRecord{old}, []*model.TrialRecord{incoming})
	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Sponsor)
	assert.Equal(t, model.SourceEUCTR, merged[0].Source)
}

func TestMergePreservesExistingOrder(t *testing.T) {
	existing := []*model.TrialRecord{
		record("A", "a", "s"),
		record("B", "b", "s"),
		record("C", "c", "s"),
	}
	// B被更全的版本替换，位置不变
	update := record("B", "b", "s")
	update.StartDate = "2024-05-01"
	incoming := []*model.TrialRecord{update, record("D", "d", "s")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{merged[0].ID, merged[1].ID, merged[2].ID, merged[3].ID})
	assert.Equal(t, "2024-05-01", merged[1].StartDate)
}

func TestMergeIsIdempotent(t *testing.T) {
	incoming := []*model.TrialRecord{record("A", "a", "s"), record("B", "b", "s")}

	once := Merge(nil, incoming)
	twice := Merge(once, incoming)
	assert.Equal(t, once, twice)
}

func TestMergeSkipsEmptyIDs(t *testing.T) {
	merged := Merge(nil, []*model.TrialRecord{record("", "no id", "s"), record("A", "a", "s")})
	require.Len(t, merged, 1)
	assert.Equal(t, "A", merged[0].ID)
}

func TestMergeUniqueIDsInvariant(t *testing.T) {
	existing := []*model.TrialRecord{record("A", "a", "s"), record("A", "dup", "s")}
	merged := Merge(existing, []*model.TrialRecord{record("A", "a2", "s"), record("B", "b", "s")})

	seen := map[string]bool{}
	for _, r := range merged {
		assert.NotEmpty(t, r.ID)
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}
