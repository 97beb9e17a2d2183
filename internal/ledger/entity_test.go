// AngelaMos | 2026
// entity_test.go

package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmoney/habit-ledger/internal/ledger"
)

func TestCompletions_ValueAndScan(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := ledger.Completions{
		{HabitID: "h1", Value: dec("1.25"), CompletedAt: at},
		{HabitID: "h2", Value: dec("-2"), CompletedAt: at.Add(time.Minute)},
	}

	v, err := in.Value()
	require.NoError(t, err)
	raw, ok := v.(string)
	require.True(t, ok)
	assert.Contains(t, raw, `"habitId":"h1"`)

	var out ledger.Completions
	require.NoError(t, out.Scan([]byte(raw)))
	require.Len(t, out, 2)
	assert.Equal(t, "h2", out[1].HabitID)
	assert.True(t, out[0].Value.Equal(dec("1.25")))
	assert.True(t, out.Sum().Equal(dec("-0.75")))
}

func TestCompletions_NilAndEmpty(t *testing.T) {
	var nilBuf ledger.Completions
	v, err := nilBuf.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var out ledger.Completions
	require.NoError(t, out.Scan(nil))
	assert.NotNil(t, out)
	assert.Empty(t, out)

	require.NoError(t, out.Scan("null"))
	assert.NotNil(t, out)

	assert.Error(t, out.Scan(42))
	assert.True(t, ledger.Completions{}.Sum().IsZero())
}

func TestNewArchiveRecord(t *testing.T) {
	t.Run("empty snapshot has no bounds", func(t *testing.T) {
		rec := ledger.NewArchiveRecord("u1", "reset_x", nil)
		assert.Nil(t, rec.From)
		assert.Nil(t, rec.To)
		assert.NotNil(t, rec.Completions)
	})

	t.Run("bounds follow stored order", func(t *testing.T) {
		early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		late := early.Add(time.Hour)
		rec := ledger.NewArchiveRecord("u1", "reset_x", ledger.Completions{
			{HabitID: "a", CompletedAt: late},
			{HabitID: "b", CompletedAt: early},
		})
		require.NotNil(t, rec.From)
		assert.True(t, rec.From.Equal(late))
		assert.True(t, rec.To.Equal(early))
	})
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "u1_reset_abc", ledger.ArchiveKey("u1", "reset_abc"))
}
