package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodePayloadUnmarshal(t *testing.T) {
	t.Run("Archive", func(t *testing.T) {
		var p CodePayload
		require.NoError(t, json.Unmarshal([]byte(`"UEsDBA=="`), &p))

		require.NotNil(t, p.Archive)
		assert.Equal(t, "UEsDBA==", *p.Archive)
		assert.Nil(t, p.Files)
		assert.False(t, p.Empty())
	})

	t.Run("Files", func(t *testing.T) {
		var p CodePayload
		require.NoError(t, json.Unmarshal([]byte(`["int main(){}", "// grader"]`), &p))

		assert.Nil(t, p.Archive)
		assert.Equal(t, []string{"int main(){}", "// grader"}, p.Files)
	})

	t.Run("Number", func(t *testing.T) {
		var p CodePayload
		assert.ErrorIs(t, json.Unmarshal([]byte(`42`), &p), ErrCodeShape)
	})

	t.Run("Object", func(t *testing.T) {
		var p CodePayload
		assert.ErrorIs(t, json.Unmarshal([]byte(`{"main": "code"}`), &p), ErrCodeShape)
	})

	t.Run("Null", func(t *testing.T) {
		var p CodePayload
		require.NoError(t, json.Unmarshal([]byte(`null`), &p))
		assert.True(t, p.Empty())
	})
}

func TestRedactionMarshal(t *testing.T) {
	t.Run("HiddenEntry", func(t *testing.T) {
		raw, err := json.Marshal(HiddenEntry())
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(raw), "hidden rows are empty objects")
	})

	t.Run("VisibleEntry", func(t *testing.T) {
		raw, err := json.Marshal(VisibleEntry(SubmissionRow{Username: "alice", Score: 5}))
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, float64(5), body["score"])
	})

	t.Run("HiddenSubmission", func(t *testing.T) {
		raw, err := json.Marshal(HiddenSubmission())
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(raw))
	})

	t.Run("OrderPreserved", func(t *testing.T) {
		entries := []ListEntry{
			VisibleEntry(SubmissionRow{Username: "alice"}),
			HiddenEntry(),
			VisibleEntry(SubmissionRow{Username: "bob"}),
		}

		raw, err := json.Marshal(entries)
		require.NoError(t, err)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded, 3)
		assert.Equal(t, "alice", decoded[0]["username"])
		assert.Empty(t, decoded[1], "hidden entry keeps its position")
		assert.Equal(t, "bob", decoded[2]["username"])
	})
}
