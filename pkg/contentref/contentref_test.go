package contentref

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestParse(t *testing.T) {
	t.Run("cid", func(t *testing.T) {
		ref, err := Parse(testCID)
		require.NoError(t, err)
		assert.Len(t, ref, 34)
		assert.Equal(t, testCID, ref.String())
	})

	t.Run("ipfs scheme", func(t *testing.T) {
		ref, err := Parse("ipfs://" + testCID)
		require.NoError(t, err)
		assert.Equal(t, testCID, ref.String())
	})

	t.Run("hex", func(t *testing.T) {
		ref, err := Parse("0xdeadbeef")
		require.NoError(t, err)
		assert.Equal(t, Ref{0xde, 0xad, 0xbe, 0xef}, ref)
		assert.Equal(t, "0xdeadbeef", ref.String())
	})

	t.Run("empty", func(t *testing.T) {
		ref, err := Parse("  ")
		require.NoError(t, err)
		assert.True(t, ref.IsEmpty())
		assert.Equal(t, "", ref.String())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Parse("not-a-cid")
		assert.Error(t, err)
		_, err = Parse("0xzz")
		assert.Error(t, err)
	})
}

func TestJSON(t *testing.T) {
	type doc struct {
		Content Ref `json:"content"`
	}
	in := doc{Content: MustParse(testCID)}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"`+testCID+`"}`, string(raw))

	var out doc
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, in.Content.Equal(out.Content))
}

func TestScan(t *testing.T) {
	var r Ref
	require.NoError(t, r.Scan([]byte{1, 2}))
	assert.Equal(t, Ref{1, 2}, r)
	require.NoError(t, r.Scan(nil))
	assert.Nil(t, r)
	assert.Error(t, r.Scan(12))
}
