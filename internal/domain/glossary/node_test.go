package glossary

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{
		"Glossary": TypeGlossary,
		"category": TypeCategory,
		" TERM ":   TypeTerm,
	} {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseType("folder")
	assert.Error(t, err)
}

func TestNodeValidate(t *testing.T) {
	ok := Node{NodeURI: "g1", Type: TypeGlossary, Label: "Finance"}
	assert.NoError(t, ok.Validate())
	assert.True(t, ok.IsRoot())

	missing := Node{Type: TypeTerm}
	assert.Error(t, missing.Validate())

	parented := Node{NodeURI: "g2", ParentURI: "g1", Type: TypeGlossary}
	assert.Error(t, parented.Validate())

	term := Node{NodeURI: "t1", ParentURI: "c1", Type: TypeTerm}
	assert.NoError(t, term.Validate())
	assert.Equal(t, "term", term.Type.Column())
}

func TestTimestampFormats(t *testing.T) {
	want := time.Date(2021, 5, 10, 12, 34, 56, 789012000, time.UTC)
	for _, in := range []string{
		`"2021-05-10 12:34:56.789012"`,
		`"2021-05-10T12:34:56.789012"`,
		`"2021-05-10T12:34:56.789012Z"`,
		`"2021-05-10T14:34:56.789012+02:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.True(t, want.Equal(ts.Time), "%s parsed as %s", in, ts.Time)
	}

	var day Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2021-05-10"`), &day))
	assert.Equal(t, 10, day.Day())

	var empty Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.True(t, empty.IsZero())

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`1620650096`), &bad))
}

func TestNodeJSONTimestamp(t *testing.T) {
	n := Node{NodeURI: "g1", Type: TypeGlossary, Created: Timestamp{Time: time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)}}
	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"created":"2021-05-10T12:00:00Z"`)

	out, err = json.Marshal(Node{NodeURI: "g2", Type: TypeGlossary})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"created":null`)
}
