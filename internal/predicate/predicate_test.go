package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAndNormalizes(t *testing.T) {
	t.Parallel()

	assert.True(t, And().IsAll())
	assert.True(t, And(All(), All()).IsAll())

	single := Equals("Year", 2023)
	assert.Equal(t, single, And(All(), single))

	pair := And(single, Equals("Best_byte", true))
	assert.Equal(t, OpAnd, pair.Op)
	assert.Len(t, pair.Children, 2)
}

func TestOrSingleChild(t *testing.T) {
	t.Parallel()

	p := Equals("uuid", "a")
	assert.Equal(t, p, Or(p))
	assert.False(t, Or().Match(map[string]any{"uuid": "a"}))
}

func TestMatchEquals(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"Year": int32(2023), "Best_byte": true, "status": nil}

	assert.True(t, Equals("Year", 2023).Match(doc))
	assert.True(t, Equals("Year", float64(2023)).Match(doc))
	assert.False(t, Equals("Year", 2022).Match(doc))
	assert.True(t, Equals("Best_byte", true).Match(doc))
	assert.False(t, Equals("Best_byte", "true").Match(doc))

	assert.True(t, Equals("status", nil).Match(doc), "null value")
	assert.True(t, Equals("missing", nil).Match(doc), "absent field")
	assert.False(t, Equals("Year", nil).Match(doc))
}

func TestMatchNamedStringTypes(t *testing.T) {
	t.Parallel()

	type status string
	doc := map[string]any{"s": status("accepted")}
	assert.True(t, Equals("s", "accepted").Match(doc))
}

func TestMatchIn(t *testing.T) {
	t.Parallel()

	p := In("Author", "A", "B")
	assert.True(t, p.Match(map[string]any{"Author": "B"}))
	assert.False(t, p.Match(map[string]any{"Author": "C"}))
	assert.False(t, p.Match(map[string]any{}))
}

func TestMatchExists(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"a": nil}
	assert.True(t, Exists("a").Match(doc))
	assert.False(t, Missing("a").Match(doc))
	assert.True(t, Missing("b").Match(doc))
}

func TestMatchContainsIgnoresCase(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"uuid": "HFN-2023-ABC"}
	assert.True(t, Contains("uuid", "2023-abc").Match(doc))
	assert.False(t, Contains("uuid", "xyz").Match(doc))
	assert.False(t, Contains("other", "a").Match(doc))
}

func TestBlankAndPresentPartition(t *testing.T) {
	t.Parallel()

	docs := []map[string]any{
		{},
		{"f": nil},
		{"f": ""},
		{"f": "text"},
		{"f": 0},
	}
	for _, d := range docs {
		assert.NotEqual(t, Blank("f").Match(d), Present("f").Match(d), "doc %v", d)
	}
	assert.True(t, Blank("f").Match(docs[0]))
	assert.True(t, Blank("f").Match(docs[1]))
	assert.True(t, Blank("f").Match(docs[2]))
	assert.True(t, Present("f").Match(docs[3]))
}

func TestString(t *testing.T) {
	t.Parallel()

	p := And(In("Author", "A"), Not(Equals("Year", 2023)))
	assert.Equal(t, "and(in(Author, [A]), not(eq(Year, 2023)))", p.String())
}
