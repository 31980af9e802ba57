package retrieval

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	t.Run("text field preferred", func(t *testing.T) {
		p := core.Payload{Text: "primary", Content: "secondary"}
		text, ok := ExtractText(&p)
		assert.True(t, ok)
		assert.Equal(t, "primary", text)
	})

	t.Run("content field fallback", func(t *testing.T) {
		p := core.Payload{Content: "secondary"}
		text, ok := ExtractText(&p)
		assert.True(t, ok)
		assert.Equal(t, "secondary", text)
	})

	t.Run("extra map fallback", func(t *testing.T) {
		p := core.Payload{Extra: map[string]string{"body": "from extra"}}
		text, ok := ExtractText(&p)
		assert.True(t, ok)
		assert.Equal(t, "from extra", text)
	})

	t.Run("whitespace only is malformed", func(t *testing.T) {
		p := core.Payload{Text: "   \n"}
		_, ok := ExtractText(&p)
		assert.False(t, ok)
	})

	t.Run("empty payload is malformed", func(t *testing.T) {
		p := core.Payload{}
		_, ok := ExtractText(&p)
		assert.False(t, ok)
	})
}

func TestDropMalformed(t *testing.T) {
	candidates := []core.CandidateResult{
		{ID: "a", Payload: core.Payload{Text: "keep me"}},
		{ID: "b", Payload: core.Payload{}},
		{ID: "c", Payload: core.Payload{Content: "keep me too"}},
	}

	kept := DropMalformed(candidates)
	assert.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
}
