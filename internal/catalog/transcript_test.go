package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomelib/tome/internal/catalog"
)

func Test_Transcript_ExtendAppendsOneExchange(t *testing.T) {
	transcript := catalog.Transcript{}

	extended := transcript.Extend("what does this mean?", "it means a lot")
	require.Len(t, extended, 2)
	assert.Equal(t, catalog.RoleUser, extended[0].Role)
	assert.Equal(t, "what does this mean?", extended[0].Content)
	assert.Equal(t, catalog.RoleAssistant, extended[1].Role)
	assert.Equal(t, "it means a lot", extended[1].Content)

	again := extended.Extend("go on", "more detail")
	require.Len(t, again, 4)
	assert.Equal(t, "go on", again[2].Content)

	// The original transcript is never mutated
	assert.Empty(t, transcript)
	assert.Len(t, extended, 2)
}

func Test_Transcript_ExtendPreservesOrder(t *testing.T) {
	transcript := catalog.Transcript{
		{Role: catalog.RoleUser, Content: "first"},
		{Role: catalog.RoleAssistant, Content: "second"},
	}

	extended := transcript.Extend("third", "fourth")
	require.Len(t, extended, 4)
	for i, content := range []string{"first", "second", "third", "fourth"} {
		assert.Equal(t, content, extended[i].Content)
	}
}
