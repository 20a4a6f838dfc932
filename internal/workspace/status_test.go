package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	raw := "A  added.txt\x00" +
		"M  staged.txt\x00" +
		" M edited.txt\x00" +
		"MM both.txt\x00" +
		"D  removed.txt\x00" +
		" D missing.txt\x00" +
		"R  new-name.txt\x00old-name.txt\x00" +
		"C  copy.txt\x00orig.txt\x00" +
		"UU conflict.txt\x00" +
		"?? notes.txt\x00" +
		"?? build/\x00" +
		"A  added.txt\x00"

	st := ParseStatus(raw)

	assert.Equal(t, []string{"added.txt", "copy.txt", "new-name.txt"}, st.Added)
	assert.Equal(t, []string{"both.txt", "staged.txt"}, st.Changed)
	assert.Equal(t, []string{"both.txt", "edited.txt"}, st.Modified)
	assert.Equal(t, []string{"old-name.txt", "removed.txt"}, st.Removed)
	assert.Equal(t, []string{"missing.txt"}, st.Missing)
	assert.Equal(t, []string{"notes.txt"}, st.Untracked)
	assert.Equal(t, []string{"build"}, st.UntrackedFolders)
	assert.False(t, st.IsClean())
}

func TestParseStatus_Empty(t *testing.T) {
	st := ParseStatus("")
	assert.True(t, st.IsClean())
	assert.NotNil(t, st.Added)
}

func TestParseStatus_PathWithSpaces(t *testing.T) {
	st := ParseStatus("A  docs/read me.md\x00")
	assert.Equal(t, []string{"docs/read me.md"}, st.Added)
}
