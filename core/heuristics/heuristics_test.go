package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name, file, artist, album, want string
	}{
		{"number and dash", "03 - The Rising.mp3", "", "", "The Rising"},
		{"number and dot", "07. Lonesome Day.flac", "", "", "Lonesome Day"},
		{"artist prefix", "Bruce Springsteen - 03 - The Rising.mp3", "Bruce Springsteen", "", "The Rising"},
		{"album prefix", "The Rising - 12 - Paradise.ogg", "", "The Rising", "Paradise"},
		{"lower-cased album", "the rising-04-Worlds Apart.mp3", "", "The Rising", "Worlds Apart"},
		{"no number", "Intro.mp3", "", "", "Intro"},
		{"year is a title", "1984.mp3", "", "", "1984"},
		{"only a number", "05.mp3", "", "", "05"},
		{"directory is ignored", "/music/Artist/Album/02 Song.m4a", "", "", "Song"},
		{"inner hyphen kept", "01 - Jean-Michel.mp3", "", "", "Jean-Michel"},
		{"title track", "03 - The Rising.mp3", "Bruce Springsteen", "The Rising", "The Rising"},
		{"short album inside a word", "07 Broken.mp3", "A", "B", "Broken"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DeriveTitle(c.file, c.artist, c.album))
		})
	}
}

func TestDerivePosition(t *testing.T) {
	n, ok := DerivePosition("03 - The Rising.mp3")
	assert.True(t, ok)
	assert.Equal(t, uint(3), n)

	n, ok = DerivePosition("00 Intro.mp3")
	assert.True(t, ok)
	assert.Equal(t, uint(0), n)

	n, ok = DerivePosition("0.mp3")
	assert.True(t, ok)
	assert.Equal(t, uint(0), n)

	_, ok = DerivePosition("Intro.mp3")
	assert.False(t, ok)

	_, ok = DerivePosition("1984.mp3")
	assert.False(t, ok)
}

func TestNormalizeGenre(t *testing.T) {
	assert.Equal(t, "indie", NormalizeGenre("Alternative/Indie"))
	assert.Equal(t, "hip-hop", NormalizeGenre("Rap-&-Hip-Hop"))
	assert.Equal(t, "hip-hop", NormalizeGenre("Rap & Hip-Hop"))
	assert.Equal(t, "progressive-rock", NormalizeGenre("  Progressive   Rock "))
	assert.Equal(t, "", NormalizeGenre("   "))
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{"rock", "indie", "pop"}, SplitGenres("Rock; Alternative/Indie, pop;rock"))
	assert.Nil(t, SplitGenres(""))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "Beyonce", FoldName("Beyoncé"))
	assert.Equal(t, "Sigur Ros", FoldName(" Sigur Rós "))
	assert.NotEqual(t, FoldName("ABBA"), FoldName("Abba"))
}
