package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitter_ShortTextIsOneChunk(t *testing.T) {
	s := NewSplitter(200, 60)

	chunks := s.Split("年假规定\n\n员工每年享有五天年假。")
	assert.Equal(t, []string{"年假规定\n\n员工每年享有五天年假。"}, chunks)
}

func TestSplitter_HardCutWithOverlap(t *testing.T) {
	s := NewSplitter(200, 60)
	text := strings.Repeat("假", 500)

	chunks := s.Split(text)
	runes := []rune(text)
	want := []string{
		string(runes[0:200]),
		string(runes[140:340]),
		string(runes[280:480]),
		string(runes[420:500]),
	}
	assert.Equal(t, want, chunks)
}

func TestSplitter_PrefersParagraphs(t *testing.T) {
	s := NewSplitter(10, 2)
	para1 := "aaaa bbbb"
	para2 := "cccc dddd"

	chunks := s.Split(para1 + "\n\n" + para2)
	assert.Equal(t, []string{para1, para2}, chunks)
}

func TestSplitter_RecursesIntoLongParagraph(t *testing.T) {
	s := NewSplitter(10, 0)

	chunks := s.Split("short\n\n" + "one two three four")
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10, c)
	}
	assert.Equal(t, "short", chunks[0])
	assert.Equal(t, "one two three four", strings.Join(chunks[1:], " "))
}

func TestSplitter_DropsBlankText(t *testing.T) {
	s := NewSplitter(200, 60)
	assert.Empty(t, s.Split("\n\n  \n"))
	assert.Empty(t, s.Split(""))
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 200, s.ChunkSize)
	assert.Equal(t, 50, s.ChunkOverlap)

	s = NewSplitter(100, 100)
	assert.Equal(t, 25, s.ChunkOverlap)
}
