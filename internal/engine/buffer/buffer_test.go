package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Len())
	_, ok := b.Composing()
	assert.False(t, ok)
}

func TestBufferRuneOffsets(t *testing.T) {
	b := NewBufferFromString("héllo, 世界")
	assert.Equal(t, 9, b.Len())
	assert.Equal(t, "世界", b.TextRange(Range{Start: 7, End: 9}))
	assert.Equal(t, "llo", b.TextBefore(5, 3))
	assert.Equal(t, "héllo", b.TextBefore(5, 100))
	assert.Equal(t, ", ", b.TextAfter(5, 2))
	assert.Equal(t, "", b.TextAfter(9, 2))
}

func TestTextRangeClampsAndSwaps(t *testing.T) {
	b := NewBufferFromString("abcdef")
	assert.Equal(t, "abcdef", b.TextRange(Range{Start: -10, End: 100}))
	assert.Equal(t, "bcd", b.TextRange(Range{Start: 4, End: 1}))
}

func TestReplace(t *testing.T) {
	b := NewBufferFromString("Hello World")
	got := b.Replace(Range{Start: 5, End: 5}, ",")
	assert.Equal(t, Range{Start: 5, End: 6}, got)
	assert.Equal(t, "Hello, World", b.Text())

	got = b.Replace(Range{Start: 7, End: 12}, "Go")
	assert.Equal(t, Range{Start: 7, End: 9}, got)
	assert.Equal(t, "Hello, Go", b.Text())
	assert.Equal(t, uint64(2), b.Revision())
}

func TestReplaceShiftsAnnotations(t *testing.T) {
	b := NewBufferFromString("abc def ghi")
	require.NoError(t, b.SetComposing(Range{Start: 8, End: 11}))
	b.AddAnnotation(Annotation{Range: Range{Start: 8, End: 11}, Kind: KindRawInput, Style: StyleUnderline})
	b.AddAnnotation(Annotation{Range: Range{Start: 0, End: 3}, Kind: KindRawInput})

	b.Insert(4, "XX")

	c, ok := b.Composing()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 10, End: 13}, c)
	anns := b.Annotations()
	require.Len(t, anns, 2)
	assert.Equal(t, Range{Start: 10, End: 13}, anns[0].Range)
	assert.Equal(t, Range{Start: 0, End: 3}, anns[1].Range)
}

func TestReplaceDropsOverlappingComposing(t *testing.T) {
	b := NewBufferFromString("abcdef")
	require.NoError(t, b.SetComposing(Range{Start: 2, End: 4}))
	b.Replace(Range{Start: 3, End: 5}, "z")
	_, ok := b.Composing()
	assert.False(t, ok)
}

func TestSetComposingSingleRange(t *testing.T) {
	b := NewBufferFromString("abcdef")
	require.NoError(t, b.SetComposing(Range{Start: 0, End: 2}))
	require.NoError(t, b.SetComposing(Range{Start: 4, End: 3}))
	c, ok := b.Composing()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 3, End: 4}, c)

	assert.ErrorIs(t, b.SetComposing(Range{Start: 0, End: 7}), ErrRangeInvalid)
}

func TestClearComposingStripsStyles(t *testing.T) {
	b := NewBufferFromString("abc")
	require.NoError(t, b.SetComposing(Range{Start: 0, End: 3}))
	b.AddAnnotation(Annotation{Range: Range{Start: 0, End: 3}})
	b.ClearComposing()
	_, ok := b.Composing()
	assert.False(t, ok)
	assert.Nil(t, b.Annotations())
}

func TestAddAnnotationIgnoresEmpty(t *testing.T) {
	b := NewBufferFromString("abc")
	b.AddAnnotation(Annotation{Range: Range{Start: 5, End: 9}})
	assert.Empty(t, b.Annotations())
}

func TestSetTextStripsAnnotations(t *testing.T) {
	b := NewBufferFromString("abc")
	require.NoError(t, b.SetComposing(Range{Start: 0, End: 1}))
	b.SetText("line1\r\nline2")
	assert.Equal(t, "line1\nline2", b.Text())
	_, ok := b.Composing()
	assert.False(t, ok)
}

func TestMaxLength(t *testing.T) {
	b := NewBufferFromString("abcdef", WithMaxLength(4))
	assert.Equal(t, "abcd", b.Text())
	got := b.Insert(2, "XYZ")
	assert.Equal(t, "abcd", b.Text())
	assert.True(t, got.IsEmpty())

	b.Delete(Range{Start: 0, End: 2})
	b.Insert(0, "XYZ")
	assert.Equal(t, "XYcd", b.Text())
}

func TestLastClusterLen(t *testing.T) {
	assert.Equal(t, 0, LastClusterLen(""))
	assert.Equal(t, 1, LastClusterLen("abc"))
	// e + combining acute accent is one cluster of two runes.
	assert.Equal(t, 2, LastClusterLen("café"))
	// flag emoji: two regional indicators.
	assert.Equal(t, 2, LastClusterLen("go🇩🇪"))
	assert.Equal(t, 3, ClusterCount("ab🇩🇪"))
}

func TestAnnotationFromSpan(t *testing.T) {
	a := AnnotationFromSpan(10, Span{Start: 0, End: 3, Underline: true})
	assert.Equal(t, Range{Start: 10, End: 13}, a.Range)
	assert.Equal(t, KindRawInput, a.Kind)
	assert.Equal(t, StyleUnderline, a.Style)

	a = AnnotationFromSpan(0, Span{Start: 1, End: 2, Fore: 0xff000000, Back: 0xffffff00})
	assert.Equal(t, KindConvertedText, a.Kind)
	assert.True(t, a.Style.Has(StyleForeColor|StyleBackColor))
	assert.False(t, a.Style.Has(StyleUnderline))
	assert.Equal(t, "fore|back", a.Style.String())
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{Range{0, 3}, Range{2, 5}, true},
		{Range{0, 3}, Range{3, 5}, false},
		{Range{3, 3}, Range{0, 3}, true},
		{Range{0, 3}, Range{4, 4}, false},
		{Range{2, 2}, Range{2, 2}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Overlaps(tt.b), "%v overlaps %v", tt.a, tt.b)
	}
}
