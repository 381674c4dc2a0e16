package accessor

import "testing"

func TestExtractInsertBitsWithinOneWord(t *testing.T) {
	words := []int32{0}
	insertBits(words, 4, 8, 0xAB)
	if got := extractBits(words, 4, 8); got != 0xAB {
		t.Fatalf("got %#x, want 0xAB", got)
	}
	insertBits(words, 0, 4, 0xF)
	if got := extractBits(words, 4, 8); got != 0xAB {
		t.Fatalf("sibling field clobbered: got %#x", got)
	}
	if got := extractBits(words, 0, 4); got != 0xF {
		t.Fatalf("got %#x, want 0xF", got)
	}
}

func TestExtractInsertBitsSpanningWords(t *testing.T) {
	words := []int32{0, 0}
	insertBits(words, 28, 16, 0xBEEF)
	if got := extractBits(words, 28, 16); got != 0xBEEF {
		t.Fatalf("got %#x, want 0xBEEF", got)
	}
}

func TestInsertBitsPreservesOtherBits(t *testing.T) {
	words := []int32{-1}
	insertBits(words, 8, 8, 0x00)
	want := uint32(0xFFFF00FF)
	if uint32(words[0]) != want {
		t.Fatalf("got %#x", uint32(words[0]))
	}
}
