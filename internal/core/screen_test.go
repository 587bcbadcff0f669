package core

import (
	"strings"
	"testing"
)

func TestNewScreenIsBlank(t *testing.T) {
	s := NewScreen(12, 4)

	if s.Width() != 12 || s.Height() != 4 {
		t.Fatalf("size = %dx%d, want 12x4", s.Width(), s.Height())
	}
	for y := range s.Height() {
		if row := s.Row(y); row != strings.Repeat(" ", 12) {
			t.Errorf("row %d = %q, want blanks", y, row)
		}
	}
}

func TestScreenOutOfBounds(t *testing.T) {
	s := NewScreen(5, 5)

	s.Set(-1, 0, 'X')
	s.Set(5, 0, 'X')
	s.Set(0, -1, 'X')
	s.Set(0, 5, 'X')

	if strings.ContainsRune(s.String(), 'X') {
		t.Error("out-of-bounds writes should be dropped")
	}
	if s.Get(99, 99) != ' ' {
		t.Error("out-of-bounds Get should return space")
	}
	if c := s.GetCell(-3, 2); c.Color != ColorDefault || c.Rune != ' ' {
		t.Errorf("out-of-bounds GetCell = %+v, want blank", c)
	}
}

func TestScreenColoredText(t *testing.T) {
	s := NewScreen(10, 2)
	s.DrawTextColored(1, 1, "2048", ColorOrange)

	for i, r := range "2048" {
		c := s.GetCell(1+i, 1)
		if c.Rune != r || c.Color != ColorOrange {
			t.Errorf("cell %d = %+v, want %q orange", i, c, r)
		}
	}
	if s.GetCell(0, 1).Color != ColorDefault {
		t.Error("cell before text should keep default color")
	}
}

func TestScreenDrawTextCentered(t *testing.T) {
	s := NewScreen(11, 1)
	s.DrawTextCentered(0, "abc", ColorDefault)

	if got := s.Row(0); got != "    abc    " {
		t.Errorf("Row(0) = %q", got)
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(6, 4)
	s.DrawBox(NewRect(0, 0, 6, 4), ColorGray)

	want := []string{
		"┌────┐",
		"│    │",
		"│    │",
		"└────┘",
	}
	for y, line := range want {
		if got := s.Row(y); got != line {
			t.Errorf("row %d = %q, want %q", y, got, line)
		}
	}
	if s.GetCell(0, 0).Color != ColorGray {
		t.Error("box should use the given color")
	}
}

func TestScreenFillRect(t *testing.T) {
	s := NewScreen(5, 3)
	s.FillRect(NewRect(1, 1, 3, 5), '#', ColorRed)

	if got := s.Row(1); got != " ### " {
		t.Errorf("row 1 = %q", got)
	}
	if got := s.Row(0); got != "     " {
		t.Errorf("row 0 = %q, fill leaked", got)
	}
}

func TestScreenResizeKeepsContent(t *testing.T) {
	s := NewScreen(10, 3)
	s.DrawText(0, 0, "Hello")
	s.DrawText(0, 2, "World")

	s.Resize(4, 2)
	if got := s.Row(0); got != "Hell" {
		t.Errorf("after shrink row 0 = %q", got)
	}

	s.Resize(8, 3)
	if got := s.Row(0); got != "Hell    " {
		t.Errorf("after grow row 0 = %q", got)
	}
	if got := s.Row(2); got != "        " {
		t.Errorf("after grow row 2 = %q, want blanks", got)
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawText(0, 0, "ab")
	s.DrawText(0, 1, "cde")

	if got := s.String(); got != "ab \ncde" {
		t.Errorf("String() = %q", got)
	}
}
