package ui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"  short  ", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer product title", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q, want %q", got, "ab  ")
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Fatalf("padRight longer = %q, want unchanged", got)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{250, "250 EGP"},
		{0, "0 EGP"},
		{149.5, "149.50 EGP"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.in); got != tt.want {
			t.Fatalf("formatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStars(t *testing.T) {
	if got := stars(3.6); got != "★★★★☆" {
		t.Fatalf("stars(3.6) = %q", got)
	}
	if got := stars(9); got != "★★★★★" {
		t.Fatalf("stars(9) = %q", got)
	}
	if got := stars(-1); got != "☆☆☆☆☆" {
		t.Fatalf("stars(-1) = %q", got)
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "item", "items"); got != "1 item" {
		t.Fatalf("plural(1) = %q", got)
	}
	if got := plural(3, "item", "items"); got != "3 items" {
		t.Fatalf("plural(3) = %q", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ idx, n, want int }{
		{-1, 3, 0},
		{5, 3, 2},
		{1, 3, 1},
		{4, 0, 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.idx, tt.n); got != tt.want {
			t.Fatalf("clamp(%d, %d) = %d, want %d", tt.idx, tt.n, got, tt.want)
		}
	}
}
