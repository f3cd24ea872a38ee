package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"   ", 10, 10},
		{"42", 0, 42},
		{" 42 ", 7, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{"4x", 5, 5},
		{"999999999999999999999999", -1, -1}, // overflow
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestNewPage(t *testing.T) {
	cases := []struct {
		number, size, max int
		want              Page
	}{
		{1, 20, 100, Page{1, 20}},
		{0, 0, 100, Page{1, 1}},
		{-4, 500, 100, Page{1, 100}},
		{3, 500, 0, Page{3, 500}}, // no cap
	}
	for _, tc := range cases {
		if got := NewPage(tc.number, tc.size, tc.max); got != tc.want {
			t.Fatalf("NewPage(%d, %d, %d) = %+v; want %+v", tc.number, tc.size, tc.max, got, tc.want)
		}
	}
}

func TestPage_OffsetAndTotals(t *testing.T) {
	p := Page{Number: 3, Size: 10}
	if p.Offset() != 20 {
		t.Fatalf("Offset = %d", p.Offset())
	}
	if got := p.TotalPages(25); got != 3 {
		t.Fatalf("TotalPages(25) = %d", got)
	}
	if p.HasNext(25) {
		t.Fatalf("page 3 of 3 has no next")
	}
	if !(Page{Number: 2, Size: 10}).HasNext(25) {
		t.Fatalf("page 2 of 3 has a next")
	}
	if got := p.TotalPages(0); got != 0 {
		t.Fatalf("TotalPages(0) = %d", got)
	}
	if got := (Page{}).TotalPages(10); got != 0 {
		t.Fatalf("zero page size must not divide by zero, got %d", got)
	}
}
