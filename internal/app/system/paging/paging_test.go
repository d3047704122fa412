package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/tasks", 1},
		{"/tasks?page=3", 3},
		{"/tasks?page=0", 1},
		{"/tasks?page=-2", 1},
		{"/tasks?page=abc", 1},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		if got := ParsePage(r); got != c.want {
			t.Errorf("ParsePage(%q) = %d, want %d", c.url, got, c.want)
		}
	}
}

func TestParsePageSize(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/tasks", DefaultPageSize},
		{"/tasks?page_size=25", 25},
		{"/tasks?page_size=0", DefaultPageSize},
		{"/tasks?page_size=9999", MaxPageSize},
		{"/tasks?page_size=x", DefaultPageSize},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		if got := ParsePageSize(r); got != c.want {
			t.Errorf("ParsePageSize(%q) = %d, want %d", c.url, got, c.want)
		}
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(2, 10, 35)
	if m.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", m.TotalPages)
	}
	if !m.HasNext || !m.HasPrev {
		t.Errorf("expected HasNext and HasPrev on middle page, got %+v", m)
	}

	m = NewMeta(1, 10, 0)
	if m.TotalPages != 0 || m.HasNext || m.HasPrev {
		t.Errorf("empty result meta wrong: %+v", m)
	}

	m = NewMeta(4, 10, 35)
	if m.HasNext {
		t.Errorf("last page should not have next: %+v", m)
	}
}
