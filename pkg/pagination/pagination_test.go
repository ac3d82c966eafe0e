package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultPage, DefaultLimit, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"page=0&limit=-5", DefaultPage, DefaultLimit, 0},
		{"page=abc&limit=xyz", DefaultPage, DefaultLimit, 0},
		{"page=2&limit=500", 2, MaxLimit, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parseQuery(tt.query)
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("Parse(%q) = %+v, want page %d limit %d", tt.query, p, tt.wantPage, tt.wantLimit)
			}
			if p.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", p.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b"}, 41, Params{Page: 1, Limit: 20})
	if p.Pages != 3 || p.Total != 41 || len(p.Items) != 2 {
		t.Errorf("NewPage = %+v, want 3 pages of 41", p)
	}

	empty := NewPage[string](nil, 0, Params{Page: 1, Limit: 20})
	if empty.Items == nil || empty.Pages != 0 {
		t.Errorf("empty page = %+v, want non-nil items and 0 pages", empty)
	}
}
