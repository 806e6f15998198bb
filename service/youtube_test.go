package service

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"tooshort", "", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false},
		{"https://youtu.be/", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractVideoID(tc.in)
		if ok != tc.wantOk || got != tc.want {
			t.Fatalf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOk)
		}
	}
}

func TestFormatSelector(t *testing.T) {
	cases := []struct {
		quality string
		want    string
	}{
		{"720p", "best[height<=720][ext=mp4]/best[ext=mp4]/best"},
		{"480p", "best[height<=480][ext=mp4]/best[ext=mp4]/best"},
		{"potato", "best[ext=mp4]/best"},
		{"", "best[ext=mp4]/best"},
	}
	for _, tc := range cases {
		if got := formatSelector(tc.quality); got != tc.want {
			t.Fatalf("formatSelector(%q) = %q, want %q", tc.quality, got, tc.want)
		}
	}
}
