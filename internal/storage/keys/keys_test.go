package keys

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"my clip (1).mp4", "my_clip__1_.mp4"},
		{"über-reel.mov", "_ber_reel.mov"},
		{"../../etc/passwd", ".....etc.passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildUploadKey(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	key := BuildUpload("my clip.mp4", now)

	if !strings.HasPrefix(key, "uploads/1717171717171-") {
		t.Errorf("expected timestamp prefix, got %q", key)
	}
	if !strings.HasSuffix(key, "my_clip.mp4") {
		t.Errorf("expected sanitized name suffix, got %q", key)
	}
}

func TestBuildUploadKeyUniquePerMillisecond(t *testing.T) {
	a := BuildUpload("clip.mp4", time.UnixMilli(1))
	b := BuildUpload("clip.mp4", time.UnixMilli(2))
	if a == b {
		t.Error("expected keys for different timestamps to differ")
	}
}
