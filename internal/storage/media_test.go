package storage

import (
	"context"
	"io"
	"testing"
)

func TestMediaType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"clip.MP3", "mp3"},
		{"video.mp4", "mp4"},
		{"/path/to/movie.MOV", "mov"},
		{"noext", ""},
		{"archive.tar.gz", "gz"},
	}
	for _, tt := range tests {
		if got := MediaType(tt.in); got != tt.want {
			t.Errorf("MediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAllowed(t *testing.T) {
	for _, ext := range []string{"mp4", "mov", "mkv", "wav", "mp3", "m4a"} {
		if !Allowed(ext) {
			t.Errorf("Allowed(%q) = false", ext)
		}
	}
	for _, ext := range []string{"exe", "txt", "flac", "ogg", ""} {
		if Allowed(ext) {
			t.Errorf("Allowed(%q) = true", ext)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mp4", "video/mp4"},
		{"mov", "video/mov"},
		{"mkv", "video/mp4"}, // matroska served as mp4
		{"mp3", "audio/mpeg"},
		{"wav", "audio/mpeg"},
		{"m4a", "audio/mpeg"},
		{"xyz", "video/mp4"},
	}
	for _, tt := range tests {
		if got := ContentType(tt.in); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"normal.mp3", "normal.mp3"},
		{"../../etc/passwd", "passwd"},
		{"sp ace & chars!.wav", "sp_ace___chars_.wav"},
		{"...", "media"},
		{"", "media"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	t.Run("save_and_open", func(t *testing.T) {
		if err := s.Save(ctx, "a1/clip.mp3", []byte("audio-bytes"), "audio/mpeg"); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if !s.Exists(ctx, "a1/clip.mp3") {
			t.Fatal("Exists = false after Save")
		}
		if s.LocalPath("a1/clip.mp3") == "" {
			t.Error("LocalPath empty for saved file")
		}
		rc, err := s.Open(ctx, "a1/clip.mp3")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "audio-bytes" {
			t.Errorf("read %q", data)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Save(ctx, "a2/x.wav", []byte("x"), "audio/mpeg"); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "a2/x.wav"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if s.Exists(ctx, "a2/x.wav") {
			t.Error("file still exists after Delete")
		}
		// Deleting again is not an error.
		if err := s.Delete(ctx, "a2/x.wav"); err != nil {
			t.Errorf("second Delete: %v", err)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		if s.Exists(ctx, "nope/none.mp3") {
			t.Error("Exists = true for missing file")
		}
		if s.LocalPath("nope/none.mp3") != "" {
			t.Error("LocalPath non-empty for missing file")
		}
	})
}
