package media

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

// audio stand-in: tagging must not disturb whatever follows the tag
var fakeAudio = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x44}, 64)

func TestTagWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, fakeAudio, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	meta := types.TrackMetadata{
		Title:   "Test Track",
		Artist:  "Test Uploader",
		Album:   "YouTube",
		Comment: "Downloaded from https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	if err := (ID3Tagger{}).Tag(path, meta); err != nil {
		t.Fatalf("Tag() error = %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer tag.Close()

	if tag.Title() != meta.Title {
		t.Fatalf("Title() = %q want %q", tag.Title(), meta.Title)
	}
	if tag.Artist() != meta.Artist {
		t.Fatalf("Artist() = %q want %q", tag.Artist(), meta.Artist)
	}
	if tag.Album() != meta.Album {
		t.Fatalf("Album() = %q want %q", tag.Album(), meta.Album)
	}
}

func TestTagPreservesAudioBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, fakeAudio, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := (ID3Tagger{}).Tag(path, types.TrackMetadata{Title: "x"}); err != nil {
		t.Fatalf("Tag() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasSuffix(raw, fakeAudio) {
		t.Fatal("audio bytes were not preserved after tagging")
	}
}

func TestTagMissingFile(t *testing.T) {
	err := (ID3Tagger{}).Tag(filepath.Join(t.TempDir(), "missing.mp3"), types.TrackMetadata{Title: "x"})
	if err == nil {
		t.Fatal("Tag() succeeded on missing file")
	}
}
