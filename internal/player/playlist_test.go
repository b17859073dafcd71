package player

import (
	"reflect"
	"testing"
)

func TestPlaylistReplace(t *testing.T) {
	pl := NewPlaylist()
	tracks := []string{"a.mp3", "b.mp3", "c.mp3"}

	pl.Replace("songs/ncs", tracks)
	pl.Replace("songs/ncs", tracks)

	if pl.FolderID() != "songs/ncs" {
		t.Errorf("FolderID() = %q, want songs/ncs", pl.FolderID())
	}
	if !reflect.DeepEqual(pl.Tracks(), tracks) {
		t.Errorf("Tracks() = %v, want %v", pl.Tracks(), tracks)
	}

	// Mutating the caller's slice must not leak into the playlist
	tracks[0] = "changed.mp3"
	if got, _ := pl.At(0); got != "a.mp3" {
		t.Errorf("At(0) = %q after caller mutation, want a.mp3", got)
	}

	pl.Replace("songs/other", nil)
	if pl.Len() != 0 {
		t.Errorf("Len() = %d after replacing with no tracks, want 0", pl.Len())
	}
	if pl.FolderID() != "songs/other" {
		t.Errorf("FolderID() = %q, want songs/other", pl.FolderID())
	}
}

func TestPlaylistLookups(t *testing.T) {
	pl := NewPlaylist()
	pl.Replace("songs/ncs", []string{"a.mp3", "b.mp3"})

	tests := []struct {
		name  string
		index int
		want  string
		ok    bool
	}{
		{"first", 0, "a.mp3", true},
		{"last", 1, "b.mp3", true},
		{"negative", -1, "", false},
		{"past end", 2, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pl.At(tt.index)
			if got != tt.want || ok != tt.ok {
				t.Errorf("At(%d) = (%q, %v), want (%q, %v)", tt.index, got, ok, tt.want, tt.ok)
			}
		})
	}

	if idx := pl.IndexOf("b.mp3"); idx != 1 {
		t.Errorf("IndexOf(b.mp3) = %d, want 1", idx)
	}
	if idx := pl.IndexOf("B.mp3"); idx != -1 {
		t.Errorf("IndexOf is case sensitive, got %d for B.mp3", idx)
	}
	if pl.Contains("zzz.mp3") {
		t.Error("Contains(zzz.mp3) = true, want false")
	}
}
