package player

import "testing"

func TestNavigator(t *testing.T) {
	pl := NewPlaylist()
	pl.Replace("songs/ncs", []string{"a.mp3", "b.mp3", "c.mp3"})

	tests := []struct {
		name     string
		current  string
		wantNext string
		nextOK   bool
		wantPrev string
		prevOK   bool
	}{
		{"first", "a.mp3", "b.mp3", true, "", false},
		{"middle", "b.mp3", "c.mp3", true, "a.mp3", true},
		{"last", "c.mp3", "", false, "b.mp3", true},
		{"not in playlist", "zzz.mp3", "", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession()
			s.Load("songs/ncs", tt.current, false)

			next, ok := Next(pl, s)
			if next != tt.wantNext || ok != tt.nextOK {
				t.Errorf("Next() = (%q, %v), want (%q, %v)", next, ok, tt.wantNext, tt.nextOK)
			}
			prev, ok := Previous(pl, s)
			if prev != tt.wantPrev || ok != tt.prevOK {
				t.Errorf("Previous() = (%q, %v), want (%q, %v)", prev, ok, tt.wantPrev, tt.prevOK)
			}
		})
	}
}

func TestNavigatorEdgeCases(t *testing.T) {
	t.Run("empty session", func(t *testing.T) {
		pl := NewPlaylist()
		pl.Replace("songs/ncs", []string{"a.mp3"})
		s, _ := newTestSession()

		if _, ok := Next(pl, s); ok {
			t.Error("Next() on an empty session returned a track")
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		pl := NewPlaylist()
		s, _ := newTestSession()
		s.Load("songs/ncs", "a.mp3", false)

		if _, ok := Previous(pl, s); ok {
			t.Error("Previous() on an empty playlist returned a track")
		}
	})

	t.Run("folder switched without reloading", func(t *testing.T) {
		pl := NewPlaylist()
		pl.Replace("songs/ncs", []string{"a.mp3", "b.mp3"})
		s, _ := newTestSession()
		s.Load("songs/ncs", "a.mp3", false)

		// Same file name in a different folder must not be matched
		pl.Replace("songs/chill", []string{"a.mp3", "b.mp3"})
		if track, ok := Next(pl, s); ok {
			t.Errorf("Next() guessed %q across folders", track)
		}
	})
}
