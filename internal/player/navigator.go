package player

// Next returns the track after the session's current one. ok is false at
// the end of the playlist, when the session is empty, or when the current
// track does not belong to the playlist's folder.
func Next(pl *Playlist, s *Session) (track string, ok bool) {
	return step(pl, s, 1)
}

// Previous returns the track before the session's current one, with the
// same boundary rules as Next.
func Previous(pl *Playlist, s *Session) (track string, ok bool) {
	return step(pl, s, -1)
}

// step moves direction places from the current track without wrapping
func step(pl *Playlist, s *Session, direction int) (string, bool) {
	folder, current, loaded := s.Current()
	if !loaded || folder != pl.FolderID() {
		return "", false
	}

	index := pl.IndexOf(current)
	if index < 0 {
		return "", false
	}
	return pl.At(index + direction)
}
