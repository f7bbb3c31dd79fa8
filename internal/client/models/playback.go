package models

// Track is one entry of the ambient playlist.
type Track struct {
	Name string
	URL  string
}

// Playback is the playing intent handed to the media backend.
type Playback struct {
	TrackURL string
	Playing  bool
	Volume   float64
}
