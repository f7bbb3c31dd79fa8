// Package player tracks what the background music should be doing: which
// playlist entry is selected, whether it plays, and how loud. Rendering
// the audio is the job of a Sink.
package player

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/dmitrijs2005/studywithme/internal/client/models"
)

const (
	DefaultVolume = 0.3
	// VolumeStep is the granularity of the volume control.
	VolumeStep = 0.05
)

// DefaultPlaylist is the built-in study playlist.
var DefaultPlaylist = []models.Track{
	{Name: "Lofi Girl - Study Beats", URL: "https://www.youtube.com/watch?v=jfKfPfyJRdk"},
	{Name: "Code Fi - Chill Coding", URL: "https://www.youtube.com/watch?v=f02mOEt11OQ"},
	{Name: "Classical for Reading", URL: "https://www.youtube.com/watch?v=mWKqvRY380k"},
}

var ErrEmptyPlaylist = errors.New("playlist is empty")

// Sink receives the playback intent after every change.
type Sink interface {
	Apply(ctx context.Context, p models.Playback)
}

type SinkFunc func(ctx context.Context, p models.Playback)

func (f SinkFunc) Apply(ctx context.Context, p models.Playback) { f(ctx, p) }

type State struct {
	Track   models.Track
	Playing bool
	Volume  float64
}

// VolumePercent is the volume rounded to whole percent.
func (s State) VolumePercent() int {
	return int(math.Round(s.Volume * 100))
}

type Player struct {
	playlist []models.Track
	sink     Sink

	mu      sync.Mutex
	current int
	playing bool
	volume  float64
}

// New selects the first track, paused, at DefaultVolume. The playlist is
// copied and never changes afterwards.
func New(playlist []models.Track, sink Sink) (*Player, error) {
	if len(playlist) == 0 {
		return nil, ErrEmptyPlaylist
	}
	return &Player{
		playlist: append([]models.Track(nil), playlist...),
		sink:     sink,
		volume:   DefaultVolume,
	}, nil
}

func (p *Player) Playlist() []models.Track {
	return append([]models.Track(nil), p.playlist...)
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// SelectTrack switches to the track with the given URL and starts playing
// it. Unknown URLs leave the state unchanged and report false.
func (p *Player) SelectTrack(ctx context.Context, url string) bool {
	p.mu.Lock()
	idx := -1
	for i, tr := range p.playlist {
		if tr.URL == url {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return false
	}
	p.current = idx
	p.playing = true
	st := p.stateLocked()
	p.mu.Unlock()

	p.apply(ctx, st)
	return true
}

func (p *Player) TogglePlay(ctx context.Context) {
	p.mu.Lock()
	p.playing = !p.playing
	st := p.stateLocked()
	p.mu.Unlock()

	p.apply(ctx, st)
}

// SetVolume clamps v into [0,1]. NaN is ignored.
func (p *Player) SetVolume(ctx context.Context, v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))

	p.mu.Lock()
	p.volume = v
	st := p.stateLocked()
	p.mu.Unlock()

	p.apply(ctx, st)
}

func (p *Player) stateLocked() State {
	return State{Track: p.playlist[p.current], Playing: p.playing, Volume: p.volume}
}

func (p *Player) apply(ctx context.Context, st State) {
	if p.sink == nil {
		return
	}
	p.sink.Apply(ctx, models.Playback{TrackURL: st.Track.URL, Playing: st.Playing, Volume: st.Volume})
}
