package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/studywithme/internal/client/player"
	"github.com/dmitrijs2005/studywithme/internal/common"
)

// Timer drives the focus timer: start, pause, toggle, reset or show
// (the default).
func (a *App) Timer(_ context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "start":
		if a.timer.State().Remaining == 0 {
			a.printf("Time is up. Use 'timer reset' to start a new round.\n")
			return nil
		}
		a.timer.Start()
	case "pause":
		a.timer.Pause()
	case "toggle":
		a.timer.Toggle()
	case "reset":
		a.timer.Reset()
	case "show":
	default:
		a.printf("Usage: timer [start|pause|toggle|reset|show]\n")
		return fmt.Errorf("%w: unknown timer command %q", common.ErrValidation, sub)
	}

	st := a.timer.State()
	if st.Running {
		a.printf("Timer %s (running)\n", st)
	} else {
		a.printf("Timer %s (paused)\n", st)
	}
	return nil
}

// Music drives the ambient player: list, select <#>, play, pause, toggle,
// volume <0-100> or show (the default).
func (a *App) Music(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		current := a.player.State().Track.URL
		for i, t := range a.player.Playlist() {
			mark := " "
			if t.URL == current {
				mark = "*"
			}
			a.printf("%s %d. %s\n", mark, i+1, t.Name)
		}
		return nil

	case "select":
		playlist := a.player.Playlist()
		n, err := intArg(args, 1)
		if err != nil || n < 1 || n > len(playlist) {
			a.printf("Usage: music select <1-%d>\n", len(playlist))
			return fmt.Errorf("%w: track number", common.ErrValidation)
		}
		a.player.SelectTrack(ctx, playlist[n-1].URL)

	case "play":
		if !a.player.State().Playing {
			a.player.TogglePlay(ctx)
		}

	case "pause":
		if a.player.State().Playing {
			a.player.TogglePlay(ctx)
		}

	case "toggle":
		a.player.TogglePlay(ctx)

	case "volume":
		if len(args) < 2 {
			a.printf("Volume: %d%%\n", a.player.State().VolumePercent())
			return nil
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
		if err != nil || pct < 0 || pct > 100 {
			a.printf("Usage: music volume <0-100>\n")
			return fmt.Errorf("%w: volume %q", common.ErrValidation, args[1])
		}
		// Snap to the slider's granularity.
		steps := pct / 100 / player.VolumeStep
		a.player.SetVolume(ctx, float64(int(steps+0.5))*player.VolumeStep)

	case "show":

	default:
		a.printf("Usage: music [list|select <#>|play|pause|toggle|volume <0-100>|show]\n")
		return fmt.Errorf("%w: unknown music command %q", common.ErrValidation, sub)
	}

	st := a.player.State()
	state := "paused"
	if st.Playing {
		state = "playing"
	}
	a.printf("%s (%s, volume %d%%)\n", st.Track.Name, state, st.VolumePercent())
	return nil
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing argument", common.ErrValidation)
	}
	return strconv.Atoi(args[i])
}
