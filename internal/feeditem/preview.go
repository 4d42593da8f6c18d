package feeditem

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/shared"
)

// DefaultPreviewDuration is the assumed preview length used for progress.
const DefaultPreviewDuration = 30 * time.Second

// Audio is one item's playback channel. [preview.Player] implements it.
type Audio interface {
	Play(ctx context.Context) error // start, or resume from the paused position
	Pause() error
	Reset() // stop and rewind
	Position() time.Duration
	Ended() bool
}

// Preview drives preview playback and progress for a single item.
//
// Playback failures reset the playing flag and are returned as [*shared.PlaybackError] for
// diagnostics only.
type Preview struct {
	url      string
	audio    Audio
	duration time.Duration
	logger   *log.Logger

	playing  bool
	progress float64
}

// NewPreview creates a preview of url over audio. A non-positive duration falls back to
// [DefaultPreviewDuration].
func NewPreview(url string, audio Audio, duration time.Duration, logger *log.Logger) *Preview {
	if duration <= 0 {
		duration = DefaultPreviewDuration
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Preview{url: url, audio: audio, duration: duration, logger: logger}
}

func (p *Preview) Playing() bool { return p.playing }

// Progress is the playback position as a percentage in [0, 100].
func (p *Preview) Progress() float64 { return p.progress }

// Toggle pauses a playing preview or starts a paused one. The final state always follows the
// last call.
func (p *Preview) Toggle(ctx context.Context) error {
	if p.playing {
		p.playing = false
		if err := p.audio.Pause(); err != nil {
			return p.fail(err)
		}
		return nil
	}

	if err := p.audio.Play(ctx); err != nil {
		return p.fail(err)
	}
	p.playing = true
	return nil
}

// Tick refreshes progress from the audio position. A finished preview is rewound and its
// progress reset.
func (p *Preview) Tick() float64 {
	if !p.playing {
		return p.progress
	}
	if p.audio.Ended() {
		p.playing = false
		p.progress = 0
		p.audio.Reset()
		return 0
	}
	p.progress = percent(p.audio.Position(), p.duration)
	return p.progress
}

// Deactivate tears the preview down when its item leaves the viewport.
func (p *Preview) Deactivate() {
	if p.playing {
		if err := p.audio.Pause(); err != nil {
			p.logger.Debug("pause on deactivate failed", "url", p.url, "err", err)
		}
	}
	p.audio.Reset()
	p.playing = false
	p.progress = 0
}

func (p *Preview) fail(err error) error {
	p.playing = false
	perr := &shared.PlaybackError{URL: p.url, Err: err}
	p.logger.Warn("preview playback failed", "err", perr)
	return perr
}

func percent(pos, total time.Duration) float64 {
	if total <= 0 || pos <= 0 {
		return 0
	}
	v := float64(pos) / float64(total) * 100
	return min(v, 100)
}
