// Package preview plays preview audio through an external command line player.
//
// Each [Player] owns at most one player process. Pausing stops the process and keeps the
// elapsed offset so the next play resumes from it.
package preview

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/feeditem"
	"github.com/desertthunder/resonance/internal/shared"
)

var _ feeditem.Audio = (*Player)(nil)

// Options configures the external player.
type Options struct {
	Command   string
	Args      []string
	StartFlag string  // overrides the detected start offset flag
	Volume    float64 // 0 to 1
}

// OptionsFromConfig maps the [shared.PreviewConfig] section to [Options].
func OptionsFromConfig(cfg shared.PreviewConfig) Options {
	return Options{Command: cfg.Command, Args: cfg.Args, StartFlag: cfg.StartFlag, Volume: cfg.Volume}
}

// flavor knows how a particular player spells volume and start offset.
type flavor struct {
	volume func(pct int) []string
	start  func(secs string) []string
}

var flavors = map[string]flavor{
	"mpv": {
		volume: func(pct int) []string { return []string{fmt.Sprintf("--volume=%d", pct)} },
		start:  func(secs string) []string { return []string{"--start=" + secs} },
	},
	"ffplay": {
		volume: func(pct int) []string { return []string{"-volume", strconv.Itoa(pct)} },
		start:  func(secs string) []string { return []string{"-ss", secs} },
	},
	"cvlc": {
		volume: func(pct int) []string { return []string{fmt.Sprintf("--gain=%.2f", float64(pct)/100)} },
		start:  func(secs string) []string { return []string{"--start-time=" + secs} },
	},
}

// process is a started player.
type process interface {
	Wait() error
	Kill() error
}

type execProcess struct{ cmd *exec.Cmd }

func (p execProcess) Wait() error { return p.cmd.Wait() }
func (p execProcess) Kill() error { return p.cmd.Process.Kill() }

type startFunc func(ctx context.Context, name string, args ...string) (process, error)

func startExec(ctx context.Context, name string, args ...string) (process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}

// Player plays one preview URL.
type Player struct {
	url    string
	opts   Options
	logger *log.Logger
	start  startFunc
	now    func() time.Time

	mu      sync.Mutex
	proc    process
	run     int
	offset  time.Duration
	started time.Time
	ended   bool
}

// NewPlayer creates a player for url. Nothing runs until [Player.Play].
func NewPlayer(url string, opts Options, logger *log.Logger) *Player {
	if opts.Command == "" {
		opts.Command = "mpv"
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Player{url: url, opts: opts, logger: logger, start: startExec, now: time.Now}
}

// Factory returns a [feeditem.AudioFactory] that builds players with opts.
func Factory(opts Options, logger *log.Logger) feeditem.AudioFactory {
	return func(url string) feeditem.Audio {
		return NewPlayer(url, opts, logger)
	}
}

// Play starts the player from the current offset. Playing an already playing preview is a no-op.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc != nil {
		return nil
	}
	if p.ended {
		p.offset = 0
		p.ended = false
	}

	args := p.args()
	proc, err := p.start(ctx, p.opts.Command, args...)
	if err != nil {
		return &shared.PlaybackError{URL: p.url, Err: err}
	}

	p.run++
	p.proc = proc
	p.started = p.now()
	p.logger.Debug("preview started", "url", p.url, "offset", p.offset)

	go p.wait(proc, p.run)
	return nil
}

func (p *Player) wait(proc process, run int) {
	err := proc.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if run != p.run || p.proc == nil {
		return
	}
	p.offset += p.now().Sub(p.started)
	p.proc = nil
	p.ended = true
	if err != nil {
		p.logger.Debug("preview exited", "url", p.url, "err", err)
	}
}

// Pause stops the process and keeps the elapsed offset.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop()
}

func (p *Player) stop() error {
	if p.proc == nil {
		return nil
	}
	proc := p.proc
	p.proc = nil
	p.run++
	p.offset += p.now().Sub(p.started)

	if err := proc.Kill(); err != nil {
		return &shared.PlaybackError{URL: p.url, Err: err}
	}
	return nil
}

// Reset stops playback and rewinds to the start.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stop(); err != nil {
		p.logger.Debug("preview stop failed", "err", err)
	}
	p.offset = 0
	p.ended = false
}

// Position is the elapsed playback time.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc == nil {
		return p.offset
	}
	return p.offset + p.now().Sub(p.started)
}

// Ended reports whether the player exited on its own.
func (p *Player) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

// Playing reports whether a player process is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

func (p *Player) args() []string {
	args := append([]string{}, p.opts.Args...)
	fl, known := flavors[strings.TrimSuffix(filepath.Base(p.opts.Command), ".exe")]

	if known {
		args = append(args, fl.volume(int(p.opts.Volume*100+0.5))...)
	}

	if p.offset > 0 {
		secs := strconv.FormatFloat(p.offset.Seconds(), 'f', 2, 64)
		switch {
		case p.opts.StartFlag != "":
			args = append(args, startArgs(p.opts.StartFlag, secs)...)
		case known:
			args = append(args, fl.start(secs)...)
		}
	}
	return append(args, p.url)
}

// startArgs spells a user supplied start flag. Long flags take an inline value.
func startArgs(flag, secs string) []string {
	if strings.HasPrefix(flag, "--") {
		return []string{flag + "=" + secs}
	}
	return []string{flag, secs}
}
