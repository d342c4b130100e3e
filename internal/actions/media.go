package actions

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrNoMusic    = errors.New("no music files found")
	ErrNotPlaying = errors.New("no music is playing")
)

// Player plays tracks from the music directory through an external player
// process. One track at a time; Next stops the current one first.
type Player struct {
	mu      sync.Mutex
	dir     string
	argv    []string
	start   func(argv []string, track string) (stop func() error, err error)
	current string
	stop    func() error
}

// NewPlayer builds a player around the configured player command, e.g.
// "mpg123 -q" or "afplay". An empty command falls back to a per-OS default.
func NewPlayer(dir, command string) *Player {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		argv = []string{"mpg123", "-q"}
	}
	return &Player{
		dir:   dir,
		argv:  argv,
		start: startPlayerProcess,
	}
}

// SetStarter overrides process startup. Test hook.
func (p *Player) SetStarter(start func(argv []string, track string) (func() error, error)) {
	if start != nil {
		p.start = start
	}
}

// Play starts a random track and returns its display name.
func (p *Player) Play() (string, error) {
	tracks, err := p.tracks()
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", ErrNoMusic
	}
	track := tracks[rand.Intn(len(tracks))]

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		_ = p.stop()
		p.stop = nil
	}
	stop, err := p.start(p.argv, track)
	if err != nil {
		return "", fmt.Errorf("start player: %w", err)
	}
	p.stop = stop
	p.current = track
	name := strings.TrimSuffix(filepath.Base(track), filepath.Ext(track))
	return name, nil
}

// Pause stops the current track.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return ErrNotPlaying
	}
	err := p.stop()
	p.stop = nil
	p.current = ""
	if err != nil {
		return fmt.Errorf("stop player: %w", err)
	}
	return nil
}

// Next skips to another random track.
func (p *Player) Next() (string, error) {
	return p.Play()
}

func (p *Player) tracks() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read music dir: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".wav":
			out = append(out, filepath.Join(p.dir, e.Name()))
		}
	}
	return out, nil
}

func startPlayerProcess(argv []string, track string) (func() error, error) {
	args := append(append([]string(nil), argv[1:]...), track)
	cmd := exec.Command(argv[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the process so a finished track does not linger as a zombie.
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	return func() error {
		select {
		case <-done:
			return nil
		default:
		}
		return cmd.Process.Kill()
	}, nil
}
