package actions

import (
	"fmt"
	"runtime"
)

// Executor runs OS-level power, brightness, and screenshot commands. All
// methods return the underlying command failure so the dispatch boundary can
// turn it into a spoken apology.
type Executor struct {
	run Runner
}

func NewExecutor() *Executor {
	return &Executor{run: runAndWait}
}

// SetRunner overrides the command runner. Test hook.
func (e *Executor) SetRunner(r Runner) {
	if r != nil {
		e.run = r
	}
}

func (e *Executor) Shutdown() error {
	switch runtime.GOOS {
	case "windows":
		return e.run("shutdown", "/s", "/t", "1")
	case "darwin":
		return e.run("shutdown", "-h", "now")
	default:
		return e.run("shutdown", "-h", "now")
	}
}

func (e *Executor) Restart() error {
	switch runtime.GOOS {
	case "windows":
		return e.run("shutdown", "/r", "/t", "1")
	default:
		return e.run("shutdown", "-r", "now")
	}
}

func (e *Executor) Suspend() error {
	switch runtime.GOOS {
	case "windows":
		return e.run("rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0")
	case "darwin":
		return e.run("pmset", "sleepnow")
	default:
		return e.run("systemctl", "suspend")
	}
}

func (e *Executor) Lock() error {
	switch runtime.GOOS {
	case "windows":
		return e.run("rundll32.exe", "user32.dll,LockWorkStation")
	case "darwin":
		return e.run("pmset", "displaysleepnow")
	default:
		return e.run("loginctl", "lock-session")
	}
}

// Screenshot captures the screen into path.
func (e *Executor) Screenshot(path string) error {
	switch runtime.GOOS {
	case "windows":
		return fmt.Errorf("screenshots are not supported on windows")
	case "darwin":
		return e.run("screencapture", "-x", path)
	default:
		return e.run("scrot", path)
	}
}

// Brightness nudges screen brightness up or down one step.
func (e *Executor) Brightness(up bool) error {
	step := "5%-"
	if up {
		step = "5%+"
	}
	switch runtime.GOOS {
	case "linux":
		return e.run("brightnessctl", "set", step)
	default:
		return fmt.Errorf("brightness control is not supported on %s", runtime.GOOS)
	}
}
