package actions

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Runner starts or runs one external command. Injectable for tests.
type Runner func(name string, args ...string) error

func startDetached(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

func runAndWait(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %s: %w", name, msg, err)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type catalogEntry struct {
	name string
	argv []string
}

// Launcher resolves spoken targets against the per-OS application table, then
// the website table, then a bare URL heuristic.
type Launcher struct {
	start Runner
	apps  []catalogEntry
	sites []catalogEntry
	kill  []catalogEntry
}

func NewLauncher() *Launcher {
	return &Launcher{
		start: startDetached,
		apps:  appCatalog(),
		sites: siteCatalog(),
		kill:  killCatalog(),
	}
}

// SetRunner overrides the command starter. Test hook.
func (l *Launcher) SetRunner(r Runner) {
	if r != nil {
		l.start = r
	}
}

// Open launches the first application or website whose name appears in the
// spoken target, falling back to treating the target as a web address.
// It returns what was opened, phrased for speech.
func (l *Launcher) Open(target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return "", fmt.Errorf("empty open target")
	}

	for _, app := range l.apps {
		if !strings.Contains(target, app.name) {
			continue
		}
		if err := l.start(app.argv[0], app.argv[1:]...); err != nil {
			return "", fmt.Errorf("open %s: %w", app.name, err)
		}
		return app.name, nil
	}

	for _, site := range l.sites {
		if !strings.Contains(target, site.name) {
			continue
		}
		if err := l.OpenURL(site.argv[0]); err != nil {
			return "", err
		}
		return site.name, nil
	}

	addr := normalizeURL(target)
	if err := l.OpenURL(addr); err != nil {
		return "", err
	}
	return addr, nil
}

// OpenURL opens an address in the default browser.
func (l *Launcher) OpenURL(addr string) error {
	var argv []string
	switch runtime.GOOS {
	case "darwin":
		argv = []string{"open", addr}
	case "windows":
		argv = []string{"rundll32", "url.dll,FileProtocolHandler", addr}
	default:
		argv = []string{"xdg-open", addr}
	}
	if err := l.start(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("open url %s: %w", addr, err)
	}
	return nil
}

// SearchURL builds a web search address for the query.
func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

// Close terminates the first application whose name appears in the spoken
// target and returns the matched name.
func (l *Launcher) Close(target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	for _, app := range l.kill {
		if !strings.Contains(target, app.name) {
			continue
		}
		if err := l.start(app.argv[0], app.argv[1:]...); err != nil {
			return "", fmt.Errorf("close %s: %w", app.name, err)
		}
		return app.name, nil
	}
	return "", fmt.Errorf("no known application in %q", target)
}

func normalizeURL(target string) string {
	addr := strings.ReplaceAll(target, " ", "")
	if !strings.Contains(addr, ".") {
		addr += ".com"
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "https://" + addr
	}
	return addr
}

func appCatalog() []catalogEntry {
	switch runtime.GOOS {
	case "darwin":
		return []catalogEntry{
			{"command prompt", []string{"open", "-a", "Terminal"}},
			{"notepad", []string{"open", "-a", "TextEdit"}},
			{"calculator", []string{"open", "-a", "Calculator"}},
			{"terminal", []string{"open", "-a", "Terminal"}},
			{"chrome", []string{"open", "-a", "Google Chrome"}},
			{"firefox", []string{"open", "-a", "Firefox"}},
			{"safari", []string{"open", "-a", "Safari"}},
			{"spotify", []string{"open", "-a", "Spotify"}},
			{"whatsapp", []string{"open", "-a", "WhatsApp"}},
		}
	case "windows":
		return []catalogEntry{
			{"command prompt", []string{"cmd.exe", "/c", "start", "cmd.exe"}},
			{"powerpoint", []string{"powerpnt.exe"}},
			{"notepad", []string{"notepad.exe"}},
			{"calculator", []string{"calc.exe"}},
			{"paint", []string{"mspaint.exe"}},
			{"word", []string{"winword.exe"}},
			{"excel", []string{"excel.exe"}},
			{"chrome", []string{"chrome.exe"}},
			{"firefox", []string{"firefox.exe"}},
			{"edge", []string{"msedge.exe"}},
			{"spotify", []string{"spotify.exe"}},
		}
	default:
		return []catalogEntry{
			{"calculator", []string{"gnome-calculator"}},
			{"notepad", []string{"gedit"}},
			{"terminal", []string{"x-terminal-emulator"}},
			{"chrome", []string{"google-chrome"}},
			{"firefox", []string{"firefox"}},
			{"spotify", []string{"spotify"}},
		}
	}
}

func siteCatalog() []catalogEntry {
	return []catalogEntry{
		{"youtube", []string{"https://youtube.com"}},
		{"google", []string{"https://google.com"}},
		{"facebook", []string{"https://facebook.com"}},
		{"twitter", []string{"https://twitter.com"}},
		{"instagram", []string{"https://instagram.com"}},
		{"linkedin", []string{"https://linkedin.com"}},
		{"github", []string{"https://github.com"}},
		{"amazon", []string{"https://amazon.com"}},
		{"netflix", []string{"https://netflix.com"}},
	}
}

func killCatalog() []catalogEntry {
	kill := func(process string) []string {
		if runtime.GOOS == "windows" {
			return []string{"taskkill", "/f", "/im", process + ".exe"}
		}
		return []string{"pkill", "-f", process}
	}
	names := []string{
		"command prompt", "powerpoint", "notepad", "calculator", "paint",
		"word", "excel", "chrome", "firefox", "edge", "safari", "spotify", "whatsapp",
	}
	out := make([]catalogEntry, 0, len(names))
	for _, n := range names {
		process := strings.ReplaceAll(n, " ", "")
		switch n {
		case "command prompt":
			process = "cmd"
		case "word":
			process = "winword"
		case "powerpoint":
			process = "powerpnt"
		}
		out = append(out, catalogEntry{n, kill(process)})
	}
	return out
}
