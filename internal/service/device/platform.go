package device

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
)

// ErrUnsupportedOS indicates the current OS has no command for the requested facility.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// platform holds the OS commands used by the adapters. A nil builder means
// the facility is not available on that OS.
type platform struct {
	// player returns the command playing path once.
	player func(path string) []string
	// volume returns the command forcing the output volume to maximum.
	volume func() []string
	// inhibitor returns the command keeping the display awake for the given
	// number of seconds; the OS drops the inhibition when it exits.
	inhibitor func(why string, seconds int) []string
	// opener returns the command opening target in the default handler.
	opener func(target string) []string
}

func currentPlatform() platform {
	return platformFor(runtime.GOOS)
}

func platformFor(goos string) platform {
	switch goos {
	case "linux":
		return platform{
			player: func(path string) []string { return []string{"paplay", path} },
			volume: func() []string { return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "100%"} },
			inhibitor: func(why string, seconds int) []string {
				return []string{
					"systemd-inhibit", "--what=idle:sleep", "--who=job-alert", "--why=" + why, "--mode=block",
					"sleep", strconv.Itoa(seconds),
				}
			},
			opener: func(target string) []string { return []string{"xdg-open", target} },
		}
	case "darwin":
		return platform{
			player: func(path string) []string { return []string{"afplay", path} },
			volume: func() []string { return []string{"osascript", "-e", "set volume output volume 100"} },
			inhibitor: func(_ string, seconds int) []string {
				return []string{"caffeinate", "-d", "-i", "-t", strconv.Itoa(seconds)}
			},
			opener: func(target string) []string { return []string{"open", target} },
		}
	case "windows":
		return platform{
			player: func(path string) []string {
				return []string{
					"powershell.exe", "-NoProfile", "-Command",
					fmt.Sprintf("(New-Object Media.SoundPlayer %q).PlaySync()", path),
				}
			},
			opener: func(target string) []string { return []string{"rundll32", "url.dll,FileProtocolHandler", target} },
		}
	default:
		return platform{}
	}
}

func unsupported(facility string) error {
	return fmt.Errorf("%s on %s: %w", facility, runtime.GOOS, ErrUnsupportedOS)
}
