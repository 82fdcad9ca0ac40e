package runner

import (
	"os"
	"time"

	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/scanner"
	"golang.org/x/term"
)

const keyCtrlC = 0x03

// startStdinToggle puts an interactive stdin into raw mode and toggles the
// returned pauser on Enter or Space. restore puts the terminal back. When
// stdin is not a terminal both results are nil.
func startStdinToggle(log logging.Logger) (pauser *scanner.Pauser, restore func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Debugf("interactive pause unavailable: %v", err)
		return nil, nil
	}
	// Raw mode also turns off output processing, which breaks "\n" in the
	// log lines printed while the scan runs.
	fixOutputProcessing(fd)

	pauser = scanner.NewPauser()
	restore = func() { _ = term.Restore(fd, oldState) }
	log.Infof("press Enter or Space to pause")

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}

			switch buf[0] {
			case keyCtrlC:
				// Raw mode swallows the signal; restore and raise it again.
				restore()
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				if pauser.Toggle() {
					log.Infof("scan paused, press Enter or Space to resume")
				} else {
					log.Infof("scan resumed after %s paused in total", pauser.PausedDuration().Round(time.Millisecond))
				}
			}
		}
	}()

	return pauser, restore
}
