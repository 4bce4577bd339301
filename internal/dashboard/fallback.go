package dashboard

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple streams formatted lines to stdout for non-interactive
// environments, exiting cleanly on channel close or interrupt.
func (d *Dashboard) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			return nil
		case ev, ok := <-d.eventChan:
			if !ok {
				return nil
			}
			line := formatEvent(ev)
			if line.text == "" {
				continue
			}
			fmt.Printf("%s %s\n", line.at.Format("15:04:05"), line.text)
		}
	}
}
