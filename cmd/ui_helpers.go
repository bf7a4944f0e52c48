// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// This file contains helper functions for terminal UI during the query loop.
package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

const titleArt = `.██████╗██╗  ██╗ █████╗ ████████╗██████╗ ██████╗.
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗██╔══██╗
██║     ███████║███████║   ██║   ██║  ██║██████╔╝
██║     ██╔══██║██╔══██║   ██║   ██║  ██║██╔══██╗
╚██████╗██║  ██║██║  ██║   ██║   ██████╔╝██████╔╝
.╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═════╝ ╚═════╝.`

// showAnimatedTitle reveals the CHATDB banner two lines at a time.
// The animation uses an area printer so each step redraws in place
// instead of scrolling the terminal.
func showAnimatedTitle() {
	lines := strings.Split(titleArt, "\n")

	cursor.Hide()
	defer cursor.Show()

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		// No area support, print the banner at once
		fmt.Println(titleArt)
		return
	}
	for i := 2; i <= len(lines); i += 2 {
		area.Update(strings.Join(lines[:i], "\n"))
		time.Sleep(150 * time.Millisecond)
	}
	if len(lines)%2 != 0 {
		area.Update(titleArt)
		time.Sleep(150 * time.Millisecond)
	}
	_ = area.Stop()
	fmt.Println(titleArt)
}

// startLoadingDots starts a loading indicator that grows a trail of dots
// behind the message, then shrinks it back. It runs in a separate goroutine
// and is stopped by calling the returned function, which also clears the
// line.
func startLoadingDots(w io.Writer, message string) func() {
	const maxDots = 12

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		grow := true
		n := 0
		for {
			interval := 120 * time.Millisecond
			if !grow {
				interval = 40 * time.Millisecond
			}
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", len(message)+maxDots))
				return
			case <-time.After(interval):
				fmt.Fprintf(w, "\r%s%s%s", message, strings.Repeat(".", n), strings.Repeat(" ", maxDots-n))
				if grow {
					n++
					if n > maxDots {
						n = maxDots
						grow = false
					}
				} else {
					n--
					if n < 0 {
						n = 0
						grow = true
					}
				}
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}
