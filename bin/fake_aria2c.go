//usr/bin/env go run $0 $@ ; exit

// Command fake_aria2c stands in for aria2c during manual testing. Build it
// as "aria2c", put it first on PATH, and dlfast will drive it like the real
// binary: it accepts (and ignores) the aria2c argument list, emits console
// readout lines, shuts down on SIGINT, and exits with a configurable code.
//
// Configuration is taken from the environment so that the aria2c argument
// list stays untouched: FAKE_ARIA2C_SIZE (total bytes), FAKE_ARIA2C_STEPS
// (number of readout lines), FAKE_ARIA2C_INTERVAL_MS (pace), and
// FAKE_ARIA2C_EXIT (final exit code).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"
)

func main() {
	size := getenvInt("FAKE_ARIA2C_SIZE", 1<<20)
	steps := getenvInt("FAKE_ARIA2C_STEPS", 20)
	interval := time.Duration(getenvInt("FAKE_ARIA2C_INTERVAL_MS", 200)) * time.Millisecond
	exitCode := getenvInt("FAKE_ARIA2C_EXIT", 0)

	if steps < 1 {
		steps = 1
	}
	step := size / steps

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	completed := 0
	for completed < size {
		select {
		case <-ch:
			// aria2c reports unfinished downloads with code 7
			fmt.Println("SIGINT received, shutting down")
			os.Exit(7)
		case <-ticker.C:
			completed += step
			if completed > size {
				completed = size
			}
			fmt.Printf("[#%06x %dB/%dB(%d%%) CN:8 DL:%dB ETA:0s]\n",
				os.Getpid(), completed, size, completed*100/size, step)
		}
	}

	os.Exit(exitCode)
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
