//go:build windows

package main

import (
	"os"
	"strconv"
)

func detectTerminalWidth() int { return columnsEnv() }

func columnsEnv() int {
	n, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
