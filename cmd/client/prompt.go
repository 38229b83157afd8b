package main

import (
	"bufio"
	"fmt"
	"strings"
)

// promptLine prints a label and reads one trimmed line of input.
func promptLine(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}
