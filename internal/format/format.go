// Package format holds display helpers for file sizes, durations, and
// audio file status labels.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/talkscribe/talkscribe-go/internal/models"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FileSize renders a byte count in a human-readable unit with at most two
// decimals, e.g. 0 -> "0 Bytes", 1024 -> "1 KB", 1536 -> "1.5 KB".
func FileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " " + sizeUnits[i]
}

// Duration renders a length in seconds as M:SS. Minutes are not wrapped into
// hours, so 3661 seconds renders as "61:01".
func Duration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

var statusText = map[models.FileStatus]string{
	models.StatusUploading:  "Enviando",
	models.StatusProcessing: "Processando",
	models.StatusCompleted:  "Concluído",
	models.StatusFailed:     "Falhou",
}

// StatusText returns the localized label for an audio file status.
func StatusText(s models.FileStatus) string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return "Desconhecido"
}

// ANSI color escapes used by StatusColor.
const (
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// StatusColor returns the ANSI color escape used when printing the status
// in a terminal.
func StatusColor(s models.FileStatus) string {
	switch s {
	case models.StatusUploading:
		return colorYellow
	case models.StatusProcessing:
		return colorBlue
	case models.StatusCompleted:
		return colorGreen
	case models.StatusFailed:
		return colorRed
	}
	return colorGray
}

// ColorReset restores the terminal's default color.
const ColorReset = "\033[0m"
