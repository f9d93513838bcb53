package attachment

import (
	"fmt"
	"strings"
)

// FormatSize renders a byte count the way the intake form shows it.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	}
}

// DecodedLen returns the number of bytes encoded by a base64 text without
// decoding it.
func DecodedLen(content string) int64 {
	n := len(content)
	if n == 0 {
		return 0
	}

	pad := 0
	if strings.HasSuffix(content, "==") {
		pad = 2
	} else if strings.HasSuffix(content, "=") {
		pad = 1
	}

	return int64(n*3/4 - pad)
}
