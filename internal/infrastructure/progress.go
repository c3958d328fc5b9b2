package infrastructure

import (
	"regexp"
	"strconv"
)

// ytdlpProgressRegex matches lines like: "[download]  45.2% of 10.00MiB at 1.00MiB/s ETA 00:05"
var ytdlpProgressRegex = regexp.MustCompile(`^\s*\[download\]\s+(\d+(?:\.\d+)?)%`)

// YTDLPProgressExtractor parses yt-dlp's --newline progress output
type YTDLPProgressExtractor struct{}

// Extract returns the percentage carried by line, if any.
// Values above 100 are treated as a non-match.
func (YTDLPProgressExtractor) Extract(line string) (float64, bool) {
	match := ytdlpProgressRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil || percent < 0 || percent > 100 {
		return 0, false
	}
	return percent, true
}
