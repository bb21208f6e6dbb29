// Package playlist loads candidate lists from playlist files.
package playlist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// LoadFile reads a playlist file into candidates. Plain text (one URI per
// line, '#' comments) and extended M3U (#EXTINF labels) are supported.
func LoadFile(path string) ([]candidate.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open playlist file")
	}
	defer f.Close()

	cs, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse playlist %s", path)
	}
	zlog.Info().Msgf("playlist loaded: path=%s candidates=%d", path, len(cs))
	return cs, nil
}

// Parse reads playlist entries from r. An #EXTINF directive labels the
// entry that follows it; other '#' lines are comments.
func Parse(r io.Reader) ([]candidate.Candidate, error) {
	var cs []candidate.Candidate
	var pendingLabel string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if label, ok := extinfLabel(line); ok {
				pendingLabel = label
			}
			continue
		}

		cs = append(cs, candidate.NewLabeled(line, pendingLabel))
		pendingLabel = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read playlist")
	}

	return cs, nil
}

// extinfLabel extracts the title from an "#EXTINF:duration,title" line.
func extinfLabel(line string) (string, bool) {
	if !strings.HasPrefix(line, "#EXTINF:") {
		return "", false
	}
	rest := strings.TrimPrefix(line, "#EXTINF:")
	if i := strings.Index(rest, ","); i >= 0 {
		title := strings.TrimSpace(rest[i+1:])
		if title != "" {
			return title, true
		}
	}
	return "", false
}
