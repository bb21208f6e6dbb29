package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// FileProbeConfig represents the configuration for the filesystem prober.
type FileProbeConfig struct {
	Extensions []string `yaml:"extensions" mapstructure:"extensions" default:"[\".mp3\",\".ogg\",\".flac\",\".wav\",\".m4a\",\".opus\"]"`
	Root       string   `yaml:"root" mapstructure:"root"`
}

// LocalFile is the playable handle produced by the filesystem prober. The
// file is held open; the release hook closes it.
type LocalFile struct {
	Path string
	Size int64
	File *os.File
}

// FileProbe resolves file candidates by opening the file and checking that
// it looks playable (regular file with a recognized extension).
type FileProbe struct {
	config *FileProbeConfig
}

// NewFileProbe creates a filesystem prober from a settings map.
func NewFileProbe(settings map[string]any) (*FileProbe, error) {
	var config FileProbeConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	zlog.Debug().Msgf("file probe config: %+v", config)
	return &FileProbe{config: &config}, nil
}

// Resolve opens the candidate path. The returned handle owns the open file.
func (p *FileProbe) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "resolve cancelled")
	}

	path := strings.TrimPrefix(c.URI, "file://")
	if p.config.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.config.Root, path)
	}

	if !p.extensionAllowed(path) {
		return nil, errors.Newf("unrecognized media extension for %s", c.Label)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", c.Label)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to stat %s", c.Label)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, errors.Newf("%s is not a regular file", c.Label)
	}

	handle := &LocalFile{Path: path, Size: fi.Size(), File: f}
	return candidate.NewResolved(c, handle, func() { f.Close() }), nil
}

// Name returns the gateway name.
func (p *FileProbe) Name() string {
	return "file_probe"
}

func (p *FileProbe) extensionAllowed(path string) bool {
	if len(p.config.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range p.config.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
