package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// DenylistConfig represents the configuration for DenylistFilter.
type DenylistConfig struct {
	Patterns      []string `yaml:"patterns" mapstructure:"patterns" validate:"required,min=1"`
	CaseSensitive bool     `yaml:"case_sensitive" mapstructure:"case_sensitive" default:"false"`
}

// DenylistFilter rejects candidates whose URI contains any denied substring.
type DenylistFilter struct {
	config *DenylistConfig
}

// NewDenylistFilter creates a new denylist filter.
func NewDenylistFilter() *DenylistFilter {
	return &DenylistFilter{}
}

func (f *DenylistFilter) Name() string {
	return "denylist_filter"
}

func (f *DenylistFilter) Description() string {
	return "Rejects candidates whose URI matches a denied pattern"
}

func (f *DenylistFilter) ReturnCodes() []string {
	return []string{"uri_denied"}
}

func (f *DenylistFilter) ValidateConfig(settings map[string]any) error {
	var config DenylistConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	f.config = &config
	zlog.Info().Msgf("denylist filter config: patterns=%d case_sensitive=%v", len(config.Patterns), config.CaseSensitive)
	return nil
}

func (f *DenylistFilter) Check(c candidate.Candidate) Result {
	if f.config == nil {
		return Accept()
	}
	uri := c.URI
	if !f.config.CaseSensitive {
		uri = strings.ToLower(uri)
	}
	for _, p := range f.config.Patterns {
		if !f.config.CaseSensitive {
			p = strings.ToLower(p)
		}
		if strings.Contains(uri, p) {
			return Reject("uri_denied")
		}
	}
	return Accept()
}

func init() {
	Register("denylist_filter", func() Filter {
		return NewDenylistFilter()
	})
}
