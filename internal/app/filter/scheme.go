package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
	"github.com/osa030/rotor/internal/infra/resolver"
)

// SchemeConfig represents the configuration for SchemeFilter.
type SchemeConfig struct {
	Allowed []string `yaml:"allowed" mapstructure:"allowed" validate:"required,min=1"`
}

// SchemeFilter rejects candidates whose URI scheme is not on the allowlist.
type SchemeFilter struct {
	config *SchemeConfig
}

// NewSchemeFilter creates a new scheme filter.
func NewSchemeFilter() *SchemeFilter {
	return &SchemeFilter{}
}

func (f *SchemeFilter) Name() string {
	return "scheme_filter"
}

func (f *SchemeFilter) Description() string {
	return "Rejects candidates whose URI scheme is not allowlisted"
}

func (f *SchemeFilter) ReturnCodes() []string {
	return []string{"scheme_not_allowed"}
}

func (f *SchemeFilter) ValidateConfig(settings map[string]any) error {
	var config SchemeConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	for i := range config.Allowed {
		config.Allowed[i] = strings.ToLower(config.Allowed[i])
	}
	f.config = &config
	zlog.Info().Msgf("scheme filter config: %+v", config)
	return nil
}

func (f *SchemeFilter) Check(c candidate.Candidate) Result {
	// Not configured means accept everything.
	if f.config == nil {
		return Accept()
	}
	scheme := resolver.SchemeOf(c.URI)
	for _, allowed := range f.config.Allowed {
		if scheme == allowed {
			return Accept()
		}
	}
	return Reject("scheme_not_allowed")
}

func init() {
	Register("scheme_filter", func() Filter {
		return NewSchemeFilter()
	})
}
