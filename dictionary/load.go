package dictionary

import "github.com/rs/zerolog"

// Option configures dictionary loading. Currently the only knob is
// structured logging of the schema-load summary.
type Option func(*loadConfig)

type loadConfig struct {
	logger zerolog.Logger
}

// WithLogger attaches a zerolog.Logger that receives a schema-load summary
// (field/component/group/message counts) once loading succeeds. The zero
// value (disabled) is used if this is never called.
func WithLogger(l zerolog.Logger) Option {
	return func(c *loadConfig) { c.logger = l }
}

// Parse builds a Dictionary from a QuickFIX-format XML document for the
// given Version. It is the entry point FromVersion and callers loading a
// custom dictionary from outside this module both go through.
func Parse(document string, version Version, opts ...Option) (*Dictionary, error) {
	cfg := &loadConfig{}
	for _, o := range opts {
		o(cfg)
	}

	root, err := parseXML(document)
	if err != nil {
		return nil, err
	}
	dict, err := BuildDictionary(version, root)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug().
		Str("version", version.String()).
		Int("fields", len(dict.fields)).
		Int("components", len(dict.components)).
		Int("groups", len(dict.groups)).
		Int("messages", len(dict.messages)).
		Msg("dictionary: schema loaded")

	return dict, nil
}
