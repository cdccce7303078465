package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/cabal"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Liquidaciones"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		UploadMaxBytes int64         `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
	}

	Parser struct {
		// FeePolicy overrides the policy of the grammar when set.
		FeePolicy   string `envconfig:"PARSER_FEE_POLICY"`
		GrammarFile string `envconfig:"PARSER_GRAMMAR_FILE"`
	}

	Session struct {
		KeepPartial bool `envconfig:"SESSION_KEEP_PARTIAL" default:"false"`
	}

	Export struct {
		Dir string `envconfig:"EXPORT_DIR" default:"liquidaciones"`
	}
}

// Grammar returns the CABAL grammar selected by the parser settings.
func (c *Config) Grammar() (cabal.Grammar, error) {
	g := cabal.DefaultGrammar()

	if c.Parser.GrammarFile != "" {
		loaded, err := cabal.LoadGrammarFile(c.Parser.GrammarFile)
		if err != nil {
			return cabal.Grammar{}, fmt.Errorf("loading grammar: %w", err)
		}

		g = loaded
	}

	if c.Parser.FeePolicy != "" {
		policy, err := cabal.ParseFeePolicy(c.Parser.FeePolicy)
		if err != nil {
			return cabal.Grammar{}, err
		}

		g.Policy = policy
	}

	return g, nil
}

// Rules compiles Grammar.
func (c *Config) Rules() (*cabal.Rules, error) {
	g, err := c.Grammar()
	if err != nil {
		return nil, err
	}

	rules, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling grammar: %w", err)
	}

	return rules, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
