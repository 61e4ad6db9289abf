package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	apperrors "github.com/draftsite/draftsite/internal/errors"
)

// Default values applied by Load when the corresponding key is absent.
const (
	DefaultBranchPattern = "^main|master$"
	DefaultTagPattern    = "^.+$"
	DefaultOutput        = "_xml2rfc"
	DefaultSiteDir       = "./site"
	DefaultBinary        = "xml2rfc"
	DefaultPreviewPort   = 8080
)

// Config represents the application configuration
type Config struct {
	// Repo is the path to the git repository holding the draft sources.
	Repo string `yaml:"repo,omitempty"`

	// Drafts lists draft names without the .xml suffix. An empty list
	// disables the autogen pass entirely.
	Drafts []string `yaml:"drafts"`

	// Sources lists additional files required to render the drafts
	// (referenced includes, bibliography files, etc).
	Sources []string `yaml:"sources,omitempty"`

	// Remotes lists remote names whose tracking branches are considered
	// during ref discovery, in precedence order.
	Remotes []string `yaml:"remotes,omitempty"`

	// AutogenDocs toggles markdown page generation. Defaults to true.
	AutogenDocs *bool `yaml:"autogen_docs,omitempty"`

	// BranchPattern and TagPattern select which refs to render. Both are
	// matched from the start of the short ref name.
	BranchPattern string `yaml:"branch_pattern,omitempty"`
	TagPattern    string `yaml:"tag_pattern,omitempty"`

	// Output is the directory (relative to the working directory unless
	// absolute) receiving rendered text and generated markdown.
	Output string `yaml:"output,omitempty"`

	Site    SiteConfig    `yaml:"site,omitempty"`
	Render  RenderConfig  `yaml:"render,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
	Preview PreviewConfig `yaml:"preview,omitempty"`
}

// SiteConfig controls HTML site generation.
type SiteConfig struct {
	Title     string `yaml:"title,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Directory string `yaml:"directory,omitempty"`
}

// RenderConfig controls the external converter invocation.
type RenderConfig struct {
	Binary string `yaml:"binary,omitempty"`
}

// CacheConfig controls the render cache database.
type CacheConfig struct {
	// Path to the SQLite database file. Empty disables the cache.
	Path string `yaml:"path,omitempty"`
}

// PreviewConfig controls the preview server.
type PreviewConfig struct {
	Port int `yaml:"port,omitempty"`
	// RefreshInterval re-runs discovery and build periodically, e.g. "10m".
	// Empty disables scheduled refresh.
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
}

// AutogenEnabled reports whether markdown page generation is enabled.
func (c *Config) AutogenEnabled() bool {
	return c.AutogenDocs == nil || *c.AutogenDocs
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, apperrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Repo == "" {
		c.Repo = "."
	}
	if len(c.Remotes) == 0 {
		c.Remotes = []string{"origin"}
	}
	if c.BranchPattern == "" {
		c.BranchPattern = DefaultBranchPattern
	}
	if c.TagPattern == "" {
		c.TagPattern = DefaultTagPattern
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Site.Title == "" {
		c.Site.Title = "Internet Drafts"
	}
	if c.Site.Directory == "" {
		c.Site.Directory = DefaultSiteDir
	}
	if c.Render.Binary == "" {
		c.Render.Binary = DefaultBinary
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPreviewPort
	}
}

// Validate checks pattern syntax and structural constraints.
func (c *Config) Validate() error {
	if _, err := regexp.Compile(c.BranchPattern); err != nil {
		return apperrors.ValidationFailed("branch_pattern", err.Error())
	}
	if _, err := regexp.Compile(c.TagPattern); err != nil {
		return apperrors.ValidationFailed("tag_pattern", err.Error())
	}
	for _, draft := range c.Drafts {
		if draft == "" {
			return apperrors.ValidationFailed("drafts", "entries must not be empty")
		}
	}
	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Repo:   ".",
		Drafts: []string{"draft-example-protocol"},
		Sources: []string{
			"example-appendix.xml",
		},
		Remotes:       []string{"origin"},
		BranchPattern: DefaultBranchPattern,
		TagPattern:    DefaultTagPattern,
		Output:        DefaultOutput,
		Site: SiteConfig{
			Title:     "Internet Drafts",
			Directory: DefaultSiteDir,
		},
		Render: RenderConfig{
			Binary: DefaultBinary,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	header := "# draftsite configuration\n" +
		"# drafts: draft names without the .xml suffix\n" +
		"# branch_pattern / tag_pattern: regexes selecting which refs to render\n"

	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
