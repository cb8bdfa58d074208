// Package config provides configuration structures and loading for visitexport.
package config

// Config represents the complete application configuration.
type Config struct {
	Source  SourceConfig            `yaml:"source" mapstructure:"source"`
	Schema  SchemaConfig            `yaml:"schema" mapstructure:"schema"`
	Output  OutputConfig            `yaml:"output" mapstructure:"output"`
	Render  RenderConfig            `yaml:"render" mapstructure:"render"`
	Exports map[string]ExportConfig `yaml:"exports" mapstructure:"exports"`
	Logging LoggingConfig           `yaml:"logging" mapstructure:"logging"`
}

// Source drivers.
const (
	DriverMySQL = "mysql"
	DriverFile  = "file"
)

// SourceConfig describes where visit records are read from: a MySQL visits
// database or a JSON dump of the dashboard API.
type SourceConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql or file
	Path               string `yaml:"path" mapstructure:"path"`     // JSON dump path (file driver)
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// SchemaConfig names the tables and columns records are read from.
type SchemaConfig struct {
	VisitsTable     string `yaml:"visits_table" mapstructure:"visits_table"`
	UsersTable      string `yaml:"users_table" mapstructure:"users_table"`
	ShopsTable      string `yaml:"shops_table" mapstructure:"shops_table"`
	TimestampColumn string `yaml:"timestamp_column" mapstructure:"timestamp_column"`
	AnswersColumn   string `yaml:"answers_column" mapstructure:"answers_column"` // also the JSON field for file sources
}

// OutputConfig controls CSV output.
type OutputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	DateFormat    string `yaml:"date_format" mapstructure:"date_format"` // strftime pattern
	TimeFormat    string `yaml:"time_format" mapstructure:"time_format"` // strftime pattern
	FilenameStyle string `yaml:"filename_style" mapstructure:"filename_style"`
}

// RenderConfig controls hierarchical rendering of answer sets.
type RenderConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
}

// ExportConfig is a named export: which records, and how the file is named.
type ExportConfig struct {
	Entity        string `yaml:"entity" mapstructure:"entity"`                 // Name used for the output file
	Where         string `yaml:"where" mapstructure:"where"`                   // SQL filter on the visits table
	FilenameStyle string `yaml:"filename_style" mapstructure:"filename_style"` // Overrides output.filename_style
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:             DriverMySQL,
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     5,
			MaxIdleConnections: 2,
		},
		Schema: SchemaConfig{
			VisitsTable:     "visits",
			UsersTable:      "users",
			ShopsTable:      "shops",
			TimestampColumn: "created_at",
			AnswersColumn:   "responses",
		},
		Output: OutputConfig{
			Dir:           ".",
			DateFormat:    "%Y-%m-%d",
			TimeFormat:    "%H:%M",
			FilenameStyle: "dated",
		},
		Render: RenderConfig{
			MaxDepth: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// GetExportStyle returns the filename style for an export, falling back to
// the global output style if the export does not set one.
func (c *Config) GetExportStyle(exportName string) string {
	exp, err := c.GetExport(exportName)
	if err != nil || exp.FilenameStyle == "" {
		return c.Output.FilenameStyle
	}
	return exp.FilenameStyle
}
