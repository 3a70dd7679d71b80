package types

// AggregationMethod selects the peptide→protein reduction strategy.
type AggregationMethod string

const (
	MethodSum       AggregationMethod = "sum"
	MethodMean      AggregationMethod = "mean"
	MethodTopN      AggregationMethod = "topn"
	MethodIterative AggregationMethod = "iterative"
)

// AggregationConfig holds settings for one aggregation run.
type AggregationConfig struct {
	// Method selects the reduction strategy: sum, mean, topn, or iterative.
	Method AggregationMethod `json:"method" yaml:"method" mapstructure:"method"`

	// InitMethod seeds the iterative strategy with a first estimate:
	// sum or mean (default mean). Ignored by the other methods.
	InitMethod AggregationMethod `json:"init_method" yaml:"init_method" mapstructure:"init_method"`

	// TopN is the number of peptides kept per protein by the topn
	// strategy, ranked by row-wise median intensity. Required for topn;
	// optional for iterative (zero means use all peptides).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// UniqueOnly restricts aggregation to specific peptides: shared
	// peptides are dropped from the adjacency matrix entirely.
	UniqueOnly bool `json:"unique_only" yaml:"unique_only" mapstructure:"unique_only"`

	// ByCondition aggregates each biological condition's sample columns
	// independently and re-merges the results by column label.
	ByCondition bool `json:"by_condition" yaml:"by_condition" mapstructure:"by_condition"`

	// MaxIterations caps the iterative strategy (default 100). Hitting
	// the cap yields a best-effort result flagged as non-converged.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
}

// TableConfig holds the column layout of peptide-level input tables.
type TableConfig struct {
	// IDColumn names the peptide identifier column (default "Sequence").
	IDColumn string `json:"id_column" yaml:"id_column" mapstructure:"id_column"`

	// ProteinsColumn names the column listing the protein groups each
	// peptide belongs to, separated by commas or semicolons
	// (default "Protein_Groups").
	ProteinsColumn string `json:"proteins_column" yaml:"proteins_column" mapstructure:"proteins_column"`

	// IntensityPrefix marks intensity columns; the rest of the header is
	// the sample identifier (default "Intensity.").
	IntensityPrefix string `json:"intensity_prefix" yaml:"intensity_prefix" mapstructure:"intensity_prefix"`

	// TagPrefix marks metacell tag columns (default "Metacell.").
	TagPrefix string `json:"tag_prefix" yaml:"tag_prefix" mapstructure:"tag_prefix"`

	// Log2 indicates intensities are log2-scale and must be exponentiated
	// before aggregation arithmetic.
	Log2 bool `json:"log2" yaml:"log2" mapstructure:"log2"`
}

// StoreConfig holds settings for the run archive.
type StoreConfig struct {
	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxRuns is the default maximum number of runs listed (default 20).
	MaxRuns int `json:"max_runs" yaml:"max_runs" mapstructure:"max_runs"`
}

// Config groups all tool configuration.
type Config struct {
	Aggregation AggregationConfig `json:"aggregation" yaml:"aggregation" mapstructure:"aggregation"`
	Table       TableConfig       `json:"table" yaml:"table" mapstructure:"table"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`

	// Conditions maps sample identifiers to biological condition labels.
	Conditions map[string]string `json:"conditions" yaml:"conditions" mapstructure:"conditions"`
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Aggregation.Method == "" {
		c.Aggregation.Method = MethodMean
	}
	if c.Aggregation.InitMethod == "" {
		c.Aggregation.InitMethod = MethodMean
	}
	if c.Aggregation.MaxIterations <= 0 {
		c.Aggregation.MaxIterations = 100
	}
	if c.Table.IDColumn == "" {
		c.Table.IDColumn = "Sequence"
	}
	if c.Table.ProteinsColumn == "" {
		c.Table.ProteinsColumn = "Protein_Groups"
	}
	if c.Table.IntensityPrefix == "" {
		c.Table.IntensityPrefix = "Intensity."
	}
	if c.Table.TagPrefix == "" {
		c.Table.TagPrefix = "Metacell."
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "archive"
	}
	if c.Store.MaxRuns <= 0 {
		c.Store.MaxRuns = 20
	}
}
