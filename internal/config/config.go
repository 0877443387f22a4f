package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/backend"
	"keyword-research-go/pkg/cluster"
	"keyword-research-go/pkg/keyword"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/report"
	"keyword-research-go/pkg/worker"
)

type Config struct {
	Server    ServerConfig            `mapstructure:"server"`
	Providers ProvidersConfig         `mapstructure:"providers"`
	Analysis  AnalysisConfig          `mapstructure:"analysis"`
	Worker    worker.WorkerPoolConfig `mapstructure:"worker"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Export    ExportConfig            `mapstructure:"export"`
	Backend   backend.Config          `mapstructure:"backend"`
	Logger    logger.Config           `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       int           `mapstructure:"body_limit"`
}

// ProvidersConfig selects and configures the upstream services.
// Generator is one of perplexity, gemini or none.
type ProvidersConfig struct {
	Generator  string               `mapstructure:"generator"`
	Perplexity api.PerplexityConfig `mapstructure:"perplexity"`
	Gemini     api.GeminiConfig     `mapstructure:"gemini"`
	DataForSEO api.DataForSEOConfig `mapstructure:"dataforseo"`
	HTTP       api.ConnectionConfig `mapstructure:"http"`
}

// AnalysisConfig holds every numeric threshold of an analysis run.
type AnalysisConfig struct {
	MinClusterVolume  int               `mapstructure:"min_cluster_volume"`
	FetchTimeout      time.Duration     `mapstructure:"fetch_timeout"`
	RelatedMinVolume  int               `mapstructure:"related_min_volume"`
	RelatedLimit      int               `mapstructure:"related_limit"`
	SerpTopResults    int               `mapstructure:"serp_top_results"`
	MaxClusterMembers int               `mapstructure:"max_cluster_members"`
	MaxClusters       int               `mapstructure:"max_clusters"`
	OverlapRatio      float64           `mapstructure:"overlap_ratio"`
	MinWordLength     int               `mapstructure:"min_word_length"`
	TrafficRate       float64           `mapstructure:"traffic_rate"`
	TopClusters       int               `mapstructure:"top_clusters"`
	ListLimit         int               `mapstructure:"list_limit"`
	MaxCompetitors    int               `mapstructure:"max_competitors"`
	Report            report.Thresholds `mapstructure:"report"`
	Plan              report.Thresholds `mapstructure:"plan"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// PipelineConfig converts the analysis section into the analyzer's settings.
func (a AnalysisConfig) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		MinClusterVolume: a.MinClusterVolume,
		FetchTimeout:     a.FetchTimeout,
		Repository: keyword.RepositoryConfig{
			RelatedMinVolume: a.RelatedMinVolume,
			RelatedLimit:     a.RelatedLimit,
			SerpTopResults:   a.SerpTopResults,
		},
		Cluster: cluster.Config{
			MaxMembers:   a.MaxClusterMembers,
			MaxClusters:  a.MaxClusters,
			OverlapRatio: a.OverlapRatio,
			MinWordLen:   a.MinWordLength,
		},
		Report: report.Config{
			Report:         a.Report,
			Plan:           a.Plan,
			TrafficRate:    a.TrafficRate,
			TopClusters:    a.TopClusters,
			ListLimit:      a.ListLimit,
			MaxCompetitors: a.MaxCompetitors,
		},
	}
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
	// BindFlag lets a command-line flag override key when the flag is set.
	BindFlag(key string, flag *pflag.Flag) error
	// Watch calls onChange with every valid configuration written to the config file.
	Watch(onChange func(*Config, fsnotify.Event)) error
}
