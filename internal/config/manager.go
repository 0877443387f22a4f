package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"keyword-research-go/pkg/api"
	"keyword-research-go/pkg/backend"
	"keyword-research-go/pkg/logger"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/worker"
)

const envPrefix = "KWR"

type manager struct {
	mu       sync.RWMutex
	config   *Config
	viper    *viper.Viper
	fromFile bool
	log      *logger.Logger
}

func NewManager() Manager {
	v := viper.New()
	setDefaults(v)
	return &manager{
		viper: v,
		log:   logger.GetLogger().WithField("component", "config"),
	}
}

// Load reads configPath, or only defaults and environment when configPath is empty.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if m.fromFile {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	if m.fromFile {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind to %s", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viper.BindPFlag(key, flag)
}

func (m *manager) Watch(onChange func(*Config, fsnotify.Event)) error {
	m.mu.RLock()
	fromFile := m.fromFile
	m.mu.RUnlock()
	if !fromFile {
		return fmt.Errorf("no config file to watch")
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log := m.log.WithFields(map[string]interface{}{
			"file": e.Name,
			"op":   e.Op.String(),
		})
		if err := m.Reload(); err != nil {
			log.WithError(err).Warn("Ignoring invalid config change")
			return
		}
		log.Info("Config reloaded")
		onChange(m.GetConfig(), e)
	})
	m.viper.WatchConfig()
	return nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
		m.fromFile = true
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// setDefaults registers every key so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.body_limit", 64*1024)

	perplexity := api.DefaultPerplexityConfig()
	v.SetDefault("providers.generator", "perplexity")
	v.SetDefault("providers.perplexity.base_url", perplexity.BaseURL)
	v.SetDefault("providers.perplexity.api_key", "")
	v.SetDefault("providers.perplexity.model", perplexity.Model)
	v.SetDefault("providers.perplexity.max_tokens", perplexity.MaxTokens)
	v.SetDefault("providers.perplexity.temperature", perplexity.Temperature)
	v.SetDefault("providers.perplexity.max_keywords", perplexity.MaxKeywords)

	gemini := api.DefaultGeminiConfig()
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.model", gemini.Model)
	v.SetDefault("providers.gemini.max_tokens", gemini.MaxTokens)
	v.SetDefault("providers.gemini.temperature", gemini.Temperature)
	v.SetDefault("providers.gemini.max_keywords", gemini.MaxKeywords)

	dfs := api.DefaultDataForSEOConfig()
	v.SetDefault("providers.dataforseo.base_url", dfs.BaseURL)
	v.SetDefault("providers.dataforseo.login", "")
	v.SetDefault("providers.dataforseo.password", "")
	v.SetDefault("providers.dataforseo.location_code", dfs.LocationCode)
	v.SetDefault("providers.dataforseo.language_code", dfs.LanguageCode)
	v.SetDefault("providers.dataforseo.max_keywords", dfs.MaxKeywords)
	v.SetDefault("providers.dataforseo.related_seeds", dfs.RelatedSeeds)
	v.SetDefault("providers.dataforseo.device", dfs.Device)
	v.SetDefault("providers.dataforseo.os", dfs.OS)

	conn := api.DefaultConnectionConfig()
	v.SetDefault("providers.http.max_conns_per_host", conn.MaxConnsPerHost)
	v.SetDefault("providers.http.max_idle_conn_duration", conn.MaxIdleConnDuration)
	v.SetDefault("providers.http.read_timeout", conn.ReadTimeout)
	v.SetDefault("providers.http.write_timeout", conn.WriteTimeout)
	v.SetDefault("providers.http.request_timeout", conn.RequestTimeout)
	v.SetDefault("providers.http.user_agent", conn.UserAgent)
	v.SetDefault("providers.http.max_in_flight", conn.MaxInFlight)
	v.SetDefault("providers.http.acquire_timeout", conn.AcquireTimeout)

	analysis := pipeline.DefaultConfig()
	v.SetDefault("analysis.min_cluster_volume", analysis.MinClusterVolume)
	v.SetDefault("analysis.fetch_timeout", analysis.FetchTimeout)
	v.SetDefault("analysis.related_min_volume", analysis.Repository.RelatedMinVolume)
	v.SetDefault("analysis.related_limit", analysis.Repository.RelatedLimit)
	v.SetDefault("analysis.serp_top_results", analysis.Repository.SerpTopResults)
	v.SetDefault("analysis.max_cluster_members", analysis.Cluster.MaxMembers)
	v.SetDefault("analysis.max_clusters", analysis.Cluster.MaxClusters)
	v.SetDefault("analysis.overlap_ratio", analysis.Cluster.OverlapRatio)
	v.SetDefault("analysis.min_word_length", analysis.Cluster.MinWordLen)
	v.SetDefault("analysis.traffic_rate", analysis.Report.TrafficRate)
	v.SetDefault("analysis.top_clusters", analysis.Report.TopClusters)
	v.SetDefault("analysis.list_limit", analysis.Report.ListLimit)
	v.SetDefault("analysis.max_competitors", analysis.Report.MaxCompetitors)
	v.SetDefault("analysis.report.quick_win_max_difficulty", analysis.Report.Report.QuickWinMaxDifficulty)
	v.SetDefault("analysis.report.quick_win_min_volume", analysis.Report.Report.QuickWinMinVolume)
	v.SetDefault("analysis.report.high_value_min_volume", analysis.Report.Report.HighValueMinVolume)
	v.SetDefault("analysis.plan.quick_win_max_difficulty", analysis.Report.Plan.QuickWinMaxDifficulty)
	v.SetDefault("analysis.plan.quick_win_min_volume", analysis.Report.Plan.QuickWinMinVolume)
	v.SetDefault("analysis.plan.high_value_min_volume", analysis.Report.Plan.HighValueMinVolume)

	pool := worker.DefaultWorkerPoolConfig()
	v.SetDefault("worker.max_workers", pool.MaxWorkers)
	v.SetDefault("worker.queue_size", pool.QueueSize)
	v.SetDefault("worker.worker_timeout", pool.WorkerTimeout)
	v.SetDefault("worker.shutdown_timeout", pool.ShutdownTimeout)
	v.SetDefault("worker.enable_metrics", pool.EnableMetrics)

	v.SetDefault("cache.size", 100)
	v.SetDefault("cache.ttl", time.Hour)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "json")

	be := backend.DefaultConfig()
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.enable_gzip", be.EnableGzip)
	v.SetDefault("backend.timeout", be.Timeout)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Providers.Generator {
	case "perplexity", "gemini", "none":
	default:
		return fmt.Errorf("unknown keyword generator: %q", config.Providers.Generator)
	}

	if config.Worker.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive")
	}
	if config.Worker.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}

	a := config.Analysis
	if a.OverlapRatio <= 0 || a.OverlapRatio > 1 {
		return fmt.Errorf("overlap_ratio must be in (0, 1], got %v", a.OverlapRatio)
	}
	if a.MaxClusters <= 0 || a.MaxClusterMembers <= 0 {
		return fmt.Errorf("max_clusters and max_cluster_members must be positive")
	}
	if a.TrafficRate < 0 || a.TrafficRate > 1 {
		return fmt.Errorf("traffic_rate must be in [0, 1], got %v", a.TrafficRate)
	}
	if a.TopClusters <= 0 || a.ListLimit <= 0 || a.MaxCompetitors <= 0 {
		return fmt.Errorf("report list limits must be positive")
	}

	if config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive")
	}

	switch config.Export.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported export format: %q", config.Export.Format)
	}

	if config.Backend.URL != "" && config.Backend.APIKey == "" {
		return fmt.Errorf("backend api_key is required when backend url is set")
	}

	return nil
}
