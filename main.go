package main

import (
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"heartguard/db"
	qhttp "heartguard/http"
	"heartguard/logging"
	"heartguard/ml"
	"heartguard/monitoring"
	"heartguard/predict"
	"heartguard/risk"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Model struct {
		ArtifactPath string `yaml:"artifact_path"`
		MetadataPath string `yaml:"metadata_path"`
	} `yaml:"model"`
	Risk risk.Thresholds `yaml:"risk"`
	Log  logging.Config  `yaml:"log"`
}

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := loadConfig(configPath)
	if err != nil {
		// logger is not up yet
		panic("failed to load config: " + err.Error())
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", config.Database.Path))

	// The artifact and metadata load exactly once; a missing or corrupt
	// artifact or a schema disagreement aborts startup rather than
	// serving wrong predictions.
	artifact, err := ml.LoadArtifact(config.Model.ArtifactPath)
	if err != nil {
		logger.Fatal("model artifact unavailable", zap.Error(err))
	}
	metadata, err := ml.LoadMetadata(config.Model.MetadataPath)
	if err != nil {
		logger.Fatal("model metadata unavailable", zap.Error(err))
	}

	service, err := predict.NewService(artifact, metadata, config.Risk, logger)
	if err != nil {
		logger.Fatal("failed to wire prediction service", zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("version", metadata.Version),
		zap.Int("features", artifact.FeatureCount()))

	collector := monitoring.NewCollector()
	feed := monitoring.NewFeed(logger)
	go feed.Run()
	defer feed.Stop()

	qhttp.SetPredictor(service)
	qhttp.SetCollector(collector)
	qhttp.SetFeed(feed)
	qhttp.SetLogger(logger)

	watcher := watchThresholds(configPath, service, logger)
	if watcher != nil {
		defer watcher.Close()
	}

	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds > 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := qhttp.NewServer(serverConfig, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	if config.Risk.Medium == 0 && config.Risk.High == 0 {
		config.Risk = risk.DefaultThresholds()
	}
	return &config, nil
}

// watchThresholds re-reads the config on change and applies new risk
// thresholds. Only the tier cut points are hot-reloaded; everything else
// requires a restart, the model artifact included.
func watchThresholds(configPath string, service *predict.Service, logger *zap.Logger) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		return nil
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		watcher.Close()
		return nil
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(configPath) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				config, err := loadConfig(configPath)
				if err != nil {
					logger.Warn("ignoring config change", zap.Error(err))
					continue
				}
				if err := service.SetThresholds(config.Risk); err != nil {
					logger.Warn("ignoring config change", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return watcher
}
