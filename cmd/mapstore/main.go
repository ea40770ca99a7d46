package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mapstore/internal/config"
	"mapstore/internal/mapbuffer"
	"mapstore/internal/tile"
	"mapstore/internal/world"
)

type app struct {
	cfgPath     string
	metricsFile string

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mapstore",
		Short:         "Inspect and maintain quad-file map saves",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to map store configuration file (JSON or YAML)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-textfile", "", "write buffer metrics to this file on exit")

	root.AddCommand(newLocateCommand(a), newInspectCommand(a), newResaveCommand(a))
	return root
}

func (a *app) setup() error {
	if _, err := writeConfigFromCentral(a.cfgPath); err != nil {
		return fmt.Errorf("sync config: %w", err)
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	return nil
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.metricsFile == "" || a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

func (a *app) environment() mapbuffer.StaticEnvironment {
	return mapbuffer.StaticEnvironment{
		Root:              a.cfg.World.Root,
		DisableGeneration: a.cfg.World.GenerationDisabled,
	}
}

func (a *app) activeArea() world.ActiveArea {
	return world.ActiveArea{
		Origin: world.QuadCoord{
			X: a.cfg.Retention.Origin.X,
			Y: a.cfg.Retention.Origin.Y,
			Z: a.cfg.World.ActiveLevel,
		},
		HalfMapSize: a.cfg.Retention.HalfMapSize,
		Level:       a.cfg.World.ActiveLevel,
		ZLevels:     a.cfg.World.ZLevels,
	}
}

func (a *app) newBuffer(opts ...mapbuffer.Option) *mapbuffer.Buffer {
	base := []mapbuffer.Option{
		mapbuffer.WithLogger(a.logger),
		mapbuffer.WithMetrics(mapbuffer.NewMetrics(a.registry)),
		mapbuffer.WithCompression(mapbuffer.Compression(a.cfg.Storage.Compression)),
		mapbuffer.WithDirCacheSize(a.cfg.Storage.DirCacheSize),
		mapbuffer.WithFileMode(a.cfg.Storage.Mode()),
		mapbuffer.WithProgressInterval(a.cfg.Save.ProgressInterval.Duration()),
	}
	return mapbuffer.New(a.environment(), tile.Codec{}, append(base, opts...)...)
}
