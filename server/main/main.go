//go:build linux

package main

import (
	"chatserver/server/config"
	"chatserver/server/model"
	"chatserver/server/mux"
	"chatserver/server/processes"
	"chatserver/server/utils"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "chatserver",
	Short: "Multi-user chat server",
	Long: `chatserver accepts framed TCP connections, keeps accounts, friends,
groups and message history in redis, and pushes notifications to every
logged-in client over a second connection.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		return serve(cfg)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(configFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configFile)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "configuration file (ini)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "override [log] level (debug, info, warn, error, none)")
	rootCmd.AddCommand(serveCmd, initConfigCmd)
}

func serve(cfg *config.Config) error {
	logger, err := utils.New(utils.ParseLevel(cfg.Log.Level), cfg.Log.Path, "")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Close()
	utils.SetDefault(logger)

	store, err := model.OpenStore(model.StoreOptions{
		Driver:      cfg.Store.Driver,
		Addr:        cfg.Store.Addr,
		Password:    cfg.Store.Password,
		DB:          cfg.Store.DB,
		MaxIdle:     cfg.Store.MaxIdle,
		MaxActive:   cfg.Store.MaxActive,
		IdleTimeout: cfg.Store.IdleTimeout,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	dao := model.NewUserDao(store)

	mgr := processes.NewUserMgr(dao, logger.WithPrefix("registry"))
	n, err := mgr.ForceAllOffline()
	if err != nil {
		return fmt.Errorf("reset presence: %w", err)
	}
	logger.Info("%d accounts marked offline", n)

	archive, err := model.OpenArchive(cfg.Archive.Driver, cfg.Archive.Source)
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := os.MkdirAll(cfg.Server.FileDir, 0755); err != nil {
		return fmt.Errorf("file directory: %w", err)
	}
	engine := processes.NewEngine(dao, mgr, processes.EngineOptions{
		FileDir: cfg.Server.FileDir,
		MaxFile: cfg.Server.MaxFile,
		Archive: archive,
	}, logger.WithPrefix("engine"))
	proc := processes.NewProcessor(engine, logger.WithPrefix("router"))

	listener, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Listen, err)
	}
	srv, err := mux.NewServer(listener, proc, mux.Options{
		Workers:  cfg.Server.Workers,
		Queue:    cfg.Server.Queue,
		MaxFrame: uint32(cfg.Server.MaxFrame),
	}, logger.WithPrefix("mux"))
	if err != nil {
		listener.Close()
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info("received %s, shutting down", sig)
		srv.Close()
	}()
	return srv.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
