// Command stellarsqld is the StellarSQL server process: it loads
// configuration, opens the on-disk store, builds the session pool, and
// serves the line protocol over TCP (spec.md §6). Flags are bound with
// github.com/spf13/cobra, matching the teacher's CLI surface.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"stellarsql/internal/config"
	"stellarsql/internal/di"
	"stellarsql/internal/xerr"
	"stellarsql/internal/xlog"
	"stellarsql/pool"
	"stellarsql/server"
	"stellarsql/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var port, poolSize, pageSize int
	var fileBasePath string
	var enableTSV bool

	root := &cobra.Command{
		Use:   "stellarsqld",
		Short: "StellarSQL server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "start the StellarSQL TCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("file-base-path") {
				cfg.FileBasePath = fileBasePath
			}
			if cmd.Flags().Changed("pool-size") {
				cfg.PoolSize = poolSize
			}
			if cmd.Flags().Changed("page-size") {
				cfg.PageSize = pageSize
			}
			if cmd.Flags().Changed("enable-tsv") {
				cfg.EnableTSV = enableTSV
			}
			return run(cfg)
		},
	}

	serveCmd.Flags().StringVar(&cfgPath, "config", "", "path to a TOML configuration file")
	serveCmd.Flags().IntVar(&port, "port", 0, "TCP port to listen on")
	serveCmd.Flags().StringVar(&fileBasePath, "file-base-path", "", "on-disk root for users/databases/tables")
	serveCmd.Flags().IntVar(&poolSize, "pool-size", 0, "maximum number of cached client sessions")
	serveCmd.Flags().IntVar(&pageSize, "page-size", 0, "B+ tree index page size in bytes")
	serveCmd.Flags().BoolVar(&enableTSV, "enable-tsv", false, "also mirror table rows as TSV for inspection")

	root.AddCommand(serveCmd)
	return root
}

// run wires config.Config -> storage.DiskStore -> pool.Pool -> server.Server
// through the generic DI container (adapted unchanged from the teacher's
// di.Container, since its reflection-based Register/Resolve is
// domain-agnostic). Config is a plain value registered directly; the three
// pointer-typed services are each registered as a zero-argument factory and
// resolved in dependency order, since RegisterFactory/Resolve key on the
// factory's literal return type (unlike Register, which strips one level
// of pointer indirection) and so round-trip a *T service correctly.
func run(cfg config.Config) error {
	container := di.NewContainer()
	if err := container.Register(cfg); err != nil {
		return err
	}
	var resolved config.Config
	if err := container.Resolve(&resolved); err != nil {
		return err
	}

	log := xlog.Default.With("main")

	if err := container.RegisterFactory(func() (*storage.DiskStore, error) {
		s := storage.New(resolved.FileBasePath, resolved.EnableTSV)
		if err := s.CreateFileBase(); err != nil && xerr.CodeOf(err) != "BaseDirExists" {
			return nil, err
		}
		return s, nil
	}); err != nil {
		return err
	}
	var store *storage.DiskStore
	if err := container.Resolve(&store); err != nil {
		return err
	}

	if err := container.RegisterFactory(func() (*pool.Pool, error) {
		return pool.New(resolved.PoolSize, store), nil
	}); err != nil {
		return err
	}
	var p *pool.Pool
	if err := container.Resolve(&p); err != nil {
		return err
	}
	defer p.Close()

	addr := ":" + strconv.Itoa(resolved.Port)
	if err := container.RegisterFactory(func() (*server.Server, error) {
		return server.New(addr, p), nil
	}); err != nil {
		return err
	}
	var srv *server.Server
	if err := container.Resolve(&srv); err != nil {
		return err
	}

	log.Info("starting stellarsqld", xlog.Fields{
		"port":           resolved.Port,
		"file_base_path": resolved.FileBasePath,
		"pool_size":      resolved.PoolSize,
	})
	return srv.ListenAndServe()
}
