// Command myfsd mounts the filesystem core at a given mountpoint,
// backed by a key-value store file. CLI shape grounded on rclone's
// cobra/pflag command tree: a root command with local flags and
// no subcommands, since there is exactly one thing to do.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
	"github.com/spf13/cobra"

	"github.com/StackCanary/os-filesystem/internal/bridge"
	"github.com/StackCanary/os-filesystem/internal/config"
	"github.com/StackCanary/os-filesystem/internal/fsops"
	"github.com/StackCanary/os-filesystem/internal/logging"
)

func main() {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "myfsd MOUNTPOINT",
		Short: "Mount the key-value-backed filesystem at MOUNTPOINT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Mountpoint = args[0]
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.StorePath, "store", cfg.StorePath, "path to the backing store file")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "path to the log file")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "log every FUSE call")
	flags.Uint32Var(&cfg.RootUID, "root-uid", uint32(os.Getuid()), "uid to own a freshly created root")
	flags.Uint32Var(&cfg.RootGID, "root-gid", uint32(os.Getgid()), "gid to own a freshly created root")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log, err := logging.New(logging.Options{Debug: cfg.Debug, LogFile: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	core, err := fsops.New(fsops.Options{
		StorePath: cfg.StorePath,
		UID:       cfg.RootUID,
		GID:       cfg.RootGID,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	adapter := bridge.New(core, log)
	pathFs := pathfs.NewPathNodeFs(adapter, nil)
	connector := nodefs.NewFileSystemConnector(pathFs.Root(), nil)

	server, err := fuse.NewServer(connector.RawFS(), cfg.Mountpoint, &fuse.MountOptions{
		Debug: cfg.Debug,
		Name:  "os-filesystem",
	})
	if err != nil {
		_ = core.Close()
		return fmt.Errorf("mounting: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("received shutdown signal, unmounting")
		if err := server.Unmount(); err != nil {
			log.WithError(err).Warn("unmount failed")
		}
	}()

	server.Serve()

	if err := core.Close(); err != nil {
		log.WithError(err).Error("closing store")
		return err
	}
	return nil
}
