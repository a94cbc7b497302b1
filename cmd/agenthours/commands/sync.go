package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// ErrBundleRequired indicates no bundle destination was configured.
var ErrBundleRequired = errors.New("bundle destination required: pass --dest or set logs.bundle in the config")

// SyncCommand holds the configuration for the sync command.
type SyncCommand struct {
	dest    string
	machine string
}

// NewSyncCommand creates and configures the sync command.
func NewSyncCommand() *cobra.Command {
	sc := &SyncCommand{}

	cobraCmd := &cobra.Command{
		Use:   "sync",
		Short: "Snapshot assistant logs into a bundle directory",
		Long: `Sync copies this machine's assistant logs into a bundle directory
under a per-machine subdirectory, so compare can merge work done on
several machines.`,
		RunE: sc.run,
	}

	cobraCmd.Flags().StringVar(&sc.dest, "dest", "", "Bundle directory (default: logs.bundle from the config)")
	cobraCmd.Flags().StringVar(&sc.machine, "machine", "", "Machine name (default: hostname)")

	return cobraCmd
}

func (sc *SyncCommand) run(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dest := sc.dest
	if dest == "" {
		dest = cfg.Logs.Bundle
	}

	if dest == "" {
		return ErrBundleRequired
	}

	machine := sc.machine
	if machine == "" {
		machine, err = os.Hostname()
		if err != nil {
			return fmt.Errorf("resolve hostname: %w", err)
		}
	}

	var total int64

	copied, err := syncTree(
		filepath.Join(cfg.Logs.ClaudeDir, "projects"),
		filepath.Join(dest, machine, "claude", "projects"),
		&total,
	)
	if err != nil {
		return err
	}

	codexCopied, err := syncTree(
		filepath.Join(cfg.Logs.CodexDir, "sessions"),
		filepath.Join(dest, machine, "codex", "sessions"),
		&total,
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "synced %d files (%s) to %s\n",
		copied+codexCopied,
		humanize.Bytes(uint64(total)),
		filepath.Join(dest, machine),
	)

	return nil
}

// syncTree mirrors the .jsonl files under src into dst, overwriting
// existing copies. A missing source tree is not an error.
func syncTree(src, dst string, total *int64) (int, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return 0, nil
	}

	copied := 0

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}

		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}

		n, copyErr := copyFile(path, filepath.Join(dst, rel))
		if copyErr != nil {
			return copyErr
		}

		*total += n
		copied++

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sync %s: %w", src, err)
	}

	return copied, nil
}

func copyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, fmt.Errorf("copy: %w", err)
	}

	return n, nil
}
