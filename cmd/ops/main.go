package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jtafstn/webidle/internal/config"
	"github.com/jtafstn/webidle/internal/ops"
	"github.com/jtafstn/webidle/internal/storage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	cmds := map[string]func([]string, io.Writer) error{
		"backup":  cmdBackup,
		"restore": cmdRestore,
		"drill":   cmdDrill,
		"schema":  cmdSchema,
		"inspect": cmdInspect,
		"curve":   cmdCurve,
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		printUsage(stderr)
		return 2
	}
	if err := cmd(args[1:], stdout); err != nil {
		fmt.Fprintf(stderr, "%s failed: %v\n", args[0], err)
		return 1
	}
	return 0
}

func cmdBackup(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "webidle-"+ts+".tar.gz")
	}

	sum, err := ops.BackupDataDir(*dataDir, *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s (%d files, %s)\n", *out, sum.Files, humanize.Bytes(uint64(sum.Bytes)))
	return nil
}

func cmdRestore(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	target := fs.String("target-dir", "data-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	sum, err := ops.RestoreDataDir(*archive, *target)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s (%d files, %s)\n", *target, sum.Files, humanize.Bytes(uint64(sum.Bytes)))
	return nil
}

func cmdDrill(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	workDir := fs.String("work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rep, err := ops.Drill(*dataDir, *workDir, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "backup:", rep.Archive)
	fmt.Fprintln(stdout, "restored:", rep.RestoreDir)
	fmt.Fprintln(stdout, "digest:", rep.Digest)
	return nil
}

func cmdSchema(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	out := fs.String("out", "schema", "directory to write JSON schemas into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := ops.WriteSchemas(*out)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

func cmdInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	backend := fs.String("store", config.StoreFile, "store backend: file, bolt or sqlite")
	key := fs.String("key", config.DefaultSaveKey, "save key")
	cfgPath := fs.String("config", "", "config file used to resolve families")
	asJSON := fs.Bool("json", false, "print the reconciled save as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(*backend, *dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	now := time.Now()
	ins, err := ops.Inspect(context.Background(), store, *key, now)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	return ops.WriteInspection(stdout, ins, cat, now)
}

func cmdCurve(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("curve", flag.ContinueOnError)
	family := fs.String("family", "farm", "family id")
	cfgPath := fs.String("config", "", "config file with the economy document")
	difficulty := fs.String("difficulty", "", "override the configured difficulty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *difficulty != "" {
		cfg.Difficulty = *difficulty
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	return ops.WriteLadder(stdout, cat, *family)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  webidle-ops backup  --data-dir data --out backups/backup.tar.gz")
	fmt.Fprintln(w, "  webidle-ops restore --archive backups/backup.tar.gz --target-dir data-restored")
	fmt.Fprintln(w, "  webidle-ops drill   --data-dir data --work-dir /tmp")
	fmt.Fprintln(w, "  webidle-ops schema  --out schema")
	fmt.Fprintln(w, "  webidle-ops inspect --data-dir data --store file --key webidle-save [--json]")
	fmt.Fprintln(w, "  webidle-ops curve   --family farm [--difficulty hard]")
}
