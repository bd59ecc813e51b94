// Package ops holds offline maintenance for a webidle data directory:
// archives, save inspection, schema export and cost ladders.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrTargetNotEmpty = errors.New("restore target is not empty")

// Summary describes the regular files an archive holds.
type Summary struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// skipEntry reports in-flight temp files and sqlite shared memory.
func skipEntry(name string) bool {
	for _, suffix := range []string{".tmp", ".partial", "-shm"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// BackupDataDir writes srcDir to a gzip tarball. The archive appears at
// archivePath only once it is complete.
func BackupDataDir(srcDir, archivePath string) (Summary, error) {
	if strings.TrimSpace(srcDir) == "" || strings.TrimSpace(archivePath) == "" {
		return Summary{}, fmt.Errorf("srcDir and archivePath are required")
	}
	srcDir = filepath.Clean(strings.TrimSpace(srcDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	info, err := os.Stat(srcDir)
	if err != nil {
		return Summary{}, err
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("source is not a directory: %s", srcDir)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return Summary{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".*.partial")
	if err != nil {
		return Summary{}, err
	}
	defer os.Remove(tmp.Name())

	sum, err := writeArchive(tmp, srcDir)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Summary{}, err
	}
	if err := os.Rename(tmp.Name(), archivePath); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func writeArchive(w io.Writer, srcDir string) (Summary, error) {
	var sum Summary
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == srcDir || d.Type()&os.ModeSymlink != 0 || skipEntry(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		n, err := io.Copy(tw, src)
		if err != nil {
			return err
		}
		sum.Files++
		sum.Bytes += n
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	if err := tw.Close(); err != nil {
		return Summary{}, err
	}
	if err := gz.Close(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// RestoreDataDir unpacks an archive into targetDir, which must be empty or
// absent.
func RestoreDataDir(archivePath, targetDir string) (Summary, error) {
	if strings.TrimSpace(archivePath) == "" || strings.TrimSpace(targetDir) == "" {
		return Summary{}, fmt.Errorf("archivePath and targetDir are required")
	}
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if entries, err := os.ReadDir(targetDir); err == nil && len(entries) > 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrTargetNotEmpty, targetDir)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Summary{}, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Summary{}, err
	}
	defer gz.Close()

	var sum Summary
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}

		rel, err := sanitizeArchiveRelPath(hdr.Name)
		if err != nil {
			return sum, err
		}
		outPath := filepath.Join(targetDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return sum, err
			}
		case tar.TypeReg:
			n, err := restoreFile(outPath, tr, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return sum, err
			}
			sum.Files++
			sum.Bytes += n
		}
	}
	return sum, nil
}

func restoreFile(path string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func sanitizeArchiveRelPath(name string) (string, error) {
	name = filepath.Clean(strings.TrimSpace(name))
	if name == "." || name == "" {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid absolute archive entry path: %s", name)
	}
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return name, nil
}

// DirDigest hashes every archived file under root, by relative path and
// content.
func DirDigest(root string) (string, error) {
	root = filepath.Clean(root)
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type()&os.ModeSymlink != 0 || skipEntry(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, rel := range entries {
		b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\n%d\n", rel, len(b))
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DrillReport is the outcome of a backup and restore rehearsal.
type DrillReport struct {
	Archive    string  `json:"archive"`
	RestoreDir string  `json:"restore_dir"`
	Digest     string  `json:"digest"`
	Summary    Summary `json:"summary"`
}

// Drill backs dataDir up into workDir, restores it next to the archive and
// checks the restored tree hashes the same as the source.
func Drill(dataDir, workDir string, now time.Time) (DrillReport, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return DrillReport{}, err
	}
	ts := now.UTC().Format("20060102T150405Z")
	rep := DrillReport{
		Archive:    filepath.Join(workDir, "webidle-drill-"+ts+".tar.gz"),
		RestoreDir: filepath.Join(workDir, "webidle-drill-restore-"+ts),
	}

	sum, err := BackupDataDir(dataDir, rep.Archive)
	if err != nil {
		return rep, fmt.Errorf("backup: %w", err)
	}
	rep.Summary = sum
	if _, err := RestoreDataDir(rep.Archive, rep.RestoreDir); err != nil {
		return rep, fmt.Errorf("restore: %w", err)
	}

	src, err := DirDigest(dataDir)
	if err != nil {
		return rep, err
	}
	restored, err := DirDigest(rep.RestoreDir)
	if err != nil {
		return rep, err
	}
	if src != restored {
		return rep, fmt.Errorf("digest mismatch after restore: src=%s restored=%s", src, restored)
	}
	rep.Digest = src
	return rep, nil
}
