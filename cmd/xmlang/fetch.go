package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"xmlang/interpreter-go/pkg/driver"
)

func runFetch(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "xmlang fetch does not take arguments (received %s)\n", strings.Join(args, " "))
		return exitUsage
	}
	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to locate %s: %v\n", driver.ManifestName, err)
		return exitFailure
	}
	cacheDir, err := resolveXmlangHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve XMLANG_HOME: %v\n", err)
		return exitFailure
	}

	lock := driver.NewLockfile(manifest.Name, cliToolVersion)
	fetcher := newGitFetcher(cacheDir)
	targets := manifest.GitTargets()
	for _, target := range targets {
		locked, err := fetcher.Fetch(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fetch target %q: %v\n", target.OriginalName, err)
			return exitFailure
		}
		lock.Put(locked)
		fmt.Fprintf(os.Stdout, "fetched %s %s\n", target.OriginalName, shortCommit(locked.Commit))
	}

	if err := driver.WriteLockfile(lock, lockfilePath(manifest)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write lockfile: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(os.Stdout, "Lockfile written to %s (%d git targets)\n", lock.Path, len(targets))
	return exitOK
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &gitFetcher{cacheDir: cacheDir}
}

// Fetch checks out target into $XMLANG_HOME/src/<name>/<version> and
// describes the checkout for the lockfile.
func (g *gitFetcher) Fetch(target *driver.TargetSpec) (*driver.LockedTarget, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(target.Git)
	if url == "" {
		return nil, fmt.Errorf("target %q: git URL required", target.OriginalName)
	}

	baseDir := filepath.Join(g.cacheDir, "src", sanitizePathSegment(target.Name))
	checkoutDir, commit, err := ensureGitCheckout(baseDir, url, target)
	if err != nil {
		return nil, err
	}
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, err
	}
	return &driver.LockedTarget{
		Name:     target.Name,
		Source:   fmt.Sprintf("git+%s", url),
		Commit:   commit,
		Checksum: "sha256:" + checksum,
		Path:     checkoutDir,
	}, nil
}

func ensureGitCheckout(baseDir, url string, target *driver.TargetSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	revision := plumbing.Revision(target.Revision())
	if revision == "" {
		revision = plumbing.Revision(plumbing.HEAD)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(target.PinnedVersion(), hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return targetDir, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return targetDir, hash.String(), nil
}

// gitPinnedVersion names a checkout after its descriptor and commit, so a
// moved branch or tag gets a fresh directory.
func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, shortCommit(commit))
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// dirChecksum hashes every file outside .git in path order.
func dirChecksum(root string) (string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	h := sha256.New()
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return "", err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
