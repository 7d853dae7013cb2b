// Package fetch resolves remote skill and template sources to local
// directories. Remote repositories are cloned through the GitHub CLI
// into a local cache keyed by source coordinate; local paths pass
// through untouched. Retry policy for network failures lives here, not
// in the compilation core.
package fetch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/stackgen/stackgen/pkg/logger"
)

const stackgenDir = ".stackgen"

// ValidateSourceName validates a remote source coordinate.
// Expected format: "owner/repo".
func ValidateSourceName(source string) error {
	if source == "" {
		return errors.New("source cannot be empty")
	}
	if !strings.Contains(source, "/") {
		return errors.Errorf("invalid source format %q: expected 'owner/repo'", source)
	}
	parts := strings.SplitN(source, "/", 2)
	if parts[0] == "" || parts[1] == "" {
		return errors.Errorf("invalid source format %q: owner and repo cannot be empty", source)
	}
	return nil
}

// sourceToCacheName converts "owner/repo" to the "owner@repo" cache
// directory name, avoiding nested directories in the cache
func sourceToCacheName(source, ref string) string {
	name := strings.Replace(source, "/", "@", 1)
	if ref != "" {
		name += "@" + ref
	}
	return name
}

// Fetcher resolves sources with a local disk cache
type Fetcher struct {
	cacheDir string
	refresh  bool
	run      runFunc
}

// runFunc executes an external command; swappable for testing
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), string(output))
	}
	return nil
}

// Option configures a Fetcher
type Option func(*Fetcher) error

// WithCacheDir sets a custom cache directory (for testing)
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) error {
		f.cacheDir = dir
		return nil
	}
}

// WithRefresh forces re-fetching even when a cached copy exists
func WithRefresh(refresh bool) Option {
	return func(f *Fetcher) error {
		f.refresh = refresh
		return nil
	}
}

// NewFetcher creates a fetcher caching under ~/.stackgen/cache by
// default
func NewFetcher(opts ...Option) (*Fetcher, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}

	f := &Fetcher{
		cacheDir: filepath.Join(homeDir, stackgenDir, "cache"),
		run:      runCommand,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Fetch resolves a source to a local directory. Local paths are
// returned as-is; remote "owner/repo" coordinates are cloned into the
// cache, optionally pinned to ref.
func (f *Fetcher) Fetch(ctx context.Context, source, ref string) (string, error) {
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return source, nil
	}

	if err := ValidateSourceName(source); err != nil {
		return "", err
	}

	cachePath := filepath.Join(f.cacheDir, sourceToCacheName(source, ref))
	if _, err := os.Stat(cachePath); err == nil {
		if !f.refresh {
			logger.G(ctx).WithField("source", source).Debug("using cached source")
			return cachePath, nil
		}
		if err := os.RemoveAll(cachePath); err != nil {
			return "", errors.Wrap(err, "failed to clear cached source")
		}
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create cache directory")
	}

	if err := f.clone(ctx, source, ref, cachePath); err != nil {
		os.RemoveAll(cachePath)
		return "", err
	}

	return cachePath, nil
}

// clone fetches the repository through the gh CLI with retries on
// transient failures
func (f *Fetcher) clone(ctx context.Context, source, ref, dest string) error {
	return retry.Do(
		func() error {
			if err := f.cloneAttempt(ctx, source, ref, dest); err != nil {
				os.RemoveAll(dest)
				return errors.Wrapf(err, "failed to clone %s", source)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("clone failed, retrying")
		}),
	)
}

// cloneAttempt clones shallowly when possible. git's --branch accepts
// branch and tag names only, so a ref that fails the shallow clone is
// treated as a commit pin: full clone, then a detached checkout of the
// exact revision.
func (f *Fetcher) cloneAttempt(ctx context.Context, source, ref, dest string) error {
	if ref == "" {
		return f.run(ctx, "gh", "repo", "clone", source, dest, "--", "--depth", "1")
	}

	if err := f.run(ctx, "gh", "repo", "clone", source, dest, "--", "--branch", ref, "--depth", "1"); err == nil {
		return nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return errors.Wrap(err, "failed to clear partial clone")
	}

	if err := f.run(ctx, "gh", "repo", "clone", source, dest); err != nil {
		return err
	}
	return f.run(ctx, "git", "-C", dest, "checkout", "--detach", ref)
}
