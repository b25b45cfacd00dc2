// Package scanner enumerates candidate files under a root path: recursive,
// lexicographic, ignore-pattern aware, and symlink-cycle-safe.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/localkb/engine/chunk"
)

// FileDescriptor is one enumerated candidate file.
type FileDescriptor struct {
	AbsPath      string
	RelPath      string
	Size         int64
	DetectedType string
	IsTest       bool
}

// Options configures a scan.
type Options struct {
	Root                 string
	IgnoreFiles          []string          // paths to .gitignore-style files, merged
	ExtraIgnorePatterns  []string          // patterns supplied directly, merged after IgnoreFiles
	MaxFileBytes         int64
	RecognizedExtensions map[string]string // ".md" -> "markdown", etc; nil means convert.textExtensions ∪ convert.binaryExtensions
	FollowSymlinks       bool
	Logger               *slog.Logger
}

var defaultExtensions = map[string]string{
	".md": "markdown", ".txt": "text", ".html": "html", ".htm": "html",
	".pdf": "pdf", ".docx": "docx", ".pptx": "pptx", ".xlsx": "xlsx",
	".mp3": "audio", ".wav": "audio", ".m4a": "audio",
}

// Scan walks opts.Root depth-first, lexicographic within each directory,
// returning every file that passes the size cap, ignore patterns, and
// extension allowlist. Oversize and ignored files are logged at warning
// level and excluded, not returned as errors.
func Scan(opts Options) ([]FileDescriptor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extensions := opts.RecognizedExtensions
	if extensions == nil {
		extensions = defaultExtensions
	}

	matcher := buildMatcher(opts)
	visited := map[string]bool{}

	var out []FileDescriptor
	err := walk(opts.Root, opts.Root, matcher, extensions, opts, visited, logger, &out)
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func buildMatcher(opts Options) *gitignore.GitIgnore {
	var lines []string
	for _, f := range opts.IgnoreFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, opts.ExtraIgnorePatterns...)
	if len(lines) == 0 {
		return nil
	}
	return gitignore.CompileIgnoreLines(lines...)
}

func walk(root, dir string, matcher *gitignore.GitIgnore, extensions map[string]string, opts Options, visited map[string]bool, logger *slog.Logger, out *[]FileDescriptor) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		abs := filepath.Join(dir, entry.Name())
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			rel = abs
		}

		if matcher != nil && matcher.MatchesPath(rel) {
			logger.Warn("scanner: path matches ignore pattern, skipping", "path", abs)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("scanner: stat failed", "path", abs, "error", err)
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				continue
			}
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				logger.Warn("scanner: unresolvable symlink", "path", abs, "error", err)
				continue
			}
			if visited[resolved] {
				continue
			}
			visited[resolved] = true
			fi, err := os.Stat(resolved)
			if err != nil {
				continue
			}
			if fi.IsDir() {
				if err := walk(root, resolved, matcher, extensions, opts, visited, logger, out); err != nil {
					return err
				}
				continue
			}
			info = fi
			abs = resolved
		}

		if info.IsDir() {
			if err := walk(root, abs, matcher, extensions, opts, visited, logger, out); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		detected, recognized := extensions[ext]
		if !recognized {
			continue
		}

		if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
			logger.Warn("scanner: file exceeds size cap, skipping", "path", abs, "size", info.Size(), "cap", opts.MaxFileBytes)
			continue
		}

		*out = append(*out, FileDescriptor{
			AbsPath:      abs,
			RelPath:      filepath.ToSlash(rel),
			Size:         info.Size(),
			DetectedType: detected,
			IsTest:       chunk.IsTestPath(rel),
		})
	}
	return nil
}
