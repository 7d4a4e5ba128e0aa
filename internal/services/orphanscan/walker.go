// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/autobrr/plexorphans/pkg/pathcmp"
)

// ExcludeRule is a compiled exclusion glob.
//
// Patterns containing a slash are matched against the whole slash-separated
// path. Patterns without one are matched against the base name, so "*.nfo"
// excludes every .nfo file at any depth.
type ExcludeRule struct {
	pattern  string
	baseOnly bool
}

// NewExcludeRule validates pattern and returns the rule for it.
func NewExcludeRule(pattern string) (ExcludeRule, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return ExcludeRule{}, errors.New("exclude pattern must not be blank")
	}
	p = filepath.ToSlash(p)
	if !doublestar.ValidatePattern(p) {
		return ExcludeRule{}, fmt.Errorf("invalid exclude pattern %q", pattern)
	}
	return ExcludeRule{pattern: p, baseOnly: !strings.Contains(p, "/")}, nil
}

// NewExcludeRules compiles every pattern, failing on the first invalid one.
func NewExcludeRules(patterns []string) ([]ExcludeRule, error) {
	rules := make([]ExcludeRule, 0, len(patterns))
	for _, p := range patterns {
		rule, err := NewExcludeRule(p)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Match reports whether the rule excludes filePath.
func (r ExcludeRule) Match(filePath string) bool {
	p := pathcmp.ToSlash(filePath)
	if r.baseOnly {
		p = path.Base(p)
	}
	ok, err := doublestar.Match(r.pattern, p)
	return err == nil && ok
}

func (r ExcludeRule) String() string { return r.pattern }

// inodeKey identifies a directory independently of the path used to reach it.
type inodeKey struct {
	dev uint64
	ino uint64
}

// visitKey falls back to the cleaned path when the filesystem has no inodes.
type visitKey struct {
	inode inodeKey
	path  string
}

type symlinkedDir struct {
	path   string
	target fs.FileInfo
}

// Enumerator lists the regular files below a location.
type Enumerator struct {
	fs             afero.Fs
	excludes       []ExcludeRule
	followSymlinks bool
}

// NewEnumerator creates an Enumerator over fsys.
func NewEnumerator(fsys afero.Fs, excludes []ExcludeRule, followSymlinks bool) *Enumerator {
	return &Enumerator{
		fs:             fsys,
		excludes:       excludes,
		followSymlinks: followSymlinks,
	}
}

// Enumerate returns every non-directory entry below root that no exclude
// rule matches. A root that is itself a file yields just that file.
//
// Unreadable subdirectories are skipped with a warning. A missing root
// returns ErrLocationNotFound.
func (e *Enumerator) Enumerate(ctx context.Context, root string) (*FileSet, error) {
	root = filepath.Clean(root)
	files := NewFileSet()

	info, err := e.stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, root)
		}
		return nil, fmt.Errorf("stat location %s: %w", root, err)
	}

	if !info.IsDir() {
		e.add(files, root)
		return files, nil
	}

	visited := make(map[visitKey]struct{})
	e.markVisited(visited, root, info)

	// Symlinked directories wait until the real tree is exhausted, so a
	// directory reachable both ways is reported under its real path.
	var links []symlinkedDir
	stack := []string{root}

	for len(stack) > 0 || len(links) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(stack) == 0 {
			link := links[0]
			links = links[1:]
			if !e.markVisited(visited, e.linkTarget(link.path), link.target) {
				log.Warn().Str("path", link.path).Msg("orphanscan: symlinked directory already visited, skipping")
				continue
			}
			stack = append(stack, link.path)
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := afero.ReadDir(e.fs, dir)
		if err != nil {
			if dir == root {
				return nil, fmt.Errorf("read location %s: %w", root, err)
			}
			if errors.Is(err, fs.ErrPermission) {
				log.Warn().Str("path", dir).Msg("orphanscan: permission denied, skipping directory")
				continue
			}
			log.Warn().Err(err).Str("path", dir).Msg("orphanscan: failed to read directory, skipping")
			continue
		}

		// Push in reverse so directories are popped in name order.
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			entryPath := filepath.Join(dir, entry.Name())

			if entry.Mode()&os.ModeSymlink != 0 {
				target, err := e.fs.Stat(entryPath)
				if err != nil || !target.IsDir() {
					// Broken links and links to files are files in their own right.
					e.add(files, entryPath)
					continue
				}
				if !e.followSymlinks {
					log.Debug().Str("path", entryPath).Msg("orphanscan: not following symlinked directory")
					continue
				}
				links = append(links, symlinkedDir{path: entryPath, target: target})
				continue
			}

			if entry.IsDir() {
				if e.markVisited(visited, entryPath, entry) {
					stack = append(stack, entryPath)
				}
				continue
			}

			e.add(files, entryPath)
		}
	}

	return files, nil
}

func (e *Enumerator) stat(name string) (fs.FileInfo, error) {
	info, err := e.fs.Stat(name)
	if err == nil {
		return info, nil
	}
	// A dangling root symlink is still something to report on.
	if lst, ok := e.fs.(afero.Lstater); ok {
		if linfo, _, lerr := lst.LstatIfPossible(name); lerr == nil {
			return linfo, nil
		}
	}
	return nil, err
}

func (e *Enumerator) add(files *FileSet, filePath string) {
	if rule, ok := e.excludedBy(filePath); ok {
		log.Trace().Str("path", filePath).Stringer("rule", rule).Msg("orphanscan: excluded")
		return
	}
	files.Add(filePath)
}

// excludedBy returns the first rule matching filePath.
func (e *Enumerator) excludedBy(filePath string) (ExcludeRule, bool) {
	for _, rule := range e.excludes {
		if rule.Match(filePath) {
			return rule, true
		}
	}
	return ExcludeRule{}, false
}

// linkTarget resolves one level of symlink for filesystems that cannot
// report inodes. It returns link unchanged when the target is unknown.
func (e *Enumerator) linkTarget(link string) string {
	reader, ok := e.fs.(afero.LinkReader)
	if !ok {
		return link
	}
	target, err := reader.ReadlinkIfPossible(link)
	if err != nil {
		return link
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	return filepath.Clean(target)
}

// markVisited records dir and reports whether it was new.
func (e *Enumerator) markVisited(visited map[visitKey]struct{}, dir string, info fs.FileInfo) bool {
	var key visitKey
	if ino, ok := fileIdentity(info); ok {
		key.inode = ino
	} else {
		key.path = normalizePath(dir)
	}
	if _, seen := visited[key]; seen {
		return false
	}
	visited[key] = struct{}{}
	return true
}
