// Package scaffold creates a quartet project: a quartet.yml and, optionally,
// editable copies of the content tables.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/quartet/internal/config"
	"github.com/dyluth/quartet/internal/content"
)

// ContentDir is the directory init writes table copies into.
const ContentDir = "content"

// Options controls Initialize.
type Options struct {
	// Force removes an existing quartet.yml and content/ directory first.
	Force bool
	// WithContent exports the embedded tables into content/ and points
	// quartet.yml at them.
	WithContent bool
	// Seed is written into quartet.yml when non-zero.
	Seed int64
}

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the project structure in dir and returns the files it
// wrote, relative to dir.
func Initialize(dir string, opts Options, w io.Writer) ([]string, error) {
	if opts.Force {
		if err := handleForce(dir, w); err != nil {
			return nil, err
		}
	} else if err := CheckExisting(dir); err != nil {
		return nil, err
	}

	files, err := getProjectFiles(opts)
	if err != nil {
		return nil, err
	}

	if opts.WithContent {
		if err := os.MkdirAll(filepath.Join(dir, ContentDir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", ContentDir, err)
		}
	}

	if err := writeFiles(dir, files); err != nil {
		return nil, err
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		written = append(written, f.Path)
	}
	return written, nil
}

// handleForce removes existing files if --force was specified
func handleForce(dir string, w io.Writer) error {
	configPath := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(w, "⚠️  Removing existing %s...\n", config.DefaultPath)
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultPath, err)
		}
	}

	contentPath := filepath.Join(dir, ContentDir)
	if info, err := os.Stat(contentPath); err == nil && info.IsDir() {
		fmt.Fprintf(w, "⚠️  Removing existing %s/ directory...\n", ContentDir)
		if err := os.RemoveAll(contentPath); err != nil {
			return fmt.Errorf("failed to remove %s/ directory: %w", ContentDir, err)
		}
	}

	return nil
}

// getProjectFiles renders quartet.yml and, when asked, the table copies.
func getProjectFiles(opts Options) ([]FileInfo, error) {
	cfg := config.Default()
	cfg.Seed = opts.Seed
	if opts.WithContent {
		cfg.Content.Dir = ContentDir
	}
	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}

	files := []FileInfo{{
		Path:        config.DefaultPath,
		Content:     append([]byte("# quartet configuration\n"), data...),
		Permissions: 0644,
	}}

	if !opts.WithContent {
		return files, nil
	}
	for _, name := range content.Tables() {
		table, err := content.DefaultTable(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s table: %w", name, err)
		}
		files = append(files, FileInfo{
			Path:        filepath.Join(ContentDir, name),
			Content:     table,
			Permissions: 0644,
		})
	}
	return files, nil
}

// writeFiles writes all project files under dir
func writeFiles(dir string, files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file.Path), file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return nil
}

// validateCreatedFiles loads the written quartet.yml back through the
// config loader.
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultPath)); err != nil {
		return fmt.Errorf("created %s is not valid: %w", config.DefaultPath, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer, files []string) {
	fmt.Fprintln(w, "\n✅ Successfully initialized quartet project!")
	fmt.Fprintln(w, "\nCreated:")
	for _, f := range files {
		fmt.Fprintf(w, "  ✓ %s\n", f)
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Tune weights and probabilities in %s\n", config.DefaultPath)
	fmt.Fprintln(w, "  2. Run 'quartet generate' to produce a cycle")
	fmt.Fprintln(w, "  3. Set history.redis_url to archive cycles and use 'quartet history'")
}
