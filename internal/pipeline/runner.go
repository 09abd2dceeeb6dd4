package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/display"
	"github.com/backmassage/renamebot/internal/logging"
	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/transfer"
)

// Run is the top-level batch entry point. It discovers files, renames each
// one sequentially into OutputDir, and returns aggregate stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (RunStats, error) {
	var stats RunStats

	r, err := newRunner(cfg, log)
	if err != nil {
		return stats, err
	}

	files, err := Discover(cfg.InputDir)
	if err != nil {
		return stats, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.Total = len(files)
	logBatchHeader(cfg, log, &stats)

	for i, path := range files {
		stats.Current = i + 1
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(path))
		r.process(ctx, path, &stats)
	}

	logSummary(cfg, log, &stats)
	return stats, nil
}

// runner holds what batch and watch modes share across files.
type runner struct {
	cfg      *config.Config
	log      *logging.Logger
	settings rename.Settings
	renamer  *rename.Renamer
	archiver *transfer.Archiver // nil unless S3 is enabled
	planned  map[string]bool    // dry-run targets already handed out
}

func newRunner(cfg *config.Config, log *logging.Logger) (*runner, error) {
	r := &runner{
		cfg: cfg,
		log: log,
		settings: rename.Settings{
			Mode:     cfg.RenameMode,
			Template: cfg.Template,
			Rules:    cfg.ReplaceRules,
		},
		planned: make(map[string]bool),
	}
	if cfg.DryRun {
		return r, nil
	}

	store, err := transfer.NewLocalStore(cfg.TempDir, transfer.FileFetcher{})
	if err != nil {
		return nil, err
	}
	r.renamer = rename.NewRenamer(store, nil, log, cfg.Verbose)

	if cfg.S3.Enabled {
		a, err := transfer.NewArchiver(cfg.S3.Options())
		if err != nil {
			return nil, err
		}
		r.archiver = a
	}
	return r, nil
}

// process renames one input file: validate → name → copy → archive.
func (r *runner) process(ctx context.Context, path string, stats *RunStats) {
	fi, err := os.Stat(path)
	if err != nil {
		r.log.Error("File not found: %s", path)
		stats.Failed++
		return
	}
	if fi.Size() > r.cfg.MaxFileSize {
		r.log.Warn("Skip (too large, %s > %s): %s",
			display.FormatBytes(fi.Size()), display.FormatBytes(r.cfg.MaxFileSize), filepath.Base(path))
		stats.Skipped++
		return
	}

	file := rename.FileDescriptor{
		Name:   filepath.Base(path),
		Size:   fi.Size(),
		Source: path,
	}
	destDir := r.destDir(path)

	if r.cfg.DryRun {
		name := r.planName(destDir, rename.GenerateName(file, "", r.settings))
		r.log.Success("[DRY] %s -> %s", file.Name, filepath.Join(r.relOut(destDir), name))
		stats.Renamed++
		stats.countKind(KindOf(path))
		return
	}

	res := r.renamer.Rename(ctx, destDir, file, "", r.settings)
	if !res.Success {
		r.log.Error("%s: %s", file.Name, res.ErrorText())
		stats.Failed++
		return
	}
	r.log.Success("-> %s", filepath.Join(r.relOut(destDir), res.Filename))
	stats.Renamed++
	stats.TotalBytes += fi.Size()
	stats.countKind(KindOf(path))

	if r.archiver != nil {
		key, err := r.archiver.Archive(ctx, 0, res.OutputPath, res.Filename)
		if err != nil {
			r.log.Warn("Archive failed: %v", err)
			return
		}
		r.log.Debug(r.cfg.Verbose, "Archived as %s", key)
		stats.Archived++
	}
}

// destDir mirrors path's directory, relative to InputDir, under OutputDir.
func (r *runner) destDir(path string) string {
	rel, err := filepath.Rel(r.cfg.InputDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return r.cfg.OutputDir
	}
	return filepath.Join(r.cfg.OutputDir, rel)
}

func (r *runner) relOut(dir string) string {
	rel, err := filepath.Rel(r.cfg.OutputDir, dir)
	if err != nil {
		return dir
	}
	return rel
}

// planName resolves collisions for a dry run, counting names already
// planned in this run as taken.
func (r *runner) planName(dir, name string) string {
	taken := func(c string) bool {
		return r.planned[filepath.Join(dir, c)] || naming.UniqueName(dir, c) != c
	}
	candidate := name
	for n := 1; taken(candidate); n++ {
		candidate = naming.CounterName(name, n)
	}
	r.planned[filepath.Join(dir, candidate)] = true
	return candidate
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Found %d files", stats.Total)
	log.Info("Rename mode: %s", cfg.RenameMode.Title())
	if cfg.RenameMode == rename.ModeAutorename {
		log.Info("Template: %s", cfg.Template)
	}
	if len(cfg.ReplaceRules) > 0 {
		log.Info("Replace rules: %d (applied in order)", len(cfg.ReplaceRules))
	}
	if cfg.S3.Enabled && !cfg.DryRun {
		log.Info("Archive: s3://%s at %s", cfg.S3.Bucket, cfg.S3.Endpoint)
	}
	if cfg.DryRun {
		log.Info("Dry run: nothing will be written")
	}
	fmt.Println()
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d renamed, %d skipped, %d failed", stats.Renamed, stats.Skipped, stats.Failed)
	for _, k := range []Kind{KindVideo, KindAudio, KindDocument, KindImage} {
		if n := stats.ByKind[k]; n > 0 {
			log.Info("  %s: %d", k, n)
		}
	}
	if cfg.DryRun {
		return
	}
	log.Info("  Total copied: %s", display.FormatBytes(stats.TotalBytes))
	if stats.Archived > 0 {
		log.Info("  Archived: %d", stats.Archived)
	}
}
