// Command hifiecx drives the extraction pipeline over one or more
// HIFIEC*.IMG firmware images, writing recovered glyph and resource BMPs to
// an output directory tree. It is a thin wrapper over the internal
// locator/decoder/writer packages; all real logic lives there.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/shlex"

	"hifiecx/internal/extract"
	"hifiecx/internal/firmware"
	"hifiecx/internal/fontlocate"
	"hifiecx/internal/restable"
)

func main() {
	out := flag.String("out", "out", "output directory root")
	version := flag.String("version", "v1", "firmware version label, used as the resource output subdirectory")
	configPath := flag.String("config", "", "optional TOML file overriding the font-locator heuristic constants")
	rangesFlag := flag.String("ranges", "", "shell-quoted list of name:start_hex:end_hex ranges; empty means the built-in catalogue")
	timeout := flag.Duration("timeout", 300*time.Second, "per-firmware wall-clock timeout")
	watch := flag.Bool("watch", false, "watch the input path's directory and re-run on changes")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <firmware.img> [more.img ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := fontlocate.DefaultConfig()
	if *configPath != "" {
		loaded, err := fontlocate.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hifiecx: loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ranges, err := parseRanges(*rangesFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hifiecx: --ranges: %v\n", err)
		os.Exit(1)
	}

	run := func() {
		for _, path := range flag.Args() {
			if err := processOne(path, *out, *version, cfg, ranges, *timeout); err != nil {
				fmt.Fprintf(os.Stderr, "hifiecx: %s: %v\n", path, err)
			}
		}
	}

	run()

	if *watch {
		if err := watchAndRerun(flag.Args(), run); err != nil {
			fmt.Fprintf(os.Stderr, "hifiecx: watch: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseRanges tokenizes spec's Range syntax consumed from the --ranges
// flag (one name:start_hex:end_hex triplet per shell-style token), via
// shlex so a single flag value can carry quoted, space-separated entries.
// An empty flag falls back to the built-in catalogue.
func parseRanges(flagValue string) ([]extract.Range, error) {
	if strings.TrimSpace(flagValue) == "" {
		return extract.DefaultRanges(), nil
	}

	tokens, err := shlex.Split(flagValue)
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}

	ranges := make([]extract.Range, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.SplitN(tok, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed range %q, want name:start_hex:end_hex", tok)
		}
		start, err := strconv.ParseInt(strings.TrimPrefix(parts[1], "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("range %q: bad start: %w", tok, err)
		}
		end, err := strconv.ParseInt(strings.TrimPrefix(parts[2], "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("range %q: bad end: %w", tok, err)
		}
		ranges = append(ranges, extract.Range{Name: parts[0], Start: rune(start), End: rune(end)})
	}
	return ranges, nil
}

// processOne runs the full pipeline over a single firmware file under a
// wall-clock timeout (spec.md §5): font-table location, glyph extraction,
// resource-table location, resource extraction. A locator failure aborts
// the pass for this firmware only; per-item failures inside extraction are
// tallied by extract.Summary and never abort the pass.
func processOne(path, outDir, version string, cfg fontlocate.Config, ranges []extract.Range, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading firmware: %w", err)
	}
	img := firmware.New(raw)

	var glyphSummary, resourceSummary extract.Summary

	done := make(chan error, 1)
	go func() {
		addrs, err := fontlocate.Locate(img, cfg)
		if err != nil {
			done <- fmt.Errorf("font-table locator: %w", err)
			return
		}
		glyphSummary, err = extract.ExtractGlyphs(img, addrs, ranges, filepath.Join(outDir, version))
		if err != nil {
			done <- fmt.Errorf("glyph extraction: %w", err)
			return
		}

		tables, err := restable.Locate(img)
		if err != nil {
			done <- fmt.Errorf("resource-table locator: %w", err)
			return
		}
		resourceSummary, err = extract.ExtractResources(tables, version, outDir)
		if err != nil {
			done <- fmt.Errorf("resource extraction: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timed out after %s", timeout)
	case err := <-done:
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s: glyphs extracted=%d skipped=%d failed=%d; resources extracted=%d skipped=%d failed=%d\n",
		filepath.Base(path),
		glyphSummary.Extracted, glyphSummary.Skipped, glyphSummary.Failed,
		resourceSummary.Extracted, resourceSummary.Skipped, resourceSummary.Failed)
	return nil
}

// watchAndRerun re-invokes run whenever any watched firmware's containing
// directory reports a write or create event, for iterating on a firmware
// dump without re-launching the tool each time.
func watchAndRerun(paths []string, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	seen := map[string]bool{}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		seen[dir] = true
	}

	fmt.Println("hifiecx: watching for changes, press Ctrl+C to stop")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fmt.Printf("hifiecx: detected change in %s, re-running\n", event.Name)
				run()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "hifiecx: watch error: %v\n", err)
		}
	}
}
