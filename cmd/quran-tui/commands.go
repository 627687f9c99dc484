package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"quran-tui/internal/api"
	"quran-tui/internal/cache"
	"quran-tui/internal/search"
)

var (
	listJSON      bool
	readVerse     int
	readNoLatin   bool
	searchLimit   int
	downloadForce bool
	downloadClear bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all surah",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		client, err := newClient(false)
		if err != nil {
			return err
		}
		chapters, err := client.ListChapters(ctx)
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(chapters)
		}
		return printChapters(cmd.OutOrStdout(), chapters)
	},
}

var readCmd = &cobra.Command{
	Use:   "read <surah>",
	Short: "Print the verses of a surah",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := chapterArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd)
		defer cancel()

		client, err := newClient(cfg.Cache.Offline)
		if err != nil {
			return err
		}
		detail, err := client.GetChapter(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d. %s (%s) - %s, %s, %d ayat\n\n",
			detail.Number, detail.NameLatin, detail.Name, detail.Meaning, detail.Revelation, detail.VerseCount)

		verses := detail.Verses
		if readVerse > 0 {
			v, ok := detail.Verse(readVerse)
			if !ok {
				return fmt.Errorf("surah %d has no verse %d", id, readVerse)
			}
			verses = []api.Verse{v}
		}
		for _, v := range verses {
			fmt.Fprintf(out, "[%d] %s\n", v.Number, v.Arabic)
			if !readNoLatin {
				fmt.Fprintf(out, "    %s\n", v.Latin)
			}
			fmt.Fprintf(out, "    %s\n\n", v.Translation)
		}
		return nil
	},
}

var tafsirCmd = &cobra.Command{
	Use:   "tafsir <surah> [verse]",
	Short: "Print the tafsir of a verse, or of every verse in a surah",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := chapterArg(args[0])
		if err != nil {
			return err
		}
		verse := 0
		if len(args) == 2 {
			if verse, err = strconv.Atoi(args[1]); err != nil || verse < 1 {
				return fmt.Errorf("invalid verse %q", args[1])
			}
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		client, err := newClient(false)
		if err != nil {
			return err
		}
		t, err := client.GetTafsir(ctx, id)
		if err != nil {
			return err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# Tafsir %s\n\n", t.NameLatin)
		if verse > 0 {
			text, ok := t.ForVerse(verse)
			if !ok {
				return fmt.Errorf("no tafsir for surah %d verse %d", id, verse)
			}
			fmt.Fprintf(&sb, "## Ayat %d\n\n%s\n", verse, text)
		} else {
			for n := 1; n <= t.VerseCount; n++ {
				if text, ok := t.ForVerse(n); ok {
					fmt.Fprintf(&sb, "## Ayat %d\n\n%s\n\n", n, text)
				}
			}
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return err
		}
		rendered, err := renderer.Render(sb.String())
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), rendered)
		return err
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find surah by name, meaning or number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		client, err := newClient(false)
		if err != nil {
			return err
		}
		limit := cfg.Search.Limit
		if searchLimit > 0 {
			limit = searchLimit
		}
		ctrl := search.NewController(cache.NewChapterList(client), search.Options{
			MinLength: cfg.Search.MinLength,
			Limit:     limit,
		}, log)
		defer ctrl.Close()

		st := ctrl.Search(ctx, strings.Join(args, " "))
		switch st.Status {
		case search.StatusError:
			return st.Err
		case search.StatusIdle:
			return fmt.Errorf("query must be at least %d characters", ctrl.MinLength())
		}
		if len(st.Results) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no surah matches %q\n", strings.TrimSpace(st.Query))
			return nil
		}
		return printChapters(cmd.OutOrStdout(), st.Results)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [surah...]",
	Short: "Store surah in the offline cache (all by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewCache(cfg.Cache.Dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if downloadClear {
			if err := store.ClearCache(); err != nil {
				return err
			}
			fmt.Fprintf(out, "cleared %s\n", store.Dir())
			return nil
		}

		ids, err := chapterArgs(args)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd)
		defer cancel()

		// Always fetch from the API, the cache is what is being filled.
		client, err := newClient(false)
		if err != nil {
			return err
		}
		err = store.Download(ctx, client, ids, cache.DownloadOptions{
			Concurrency:   cfg.Download.Concurrency,
			RatePerSecond: cfg.Download.RPS,
			Force:         downloadForce,
			Progress:      out,
			Logger:        log,
		})
		if err != nil {
			return err
		}

		cached, err := store.ListCached()
		if err != nil {
			return err
		}
		size, err := store.GetCacheSize()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d surah cached in %s (%.1f MiB)\n", len(cached), store.Dir(), float64(size)/(1<<20))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [surah...]",
	Short: "Check that every surah has contiguous verses matching its advertised count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := chapterArgs(args)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd)
		defer cancel()

		client, err := newClient(cfg.Cache.Offline)
		if err != nil {
			return err
		}
		chapters, err := client.ListChapters(ctx)
		if err != nil {
			return err
		}
		advertised := make(map[int]int, len(chapters))
		for _, c := range chapters {
			advertised[c.Number] = c.VerseCount
		}

		failures := verifyChapters(ctx, client, ids, advertised)
		out := cmd.OutOrStdout()
		for _, err := range failures {
			fmt.Fprintln(out, "FAIL", err)
		}
		fmt.Fprintf(out, "%d/%d surah ok\n", len(ids)-len(failures), len(ids))
		if len(failures) > 0 {
			return fmt.Errorf("%d surah failed verification", len(failures))
		}
		return nil
	},
}

// verifyChapters fetches every chapter, bounded and rate limited, and returns
// the failures in chapter order. Unlike download it keeps going after a
// failure so the report is complete.
func verifyChapters(ctx context.Context, fetcher cache.ChapterFetcher, ids []int, advertised map[int]int) []error {
	limiter := rate.NewLimiter(rate.Limit(cfg.Download.RPS), 1)

	var g errgroup.Group
	g.SetLimit(cfg.Download.Concurrency)

	results := make([]error, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			results[i] = verifyChapter(ctx, limiter, fetcher, id, advertised[id])
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, err := range results {
		if err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func verifyChapter(ctx context.Context, limiter *rate.Limiter, fetcher cache.ChapterFetcher, id, advertised int) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("chapter %d: %w", id, err)
	}
	detail, err := fetcher.GetChapter(ctx, id)
	if err != nil {
		return err
	}
	if err := api.ValidateDetail(detail); err != nil {
		return err
	}
	if advertised != 0 && advertised != len(detail.Verses) {
		return fmt.Errorf("%w: chapter %d: list advertises %d verses, detail has %d",
			api.ErrInvalidDetail, id, advertised, len(detail.Verses))
	}
	log.Debug("chapter verified", zap.Int("chapter", id), zap.Int("verses", len(detail.Verses)))
	return nil
}

func chapterArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 || id > api.ChapterCount {
		return 0, fmt.Errorf("invalid surah %q: want a number from 1 to %d", s, api.ChapterCount)
	}
	return id, nil
}

// chapterArgs parses surah numbers, defaulting to all of them.
func chapterArgs(args []string) ([]int, error) {
	if len(args) == 0 {
		ids := make([]int, api.ChapterCount)
		for i := range ids {
			ids[i] = i + 1
		}
		return ids, nil
	}
	ids := make([]int, 0, len(args))
	var errs []error
	for _, a := range args {
		id, err := chapterArg(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

func printChapters(w io.Writer, chapters []api.Chapter) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tNAME\tARABIC\tMEANING\tAYAT\tREVEALED")
	for _, c := range chapters {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", c.Number, c.NameLatin, c.Name, c.Meaning, c.VerseCount, c.Revelation)
	}
	return tw.Flush()
}
