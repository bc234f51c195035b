// ABOUTME: Shared command helpers
// ABOUTME: Opens recordings, the Alyx client and the chunk cache from flags and config
package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/chunkcache"
	"github.com/Resonate-Protocol/rawview/internal/config"
	"github.com/Resonate-Protocol/rawview/internal/kv"
	"github.com/Resonate-Protocol/rawview/internal/one"
	"github.com/Resonate-Protocol/rawview/pkg/ephys"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// PasswordEnv holds the Alyx password when no token is configured
const PasswordEnv = "RAWVIEW_ALYX_PASSWORD"

// recordingFlags selects a recording and its format
type recordingFlags struct {
	file      string
	session   string
	probe     int
	synthetic float64

	nChannels  int
	sampleRate float64
	dtype      string
	bufferSize int
	offset     int64
	colormap   string
	noCache    bool
}

func (f *recordingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "local flat binary recording")
	cmd.Flags().StringVar(&f.session, "session", "", "Alyx session id (UUID)")
	cmd.Flags().IntVar(&f.probe, "probe", 0, "probe index within the session")
	cmd.Flags().Float64Var(&f.synthetic, "synthetic", 0, "generate a synthetic recording of this many seconds")
	cmd.Flags().IntVar(&f.nChannels, "n-channels", 0, "number of channels (default from config)")
	cmd.Flags().Float64Var(&f.sampleRate, "sample-rate", 0, "sample rate in Hz (default from config)")
	cmd.Flags().StringVar(&f.dtype, "dtype", "", "sample type: int16, int32 (default from config)")
	cmd.Flags().IntVar(&f.bufferSize, "buffer-size", 0, "window length in samples (default from config)")
	cmd.Flags().Int64Var(&f.offset, "offset", 0, "header bytes to skip in --file")
	cmd.Flags().StringVar(&f.colormap, "colormap", "", "colormap for the heatmap (gray when empty)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not cache remote chunks on disk")
}

// format merges flags over the configured viewer section
func (f *recordingFlags) format(cfg config.Viewer) (ephys.Format, error) {
	if f.nChannels > 0 {
		cfg.NChannels = f.nChannels
	}
	if f.sampleRate > 0 {
		cfg.SampleRate = f.sampleRate
	}
	if f.dtype != "" {
		cfg.DType = f.dtype
	}
	return cfg.Format()
}

func (f *recordingFlags) buffer(cfg config.Viewer) int {
	if f.bufferSize > 0 {
		return f.bufferSize
	}
	return cfg.Buffer()
}

// recording is an opened source plus the resources behind it
type recording struct {
	src   source.Source
	title string
	store kv.Store
	cache *chunkcache.Fetcher
}

func (r *recording) Close() error {
	if r.cache != nil {
		if s, err := r.cache.Stats(context.Background()); err == nil {
			log.Printf("Chunk cache: %d hits, %d misses, %d entries (%s)", s.Hits, s.Misses, s.Entries, formatBytes(s.Bytes))
		}
	}
	err := r.src.Close()
	if r.store != nil {
		if cerr := r.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// open opens exactly one of --file, --session or --synthetic
func (f *recordingFlags) open(ctx context.Context, cfg *config.Config) (*recording, error) {
	selected := 0
	for _, set := range []bool{f.file != "", f.session != "", f.synthetic > 0} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return nil, fmt.Errorf("exactly one of --file, --session or --synthetic is required")
	}

	switch {
	case f.file != "":
		format, err := f.format(cfg.Viewer)
		if err != nil {
			return nil, err
		}
		src, err := source.OpenFile(f.file, format, f.offset)
		if err != nil {
			return nil, fmt.Errorf("failed to open recording: %w", err)
		}
		return &recording{src: src, title: f.file}, nil

	case f.synthetic > 0:
		format, err := f.format(cfg.Viewer)
		if err != nil {
			return nil, err
		}
		src, err := source.NewSynthetic(format, format.SampleAt(f.synthetic))
		if err != nil {
			return nil, err
		}
		return &recording{src: src, title: fmt.Sprintf("synthetic %.1fs", f.synthetic)}, nil
	}

	return f.openRemote(ctx, cfg)
}

func (f *recordingFlags) openRemote(ctx context.Context, cfg *config.Config) (*recording, error) {
	client, err := alyxClient(ctx, cfg.Alyx)
	if err != nil {
		return nil, err
	}
	urls, err := client.ResolveProbe(ctx, f.session, f.probe)
	if err != nil {
		return nil, err
	}

	dl := one.NewDownloader(one.DownloaderOptions{
		Username: cfg.Alyx.HTTPUser,
		Password: cfg.Alyx.HTTPPassword,
	})
	meta, err := dl.Meta(ctx, urls.Ch)
	if err != nil {
		return nil, err
	}
	format, err := meta.Format()
	if err != nil {
		return nil, err
	}

	rec := &recording{title: fmt.Sprintf("%s probe %02d", f.session, f.probe)}
	var fetcher source.Fetcher = dl
	if !f.noCache && !cfg.Cache.Disabled {
		store, err := openCacheStore(cfg.Cache)
		if err != nil {
			log.Printf("Chunk cache disabled: %v", err)
		} else {
			rec.store = store
			rec.cache = chunkcache.New(dl, store)
			fetcher = rec.cache
		}
	}

	src, err := source.NewRemote(format, urls, fetcher)
	if err != nil {
		if rec.store != nil {
			_ = rec.store.Close()
		}
		return nil, err
	}
	rec.src = src
	return rec, nil
}

// alyxClient returns a client holding a token, authenticating with the
// password from the environment when none is configured
func alyxClient(ctx context.Context, cfg config.Alyx) (*one.Client, error) {
	client := one.NewClient(cfg.BaseURL, cfg.Token)
	if cfg.Token != "" || cfg.Username == "" {
		return client, nil
	}

	password := os.Getenv(PasswordEnv)
	if password == "" {
		return nil, fmt.Errorf("no Alyx token configured, set alyx.token or %s", PasswordEnv)
	}
	if err := client.Authenticate(ctx, cfg.Username, password); err != nil {
		return nil, err
	}
	return client, nil
}

// openCacheStore opens the on-disk chunk cache
func openCacheStore(c config.Cache) (kv.Store, error) {
	paths, err := config.NewPaths()
	if err != nil {
		return nil, err
	}
	dir := paths.CacheDirFor(c)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return kv.NewBadger(kv.BadgerOptions{Dir: dir})
}

// formatBytes formats bytes to human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
