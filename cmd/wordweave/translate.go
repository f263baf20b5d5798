package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/LJTian/WordWeave/internal/collector"
	"github.com/LJTian/WordWeave/internal/config"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/session"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	file        string
	out         string
	source      string
	target      string
	service     string
	probability int
	ngramMin    int
	ngramMax    int
	oneWord     bool
	udOnly      bool
	dictionary  string
	render      bool
	useStore    bool
	wordsOnly   bool
	timeout     time.Duration
}

func newTranslateCmd(root *rootOptions) *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [url]",
		Short: "Rewrite a page with translated vocabulary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" && opts.file == "" {
				_ = cmd.Usage()
				return errors.New("a url or --file is required")
			}
			return runTranslate(cmd, url, opts, root)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Read HTML from a local file instead of fetching")
	f.StringVarP(&opts.out, "out", "o", "", "Write the rewritten HTML here (default stdout)")
	f.StringVar(&opts.source, "source", "en", "Source language")
	f.StringVar(&opts.target, "target", "fr", "Target language")
	f.StringVar(&opts.service, "provider", "Free", "Translator service (Free, Google, MyMemory, Gemini)")
	f.IntVarP(&opts.probability, "probability", "p", 15, "Share of distinct words to translate, in percent")
	f.IntVar(&opts.ngramMin, "ngram-min", 1, "Shortest n-gram")
	f.IntVar(&opts.ngramMax, "ngram-max", 1, "Longest n-gram")
	f.BoolVar(&opts.oneWord, "one-word", false, "Translate at most one word per sentence")
	f.BoolVar(&opts.udOnly, "user-defined-only", false, "Only use the dictionary, never call a translator")
	f.StringVar(&opts.dictionary, "dictionary", "", "JSON file with user-defined translations")
	f.BoolVar(&opts.render, "render", false, "Fetch through the page renderer (RENDERER_URL)")
	f.BoolVar(&opts.useStore, "use-store", false, "Use the settings saved in Redis instead of these flags")
	f.BoolVar(&opts.wordsOnly, "words", false, "Print the translated word pairs as JSON instead of HTML")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall timeout")
	return cmd
}

// flagSettings 把命令行参数写成存储键
func flagSettings(opts *translateOptions) (map[string]string, error) {
	patterns, err := json.Marshal([][]any{{opts.source, opts.target, strconv.Itoa(opts.probability), true, opts.service, 0}})
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		settings.KeySourceLanguage:         opts.source,
		settings.KeyTargetLanguage:         opts.target,
		settings.KeyTranslatorService:      opts.service,
		settings.KeyTranslationProbability: strconv.Itoa(opts.probability),
		settings.KeyNgramMin:               strconv.Itoa(opts.ngramMin),
		settings.KeyNgramMax:               strconv.Itoa(opts.ngramMax),
		settings.KeyOneWordTranslation:     strconv.FormatBool(opts.oneWord),
		settings.KeyUserDefinedOnly:        strconv.FormatBool(opts.udOnly),
		settings.KeySavedPatterns:          string(patterns),
	}
	if opts.dictionary != "" {
		bs, err := os.ReadFile(opts.dictionary)
		if err != nil {
			return nil, fmt.Errorf("read dictionary: %w", err)
		}
		out[settings.KeyUserDefinedTranslations] = string(bs)
	}
	return out, nil
}

func runTranslate(cmd *cobra.Command, url string, opts *translateOptions, root *rootOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	cfg := config.Load()

	var (
		kv    storage.KV
		store *storage.Store
	)
	if opts.useStore {
		st, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer st.Close()
		store, kv = st, st.KV
	} else {
		mem := storage.NewMemoryKV()
		values, err := flagSettings(opts)
		if err != nil {
			return err
		}
		for k, v := range values {
			if err := mem.Set(ctx, k, v); err != nil {
				return err
			}
		}
		kv = mem
	}
	if err := settings.Seed(ctx, kv); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	deps := session.Deps{
		KV:            kv,
		Store:         store,
		NewTranslator: session.DefaultTranslatorFactory(apiKeys(cfg, root.allowEnv), cfg.GeminiModel),
		CommonWords:   commonWordSource(cfg),
	}
	if opts.render && cfg.RendererURL == "" {
		return errors.New("--render needs RENDERER_URL")
	}
	var mopts []session.ManagerOption
	if cfg.RendererURL != "" {
		mopts = append(mopts, session.WithRenderer(collector.NewRenderClient(cfg.RendererURL)))
	}
	mgr := session.NewManager(deps, mopts...)

	req := session.OpenRequest{URL: url, Render: opts.render}
	if opts.file != "" {
		bs, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.file, err)
		}
		req.HTML = string(bs)
		if req.URL == "" {
			req.URL = "file://" + opts.file
		}
	}

	s, _, err := mgr.Open(ctx, req)
	if err != nil {
		return err
	}
	defer mgr.Close(s.ID)

	res, err := s.Pass(ctx, session.AllRegions)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if opts.wordsOnly {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.TranslatedWords())
	}
	html, err := s.HTML()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, html); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "translated %d words, %d replacements in %d regions\n",
		len(res.Translated), res.Report.Replacements, res.Regions)
	return nil
}
