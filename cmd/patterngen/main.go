// Command patterngen writes MIDI patterns for every track of a manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/config"
	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/midifile"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
	"github.com/Conceptual-Machines/magda-patterns/internal/services"
	"github.com/Conceptual-Machines/magda-patterns/internal/storage"
	"github.com/Conceptual-Machines/magda-patterns/pkg/embedded"
)

const (
	modeTemplate = "template"
	modeRandom   = "random"
	modeAll      = "all"
)

type options struct {
	mode         string
	analysisPath string
	tracksPath   string
	outDir       string
	template     string
	length       int
	seed         int64
	seedSet      bool
	preview      bool
	storePath    string
	restMode     string
	debug        bool
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("patterngen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.mode, "mode", modeAll, "what to generate: template, random or all")
	fs.StringVar(&o.analysisPath, "analysis", cfg.AnalysisResultsPath, "analysis results JSON")
	fs.StringVar(&o.tracksPath, "tracks", "", "track manifest JSON (default: built-in list)")
	fs.StringVar(&o.outDir, "out", cfg.OutputDir, "output directory")
	fs.StringVar(&o.template, "template", patterns.DefaultTemplate, "pattern template name")
	fs.IntVar(&o.length, "length", patterns.DefaultRandomLength, "random arpeggio steps")
	fs.Int64Var(&o.seed, "seed", 0, "random seed (default: from the clock)")
	fs.BoolVar(&o.preview, "preview", false, "also write WAV previews")
	fs.StringVar(&o.storePath, "store", cfg.AnalysisStorePath, "SQLite analysis store; the analysis file is imported into it")
	fs.StringVar(&o.restMode, "rest-mode", cfg.RestMode, "rest encoding: gap or silent-note")
	fs.BoolVar(&o.debug, "debug", cfg.LogDebug, "debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.seedSet = true
		}
	})

	switch o.mode {
	case modeTemplate, modeRandom, modeAll:
	default:
		return options{}, fmt.Errorf("unknown mode %q", o.mode)
	}
	if _, err := patterns.TemplateByName(o.template); err != nil {
		return options{}, err
	}
	return o, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := run(context.Background(), os.Args[1:], config.Load(), os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, cfg *config.Config, stderr io.Writer) error {
	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}
	logger.SetDebug(o.debug)

	restMode, err := midifile.ParseRestMode(o.restMode)
	if err != nil {
		return err
	}

	manifest, err := embedded.LoadManifest(o.tracksPath)
	if err != nil {
		return err
	}

	results, err := analysis.LoadFile(o.analysisPath)
	if err != nil {
		logger.Error("Failed to load analysis results, using defaults", err, logger.Fields{"path": o.analysisPath})
		results = analysis.Results{}
	}

	exportCfg := *cfg
	exportCfg.OutputDir = o.outDir
	deps := services.Deps{
		Results:  results,
		Manifest: manifest,
		Exporter: storage.New(&exportCfg),
	}

	if o.storePath != "" {
		store, err := analysis.OpenStore(o.storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Import(ctx, results); err != nil {
			logger.Error("Failed to import analysis results into store", err, logger.Fields{"store": o.storePath})
		}
		deps.Store = store
	}

	svc := services.NewGenerationService(deps, services.GeneratorOptions{
		RestMode: restMode,
		Program:  cfg.MIDIProgram,
		Preview:  o.preview,
	})

	failed := 0
	for _, track := range manifest.Names() {
		if err := generateTrack(ctx, svc, o, track); err != nil {
			logger.Error("Failed to generate track", err, logger.Fields{"track": track})
			failed++
		}
	}

	logger.Info("Pattern generation finished", logger.Fields{
		"tracks": len(manifest),
		"failed": failed,
		"out":    o.outDir,
	})
	if failed > 0 {
		return fmt.Errorf("%d of %d tracks failed", failed, len(manifest))
	}
	return nil
}

func generateTrack(ctx context.Context, svc *services.GenerationService, o options, track string) error {
	if o.mode == modeTemplate || o.mode == modeAll {
		result, err := svc.GenerateTemplate(ctx, services.TemplateRequest{
			Track:    track,
			Template: o.template,
			Export:   true,
		})
		if err != nil {
			return err
		}
		report(result)
	}

	if o.mode == modeRandom || o.mode == modeAll {
		req := services.RandomRequest{Track: track, Length: o.length, Export: true}
		if o.seedSet {
			seed := o.seed
			req.Seed = &seed
		}
		result, err := svc.GenerateRandom(ctx, req)
		if err != nil {
			return err
		}
		report(result)
	}
	return nil
}

func report(result *services.Result) {
	for _, out := range result.Parts {
		fields := logger.Fields{
			"track": result.Track,
			"part":  string(out.Pattern.Part),
			"key":   string(result.Resolution.Key),
			"tempo": result.Resolution.Tempo,
			"file":  out.ExportURI,
		}
		if result.Seed != nil {
			fields["seed"] = *result.Seed
		}
		logger.Info("Wrote pattern", fields)
	}
}
