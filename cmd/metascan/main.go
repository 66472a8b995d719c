package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"k8s.io/klog/v2"

	"github.com/tomsv/metascan"
	"github.com/tomsv/metascan/internal/config"
	"github.com/tomsv/metascan/pkg/client"
	"github.com/tomsv/metascan/pkg/deepstack"
	"github.com/tomsv/metascan/pkg/detect"
	"github.com/tomsv/metascan/pkg/exifmeta"
	"github.com/tomsv/metascan/pkg/imgio"
	"github.com/tomsv/metascan/pkg/lmstudio"
	"github.com/tomsv/metascan/pkg/ollama"
	"github.com/tomsv/metascan/pkg/types"
)

func main() {
	var kindArg, backend, model, url, dsURL, apiKey, cfgPath, cropDir string
	var minConfidence float64
	var recurse, onlyNew, retryFailed, force, quiet bool

	flag.StringVar(&kindArg, "kind", "", "metadata kind to update: description|faces|objects|scenes|exif")
	flag.StringVar(&backend, "backend", "", "caption backend: ollama or lmstudio")
	flag.StringVar(&model, "model", "", "vision model name for the description kind")
	flag.StringVar(&url, "url", "", "caption server URL")
	flag.StringVar(&dsURL, "deepstack-url", "", "DeepStack-compatible server URL")
	flag.StringVar(&apiKey, "api-key", "", "API key for the detection server")
	flag.Float64Var(&minConfidence, "min-confidence", 0, "minimum detection confidence (0..1)")
	flag.StringVar(&cfgPath, "config", "", "preferences file (default: "+config.GetConfigPath()+")")
	flag.StringVar(&cropDir, "crops", "", "export face crops into this directory after a faces run")

	flag.BoolVar(&recurse, "recurse", false, "scan directories recursively")
	flag.BoolVar(&onlyNew, "onlynew", false, "only process files without a valid record")
	flag.BoolVar(&retryFailed, "retryfailed", false, "with -onlynew, also retry previously failed files")
	flag.BoolVar(&force, "force", false, "reprocess every file")
	flag.BoolVar(&quiet, "quiet", false, "suppress per-file output")

	klog.InitFlags(nil)
	flag.Parse()

	roots := flag.Args()
	kind := types.Kind(kindArg)
	if !kind.Known() || len(roots) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s -kind description|faces|objects|scenes|exif [flags] dir [dir...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Session overrides come from flags; unset flags fall through to
	// the preferences file, then the built-in defaults.
	session := map[string]string{}
	if backend != "" {
		session[config.KeyBackend] = backend
	}
	if model != "" {
		session[config.KeyModel] = model
	}
	if url != "" {
		session[config.KeyOllamaURL] = url
		session[config.KeyLMStudioURL] = url
	}
	if dsURL != "" {
		session[config.KeyDeepStackURL] = dsURL
	}
	if apiKey != "" {
		session[config.KeyAPIKey] = apiKey
	}
	if minConfidence > 0 {
		session[config.KeyMinConfidence] = fmt.Sprintf("%g", minConfidence)
	}
	if cropDir != "" {
		session[config.KeyCropDir] = cropDir
	}

	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	persisted, err := config.LoadFromFile(cfgPath)
	if err != nil {
		klog.V(1).Infof("no preferences loaded from %s: %v", cfgPath, err)
		persisted = nil
	} else if err := persisted.Validate(); err != nil {
		klog.Exitf("invalid preferences in %s: %v", cfgPath, err)
	}
	resolver := config.NewResolver(session, persisted)

	scanner := metascan.New()
	if err := register(scanner, kind, resolver); err != nil {
		klog.Exitf("%v", err)
	}

	exportCrops := kind == types.KindFaces && resolver.String(config.KeyCropDir) != ""
	scanner.OnResult = func(res types.FileResult) {
		if exportCrops && res.Outcome == types.OutcomeSucceeded {
			if faces, ok := res.Record.(*types.FacesRecord); ok && len(faces.Predictions) > 0 {
				outDir := resolver.String(config.KeyCropDir)
				if written, err := imgio.ExportFaceCrops(res.Path, outDir, "jpg", faces.Predictions, 90); err != nil {
					klog.Warningf("face crop export for %s: %v", res.Path, err)
				} else {
					klog.V(1).Infof("wrote %d face crop(s) for %s", len(written), res.Path)
				}
			}
		}
		if !quiet {
			fmt.Printf("%-9s %s\n", res.Outcome, res.Path)
		}
	}

	policy := types.RunPolicy{
		Recurse:     recurse,
		OnlyNew:     onlyNew,
		RetryFailed: retryFailed,
		Force:       force,
	}

	sum, err := scanner.Scan(context.Background(), kind, roots, policy)
	if err != nil {
		klog.Exitf("scan failed: %v", err)
	}

	fmt.Printf("%s: %d processed (%d ok, %d failed), %d skipped\n",
		kind, sum.Processed, sum.Succeeded, sum.Failed, sum.Skipped)
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

// register wires the detector for the requested kind using resolved
// configuration.
func register(scanner *metascan.Scanner, kind types.Kind, resolver *config.Resolver) error {
	switch kind {
	case types.KindDescription:
		c, err := captionClient(resolver)
		if err != nil {
			return err
		}
		scanner.Register(detect.NewDescriptionDetector(c, resolver.String(config.KeyModel)))
	case types.KindFaces, types.KindObjects, types.KindScenes:
		ds := deepstack.NewClient(
			resolver.String(config.KeyDeepStackURL),
			resolver.String(config.KeyAPIKey),
			resolver.Float(config.KeyMinConfidence),
		)
		switch kind {
		case types.KindFaces:
			scanner.Register(deepstack.NewFaceDetector(ds))
		case types.KindObjects:
			scanner.Register(deepstack.NewObjectDetector(ds))
		case types.KindScenes:
			scanner.Register(deepstack.NewSceneDetector(ds))
		}
	case types.KindEXIF:
		scanner.Register(exifmeta.NewDetector())
	}
	return nil
}

func captionClient(resolver *config.Resolver) (client.CaptionClient, error) {
	backend := strings.ToLower(resolver.String(config.KeyBackend))
	switch backend {
	case "ollama":
		return ollama.NewClient(resolver.String(config.KeyOllamaURL))
	case "lmstudio":
		return lmstudio.NewClient(resolver.String(config.KeyLMStudioURL))
	}
	return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'lmstudio')", backend)
}
