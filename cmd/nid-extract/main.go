package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/nid-extract/internal/config"
	"github.com/ironsheep/nid-extract/internal/imaging"
	"github.com/ironsheep/nid-extract/internal/nid"
	"github.com/ironsheep/nid-extract/internal/ocr"
	"github.com/ironsheep/nid-extract/internal/pipeline"
	"github.com/ironsheep/nid-extract/internal/server"
	"github.com/ironsheep/nid-extract/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("nid-extract - read ID numbers and face photos from national ID cards")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nid-extract                     Run the MCP server on stdin/stdout")
	fmt.Println("  nid-extract recognize [-save-dir DIR] [-face] IMAGE")
	fmt.Println("                                  Recognize one card and print JSON")
	fmt.Println("  nid-extract watch [-save-dir DIR] [-existing] DIR")
	fmt.Println("                                  Recognize every image written to DIR")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  NID_LOG_LEVEL=debug            Enable debug logging")
	fmt.Println("  NID_OCR_LANGUAGE=eng           Tesseract language")
	fmt.Println("  NID_TESSDATA_PREFIX=DIR        Tesseract language data directory")
	fmt.Println("  NID_FACE_CASCADE=FILE          Face cascade (default " + defaultCascade + ")")
	fmt.Println("  NID_FACE_SCALE=1.1             Cascade scale factor")
	fmt.Println("  NID_FACE_MIN_NEIGHBORS=5       Cascade minimum neighbours")
	fmt.Println("  NID_SAVE_DIR=DIR               Save faces as DIR/<id>.jpg")
	fmt.Println("  NID_REGION_ORDER=reading       Text block order: reading, native or area")
	fmt.Println("  NID_KERNEL_SIZE=18             Dilation kernel size")
	fmt.Println("  NID_BOX_COLOR=#00FF00          Outline colour for examined blocks")
	fmt.Println()
	fmt.Println("Backend: " + backendName)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("nid-extract %s (%s backend)\n", Version, backendName)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Debug() {
		log.Printf("nid-extract v%s (built %s, commit %s, %s backend)", Version, BuildTime, GitCommit, backendName)
	}

	engine := ocr.NewEngine(cfg.OCRConfig())
	p, closeFaces, err := buildPipeline(cfg, engine)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer closeFaces()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "":
		err = server.New(server.Deps{Pipeline: p, OCR: engine}).Run()
	case "recognize":
		err = runRecognize(ctx, p, os.Args[2:])
	case "watch":
		err = runWatch(ctx, p, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		closeFaces()
		log.Fatalf("%s: %v", cmdName(cmd), err)
	}
}

func cmdName(cmd string) string {
	if cmd == "" {
		return "Server error"
	}
	return cmd
}

// buildPipeline wires the configured backends. The returned func releases the
// face detector.
func buildPipeline(cfg *config.Config, engine *ocr.Engine) (*pipeline.Pipeline, func(), error) {
	boxColor, err := imaging.ParseColor(cfg.BoxColor)
	if err != nil {
		return nil, nil, err
	}

	faces, closeFaces, err := newFaceDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &pipeline.Pipeline{
		Cache: imaging.NewImageCache(),
		Scanner: &nid.Scanner{
			Finder:   newRegionFinder(cfg),
			OCR:      engine,
			Order:    cfg.RegionOrder,
			BoxColor: boxColor,
		},
		Faces:       faces,
		SaveDir:     cfg.SaveDir,
		JPEGQuality: cfg.JPEGQuality,
		Debug:       cfg.Debug(),
	}, closeFaces, nil
}

func runRecognize(ctx context.Context, p *pipeline.Pipeline, args []string) error {
	fs := flag.NewFlagSet("recognize", flag.ExitOnError)
	saveDir := fs.String("save-dir", p.SaveDir, "save the face as DIR/<id>.jpg")
	withFace := fs.Bool("face", false, "include the face as base64 JPEG")
	annotated := fs.String("annotated", "", "write the card with examined blocks outlined to this JPEG path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one image path, got %d", fs.NArg())
	}
	p.SaveDir = *saveDir

	worker := pipeline.NewWorker(p)
	var result *pipeline.Result
	for ev := range worker.Start(ctx, fs.Arg(0)) {
		switch ev.Kind {
		case pipeline.EventProgress:
			if p.Debug {
				log.Printf("[debug] progress %d%%", ev.Progress)
			}
		case pipeline.EventFailed:
			return ev.Err
		case pipeline.EventDone:
			result = ev.Result
		}
	}

	if *withFace {
		if err := result.EncodeFace("jpeg"); err != nil {
			return err
		}
	}
	if *annotated != "" && result.Annotated != nil {
		if err := imaging.SaveJPEG(result.Annotated, *annotated, p.JPEGQuality); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runWatch(ctx context.Context, p *pipeline.Pipeline, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	saveDir := fs.String("save-dir", p.SaveDir, "save faces as DIR/<id>.jpg")
	existing := fs.Bool("existing", false, "also process images already in the directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one directory, got %d", fs.NArg())
	}
	p.SaveDir = *saveDir

	enc := json.NewEncoder(os.Stdout)
	w := watch.New(fs.Arg(0), p, func(path string, res *pipeline.Result, err error) {
		if err != nil {
			return
		}
		if err := enc.Encode(res); err != nil {
			log.Printf("Failed to write result for %s: %v", path, err)
		}
	})
	w.Existing = *existing
	return w.Run(ctx)
}
