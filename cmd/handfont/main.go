package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkwell-tools/handfont/internal/pipeline"
	"github.com/inkwell-tools/handfont/internal/preview"
	"github.com/inkwell-tools/handfont/internal/raster"
	"github.com/inkwell-tools/handfont/internal/recognize"
	"github.com/inkwell-tools/handfont/internal/trace"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("handfont %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	case "pangram":
		runPangram(os.Args[2:])
	case "drawn":
		runDrawn(os.Args[2:])
	case "preview":
		runPreview(os.Args[2:])
	case "sample":
		fmt.Println(pipeline.RandomPangram())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("handfont - turn handwriting into an installable font")
	fmt.Println()
	fmt.Println("Usage: handfont <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  pangram   Build a font from a photo of a handwritten pangram")
	fmt.Println("  drawn     Build a font from a directory of drawn character images")
	fmt.Println("  preview   Render the segmentation overlay for a photo")
	fmt.Println("  sample    Print a random pangram to write out")
	fmt.Println("  version   Print version information")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  HANDFONT_LOG_LEVEL=debug    Enable debug logging")
}

func debugEnabled() bool {
	return os.Getenv("HANDFONT_LOG_LEVEL") == "debug"
}

func newPipeline(lang string) *pipeline.Pipeline {
	return pipeline.New(
		&recognize.TesseractRecognizer{Language: lang},
		trace.NewPotraceTracer(),
	)
}

func runPangram(args []string) {
	fs := flag.NewFlagSet("pangram", flag.ExitOnError)
	imagePath := fs.String("image", "", "path to the handwriting photo (required)")
	text := fs.String("text", "", "the pangram that was written (required)")
	out := fs.String("out", "handwriting.ttf", "output font path")
	lang := fs.String("lang", "eng", "recognizer language code")
	fs.Parse(args)

	if *imagePath == "" || *text == "" {
		fs.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	if debugEnabled() {
		log.Printf("handfont %s: processing %s (%d bytes)", Version, *imagePath, len(data))
	}

	result, err := newPipeline(*lang).GeneratePangramFont(context.Background(), data, *text)
	if err != nil {
		log.Fatalf("Font generation failed: %v", err)
	}

	writeFont(*out, result)
}

func runDrawn(args []string) {
	fs := flag.NewFlagSet("drawn", flag.ExitOnError)
	dir := fs.String("dir", "", "directory of per-character images named a.png, b.png, ... (required)")
	out := fs.String("out", "handwriting.ttf", "output font path")
	fs.Parse(args)

	if *dir == "" {
		fs.Usage()
		os.Exit(2)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read directory: %v", err)
	}

	var drawings []pipeline.Drawing
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		runes := []rune(name)
		if len(runes) != 1 {
			continue
		}
		img, err := loadImage(filepath.Join(*dir, e.Name()))
		if err != nil {
			log.Printf("Skipping %s: %v", e.Name(), err)
			continue
		}
		drawings = append(drawings, pipeline.Drawing{Char: runes[0], Image: img})
	}

	result, err := newPipeline("eng").GenerateDrawnFont(context.Background(), drawings)
	if err != nil {
		log.Fatalf("Font generation failed: %v", err)
	}

	writeFont(*out, result)
}

func runPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	imagePath := fs.String("image", "", "path to the handwriting photo (required)")
	out := fs.String("out", "overlay.png", "output overlay path")
	fs.Parse(args)

	if *imagePath == "" {
		fs.Usage()
		os.Exit(2)
	}

	img, err := loadImage(*imagePath)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	opts := raster.DefaultPhotoOptions()
	bm, _ := raster.BinarizePhoto(img, opts)
	labeled := raster.Label(bm, opts.MinArea)

	overlay, err := preview.RenderComponents(labeled)
	if err != nil {
		log.Fatalf("Failed to render overlay: %v", err)
	}
	pngBytes, err := base64.StdEncoding.DecodeString(overlay.ImageBase64)
	if err != nil {
		log.Fatalf("Failed to decode overlay: %v", err)
	}
	if err := os.WriteFile(*out, pngBytes, 0o644); err != nil {
		log.Fatalf("Failed to write overlay: %v", err)
	}
	fmt.Printf("Wrote %s (%d components)\n", *out, overlay.ComponentCount)
}

func loadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return img, nil
}

func writeFont(path string, result *pipeline.FontResult) {
	if err := os.WriteFile(path, result.FontBytes, 0o644); err != nil {
		log.Fatalf("Failed to write font: %v", err)
	}
	fmt.Printf("Wrote %s with %d characters: %s\n", path, len(result.CharsFound), string(result.CharsFound))
}
