// Command hfmeta renders the scraped dataset CSV as the metadata.jsonl file
// Hugging Face image datasets expect, one JSON object per image.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/hfmeta"
)

func main() {
	var (
		csvPath string
		outPath string
	)
	flag.StringVar(&csvPath, "csv", "dataset/dataset.csv", "path to the scraped dataset CSV")
	flag.StringVar(&outPath, "out", "", "output path (default: metadata.jsonl next to the CSV)")
	flag.Parse()

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(csvPath), "metadata.jsonl")
	}

	in, err := os.Open(csvPath)
	if err != nil {
		fatalf("open dataset: %v", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		fatalf("create output: %v", err)
	}

	n, err := hfmeta.Write(in, out, func(line int, err error) {
		log.Printf("line %d: skipping row: %v", line, err)
	})
	if err != nil {
		out.Close()
		fatalf("generate: %v", err)
	}
	if err := out.Close(); err != nil {
		fatalf("close output: %v", err)
	}

	log.Printf("wrote %d entries to %s", n, outPath)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
