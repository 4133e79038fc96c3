// Command catalogue is the two-phase transport catalogue CLI:
// make_base builds a binary snapshot from a JSON input batch, and
// process_requests answers a batch of stat requests against a
// previously built snapshot. A third mode, import_gtfs, converts a
// GTFS static feed into the same base_requests JSON shape so it can
// feed make_base.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/transitcat/internal/gtfsimport"
	"github.com/yourorg/transitcat/internal/history"
	"github.com/yourorg/transitcat/internal/jsontree"
	"github.com/yourorg/transitcat/internal/progresslog"
	"github.com/yourorg/transitcat/internal/requestdriver"
	"github.com/yourorg/transitcat/internal/snapshot"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

// Exit codes, per the CLI's documented contract.
const (
	exitOK = iota
	exitBadArgs
	exitInputMissing
	exitInputUnreadable
	exitOutputUncreatable
	exitRequestProcessing
	exitUnknown
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitBadArgs
	}

	switch mode := args[0]; mode {
	case "make_base":
		if len(args) != 2 {
			usage()
			return exitBadArgs
		}
		return runMakeBase(args[1])
	case "process_requests":
		if len(args) != 2 {
			usage()
			return exitBadArgs
		}
		return runProcessRequests(args[1])
	case "import_gtfs":
		if len(args) != 3 {
			usage()
			return exitBadArgs
		}
		return runImportGTFS(args[1], args[2])
	default:
		fmt.Fprintf(os.Stderr, "catalogue: unknown mode %q\n", mode)
		usage()
		return exitBadArgs
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catalogue make_base <input_file>")
	fmt.Fprintln(os.Stderr, "       catalogue process_requests <input_file>")
	fmt.Fprintln(os.Stderr, "       catalogue import_gtfs <feed.zip> <out.json>")
}

// openInput opens path, classifying a missing file separately from any
// other open failure so callers can return the right exit code.
func openInput(path string) (*os.File, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, exitInputMissing, err
		}
		return nil, exitInputUnreadable, err
	}
	return f, exitOK, nil
}

// classifyProcessingError maps a requestdriver error to its exit code:
// an InputShapeError is the documented exit 5, anything else is an
// unanticipated failure (exit 6).
func classifyProcessingError(err error, context string) int {
	fmt.Fprintf(os.Stderr, "catalogue: %s: %v\n", context, err)
	var shapeErr *requestdriver.InputShapeError
	if errors.As(err, &shapeErr) {
		return exitRequestProcessing
	}
	return exitUnknown
}

func runMakeBase(inputPath string) int {
	start := time.Now()

	f, code, err := openInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: make_base: %v\n", err)
		return code
	}
	defer f.Close()

	root, err := jsontree.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: make_base: parse: %v\n", err)
		return exitRequestProcessing
	}

	batch, err := requestdriver.LoadBatch(root)
	if err != nil {
		return classifyProcessingError(err, "make_base")
	}
	if batch.SerializationFile == "" {
		fmt.Fprintln(os.Stderr, "catalogue: make_base: missing serialization_settings.file")
		return exitRequestProcessing
	}

	var router *transitrouter.Router
	if _, hasRouting := root.Field("routing_settings"); hasRouting {
		router = transitrouter.Build(batch.Catalogue, batch.Routing)
	}

	out, err := os.Create(batch.SerializationFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: make_base: create snapshot: %v\n", err)
		return exitOutputUncreatable
	}
	defer out.Close()

	st := snapshot.State{
		Catalogue: batch.Catalogue,
		Routing:   batch.Routing,
		Render:    batch.Render,
		Router:    router,
	}
	if err := snapshot.Write(out, st); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: make_base: write snapshot: %v\n", err)
		return exitOutputUncreatable
	}

	stopCount := len(batch.Catalogue.StopNames())
	busCount := len(batch.Catalogue.BusNames())
	progresslog.IngestionProgress("make_base", stopCount, busCount)
	recordHistory(history.Run{
		Mode:         "make_base",
		SnapshotPath: batch.SerializationFile,
		StopCount:    stopCount,
		BusCount:     busCount,
		Duration:     time.Since(start),
	})

	return exitOK
}

func runProcessRequests(inputPath string) int {
	start := time.Now()

	f, code, err := openInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: %v\n", err)
		return code
	}
	defer f.Close()

	root, err := jsontree.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: parse: %v\n", err)
		return exitRequestProcessing
	}

	snapshotPath, err := requestdriver.ParseSerializationSettings(root)
	if err != nil {
		return classifyProcessingError(err, "process_requests")
	}
	if snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "catalogue: process_requests: missing serialization_settings.file")
		return exitRequestProcessing
	}

	snapFile, code, err := openInput(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: snapshot: %v\n", err)
		return code
	}
	defer snapFile.Close()

	st, err := snapshot.Read(snapFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: read snapshot: %v\n", err)
		return exitInputUnreadable
	}

	env := requestdriver.Environment{Catalogue: st.Catalogue, Router: st.Router, Render: st.Render}

	respBytes, err := requestdriver.Answer(env, root)
	if err != nil {
		return classifyProcessingError(err, "process_requests")
	}

	if _, err := os.Stdout.Write(respBytes); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: write stdout: %v\n", err)
		return exitOutputUncreatable
	}
	fmt.Println()

	outPath := outputPathFor(inputPath)
	if err := os.WriteFile(outPath, respBytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: process_requests: write %s: %v\n", outPath, err)
		return exitOutputUncreatable
	}

	requestCount := 0
	if statField, ok := root.Field("stat_requests"); ok {
		if items, err := statField.AsArray(); err == nil {
			requestCount = len(items)
		}
	}
	progresslog.QueryBatchProgress(requestCount, requestCount)
	recordHistory(history.Run{
		Mode:         "process_requests",
		SnapshotPath: snapshotPath,
		StopCount:    len(env.Catalogue.StopNames()),
		BusCount:     len(env.Catalogue.BusNames()),
		RequestCount: requestCount,
		Duration:     time.Since(start),
	})

	return exitOK
}

// outputPathFor derives <input_stem>.out from the input file's path.
func outputPathFor(inputPath string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(inputPath, ext)
	return stem + ".out"
}

func runImportGTFS(feedPath, outPath string) int {
	f, code, err := openInput(feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: %v\n", err)
		return code
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: stat: %v\n", err)
		return exitInputUnreadable
	}

	result, err := gtfsimport.Import(f, info.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: %v\n", err)
		return exitInputUnreadable
	}

	requests, err := result.ToBaseRequests()
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: %v\n", err)
		return exitUnknown
	}

	wrapper := jsontree.NewBuilder()
	wrapper.StartDict().Key("base_requests").Value(requests).EndDict()
	root, err := wrapper.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: %v\n", err)
		return exitUnknown
	}

	data, err := jsontree.Marshal(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: marshal: %v\n", err)
		return exitUnknown
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: import_gtfs: write %s: %v\n", outPath, err)
		return exitOutputUncreatable
	}

	return exitOK
}

// recordHistory writes r to the optional run-history ledger. A failure
// to connect or record is logged but never fails the run: history is
// an audit trail, not a dependency of make_base or process_requests.
func recordHistory(r history.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := history.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: history: %v\n", err)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if err := store.Record(ctx, r); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue: history: record: %v\n", err)
	}
}
