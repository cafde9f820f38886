package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"

	"github.com/fennwald/xbarc"
	"github.com/fennwald/xbarc/xbc1"
)

type config struct {
	mode        string
	files       int
	fileSize    int
	dirCount    int
	compression string
	pattern     string
	workers     int
	fgProfile   string
	duration    time.Duration
	iterations  int
	pprofAddr   string
	cpuProfile  string
	memProfile  string
	traceFile   string
	readRandom  bool
	tempDir     string
	keepTemp    bool
	randomSeed  int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes  []byte
	sinkReport *xbarc.Report
)

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	srcDir := filepath.Join(dir, "src")
	if err := makeFiles(srcDir, cfg.files, cfg.fileSize, cfg.dirCount, cfg.pattern, cfg.randomSeed); err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	a, arhPath, err := buildPair(dir, srcDir, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	var stopFG func() error
	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		stopFG = fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, a, dir, srcDir, arhPath)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, a *xbarc.Archive, rootDir, srcDir, arhPath string) (profileStats, error) {
	ctx := context.Background()
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "create":
		inputs, err := xbarc.EnumerateDir(srcDir)
		if err != nil {
			return profileStats{}, err
		}
		outArd := filepath.Join(rootDir, "create.ard")
		outArh := filepath.Join(rootDir, "create.arh")
		opts := buildOptions(cfg)
		for shouldContinue() {
			if err := xbarc.Build(ctx, inputs, outArd, outArh, opts...); err != nil {
				return profileStats{}, err
			}
			byteCount += int64(cfg.files * cfg.fileSize)
			ops++
		}

	case "extract":
		destDir := filepath.Join(rootDir, "extracted")
		if err := os.MkdirAll(destDir, 0o750); err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			report, err := a.Extract(ctx, destDir,
				xbarc.ExtractWithWorkers(cfg.workers),
				xbarc.ExtractWithOverwrite(true),
				xbarc.ExtractWithDirectWrites(true),
			)
			if err != nil {
				return profileStats{}, err
			}
			sinkReport = report
			byteCount += int64(report.Bytes) //nolint:gosec // synthetic trees stay far below overflow
			ops++
		}

	case "verify":
		for shouldContinue() {
			report, err := a.Verify(ctx, xbarc.ExtractWithWorkers(cfg.workers))
			if err != nil {
				return profileStats{}, err
			}
			sinkReport = report
			byteCount += int64(report.Bytes) //nolint:gosec // synthetic trees stay far below overflow
			ops++
		}

	case "readentry":
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		n := a.Len()
		if n == 0 {
			return profileStats{}, fmt.Errorf("archive %s is empty", arhPath)
		}
		for shouldContinue() {
			i := ops % n
			if cfg.readRandom {
				i = rng.Intn(n)
			}
			raw, err := a.ReadEntry(i)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = raw
			byteCount += int64(len(raw))
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "extract", "mode: create, extract, verify, readentry")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 16<<10, "file size in bytes")
	flag.IntVar(&cfg.dirCount, "dir-count", 16, "number of directories")
	flag.StringVar(&cfg.compression, "compression", "auto", "compression: none, zlib, zstd, auto")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.IntVar(&cfg.workers, "workers", 0, "workers: <0 serial, 0 auto, >0 fixed")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize readentry index selection")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "xbarc-profiler-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

func makeFiles(dir string, fileCount, fileSize, dirCount int, pattern string, seed int64) error {
	if dirCount <= 0 {
		dirCount = 1
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range fileCount {
		relPath := fmt.Sprintf("dir%02d/file%05d.dat", i%dirCount, i)
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil { //nolint:gosec // 0o755 is intentional for profiler
			return err
		}

		content := make([]byte, fileSize)
		switch pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
			if len(content) > 0 {
				content[0] = byte(i)
			}
		}

		if err := os.WriteFile(fullPath, content, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
			return err
		}
	}
	return nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func buildPair(rootDir, srcDir string, cfg config) (*xbarc.Archive, string, error) {
	inputs, err := xbarc.EnumerateDir(srcDir)
	if err != nil {
		return nil, "", err
	}
	ardPath := filepath.Join(rootDir, "profile.ard")
	arhPath := filepath.Join(rootDir, "profile.arh")
	if err := xbarc.Build(context.Background(), inputs, ardPath, arhPath, buildOptions(cfg)...); err != nil {
		return nil, "", err
	}
	a, err := xbarc.Open(arhPath, ardPath)
	if err != nil {
		return nil, "", err
	}
	return a, arhPath, nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func buildOptions(cfg config) []xbarc.BuildOption {
	opts := []xbarc.BuildOption{xbarc.BuildWithWorkers(cfg.workers)}
	if sel := parseCompression(cfg.compression); sel != nil {
		opts = append(opts, xbarc.BuildWithCompression(sel))
	}
	return opts
}

func parseCompression(name string) xbarc.CompressionFunc {
	switch name {
	case "none":
		return nil
	case "zlib":
		return xbarc.CompressAll(xbc1.KindZlib)
	case "zstd":
		return xbarc.CompressAll(xbc1.KindZstd)
	case "auto":
		return xbarc.DefaultCompression
	default:
		log.Fatalf("unknown compression: %s", name)
		return nil
	}
}
