/*
Package batch converts every recognized image below a directory.

A walker goroutine feeds file names to a pool of workers. Each worker owns
the pixmaps it decodes; the shared imago.Registry must be fully populated
before Run is called.
*/
package batch

import (
	"context"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bodgit/imago"
	"github.com/bodgit/imago/quant"
	"github.com/pkg/errors"
)

// DefaultSuffix is appended to the base name of each converted file when
// Options.Suffix is empty
const DefaultSuffix = "-imago.tga"

// DefaultWorkers is the number of workers used when Options.Workers is zero
const DefaultWorkers = 10

// Files larger than this are ignored
const maxFileSize = 64 << (10 * 2)

var errCancelled = errors.New("batch: walk cancelled")

// Options controls what happens to each file
type Options struct {
	// Suffix replaces the extension of the source file to form the output
	// file name. Its extension selects the output codec.
	Suffix string

	// Format is the name of a pixel format to convert to, empty keeps
	// the decoded format
	Format string

	// Colors quantizes to an indexed image with at most this many colors
	// when non-zero
	Colors int
	Method quant.Method
	Dither quant.Dither

	FlipVertical   bool
	FlipHorizontal bool

	Workers int
}

// Result counts the files seen by Run
type Result struct {
	Converted int
	Skipped   int
}

// Pipeline converts directories of images
type Pipeline struct {
	registry *imago.Registry
	logger   *log.Logger
}

// New returns a Pipeline decoding and encoding with registry. A nil logger
// discards output.
func New(registry *imago.Registry, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Pipeline{
		registry: registry,
		logger:   logger,
	}
}

type job struct {
	opts   Options
	format imago.Format
	keep   bool

	converted int64
	skipped   int64
}

func (p *Pipeline) findFiles(ctx context.Context, base string, j *job) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			// Ignore our own output and anything too large
			if strings.HasSuffix(file, j.opts.Suffix) || info.Size() > maxFileSize {
				atomic.AddInt64(&j.skipped, 1)
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errCancelled
			}

			return nil
		})
	}()
	return out, errc
}

func outputName(file, suffix string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + suffix
}

func (p *Pipeline) convertFile(file string, j *job) error {
	f, err := os.Open(file)
	if err != nil {
		return imago.NewIOError("open", err)
	}
	defer f.Close()

	c, err := p.registry.FindByContent(f)
	if err != nil {
		if errors.Is(err, imago.ErrUnrecognized) {
			p.logger.Printf("Skipping \"%s\", format not recognized\n", file)
			atomic.AddInt64(&j.skipped, 1)
			return nil
		}
		return err
	}

	m := imago.New(imago.RGB24)
	if err := c.Decode(m, f); err != nil {
		return errors.Wrap(err, file)
	}

	if !j.keep {
		if err := m.Convert(j.format); err != nil {
			return errors.Wrap(err, file)
		}
	}

	if j.opts.Colors > 0 {
		if err := quant.QuantizeWithOptions(m, j.opts.Colors, quant.Options{
			Method: j.opts.Method,
			Dither: j.opts.Dither,
			Logger: p.logger,
		}); err != nil {
			return errors.Wrap(err, file)
		}
	}

	if j.opts.FlipVertical {
		m.VFlip()
	}
	if j.opts.FlipHorizontal {
		m.HFlip()
	}

	out := outputName(file, j.opts.Suffix)
	if err := p.registry.Save(m, out); err != nil {
		return errors.Wrap(err, out)
	}
	p.logger.Printf("Converted \"%s\" (%s) to \"%s\"\n", file, c.Name(), out)
	atomic.AddInt64(&j.converted, 1)

	return nil
}

func (p *Pipeline) fileWorker(ctx context.Context, in <-chan string, j *job) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				errc <- errCancelled
				return
			}
			if err := p.convertFile(file, j); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

// waitForPipeline returns the first error from any stage. It cancels the
// remaining stages and only returns once every stage has finished, so no
// file is written after it returns.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run converts every file below path that a registered codec recognizes.
// Conversion stops at the first error; files already being converted by
// other workers are finished first and counted in the Result.
func (p *Pipeline) Run(ctx context.Context, path string, opts Options) (Result, error) {
	j := &job{
		opts: opts,
		keep: opts.Format == "",
	}
	if j.opts.Suffix == "" {
		j.opts.Suffix = DefaultSuffix
	}
	if j.opts.Workers <= 0 {
		j.opts.Workers = DefaultWorkers
	}
	if !j.keep {
		f, err := imago.ParseFormat(opts.Format)
		if err != nil {
			return Result{}, err
		}
		j.format = f
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc := p.findFiles(ctx, dir, j)
	errcList = append(errcList, errc)

	for i := 0; i < j.opts.Workers; i++ {
		errcList = append(errcList, p.fileWorker(ctx, files, j))
	}

	err = waitForPipeline(cancelFunc, errcList...)

	return Result{
		Converted: int(atomic.LoadInt64(&j.converted)),
		Skipped:   int(atomic.LoadInt64(&j.skipped)),
	}, err
}
