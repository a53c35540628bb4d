package dtef

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const verifyWorkers = 10

// verified is the outcome of unpacking one package directory.
type verified struct {
	dir    string
	chunks int
	err    error
}

func (c *Converter) findPackages(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(dir string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Skip hidden directories such as .git
			if info.Name()[0] == '.' && dir != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsDir() {
				return nil
			}

			if _, err := os.Stat(filepath.Join(dir, MetadataFilename)); err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}

			select {
			case out <- dir:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

func (c *Converter) packageWorker(ctx context.Context, in <-chan string) <-chan verified {
	out := make(chan verified)
	go func() {
		defer close(out)
		for dir := range in {
			if ctx.Err() != nil {
				return
			}

			r := verified{dir: dir}
			ts, err := c.Unpack(os.DirFS(dir))
			if err != nil {
				r.err = fmt.Errorf("%s: %w", dir, err)
			} else {
				r.chunks = len(ts.Chunks)
			}

			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// mergeResults fans the worker channels into one, giving up on sends once
// ctx is cancelled so nothing blocks after the first failure.
func mergeResults(ctx context.Context, cs ...<-chan verified) <-chan verified {
	var wg sync.WaitGroup
	out := make(chan verified)
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan verified) {
			defer wg.Done()
			for r := range c {
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Verify walks path and unpacks every package directory found beneath it,
// identified by its metadata document, without committing anything. It
// returns the number of valid packages, stopping at the first invalid one.
func (c *Converter) Verify(path string) (int, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	dirs, errc := c.findPackages(ctx, dir)

	workers := make([]<-chan verified, verifyWorkers)
	for i := range workers {
		workers[i] = c.packageWorker(ctx, dirs)
	}

	count := 0
	for r := range mergeResults(ctx, workers...) {
		if r.err != nil {
			return 0, r.err
		}
		c.logger.WithFields(logrus.Fields{
			"dir":    r.dir,
			"chunks": r.chunks,
		}).Info("Package is valid")
		count++
	}

	if err := <-errc; err != nil {
		return 0, err
	}

	return count, nil
}
