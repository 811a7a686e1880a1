package imgarray

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/imgarray/imagefile"
)

// DefaultExtension is appended to the name of each converted image
const DefaultExtension = ".inc"

// ErrOutputCollision is returned by Batch when two images would be written
// to the same output file, such as a.png and a.bmp
var ErrOutputCollision = errors.New("imgarray: images share an output file")

func outputFile(file, ext string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

func (c *Converter) findImages(ctx context.Context, base, ext string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		seen := make(map[string]string)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !imagefile.IsImage(file) {
				return nil
			}

			dst := outputFile(file, ext)
			if prev, ok := seen[dst]; ok {
				return fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollision, prev, file, dst)
			}
			seen[dst] = file

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) imageWorker(ctx context.Context, in <-chan string, ext string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := c.convertFile(file, outputFile(file, ext)); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func (c *Converter) convertFile(src, dst string) (err error) {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	if err = c.Convert(src, f); err != nil {
		return err
	}

	c.logger.Info("wrote", "file", dst)

	return nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
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

// Batch converts every image found under path, writing the output for each
// next to it with the extension replaced by ext. Conversion is spread
// across jobs workers. Two images that would share an output file, such as
// a.png and a.bmp, fail the batch with ErrOutputCollision.
func (c *Converter) Batch(ctx context.Context, path, ext string, jobs int) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if ext == "" {
		ext = DefaultExtension
	}
	if jobs < 1 {
		jobs = 1
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findImages(ctx, dir, ext)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < jobs; i++ {
		errc, err := c.imageWorker(ctx, files, ext)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
