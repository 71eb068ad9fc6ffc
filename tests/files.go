// Package tests provides the external test data used by the emulator tests:
// the nes-test-roms collection and the SingleStepTests processor tests. Data
// is downloaded on first use. Tests depending on it are skipped when it can't
// be obtained, or when NESCORE_OFFLINE is set.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func decompress(zipFile, dest string) (int, error) {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	extract := func(f *zip.File) error {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			return os.MkdirAll(fpath, os.ModePerm)
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}

	for _, f := range r.File {
		if err := extract(f); err != nil {
			return 0, err
		}
	}
	return len(r.File), nil
}

func download(url string, w io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func downloadTestRoms(dest string) error {
	const url = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`

	tmpf, err := os.CreateTemp("", "nes-test-roms-*-.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if err := download(url, tmpf); err != nil {
		return err
	}
	if _, err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %w", err)
	}
	return nil
}

// download all 256 (one per opcode) processor test files into dest dir.
func downloadProcTests(dest string) error {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%02x.json`

	tempdir, err := os.MkdirTemp("", "tom.harte.processor.tests.*")
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		g.Go(func() error {
			f, err := os.Create(filepath.Join(tempdir, fmt.Sprintf("%02x.json", opcode)))
			if err != nil {
				return err
			}
			defer f.Close()
			return download(fmt.Sprintf(urlfmt, opcode), f)
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return fmt.Errorf("failed to download all files: %w", err)
	}
	return os.Rename(tempdir, dest)
}

func testsDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

type dataset struct {
	once sync.Once
	dir  string
	err  error
}

func (ds *dataset) get(tb testing.TB, name string, fetch func() error) string {
	tb.Helper()

	ds.once.Do(func() {
		ds.dir = filepath.Join(testsDir(), name)
		if _, err := os.Stat(ds.dir); !errors.Is(err, fs.ErrNotExist) {
			return
		}
		if os.Getenv("NESCORE_OFFLINE") != "" {
			ds.err = fmt.Errorf("%s not found and NESCORE_OFFLINE is set", name)
			return
		}
		tb.Logf("%s directory not found, downloading it...", name)
		ds.err = fetch()
	})

	if ds.err != nil {
		tb.Skipf("test data unavailable: %s", ds.err)
	}
	return ds.dir
}

var roms, procTests dataset

// RomsPath returns the directory containing the nes-test-roms collection.
func RomsPath(tb testing.TB) string {
	return roms.get(tb, "nes-test-roms", func() error {
		return downloadTestRoms(testsDir())
	})
}

// TomHarteProcTestsPath returns the directory containing the per-opcode JSON
// processor tests.
func TomHarteProcTestsPath(tb testing.TB) string {
	return procTests.get(tb, "tomharte.processor.tests", func() error {
		return downloadProcTests(filepath.Join(testsDir(), "tomharte.processor.tests"))
	})
}
