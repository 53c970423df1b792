package xsort_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/davidvella/xsort"
	"github.com/davidvella/xsort/merger"
	"github.com/davidvella/xsort/recordio"
	"github.com/davidvella/xsort/run"
	"github.com/davidvella/xsort/storage/local"
	"github.com/davidvella/xsort/storage/memory"
	pebblestore "github.com/davidvella/xsort/storage/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomInput(seed int64, n int) ([]int64, string) {
	r := rand.New(rand.NewSource(seed))
	values := make([]int64, n)

	var sb strings.Builder
	for i := range values {
		values[i] = r.Int63n(1_000_000) - 500_000
		sb.WriteString(strconv.FormatInt(values[i], 10))
		sb.WriteByte('\n')
	}
	return values, sb.String()
}

func parseOutput(t *testing.T, out string) []int64 {
	t.Helper()

	got := []int64{}
	for v, err := range recordio.Tokens(strings.NewReader(out)) {
		require.NoError(t, err)
		got = append(got, v)
	}
	return got
}

func expectedPasses(p, r int) int {
	passes := 0
	for r > 1 {
		r = (r + p - 1) / p
		passes++
	}
	return passes
}

func TestNew_InvalidFanIn(t *testing.T) {
	for _, p := range []int{-1, 0, 1} {
		_, err := xsort.New(p)
		assert.ErrorIs(t, err, xsort.ErrInvalidFanIn)
	}
}

func TestNew_UnknownOptions(t *testing.T) {
	_, err := xsort.New(2, xsort.WithRunFormation(xsort.RunFormation(9)))
	assert.ErrorIs(t, err, xsort.ErrUnknownRunFormation)

	_, err = xsort.New(2, xsort.WithMergeStrategy(merger.Strategy(9)))
	assert.ErrorIs(t, err, merger.ErrUnknownStrategy)
}

func TestSorter_Sort(t *testing.T) {
	tests := []struct {
		name  string
		fanIn int
		input string
		want  string
		stats xsort.Stats
	}{
		{
			name:  "empty input",
			fanIn: 2,
			input: "",
			want:  "",
			stats: xsort.Stats{FanIn: 2},
		},
		{
			name:  "fits in the working set",
			fanIn: 4,
			input: "5\n3\n8\n1\n",
			want:  "1\n3\n5\n8\n",
			stats: xsort.Stats{Records: 4, FanIn: 4, Runs: 1, Passes: 0},
		},
		{
			name:  "two runs one pass",
			fanIn: 2,
			input: "9\n1\n5\n2\n7\n3\n",
			want:  "1\n2\n3\n5\n7\n9\n",
			stats: xsort.Stats{Records: 6, FanIn: 2, Runs: 2, Passes: 1},
		},
		{
			name:  "blank lines and surrounding spaces",
			fanIn: 2,
			input: "\n  3\n\n\t1  \n\n2",
			want:  "1\n2\n3\n",
			stats: xsort.Stats{Records: 3, FanIn: 2, Runs: 1, Passes: 0},
		},
		{
			name:  "duplicates and extremes",
			fanIn: 3,
			input: "9223372036854775807 -9223372036854775808 0 0 -1",
			want:  "-9223372036854775808\n-1\n0\n0\n9223372036854775807\n",
			stats: xsort.Stats{Records: 5, FanIn: 3, Runs: 2, Passes: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := memory.NewStorage()
			s, err := xsort.New(tt.fanIn, xsort.WithStorage(storage))
			require.NoError(t, err)

			var out bytes.Buffer
			stats, err := s.Sort(context.Background(), strings.NewReader(tt.input), &out)
			require.NoError(t, err)

			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, tt.stats, stats)
			assert.Equal(t, 0, storage.Len(), "no runs are left behind")
		})
	}
}

func TestSorter_Configurations(t *testing.T) {
	values, input := randomInput(1, 3000)
	want := slices.Clone(values)
	slices.Sort(want)

	storages := map[string]func(t *testing.T) run.Storage{
		"memory": func(*testing.T) run.Storage { return memory.NewStorage() },
		"local": func(t *testing.T) run.Storage {
			return local.NewLocalStorage(t.TempDir())
		},
		"pebble": func(t *testing.T) run.Storage {
			s, err := pebblestore.NewStorage(pebblestore.Options{
				Path:      filepath.Join(t.TempDir(), "runs"),
				BlockSize: 512,
			})
			require.NoError(t, err)
			return s
		},
	}

	for storageName, newStorage := range storages {
		for _, formation := range []xsort.RunFormation{xsort.ReplacementSelection, xsort.Chunked} {
			for _, strategy := range []merger.Strategy{merger.Heap, merger.Tournament} {
				for _, compress := range []bool{false, true} {
					name := fmt.Sprintf("%s/%s/%s/compress=%t", storageName, formation, strategy, compress)
					t.Run(name, func(t *testing.T) {
						ctx := context.Background()
						fanIn := 7

						s, err := xsort.New(fanIn,
							xsort.WithStorage(newStorage(t)),
							xsort.WithRunFormation(formation),
							xsort.WithMergeStrategy(strategy),
							xsort.WithCompression(compress))
						require.NoError(t, err)
						defer func() { require.NoError(t, s.Close()) }()

						var out bytes.Buffer
						stats, err := s.Sort(ctx, strings.NewReader(input), &out)
						require.NoError(t, err)

						assert.Equal(t, want, parseOutput(t, out.String()))
						assert.Equal(t, int64(len(values)), stats.Records)
						assert.Equal(t, expectedPasses(fanIn, stats.Runs), stats.Passes)
						assert.LessOrEqual(t, stats.Runs, (len(values)+fanIn-1)/fanIn)
						if formation == xsort.Chunked {
							assert.Equal(t, (len(values)+fanIn-1)/fanIn, stats.Runs)
						}
					})
				}
			}
		}
	}
}

func TestSorter_MalformedInput(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorage()
	s, err := xsort.New(2, xsort.WithStorage(storage))
	require.NoError(t, err)

	var out bytes.Buffer
	stats, err := s.Sort(ctx, strings.NewReader("4 3 2 1 12abc 0"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, recordio.ErrMalformedRecord)
	assert.Contains(t, err.Error(), `"12abc"`)
	assert.Equal(t, int64(4), stats.Records)
	assert.Empty(t, out.String())

	assert.Positive(t, storage.Len(), "runs stay until cleanup")
	require.NoError(t, s.Cleanup(ctx))
	assert.Equal(t, 0, storage.Len())
	require.NoError(t, s.Cleanup(ctx))
}

func TestSorter_Cancelled(t *testing.T) {
	_, input := randomInput(2, 100)
	storage := memory.NewStorage()
	s, err := xsort.New(2, xsort.WithStorage(storage))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Sort(ctx, strings.NewReader(input), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, s.Cleanup(context.Background()))
	assert.Equal(t, 0, storage.Len())
}

func TestSorter_SortFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "input.txt")
	out := filepath.Join(dir, "output.txt")

	values, input := randomInput(3, 500)
	require.NoError(t, os.WriteFile(in, []byte(input), 0o600))

	runDir := t.TempDir()
	s, err := xsort.New(3, xsort.WithStorage(local.NewLocalStorage(runDir)))
	require.NoError(t, err)

	stats, err := s.SortFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stats.Records)

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	want := slices.Clone(values)
	slices.Sort(want)
	assert.Equal(t, want, parseOutput(t, string(content)))

	left, err := local.NewLocalStorage(runDir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSorter_SortFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	s, err := xsort.New(2, xsort.WithStorage(memory.NewStorage()))
	require.NoError(t, err)

	_, err = s.SortFile(context.Background(), filepath.Join(dir, "missing.txt"), filepath.Join(dir, "out.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(dir, "out.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist, "output is not created when the input is missing")
}

func TestStats_String(t *testing.T) {
	stats := xsort.Stats{Records: 6, FanIn: 2, Runs: 2, Passes: 1}
	assert.Equal(t, "#Regs Ways #Runs #Parses\n6 2 2 1", stats.String())
}

func TestParseRunFormation(t *testing.T) {
	for _, f := range []xsort.RunFormation{xsort.ReplacementSelection, xsort.Chunked} {
		got, err := xsort.ParseRunFormation(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := xsort.ParseRunFormation("quick")
	assert.ErrorIs(t, err, xsort.ErrUnknownRunFormation)
}

func BenchmarkSorter_Sort(b *testing.B) {
	_, input := randomInput(4, 100_000)
	for _, fanIn := range []int{8, 64, 512} {
		b.Run(strconv.Itoa(fanIn), func(b *testing.B) {
			s, err := xsort.New(fanIn, xsort.WithStorage(memory.NewStorage()))
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < b.N; i++ {
				if _, err := s.Sort(context.Background(), strings.NewReader(input), io.Discard); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
