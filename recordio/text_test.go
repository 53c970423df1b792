package recordio_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/davidvella/xsort/recordio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr string
	}{
		{
			name:  "one per line",
			input: "9\n1\n5\n",
			want:  []int64{9, 1, 5},
		},
		{
			name:  "several per line with blank lines",
			input: "9 1\n\n   \n5\t2  7\r\n3",
			want:  []int64{9, 1, 5, 2, 7, 3},
		},
		{
			name:  "signs",
			input: "-4 +4 0",
			want:  []int64{-4, 4, 0},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "\n \n\t\n",
			want:  nil,
		},
		{
			name:    "malformed token",
			input:   "1 2 x3 4",
			want:    []int64{1, 2},
			wantErr: `malformed record: token 2 "x3": strconv.ParseInt: parsing "x3": invalid syntax`,
		},
		{
			name:    "out of range",
			input:   "9223372036854775808",
			wantErr: `malformed record: token 0 "9223372036854775808": strconv.ParseInt: parsing "9223372036854775808": value out of range`,
		},
		{
			name:    "decimal point",
			input:   "1.5",
			wantErr: `malformed record: token 0 "1.5": strconv.ParseInt: parsing "1.5": invalid syntax`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got []int64
				err error
			)
			for v, e := range recordio.Tokens(strings.NewReader(tt.input)) {
				if e != nil {
					err = e
					break
				}
				got = append(got, v)
			}

			assert.Equal(t, tt.want, got)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.ErrorIs(t, err, recordio.ErrMalformedRecord)

			var perr *recordio.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, int64(len(tt.want)), perr.Index)
		})
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	tw := recordio.NewTextWriter(&buf)

	for _, v := range []int64{-3, 0, 12, 9223372036854775807} {
		require.NoError(t, tw.Write(v))
	}
	assert.Empty(t, buf.String(), "writes are buffered until Flush")

	require.NoError(t, tw.Flush())
	assert.Equal(t, "-3\n0\n12\n9223372036854775807\n", buf.String())
}

func TestTextWriterHandleError(t *testing.T) {
	tw := recordio.NewTextWriter(&mockWriter{errorCounter: 1})

	require.NoError(t, tw.Write(1))
	assert.ErrorIs(t, tw.Flush(), errWrite)
}

func TestTokensRoundTrip(t *testing.T) {
	want := []int64{5, -1, 5, 0, 77}

	var buf bytes.Buffer
	tw := recordio.NewTextWriter(&buf)
	for _, v := range want {
		require.NoError(t, tw.Write(v))
	}
	require.NoError(t, tw.Flush())

	var got []int64
	for v, err := range recordio.Tokens(&buf) {
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, want, got)
}
