//go:build unit

package request_test

import (
	"regexp"
	"testing"

	"repairmatch/internal/domain/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	pattern := regexp.MustCompile(`^RQ-[0-9A-HJKMNP-TV-Z]{5}$`)

	seen := make(map[string]struct{})
	for range 100 {
		code, err := request.NewCode("RQ")
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	// 32^5 codes; 100 draws colliding would mean the generator is broken.
	assert.Greater(t, len(seen), 90)
}

func TestNewCodeExcludesAmbiguousSymbols(t *testing.T) {
	for range 200 {
		code, err := request.NewCode("RQ")
		require.NoError(t, err)
		assert.NotRegexp(t, `[ILOU]`, code[3:])
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		errIs error
	}{
		{name: "already normalized", in: "RQ-7GKXW", want: "RQ-7GKXW"},
		{name: "lowercase input", in: "rq-7gkxw", want: "RQ-7GKXW"},
		{name: "surrounding whitespace", in: "  RQ-7GKXW\n", want: "RQ-7GKXW"},
		{name: "missing prefix", in: "7GKXW", errIs: request.ErrInvalidCode},
		{name: "too short", in: "RQ-7GKX", errIs: request.ErrInvalidCode},
		{name: "too long", in: "RQ-7GKXW2", errIs: request.ErrInvalidCode},
		{name: "ambiguous symbol", in: "RQ-7GKXO", errIs: request.ErrInvalidCode},
		{name: "empty", in: "", errIs: request.ErrInvalidCode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := request.NormalizeCode(tc.in)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
