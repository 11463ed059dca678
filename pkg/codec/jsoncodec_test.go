package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParamsIsStable(t *testing.T) {
	s, err := EncodeParams(map[string]string{"end_date": "2024-02-01", "binning": "<5>", "start_date": "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, `{"binning":"<5>","end_date":"2024-02-01","start_date":"2024-01-01"}`, s)

	s, err = EncodeParams(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, s)
}

func TestDecodeParams(t *testing.T) {
	p, err := DecodeParams(`{"a":"1","b":"2"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, p)

	p, err = DecodeParams("")
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = DecodeParams("null")
	require.NoError(t, err)
	assert.NotNil(t, p)

	for _, bad := range []string{`{"a":1}`, `{"a":"1"} {}`, `[1]`, `{`} {
		_, err := DecodeParams(bad)
		assert.Error(t, err, bad)
	}
}
