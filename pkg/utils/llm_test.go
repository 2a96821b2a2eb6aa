package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"fenced": {
			in:   "```json\n{\"score\": 80}\n```",
			want: `{"score": 80}`,
		},
		"prose around object": {
			in:   `Here is the analysis: {"segment":"vip","notes":"a } inside"} thanks`,
			want: `{"segment":"vip","notes":"a } inside"}`,
		},
		"array": {
			in:   `result: [{"a":1},{"b":[2]}] done`,
			want: `[{"a":1},{"b":[2]}]`,
		},
		"escaped quote": {
			in:   `{"msg":"say \"hi\" {"}`,
			want: `{"msg":"say \"hi\" {"}`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanJSONResponse(tc.in))
		})
	}
}

func TestDecodeJSONAnswer(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	require.NoError(t, DecodeJSONAnswer("```json {\"score\": 42} ```", &out))
	assert.Equal(t, 42, out.Score)

	err := DecodeJSONAnswer("no json here", &out)
	assert.ErrorIs(t, err, ErrUnexpectedBehaviorOfAI)
}

func TestHashedEmbeddingIsNormalizedAndDeterministic(t *testing.T) {
	a := HashedEmbedding("Premium coffee beans")
	b := HashedEmbedding("premium   COFFEE beans")
	require.Len(t, a.Slice(), EmbeddingDimensions)
	assert.Equal(t, a.Slice(), b.Slice())

	var sum float64
	for _, v := range a.Slice() {
		sum += float64(v * v)
	}
	assert.InDelta(t, 1.0, sum, 1e-3)

	empty := HashedEmbedding("")
	for _, v := range empty.Slice() {
		assert.Zero(t, v)
	}
}
