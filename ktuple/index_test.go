package ktuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/dotplot/alphabet"
)

func TestBuildAndPositions(t *testing.T) {
	seq := alphabet.DNA.Encode("ACGTACGT")
	idx, err := Build(seq, 4, alphabet.DNA)
	require.NoError(t, err)

	tHash, ok := alphabet.DNA.TupleHash(seq[0:4]) // "ACGT"
	require.True(t, ok)
	assert.Equal(t, []int32{0, 4}, idx.Positions(tHash))
}

func TestBuildSkipsPoisonedTuples(t *testing.T) {
	seq := alphabet.DNA.Encode("ACGNACGT") // 'N' at index 3 poisons tuples starting at 0,1,2,3.
	idx, err := Build(seq, 4, alphabet.DNA)
	require.NoError(t, err)

	for poisonedStart := 0; poisonedStart <= 3; poisonedStart++ {
		_, ok := alphabet.DNA.TupleHash(seq[poisonedStart : poisonedStart+4])
		assert.False(t, ok)
	}
	// Only position 4 ("ACGT") survives.
	assert.Equal(t, 1, idx.NumPositions())
}

func TestPositionCountInvariant(t *testing.T) {
	// sum over t of |positions(t)| == max(0, len(S)-k+1) - poisoned positions.
	seq := alphabet.DNA.Encode("ACGTNNACGTACGT")
	k := 4
	idx, err := Build(seq, k, alphabet.DNA)
	require.NoError(t, err)

	clean := 0
	for i := 0; i <= len(seq)-k; i++ {
		if _, ok := alphabet.DNA.TupleHash(seq[i : i+k]); ok {
			clean++
		}
	}
	assert.Equal(t, clean, idx.NumPositions())
}

func TestBuildRejectsSmallK(t *testing.T) {
	seq := alphabet.DNA.Encode("ACGT")
	_, err := Build(seq, 3, alphabet.DNA)
	assert.Error(t, err)
}

func TestBuildRejectsShortSequence(t *testing.T) {
	seq := alphabet.DNA.Encode("AC")
	_, err := Build(seq, 4, alphabet.DNA)
	assert.Error(t, err)
}
