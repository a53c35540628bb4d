package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var rules, empty int
	for _, r := range Table() {
		if r.Empty {
			empty++
			continue
		}
		rules++
	}
	assert.Equal(t, 47, rules)
	assert.Equal(t, 1, empty)
}

func TestExpandPartition(t *testing.T) {
	tbl := Table()
	b, err := Expand(tbl[:])
	require.NoError(t, err)
	require.Len(t, b, Count)

	seen := make(map[Neighbor]int)
	for i, masks := range b {
		if tbl[i].Empty {
			assert.Empty(t, masks)
			continue
		}
		assert.Contains(t, masks, tbl[i].Mask, "rule %s must contain itself", tbl[i])
		for _, m := range masks {
			seen[m]++
		}
	}

	assert.Len(t, seen, NumMasks)
	for m, count := range seen {
		assert.Equal(t, 1, count, "mask %s is in more than one bucket", m)
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]struct {
		mask Neighbor
		rule Neighbor
	}{
		"isolated":                 {0, 0},
		"diagonals only":           {NorthWest | NorthEast | SouthWest | SouthEast, 0},
		"all neighbors":            {All, All},
		"north east without east":  {North | NorthEast, North},
		"corner kept":              {North | NorthEast | East, North | NorthEast | East},
		"south west without south": {West | SouthWest | East, West | East},
		"cross with one corner":    {North | South | East | West | SouthEast, North | South | East | West | SouthEast},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			i := Canonical(tt.mask)
			assert.Equal(t, Index(tt.rule), i)
			assert.Equal(t, tt.rule, Table()[i].Mask)
			assert.Contains(t, Bucket(i), tt.mask)
		})
	}
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 7, Index(All))
	assert.Equal(t, 10, Index(0))
	assert.Equal(t, -1, Index(NorthWest))

	x, y := Position(Index(All))
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)
}

func TestBucketIsCopy(t *testing.T) {
	b := Bucket(Index(All))
	b[0] = 0
	assert.Equal(t, All, Bucket(Index(All))[0])
}

func TestNormalize(t *testing.T) {
	for i := 0; i < NumMasks; i++ {
		m := Normalize(Neighbor(i))
		assert.Equal(t, m, Normalize(m))
		assert.Equal(t, Neighbor(i)&(North|East|South|West), m&(North|East|South|West))
	}
}

func TestExpandErrors(t *testing.T) {
	tests := map[string]func([]Rule){
		"missing rule": func(t []Rule) {
			t[Index(All)] = Rule{Empty: true}
		},
		"duplicate rule": func(t []Rule) {
			t[Index(0)] = Rule{Mask: All}
		},
		"non canonical rule": func(t []Rule) {
			t[17] = Rule{Mask: NorthWest}
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			tbl := Table()
			mutate(tbl[:])
			_, err := Expand(tbl[:])
			var ce *ConsistencyError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestNeighborString(t *testing.T) {
	assert.Equal(t, "0", Neighbor(0).String())
	assert.Equal(t, "N|E", (North | East).String())
	assert.Equal(t, "NW|N|NE|W|E|SW|S|SE", All.String())
}
