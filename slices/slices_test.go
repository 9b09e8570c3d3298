package slices

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	t.Run("maps every element in order", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3"}, Map([]int{1, 2, 3}, strconv.Itoa))
	})

	t.Run("nil input gives empty output", func(t *testing.T) {
		assert.Empty(t, Map(nil, strconv.Itoa))
	})
}

func TestFilter(t *testing.T) {
	even := Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 })
	assert.Equal(t, []int{2, 4}, even)
}
