package io

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// DataSet draws random row subsets from a table.
type DataSet struct {
	Table       *Table
	Rand        *rand.Rand
	dataIndices []int
}

func NewDataSet(table *Table, rnd *rand.Rand) *DataSet {
	dataIndices := make([]int, table.Size())
	for i := range dataIndices {
		dataIndices[i] = i
	}
	return &DataSet{Table: table, Rand: rnd, dataIndices: dataIndices}
}

func (d *DataSet) Size() int {
	return len(d.dataIndices)
}

// RandomSplit shuffles the rows and cuts them into consecutive subsets of the
// requested sizes. Rows left over after the last size are dropped.
func (d *DataSet) RandomSplit(sizes ...int) ([]*Table, error) {
	total := 0
	for _, size := range sizes {
		if size < 0 {
			return nil, errors.Errorf("negative split size %d", size)
		}
		total += size
	}
	if total > d.Size() {
		return nil, errors.Errorf("split sizes add up to %d, dataset has %d rows", total, d.Size())
	}

	indices := make([]int, len(d.dataIndices))
	copy(indices, d.dataIndices)
	d.Rand.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	splits := make([]*Table, len(sizes))
	idx := 0
	for i, size := range sizes {
		splits[i] = d.Table.Subset(indices[idx : idx+size])
		idx += size
	}
	return splits, nil
}

// TrainTestSplit holds out ceil(n*testSize) shuffled rows as the test set.
func (d *DataSet) TrainTestSplit(testSize float64) (train, test *Table, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	n := d.Size()
	nTest := int(math.Ceil(float64(n) * testSize))
	nTrain := n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return nil, nil, errors.Errorf("cannot split %d rows with test size %v", n, testSize)
	}
	splits, err := d.RandomSplit(nTrain, nTest)
	if err != nil {
		return nil, nil, err
	}
	return splits[0], splits[1], nil
}
