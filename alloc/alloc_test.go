package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vvern/tinyfs/disk"
)

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func TestBitOps(t *testing.T) {
	assert := assert.New(t)
	blk := make(disk.Block, disk.BlockSize)

	SetBit(blk, 0)
	SetBit(blk, 9)
	assert.True(Bit(blk, 0))
	assert.True(Bit(blk, 9))
	assert.False(Bit(blk, 1))
	assert.False(Bit(blk, 8))

	ClearBit(blk, 9)
	assert.False(Bit(blk, 9))
	assert.True(Bit(blk, 0), "clearing one bit should not touch others")
}

func TestFindFreeBit(t *testing.T) {
	assert := assert.New(t)
	blk := make(disk.Block, disk.BlockSize)

	assert.Equal(0, FindFreeBit(blk, 32), "empty bitmap: lowest bit is 0")

	for n := uint64(0); n < 10; n++ {
		SetBit(blk, n)
	}
	assert.Equal(10, FindFreeBit(blk, 32))

	ClearBit(blk, 3)
	assert.Equal(3, FindFreeBit(blk, 32), "should prefer the lowest free bit")

	SetBit(blk, 3)
	for n := uint64(10); n < 32; n++ {
		SetBit(blk, n)
	}
	assert.Equal(-1, FindFreeBit(blk, 32), "full bitmap")
}

func mkTestAlloc(t *testing.T, nbits uint64) *Alloc {
	d := disk.NewMemDisk(4)
	a := MkAlloc(d, 0, nbits)
	// number 0 is reserved so AllocNum's failure sentinel stays unambiguous
	err := a.MarkUsed(0)
	assert.NoError(t, err)
	return a
}

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := mkTestAlloc(t, max)

	free, err := a.NumFree()
	assert.NoError(err)
	assert.Equal(max-1, free, "everything (but 0) should be initially free")

	n, err := a.AllocNum()
	assert.NoError(err)
	assert.NotEqual(uint64(0), n, "should not allocate 0")

	err = a.MarkUsed(n + 1)
	assert.NoError(err)
	n2, err := a.AllocNum()
	assert.NoError(err)
	assert.NotEqual(n+1, n2, "should not allocate something marked used")

	free, err = a.NumFree()
	assert.NoError(err)
	assert.Equal(max-4, free, "should have used 4 items")

	err = a.FreeNum(n)
	assert.NoError(err)
	err = a.FreeNum(n2)
	assert.NoError(err)
	free, err = a.NumFree()
	assert.NoError(err)
	assert.Equal(max-2, free, "should have freed")
}

func TestAllocLowestFirst(t *testing.T) {
	assert := assert.New(t)
	a := mkTestAlloc(t, 16)

	for want := uint64(1); want <= 5; want++ {
		n, err := a.AllocNum()
		assert.NoError(err)
		assert.Equal(want, n, "allocation should be lowest-first")
	}

	err := a.FreeNum(3)
	assert.NoError(err)
	n, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(3), n, "freed number should be reused before higher ones")
}

func TestAllocExhaustion(t *testing.T) {
	assert := assert.New(t)
	max := uint64(16)
	a := mkTestAlloc(t, max)

	seen := make(map[uint64]bool)
	for i := uint64(1); i < max; i++ {
		n, err := a.AllocNum()
		assert.NoError(err)
		assert.NotEqual(uint64(0), n)
		assert.False(seen[n], "allocated %d twice", n)
		seen[n] = true
	}

	n, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(0), n, "exhausted bitmap should return the sentinel")

	free, err := a.NumFree()
	assert.NoError(err)
	assert.Equal(uint64(0), free)
}

func TestFreeNumRange(t *testing.T) {
	assert := assert.New(t)
	a := mkTestAlloc(t, 16)
	assert.Error(a.FreeNum(0), "0 is never allocatable")
	assert.Error(a.FreeNum(16), "past the end of the bitmap")
}
