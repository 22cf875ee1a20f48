package disk

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pattern(b byte) Block {
	blk := make(Block, BlockSize)
	for i := range blk {
		blk[i] = b
	}
	return blk
}

func TestMemDiskReadWrite(t *testing.T) {
	assert := assert.New(t)
	d := NewMemDisk(10)

	blk, err := d.Read(3)
	assert.NoError(err)
	assert.Equal(pattern(0), blk, "fresh disk reads as zeros")

	err = d.Write(3, pattern(0xaa))
	assert.NoError(err)
	blk, err = d.Read(3)
	assert.NoError(err)
	assert.Equal(pattern(0xaa), blk)

	blk, err = d.Read(4)
	assert.NoError(err)
	assert.Equal(pattern(0), blk, "writes should not leak into other blocks")

	sz, err := d.Size()
	assert.NoError(err)
	assert.Equal(uint64(10), sz)
}

func TestMemDiskErrors(t *testing.T) {
	assert := assert.New(t)
	d := NewMemDisk(2)

	_, err := d.Read(2)
	assert.Error(err, "out-of-bounds read")
	assert.Error(d.Write(2, pattern(1)), "out-of-bounds write")
	assert.Error(d.Write(0, make(Block, 10)), "short buffer")
	assert.Error(d.ReadTo(0, make(Block, 10)), "short buffer")
}

func TestFileDisk(t *testing.T) {
	assert := assert.New(t)
	dir, err := ioutil.TempDir("", "tinyfs-disk")
	assert.NoError(err)
	defer os.RemoveAll(dir)
	img := path.Join(dir, "disk.img")

	d, err := NewFileDisk(img, 10)
	assert.NoError(err)
	err = d.Write(7, pattern(0x5c))
	assert.NoError(err)
	err = d.Barrier()
	assert.NoError(err)
	assert.NoError(d.Close())

	// reopen without resizing and check persistence
	d2, err := OpenFileDisk(img)
	assert.NoError(err)
	defer d2.Close()
	sz, err := d2.Size()
	assert.NoError(err)
	assert.Equal(uint64(10), sz)
	blk, err := d2.Read(7)
	assert.NoError(err)
	assert.Equal(pattern(0x5c), blk)
	blk, err = d2.Read(0)
	assert.NoError(err)
	assert.Equal(pattern(0), blk)
}
