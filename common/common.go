package common

import (
	"github.com/vvern/tinyfs/disk"
)

// On-disk format constants. These are not tunables: changing any of them
// changes the layout of every image.
const (
	NBITBLOCK uint64 = disk.BlockSize * 8
	INODEBLK  uint64 = disk.BlockSize / INODESZ

	INODESZ uint64 = 128 // on-disk size

	// Reserved metadata blocks, in image order.
	SUPERBLK   Bnum = 0
	IBITMAPBLK Bnum = 1
	DBITMAPBLK Bnum = 2
	INODESTART Bnum = 3

	NINODEBLK uint64 = 2 // blocks in the inode table
	NINODE    uint64 = NINODEBLK * INODEBLK

	DATASTART Bnum = INODESTART + Bnum(NINODEBLK)

	// Direct block pointers per inode: whatever is left of the record
	// after Size, Owner, and the meta word.
	NDIRECT uint64 = (INODESZ - 3*8) / 8

	// Capacity of the in-core inode table.
	NICACHE uint64 = 64

	// Default image size for mkfs, in blocks.
	NBLKIMG uint64 = 1024
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINUM Inum = 1
	NULLBNUM Bnum = 0
)
