// inode implements on-disk inodes and the in-core inode table.
//
// On disk an inode is a fixed 128-byte little-endian record, INODEBLK of
// them packed per block starting at INODESTART. In core an inode is the
// same fields plus a reference count; InodeMgr hands out shared in-core
// inodes with iget/iput semantics.
package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/vvern/tinyfs/common"
	"github.com/vvern/tinyfs/disk"
)

// Flags bits of the on-disk inode.
const (
	FlagAlloc byte = 1 << 0
	FlagDir   byte = 1 << 1
)

// Inode holds the on-disk fields only. Blks has NDIRECT entries;
// NULLBNUM marks an unallocated pointer.
type Inode struct {
	Size  uint64
	Owner uint64
	Perms byte
	Flags byte
	Nlink byte
	Blks  []common.Bnum
}

func MkInode() *Inode {
	return &Inode{Blks: make([]common.Bnum, common.NDIRECT)}
}

func (ip *Inode) IsDir() bool {
	return ip.Flags&FlagDir != 0
}

// Locate maps an inode number to its containing block and the byte offset
// of its record within that block. Every access to the inode table goes
// through this arithmetic.
func Locate(inum common.Inum) (common.Bnum, uint64) {
	blkno := uint64(inum)/common.INODEBLK + common.INODESTART
	off := (uint64(inum) % common.INODEBLK) * common.INODESZ
	return blkno, off
}

// Encode packs the on-disk fields into an INODESZ-byte record: Size,
// Owner, one word holding Perms/Flags/Nlink, then the NDIRECT direct
// pointers.
func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt(ip.Size)
	enc.PutInt(ip.Owner)
	enc.PutBytes([]byte{ip.Perms, ip.Flags, ip.Nlink, 0, 0, 0, 0, 0})
	enc.PutInts(ip.Blks)
	return enc.Finish()
}

// Decode unpacks an INODESZ-byte record.
func Decode(b []byte) *Inode {
	dec := marshal.NewDec(b)
	ip := &Inode{}
	ip.Size = dec.GetInt()
	ip.Owner = dec.GetInt()
	meta := dec.GetBytes(8)
	ip.Perms = meta[0]
	ip.Flags = meta[1]
	ip.Nlink = meta[2]
	ip.Blks = dec.GetInts(common.NDIRECT)
	return ip
}

// ReadInode reads inode inum's on-disk fields. In-core metadata (the
// reference count and the inode number) is the caller's to fill in.
func ReadInode(d disk.Disk, inum common.Inum) (*Inode, error) {
	if uint64(inum) >= common.NINODE {
		return nil, fmt.Errorf("inode: read %d: out of range", inum)
	}
	blkno, off := Locate(inum)
	blk, err := d.Read(blkno)
	if err != nil {
		return nil, fmt.Errorf("inode: read %d: %v", inum, err)
	}
	return Decode(blk[off : off+common.INODESZ]), nil
}

// WriteInode persists inode inum's on-disk fields. The containing block is
// read first so the sibling inodes packed into it survive the write.
func WriteInode(d disk.Disk, inum common.Inum, ip *Inode) error {
	if uint64(inum) >= common.NINODE {
		return fmt.Errorf("inode: write %d: out of range", inum)
	}
	blkno, off := Locate(inum)
	blk, err := d.Read(blkno)
	if err != nil {
		return fmt.Errorf("inode: write %d: %v", inum, err)
	}
	copy(blk[off:off+common.INODESZ], ip.Encode())
	if err := d.Write(blkno, blk); err != nil {
		return fmt.Errorf("inode: write %d: %v", inum, err)
	}
	return nil
}
