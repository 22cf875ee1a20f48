// super reads and writes the superblock and formats fresh images.
package super

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/vvern/tinyfs/alloc"
	"github.com/vvern/tinyfs/common"
	"github.com/vvern/tinyfs/disk"
	"github.com/vvern/tinyfs/inode"
)

const Magic uint64 = 0x74696e79667331 // "tinyfs1"

// FsSuper records the image layout in block 0. The values duplicate the
// format constants in common; Load checks them so that a foreign or
// corrupt image is rejected instead of misread.
type FsSuper struct {
	Magic      uint64
	NBlocks    uint64
	NInodes    uint64
	IBitmap    common.Bnum
	DBitmap    common.Bnum
	InodeStart common.Bnum
	NInodeBlk  uint64
	DataStart  common.Bnum
}

func MkFsSuper(nblocks uint64) *FsSuper {
	return &FsSuper{
		Magic:      Magic,
		NBlocks:    nblocks,
		NInodes:    common.NINODE,
		IBitmap:    common.IBITMAPBLK,
		DBitmap:    common.DBITMAPBLK,
		InodeStart: common.INODESTART,
		NInodeBlk:  common.NINODEBLK,
		DataStart:  common.DATASTART,
	}
}

func (sp *FsSuper) encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt(sp.Magic)
	enc.PutInt(sp.NBlocks)
	enc.PutInt(sp.NInodes)
	enc.PutInt(sp.IBitmap)
	enc.PutInt(sp.DBitmap)
	enc.PutInt(sp.InodeStart)
	enc.PutInt(sp.NInodeBlk)
	enc.PutInt(sp.DataStart)
	return enc.Finish()
}

func decode(blk disk.Block) *FsSuper {
	dec := marshal.NewDec(blk)
	sp := &FsSuper{}
	sp.Magic = dec.GetInt()
	sp.NBlocks = dec.GetInt()
	sp.NInodes = dec.GetInt()
	sp.IBitmap = dec.GetInt()
	sp.DBitmap = dec.GetInt()
	sp.InodeStart = dec.GetInt()
	sp.NInodeBlk = dec.GetInt()
	sp.DataStart = dec.GetInt()
	return sp
}

// Load reads and validates the superblock of a formatted image.
func Load(d disk.Disk) (*FsSuper, error) {
	blk, err := d.Read(common.SUPERBLK)
	if err != nil {
		return nil, err
	}
	sp := decode(blk)
	if sp.Magic != Magic {
		return nil, fmt.Errorf("super: bad magic %#x", sp.Magic)
	}
	nblocks, err := d.Size()
	if err != nil {
		return nil, err
	}
	if sp.NBlocks > nblocks {
		return nil, fmt.Errorf("super: superblock says %d blocks but image has %d",
			sp.NBlocks, nblocks)
	}
	return sp, nil
}

// Mkfs formats d as an empty filesystem: superblock, both bitmaps with
// the metadata blocks and the null inode reserved, a zeroed inode table,
// and a root directory inode allocated as ROOTINUM. Directory entries
// are the directory layer's concern and are not written here.
func Mkfs(d disk.Disk) (*FsSuper, error) {
	nblocks, err := d.Size()
	if err != nil {
		return nil, err
	}
	if nblocks <= common.DATASTART {
		return nil, fmt.Errorf("super: image too small (%d blocks)", nblocks)
	}
	sp := MkFsSuper(nblocks)

	zero := make(disk.Block, disk.BlockSize)
	for bn := uint64(0); bn < common.DATASTART; bn++ {
		if err := d.Write(bn, zero); err != nil {
			return nil, err
		}
	}
	if err := d.Write(common.SUPERBLK, sp.encode()); err != nil {
		return nil, err
	}

	ba := alloc.MkAlloc(d, common.DBITMAPBLK, nblocks)
	for bn := uint64(0); bn < common.DATASTART; bn++ {
		if err := ba.MarkUsed(bn); err != nil {
			return nil, err
		}
	}
	ia := alloc.MkAlloc(d, common.IBITMAPBLK, common.NINODE)
	if err := ia.MarkUsed(uint64(common.NULLINUM)); err != nil {
		return nil, err
	}

	mgr := inode.MkInodeMgr(d, nblocks)
	rootnum, err := mgr.Ialloc()
	if err != nil {
		return nil, err
	}
	if rootnum != common.ROOTINUM {
		return nil, fmt.Errorf("super: root inode is %d, want %d", rootnum, common.ROOTINUM)
	}
	root, err := mgr.Iget(rootnum)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("super: inode table full during mkfs")
	}
	root.Flags = inode.FlagAlloc | inode.FlagDir
	root.Nlink = 1
	if err := mgr.Iput(root); err != nil {
		return nil, err
	}

	if err := d.Barrier(); err != nil {
		return nil, err
	}
	return sp, nil
}
