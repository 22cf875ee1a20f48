package inode

import (
	"sync"

	"github.com/vvern/tinyfs/alloc"
	"github.com/vvern/tinyfs/common"
	"github.com/vvern/tinyfs/disk"
	"github.com/vvern/tinyfs/util"
)

// CInode is an in-core inode: the on-disk fields plus metadata that never
// reaches disk. Ref == 0 means the slot is free and its contents are
// meaningless; Ref > 0 means that many holders share this exact record,
// which mirrors on-disk inode Num.
type CInode struct {
	Inode
	Num common.Inum
	Ref uint32
}

// InodeMgr owns the in-core inode table and the two free-space bitmaps
// for one image. Construct it once at startup; the table lives for the
// process lifetime and is only ever mutated through the manager.
type InodeMgr struct {
	lock   *sync.Mutex // serializes cache find/acquire/release
	d      disk.Disk
	ialloc *alloc.Alloc
	balloc *alloc.Alloc
	cache  []*CInode
}

// MkInodeMgr creates a manager for an image of nblocks blocks with an
// empty inode table of NICACHE slots.
func MkInodeMgr(d disk.Disk, nblocks uint64) *InodeMgr {
	return mkInodeMgr(d, nblocks, common.NICACHE)
}

func mkInodeMgr(d disk.Disk, nblocks uint64, ncache uint64) *InodeMgr {
	cache := make([]*CInode, ncache)
	for i := range cache {
		cache[i] = &CInode{Inode: Inode{Blks: make([]common.Bnum, common.NDIRECT)}}
	}
	return &InodeMgr{
		lock:   new(sync.Mutex),
		d:      d,
		ialloc: alloc.MkAlloc(d, common.IBITMAPBLK, common.NINODE),
		balloc: alloc.MkAlloc(d, common.DBITMAPBLK, nblocks),
		cache:  cache,
	}
}

// findFree returns the first slot with no holders, or nil if every slot
// is held. Linear scan; the table is small and bounded by NICACHE.
func (mgr *InodeMgr) findFree() *CInode {
	for _, ip := range mgr.cache {
		if ip.Ref == 0 {
			return ip
		}
	}
	return nil
}

// findByNum returns the live slot holding inum, or nil.
func (mgr *InodeMgr) findByNum(inum common.Inum) *CInode {
	for _, ip := range mgr.cache {
		if ip.Ref > 0 && ip.Num == inum {
			return ip
		}
	}
	return nil
}

// Iget returns a shared in-core inode for inum, loading it from disk on a
// miss. Every holder of inum gets the same record, so a mutation made
// through one handle is immediately visible through the others. Returns
// nil (and no error) when all cache slots are held.
func (mgr *InodeMgr) Iget(inum common.Inum) (*CInode, error) {
	mgr.lock.Lock()
	defer mgr.lock.Unlock()

	if ip := mgr.findByNum(inum); ip != nil {
		ip.Ref++
		util.DPrintf(5, "Iget %d: hit, ref %d\n", inum, ip.Ref)
		return ip, nil
	}

	ip := mgr.findFree()
	if ip == nil {
		util.DPrintf(1, "Iget %d: inode table full\n", inum)
		return nil, nil
	}
	dip, err := ReadInode(mgr.d, inum)
	if err != nil {
		return nil, err
	}
	ip.Inode = *dip
	ip.Num = inum
	ip.Ref = 1
	util.DPrintf(5, "Iget %d: miss, loaded\n", inum)
	return ip, nil
}

// Iput releases one reference to ip. The last release writes the record
// back to disk; earlier releases do not touch the disk. Releasing a slot
// with no holders is a no-op, so a double put cannot corrupt the table.
func (mgr *InodeMgr) Iput(ip *CInode) error {
	mgr.lock.Lock()
	defer mgr.lock.Unlock()

	if ip.Ref == 0 {
		return nil
	}
	ip.Ref--
	if ip.Ref == 0 {
		util.DPrintf(5, "Iput %d: last ref, writing back\n", ip.Num)
		return WriteInode(mgr.d, ip.Num, &ip.Inode)
	}
	return nil
}

// Ialloc marks the lowest free inode number used in the inode bitmap and
// returns it. Returns NULLINUM when no inode is free; the caller still
// has to Iget the number and fill in its fields.
func (mgr *InodeMgr) Ialloc() (common.Inum, error) {
	n, err := mgr.ialloc.AllocNum()
	return common.Inum(n), err
}

// Ifree returns inum to the inode bitmap. The caller must have released
// every in-core reference first.
func (mgr *InodeMgr) Ifree(inum common.Inum) error {
	return mgr.ialloc.FreeNum(uint64(inum))
}

// Balloc allocates the lowest free data block, for the file-data layer.
// Returns NULLBNUM when the image is full.
func (mgr *InodeMgr) Balloc() (common.Bnum, error) {
	return mgr.balloc.AllocNum()
}

// Bfree returns data block bn to the data bitmap.
func (mgr *InodeMgr) Bfree(bn common.Bnum) error {
	return mgr.balloc.FreeNum(bn)
}
