// alloc manages the on-disk free-space bitmaps. One Alloc tracks one
// bitmap block: bit i records whether number i is in use (1 = allocated,
// 0 = free), so the bitmap covers inode numbers and data block numbers
// with the same code.
package alloc

import (
	"fmt"
	"sync"

	"github.com/vvern/tinyfs/common"
	"github.com/vvern/tinyfs/disk"
	"github.com/vvern/tinyfs/util"
)

// Alloc allocates and frees numbers out of a single bitmap block.
// Allocation is a read-modify-write of the block, serialized by lock.
type Alloc struct {
	lock  *sync.Mutex
	d     disk.Disk
	blkno common.Bnum
	nbits uint64
}

func MkAlloc(d disk.Disk, blkno common.Bnum, nbits uint64) *Alloc {
	if nbits > common.NBITBLOCK {
		nbits = common.NBITBLOCK
	}
	return &Alloc{
		lock:  new(sync.Mutex),
		d:     d,
		blkno: blkno,
		nbits: nbits,
	}
}

// FindFreeBit returns the lowest-numbered clear bit below nbits, or -1 if
// every bit is set. Scanning low-to-high keeps allocation deterministic and
// packs allocations toward low numbers.
func FindFreeBit(blk disk.Block, nbits uint64) int {
	for n := uint64(0); n < nbits; n++ {
		if blk[n/8] == 0xff {
			n += 7 - n%8
			continue
		}
		if !Bit(blk, n) {
			return int(n)
		}
	}
	return -1
}

// Bit reports bit n of blk.
func Bit(blk disk.Block, n uint64) bool {
	return blk[n/8]&(1<<(n%8)) != 0
}

// SetBit marks bit n of blk allocated. Only the in-memory copy changes;
// the caller persists the block.
func SetBit(blk disk.Block, n uint64) {
	blk[n/8] |= 1 << (n % 8)
}

// ClearBit marks bit n of blk free.
func ClearBit(blk disk.Block, n uint64) {
	blk[n/8] &= ^(byte(1) << (n % 8))
}

func popCnt(b byte) uint64 {
	var n uint64
	for ; b != 0; b >>= 1 {
		n += uint64(b & 1)
	}
	return n
}

// AllocNum allocates the lowest free number and writes the bitmap block
// back. Returns 0 when the bitmap is exhausted; callers reserve number 0
// up front (mkfs does) so the sentinel is unambiguous.
func (a *Alloc) AllocNum() (uint64, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	blk, err := a.d.Read(a.blkno)
	if err != nil {
		return 0, err
	}
	n := FindFreeBit(blk, a.nbits)
	if n == -1 {
		util.DPrintf(1, "AllocNum: bitmap %d exhausted\n", a.blkno)
		return 0, nil
	}
	SetBit(blk, uint64(n))
	if err := a.d.Write(a.blkno, blk); err != nil {
		return 0, err
	}
	util.DPrintf(5, "AllocNum: bitmap %d -> %d\n", a.blkno, n)
	return uint64(n), nil
}

// FreeNum clears bit n and writes the bitmap block back.
func (a *Alloc) FreeNum(n uint64) error {
	if n == 0 || n >= a.nbits {
		return fmt.Errorf("alloc: free %d: out of range", n)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	blk, err := a.d.Read(a.blkno)
	if err != nil {
		return err
	}
	ClearBit(blk, n)
	return a.d.Write(a.blkno, blk)
}

// MarkUsed sets bit n without scanning, for reserving numbers that must
// never be handed out (the metadata blocks, the null inode).
func (a *Alloc) MarkUsed(n uint64) error {
	if n >= a.nbits {
		return fmt.Errorf("alloc: mark %d: out of range", n)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	blk, err := a.d.Read(a.blkno)
	if err != nil {
		return err
	}
	SetBit(blk, n)
	return a.d.Write(a.blkno, blk)
}

// NumFree counts the clear bits below nbits.
func (a *Alloc) NumFree() (uint64, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	blk, err := a.d.Read(a.blkno)
	if err != nil {
		return 0, err
	}
	var used uint64
	for i := uint64(0); i < a.nbits/8; i++ {
		used += popCnt(blk[i])
	}
	for n := a.nbits - a.nbits%8; n < a.nbits; n++ {
		if Bit(blk, n) {
			used++
		}
	}
	return a.nbits - used, nil
}
