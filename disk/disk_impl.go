package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var _ Disk = (*FileDisk)(nil)

// FileDisk is a disk backed by a file (or a block device), accessed with
// positioned reads and writes at block granularity.
type FileDisk struct {
	fd        int
	numBlocks uint64
}

// NewFileDisk creates or opens the image at path and sizes it to numBlocks
// blocks.
func NewFileDisk(path string, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, err
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if (stat.Mode&unix.S_IFREG) != 0 && uint64(stat.Size) != numBlocks*BlockSize {
		if err := unix.Ftruncate(fd, int64(numBlocks*BlockSize)); err != nil {
			unix.Close(fd)
			return nil, err
		}
	}
	return &FileDisk{fd, numBlocks}, nil
}

// OpenFileDisk opens an existing image without resizing it, deriving the
// block count from the image's current length.
func OpenFileDisk(path string) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &FileDisk{fd, uint64(stat.Size) / BlockSize}, nil
}

func (d *FileDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return fmt.Errorf("disk: buffer is not block-sized (%d bytes)", len(buf))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("disk: out-of-bounds read at %d", a)
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("disk: read block %d: %v", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("disk: short read at block %d (%d of %d bytes)", a, n, BlockSize)
	}
	return nil
}

func (d *FileDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *FileDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("disk: v is not block-sized (%d bytes)", len(v))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("disk: out-of-bounds write at %d", a)
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("disk: write block %d: %v", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("disk: short write at block %d (%d of %d bytes)", a, n, BlockSize)
	}
	return nil
}

func (d *FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *FileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	if err := unix.Fsync(d.fd); err != nil {
		return fmt.Errorf("disk: sync: %v", err)
	}
	return nil
}

func (d *FileDisk) Close() error {
	return unix.Close(d.fd)
}

var _ Disk = MemDisk{}

// MemDisk is an in-memory disk, for tests and tooling.
type MemDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) MemDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return MemDisk{l: new(sync.RWMutex), blocks: blocks}
}

func (d MemDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return fmt.Errorf("disk: buffer is not block-sized (%d bytes)", len(buf))
	}
	d.l.RLock()
	defer d.l.RUnlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("disk: out-of-bounds read at %d", a)
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d MemDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("disk: v is not block-sized (%d bytes)", len(v))
	}
	d.l.Lock()
	defer d.l.Unlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("disk: out-of-bounds write at %d", a)
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d MemDisk) Barrier() error { return nil }

func (d MemDisk) Close() error { return nil }
