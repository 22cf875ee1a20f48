package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vvern/tinyfs/alloc"
	"github.com/vvern/tinyfs/disk"
	"github.com/vvern/tinyfs/super"
)

var infoImage string

func init() {
	infoCmd.Flags().StringVar(&infoImage, "image", "tinyfs.img", "path to the disk image")
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print the superblock and free-space summary of an image",
	Run: func(cmd *cobra.Command, args []string) {
		d, err := disk.OpenFileDisk(infoImage)
		if err != nil {
			logrus.Fatalf("open image: %v", err)
		}
		defer d.Close()

		sp, err := super.Load(d)
		if err != nil {
			logrus.Fatalf("read superblock: %v", err)
		}

		ia := alloc.MkAlloc(d, sp.IBitmap, sp.NInodes)
		ifree, err := ia.NumFree()
		if err != nil {
			logrus.Fatalf("inode bitmap: %v", err)
		}
		ba := alloc.MkAlloc(d, sp.DBitmap, sp.NBlocks)
		bfree, err := ba.NumFree()
		if err != nil {
			logrus.Fatalf("data bitmap: %v", err)
		}

		logrus.Infof("%s: %d blocks, %d inodes", infoImage, sp.NBlocks, sp.NInodes)
		logrus.Infof("inode table: blocks %d..%d, data starts at block %d",
			sp.InodeStart, sp.InodeStart+sp.NInodeBlk-1, sp.DataStart)
		logrus.Infof("free: %d inodes, %d data blocks", ifree, bfree)
	},
}
