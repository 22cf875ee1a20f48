package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vvern/tinyfs/common"
	"github.com/vvern/tinyfs/disk"
	"github.com/vvern/tinyfs/super"
)

var (
	mkfsImage  string
	mkfsBlocks uint64
)

func init() {
	mkfsCmd.Flags().StringVar(&mkfsImage, "image", "tinyfs.img", "path to the disk image")
	mkfsCmd.Flags().Uint64Var(&mkfsBlocks, "blocks", common.NBLKIMG, "image size in blocks")
}

var mkfsCmd = &cobra.Command{
	Use:   "mkfs",
	Short: "create an empty filesystem image",
	Run: func(cmd *cobra.Command, args []string) {
		d, err := disk.NewFileDisk(mkfsImage, mkfsBlocks)
		if err != nil {
			logrus.Fatalf("open image: %v", err)
		}
		defer d.Close()

		sp, err := super.Mkfs(d)
		if err != nil {
			logrus.Fatalf("mkfs: %v", err)
		}
		logrus.Infof("created %s: %d blocks, %d inodes, data starts at block %d",
			mkfsImage, sp.NBlocks, sp.NInodes, sp.DataStart)
	},
}
