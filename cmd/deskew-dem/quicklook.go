package main

import (
	"github.com/etrochim/ASF-MapReady/pkg/deskew"
	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// writeQuicklooks renders the corrected output (and mask, if any)
// into browsable images next to the products.
func writeQuicklooks(cfg deskew.Config, prefix string) error {
	im, err := raster.OpenImage(cfg.Output)
	if err != nil {
		return err
	}
	defer im.Close()

	g, err := raster.ReadGrid(im, 0)
	if err != nil {
		return err
	}

	if err := g.ToPNG("terrain corrected", prefix+".png"); err != nil {
		return err
	}
	if err := g.ToTIFF(prefix + ".tif"); err != nil {
		return err
	}
	if err := g.ToHDR(prefix + ".hdr"); err != nil {
		return err
	}

	if cfg.OutMask != "" {
		if err := deskew.MaskQuicklook(cfg.OutMask, prefix+"-mask.png"); err != nil {
			return err
		}
	}
	return nil
}
