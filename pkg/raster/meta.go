package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Image geometry types. A slant range image is in the sensor's native
// geometry; ground range is along-track/cross-track on the ellipsoid;
// map projected rasters are on some cartographic grid and are not
// usable by the terrain correction engine.
const (
	ImageTypeSlant        = "S"
	ImageTypeGround       = "G"
	ImageTypeMapProjected = "P"
)

// Meta is the per-scene metadata record, stored as a YAML sidecar
// next to the .img file. Distances are meters; the satellite height
// is measured from the center of the Earth, like the earth radius.
type Meta struct {
	Lines           int      `yaml:"lines"`
	Samples         int      `yaml:"samples"`
	XPixelSize      float64  `yaml:"x_pixel_size"`
	YPixelSize      float64  `yaml:"y_pixel_size"`
	StartSample     int      `yaml:"start_sample"`
	SampleIncrement int      `yaml:"sample_increment"`
	SlantFirst      float64  `yaml:"slant_range_first"`
	SlantPer        float64  `yaml:"slant_range_per_pixel"`
	EarthRadius     float64  `yaml:"earth_radius"`
	SatHeight       float64  `yaml:"satellite_height"`
	ImageType       string   `yaml:"image_type"`
	BandCount       int      `yaml:"band_count"`
	Bands           []string `yaml:"bands"`
	DataType        string   `yaml:"data_type"`
	NoData          float64  `yaml:"no_data"`
	Radiometry      string   `yaml:"radiometry"`
}

func (m Meta)AsYaml() string {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Sprintf("meta marshal failed: %v", err)
	}
	return string(b)
}

// MetaPath maps an image path to its sidecar path, e.g.
// "scene.img" -> "scene.meta".
func MetaPath(imgPath string) string {
	ext := filepath.Ext(imgPath)
	return strings.TrimSuffix(imgPath, ext) + ".meta"
}

func ReadMeta(imgPath string) (Meta, error) {
	m := Meta{SampleIncrement: 1, BandCount: 1}
	contents, err := os.ReadFile(MetaPath(imgPath))
	if err != nil {
		return m, fmt.Errorf("meta read %s: %v", MetaPath(imgPath), err)
	}
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return m, fmt.Errorf("meta parse %s: %v", MetaPath(imgPath), err)
	}
	if m.SampleIncrement == 0 {
		m.SampleIncrement = 1
	}
	if m.BandCount == 0 {
		m.BandCount = 1
	}
	return m, nil
}

func WriteMeta(imgPath string, m Meta) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("meta marshal %s: %v", imgPath, err)
	}
	if err := os.WriteFile(MetaPath(imgPath), b, 0644); err != nil {
		return fmt.Errorf("meta write %s: %v", MetaPath(imgPath), err)
	}
	return nil
}
