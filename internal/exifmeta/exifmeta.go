package exifmeta

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

var (
	// ErrMetadataAbsent marks files without the required EXIF fields.
	ErrMetadataAbsent = errors.New("metadata absent")
	// ErrMetadataMalformed marks EXIF fields whose values fail sanity checks.
	ErrMetadataMalformed = errors.New("metadata malformed")
	// ErrUnreadable marks files that could not be opened or read at all.
	ErrUnreadable = errors.New("image unreadable")
)

// EXIF ExposureMode (0xa402) values.
const (
	ExposureModeAuto        = 0
	ExposureModeManual      = 1
	ExposureModeAutoBracket = 2
)

// Metadata holds the capture fields read from one image.
type Metadata struct {
	Timestamp     time.Time
	ExposureValue float64
	ExposureMode  int
}

// Reader reads metadata from image files on disk.
type Reader struct{}

// NewReader returns a file-backed reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read opens path and extracts its capture metadata.
func (r *Reader) Read(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return Metadata{}, fmt.Errorf("%w: decode exif: %v", ErrMetadataAbsent, err)
	}
	return Extract(x)
}

// Extract pulls the capture fields out of a decoded EXIF block.
func Extract(x *exif.Exif) (Metadata, error) {
	modeTag, err := x.Get(exif.ExposureMode)
	if err != nil {
		return Metadata{}, tagError(exif.ExposureMode, err)
	}
	mode, err := modeTag.Int(0)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: exposure mode: %v", ErrMetadataMalformed, err)
	}

	biasTag, err := x.Get(exif.ExposureBiasValue)
	if err != nil {
		return Metadata{}, tagError(exif.ExposureBiasValue, err)
	}
	num, den, err := biasTag.Rat2(0)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: exposure bias: %v", ErrMetadataMalformed, err)
	}
	ev, err := exposureFromRational(num, den)
	if err != nil {
		return Metadata{}, err
	}

	taken, err := x.DateTime()
	if err != nil {
		var missing exif.TagNotPresentError
		if errors.As(err, &missing) {
			return Metadata{}, fmt.Errorf("%w: capture time not recorded", ErrMetadataAbsent)
		}
		return Metadata{}, fmt.Errorf("%w: capture time: %v", ErrMetadataMalformed, err)
	}

	return Metadata{
		Timestamp:     taken,
		ExposureValue: ev,
		ExposureMode:  mode,
	}, nil
}

func tagError(name exif.FieldName, err error) error {
	var missing exif.TagNotPresentError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: tag %s not present", ErrMetadataAbsent, name)
	}
	return fmt.Errorf("%w: tag %s: %v", ErrMetadataMalformed, name, err)
}

// exposureFromRational converts a signed EXIF rational to stops.
func exposureFromRational(num, den int64) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: exposure bias %d/0 has a zero denominator", ErrMetadataMalformed, num)
	}
	ev := float64(num) / float64(den)
	if math.IsNaN(ev) || math.IsInf(ev, 0) {
		return 0, fmt.Errorf("%w: exposure bias %d/%d is not finite", ErrMetadataMalformed, num, den)
	}
	return ev, nil
}
