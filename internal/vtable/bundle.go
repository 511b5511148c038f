package vtable

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"
)

func init() {
	gob.Register(&TableImage{})
	gob.Register(&SelectorImage{})
}

// vtableImageVersion is the current on-disk format version for TableImage.
const vtableImageVersion byte = 0x01

// vtableImageMagic is the 4-byte header identifying a serialized TableImage.
var vtableImageMagic = [4]byte{'V', 'T', 'B', '1'}

// SelectorImage is the serializable projection of a finalized Selector: just
// enough to let a driver re-attach function references without re-running
// the walk and pack phases.
type SelectorImage struct {
	Id          SelectorId
	CallCount   int
	ClassIds    []ClassId
	TargetCount int
	Offset      int
	HasOffset   bool
	Signature   CallSignature
}

// TableImage is the complete, serializable output of a build: the packed
// table plus per-selector metadata, tagged with a stable BuildID so a driver
// can correlate a cached artifact with the build that produced it.
type TableImage struct {
	BuildID   string
	Length    int
	Selectors []SelectorImage
}

// NewTableImage projects a packer's table and a registry's finalized
// selectors into a serializable image, minting a fresh BuildID.
func NewTableImage(tableLen int, selectors []*Selector) *TableImage {
	img := &TableImage{
		BuildID: uuid.NewString(),
		Length:  tableLen,
	}
	for _, s := range selectors {
		si := SelectorImage{
			Id:          s.Id,
			CallCount:   s.CallCount,
			ClassIds:    s.ClassIds,
			TargetCount: s.TargetCount,
		}
		if s.Offset != nil {
			si.HasOffset = true
			si.Offset = *s.Offset
		}
		if sig, ok := s.Signature(); ok {
			si.Signature = sig
		}
		img.Selectors = append(img.Selectors, si)
	}
	return img
}

// Serialize encodes img as: magic (4 bytes) + version (1 byte) + gob payload.
func (img *TableImage) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(vtableImageMagic[:])
	buf.WriteByte(vtableImageVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(img); err != nil {
		return nil, fmt.Errorf("table image gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeTableImage decodes a TableImage produced by Serialize.
func DeserializeTableImage(data []byte) (*TableImage, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("table image data too short")
	}
	if data[0] != vtableImageMagic[0] || data[1] != vtableImageMagic[1] ||
		data[2] != vtableImageMagic[2] || data[3] != vtableImageMagic[3] {
		return nil, fmt.Errorf("invalid magic number, expected %s", string(vtableImageMagic[:]))
	}

	version := data[4]
	if version != vtableImageVersion {
		return nil, fmt.Errorf("unsupported table image version: %d (this binary supports version %d)", version, vtableImageVersion)
	}

	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	var img TableImage
	if err := dec.Decode(&img); err != nil {
		return nil, fmt.Errorf("table image gob decoding failed: %w", err)
	}
	return &img, nil
}
