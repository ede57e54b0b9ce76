package datasource

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// GeoPackage binary header flag bits.
const (
	gpkgFlagLittleEndian = 0x01
	gpkgFlagEnvelope     = 0x0e
	gpkgFlagEmpty        = 0x10
	gpkgFlagExtended     = 0x20

	gpkgHeaderSize = 8
)

var errNotGeoPackageBinary = errors.New("not a GeoPackage binary geometry")

// gpkgHeader is the fixed part of a GeoPackage geometry blob.
type gpkgHeader struct {
	srsID    int32
	empty    bool
	wkbStart int // offset of the WKB body
}

// envelopeSize maps the envelope contents indicator (flag bits 1-3) to bytes.
func envelopeSize(indicator byte) (int, error) {
	switch indicator {
	case 0:
		return 0, nil
	case 1:
		return 32, nil // minx, maxx, miny, maxy
	case 2, 3:
		return 48, nil // plus z or m range
	case 4:
		return 64, nil // plus z and m range
	default:
		return 0, fmt.Errorf("invalid envelope indicator %d", indicator)
	}
}

func parseGPKGHeader(blob []byte) (gpkgHeader, error) {
	if len(blob) < gpkgHeaderSize || blob[0] != 'G' || blob[1] != 'P' {
		return gpkgHeader{}, errNotGeoPackageBinary
	}
	if blob[2] != 0 {
		return gpkgHeader{}, fmt.Errorf("unsupported GeoPackage binary version %d", blob[2])
	}

	flags := blob[3]
	if flags&gpkgFlagExtended != 0 {
		return gpkgHeader{}, errors.New("extended GeoPackage geometry types are not supported")
	}

	var order binary.ByteOrder = binary.BigEndian
	if flags&gpkgFlagLittleEndian != 0 {
		order = binary.LittleEndian
	}

	envSize, err := envelopeSize((flags & gpkgFlagEnvelope) >> 1)
	if err != nil {
		return gpkgHeader{}, err
	}
	start := gpkgHeaderSize + envSize
	if len(blob) < start {
		return gpkgHeader{}, fmt.Errorf("truncated GeoPackage header: %d bytes, need %d", len(blob), start)
	}

	return gpkgHeader{
		srsID:    int32(order.Uint32(blob[4:8])),
		empty:    flags&gpkgFlagEmpty != 0,
		wkbStart: start,
	}, nil
}

// decodeGPKG strips the GeoPackage header and decodes the WKB body.
// Empty geometries decode to nil.
func decodeGPKG(blob []byte) (geom.T, error) {
	hdr, err := parseGPKGHeader(blob)
	if err != nil {
		return nil, err
	}
	if hdr.empty {
		return nil, nil
	}

	g, err := wkb.Unmarshal(blob[hdr.wkbStart:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode WKB: %w", err)
	}
	return g, nil
}
