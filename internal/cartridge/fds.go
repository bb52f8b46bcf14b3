package cartridge

import (
	"bytes"
	"io"
)

// diskSideSize is the byte length of one side of a disk in the archive
// format, headered or raw.
const diskSideSize = 65500

// fdsVerificationString opens info block 1 on every valid disk side; a file
// starting with it is a raw dump with no archive header.
var fdsVerificationString = []uint8("\x01*NINTENDO-HVC*")

// FDSFile holds the decoded sides of a disk archive.
type FDSFile struct {
	DiskSides [][]uint8
}

// fdsHeaderValid reports whether data starts with "FDS" + MS-DOS EOF.
func fdsHeaderValid(data []uint8) bool {
	return len(data) >= 16 &&
		data[0] == 'F' && data[1] == 'D' && data[2] == 'S' && data[3] == 0x1A
}

// ParseFDS decodes a disk archive from r. Both the 16-byte fwNES header and
// headerless raw dumps are recognised.
func ParseFDS(r io.Reader) (*FDSFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Reason: "disk image", Err: err}
	}

	if fdsHeaderValid(data) {
		sides := int(data[4])
		file := &FDSFile{}
		for i := 0; i < sides; i++ {
			start := 16 + i*diskSideSize
			end := start + diskSideSize
			if end > len(data) {
				return nil, &ReadError{Reason: "unexpected end of disk image"}
			}
			side := make([]uint8, diskSideSize)
			copy(side, data[start:end])
			file.DiskSides = append(file.DiskSides, side)
		}
		return file, nil
	}

	// Raw dump: the body is a whole number of 65500-byte sides.
	if len(data) >= len(fdsVerificationString) &&
		bytes.Equal(data[:len(fdsVerificationString)], fdsVerificationString) {
		file := &FDSFile{}
		for i := 0; i < len(data)/diskSideSize; i++ {
			side := make([]uint8, diskSideSize)
			copy(side, data[i*diskSideSize:(i+1)*diskSideSize])
			file.DiskSides = append(file.DiskSides, side)
		}
		return file, nil
	}

	return nil, ErrInvalidHeader
}
