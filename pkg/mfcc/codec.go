package mfcc

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// File format, little-endian:
//
//	offset 0  1 byte   version tag (currently 0x01)
//	offset 1  4 bytes  frame count, int32
//	offset 5  4 bytes  coefficient count, int32
//	offset 9  ...      row-major int16 matrix, 2*frames*coefs bytes
const featureTagV1 = 0x01

// SaveFile writes a feature to path in the versioned binary format.
func SaveFile(path string, feature *Feature) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save feature: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{featureTagV1}); err != nil {
		return fmt.Errorf("save feature: %w", err)
	}
	header := []int32{int32(feature.frameNum), int32(feature.coefNum)}
	if err := binary.Write(file, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("save feature: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, feature.data); err != nil {
		return fmt.Errorf("save feature: %w", err)
	}
	return nil
}

// LoadFile reads a feature from path. Files with an unknown version tag
// are refused.
func LoadFile(path string) (*Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	defer file.Close()

	var tag [1]byte
	if _, err := io.ReadFull(file, tag[:]); err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if tag[0] != featureTagV1 {
		return nil, fmt.Errorf("load feature: unsupported version tag 0x%02x", tag[0])
	}

	var frameNum, coefNum int32
	if err := binary.Read(file, binary.LittleEndian, &frameNum); err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if err := binary.Read(file, binary.LittleEndian, &coefNum); err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	if frameNum <= 0 || coefNum <= 0 {
		return nil, fmt.Errorf("load feature: invalid dimensions %dx%d", frameNum, coefNum)
	}

	feature := newFeature(int(frameNum), int(coefNum))
	if err := binary.Read(file, binary.LittleEndian, feature.data); err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	return feature, nil
}
