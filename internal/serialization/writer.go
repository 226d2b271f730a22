package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// WriteFile writes groups to a .born container at filename.
//
// Groups and datasets are written in slice order, which becomes the
// enumeration order seen by readers. The file is created or truncated.
func WriteFile(filename string, groups []Group, attributes map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Groups:        make([]GroupMeta, 0, len(groups)),
		Attributes:    attributes,
	}

	var data bytes.Buffer
	for _, g := range groups {
		meta := GroupMeta{
			Name:       g.Name,
			Attributes: g.Attributes,
			Datasets:   make([]DatasetMeta, 0, len(g.Datasets)),
		}
		for _, d := range g.Datasets {
			if d.Tensor == nil {
				return fmt.Errorf("dataset %s has no tensor", datasetPath(g.Name, d.Name))
			}
			offset := int64(data.Len())
			for _, v := range d.Tensor.Data() {
				var buf [float32Size]byte
				binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
				data.Write(buf[:])
			}
			meta.Datasets = append(meta.Datasets, DatasetMeta{
				Name:   d.Name,
				DType:  DTypeFloat32,
				Shape:  []int(d.Tensor.Shape().Clone()),
				Offset: offset,
				Size:   int64(data.Len()) - offset,
			})
		}
		header.Groups = append(header.Groups, meta)
	}
	header.Checksum = checksum(data.Bytes())

	if err := ValidateHeader(&header, int64(data.Len()), ValidationStrict); err != nil {
		return fmt.Errorf("invalid container: %w", err)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := writeContainer(file, headerJSON, data.Bytes(), len(attributes) > 0); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}

func writeContainer(file *os.File, headerJSON, data []byte, hasAttributes bool) error {
	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	flags := uint32(0)
	if hasAttributes {
		flags |= FlagHasAttributes
	}
	if err := binary.Write(file, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}

	headerSize := uint64(len(headerJSON))
	if err := binary.Write(file, binary.LittleEndian, headerSize); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	currentPos := int64(FixedHeaderSize) + int64(len(headerJSON))
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write dataset data: %w", err)
	}
	return nil
}
