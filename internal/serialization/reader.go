package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Reader reads groups and datasets from a .born container.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64 // Offset where dataset data starts
	dataSize   int64 // Size of the data section
	closed     bool
}

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Open opens a container with strict validation and checksum verification.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// OpenWithOptions opens a container with custom options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file}
	if err := r.parseHeader(); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	r.dataSize = info.Size() - r.dataOffset
	if r.dataSize < 0 {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", io.ErrUnexpectedEOF)
	}

	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := r.verifyChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) parseHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.file, magic); err != nil {
		return fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(r.file, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	if err := binary.Read(r.file, binary.LittleEndian, &r.flags); err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding
	return nil
}

func (r *Reader) verifyChecksum() error {
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to dataset data: %w", err)
	}
	if err := verifyData(r.file, r.dataSize, r.header.Checksum); err != nil {
		return fmt.Errorf("%s: %w", r.file.Name(), err)
	}
	return nil
}

// Close closes the underlying file. Calling Close twice is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Attributes returns the file-level attributes.
func (r *Reader) Attributes() map[string]string {
	return r.header.Attributes
}

// Groups returns the groups in file order.
func (r *Reader) Groups() []GroupMeta {
	return r.header.Groups
}

// GroupNames returns the group names in file order.
func (r *Reader) GroupNames() []string {
	names := make([]string, len(r.header.Groups))
	for i, g := range r.header.Groups {
		names[i] = g.Name
	}
	return names
}

// Group looks up a group by name.
func (r *Reader) Group(name string) (*GroupMeta, error) {
	for i := range r.header.Groups {
		if r.header.Groups[i].Name == name {
			return &r.header.Groups[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

// Dataset loads one dataset of one group as a tensor.
func (r *Reader) Dataset(group, name string) (*tensor.Tensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	g, err := r.Group(group)
	if err != nil {
		return nil, err
	}
	meta, ok := g.Dataset(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetPath(group, name))
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to dataset %s: %w", datasetPath(group, name), err)
	}
	raw := make([]byte, meta.Size)
	if _, err := io.ReadFull(r.file, raw); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", datasetPath(group, name), err)
	}

	values := make([]float64, len(raw)/float32Size)
	for i := range values {
		bits := binary.LittleEndian.Uint32(raw[i*float32Size:])
		values[i] = float64(math.Float32frombits(bits))
	}
	return tensor.New(tensor.Shape(meta.Shape), values)
}
