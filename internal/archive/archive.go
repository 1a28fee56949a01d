package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/openoj/judge-api/internal/validator"
)

var (
	// ErrNotArchive is returned when the payload does not decode as a zip.
	ErrNotArchive = errors.New("payload is not a zip archive")
	// ErrFileTooLarge is returned when an archived file exceeds the source file size limit.
	ErrFileTooLarge = errors.New("archived file exceeds size limit")
)

// DecodeZip decodes a base64 zip archive into an ordered sequence of file
// contents. When expectedNames is non-empty the result follows that order
// and every named file must be present; otherwise files come back in
// archive order. Directories are ignored.
func DecodeZip(encoded string, expectedNames []string) ([]string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotArchive, err)
	}

	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotArchive, err)
	}

	if len(expectedNames) == 0 {
		files := make([]string, 0, len(reader.File))
		for _, entry := range reader.File {
			if entry.FileInfo().IsDir() {
				continue
			}

			content, err := readEntry(entry)
			if err != nil {
				return nil, err
			}
			files = append(files, content)
		}

		if len(files) == 0 {
			return nil, fmt.Errorf("%w: archive has no files", ErrNotArchive)
		}

		return files, nil
	}

	files := make([]string, 0, len(expectedNames))
	for _, name := range expectedNames {
		entry, err := reader.Open(name)
		if err != nil {
			return nil, fmt.Errorf("%w: missing %q", ErrNotArchive, name)
		}

		content, err := readAll(entry)
		closeErr := entry.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}

		files = append(files, content)
	}

	return files, nil
}

// EncodeZip builds a base64 zip archive from named file contents. Used by
// tests and tooling as the inverse of DecodeZip.
func EncodeZip(names []string, files []string) (string, error) {
	if len(names) != len(files) {
		return "", errors.New("names and files must have the same length")
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for i, name := range names {
		entry, err := writer.Create(name)
		if err != nil {
			return "", err
		}
		if _, err := entry.Write([]byte(files[i])); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func readEntry(entry *zip.File) (string, error) {
	f, err := entry.Open()
	if err != nil {
		return "", err
	}

	content, err := readAll(f)
	closeErr := f.Close()
	if err != nil {
		return "", err
	}
	if closeErr != nil {
		return "", closeErr
	}

	return content, nil
}

// readAll reads one archived file with the size limit enforced during
// decompression, so a small archive cannot expand without bound.
func readAll(f io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(f, validator.MaxFileBytes+1))
	if err != nil {
		return "", err
	}

	if !validator.ValidateFileSize(len(content)) {
		return "", ErrFileTooLarge
	}

	return string(content), nil
}
