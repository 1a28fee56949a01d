package validator

import (
	"encoding/base64"
)

// Largest accepted source file after decoding, 1 MiB.
const MaxFileBytes = 1 << 20

// Largest accepted encoded archive, base64 of 8 MiB.
const maxArchiveBytes = 1 << 23

// ensure the data length is less than the maximum base64 length for a given length without decoding the base64
func validateBase64Len(dataLen int, length int) bool {
	return dataLen <= base64.StdEncoding.EncodedLen(length)
}

// ensures an encoded archive is within the allowable archive size
func ValidateArchiveSize(dataLen int) bool {
	return validateBase64Len(dataLen, maxArchiveBytes)
}

// ensures a single decoded source file is within the allowable file size
func ValidateFileSize(dataLen int) bool {
	return dataLen <= MaxFileBytes
}
