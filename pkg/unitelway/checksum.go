// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

// Checksum computes the UNI-TELWAY block check character: the sum of all
// bytes modulo 256.
func Checksum(data []byte) byte {
	var bcc byte
	for _, b := range data {
		bcc += b
	}
	return bcc
}

// AppendChecksum returns data followed by its BCC.
func AppendChecksum(data []byte) []byte {
	out := make([]byte, 0, len(data)+1)
	out = append(out, data...)
	return append(out, Checksum(data))
}

// VerifyChecksum recomputes the BCC over all but the last byte of frame
// and compares it with the last byte.
func VerifyChecksum(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	return Checksum(frame[:len(frame)-1]) == frame[len(frame)-1]
}
