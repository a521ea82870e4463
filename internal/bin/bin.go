// Package bin contains utilities for dealing with binary representations.
package bin

import (
	"encoding/binary"
	"io"
	"unsafe"
)

// ByteOrder is the host byte order. Event records cross the read
// boundary in host order, matching the kernel convention.
var ByteOrder binary.ByteOrder = binary.LittleEndian

func init() {
	n := uint32(1)
	b := (*[4]byte)(unsafe.Pointer(&n))
	if b[0] == 0 {
		ByteOrder = binary.BigEndian
	}
}

func Bytes[T ~int32 | ~uint32](v T) [4]byte {
	return *(*[4]byte)(unsafe.Pointer(&v))
}

func Value[T ~int32 | ~uint32](data [4]byte) T {
	return *(*T)(unsafe.Pointer(&data))
}

func Read[T ~int32 | ~uint32](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}

	return Value[T](data), nil
}

func Write[T ~int32 | ~uint32](w io.Writer, v T) error {
	data := Bytes(v)
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}

func Put32(p []byte, v uint32) {
	ByteOrder.PutUint32(p, v)
}

func Put64(p []byte, v uint64) {
	ByteOrder.PutUint64(p, v)
}

func Get32(p []byte) uint32 {
	return ByteOrder.Uint32(p)
}

func Get64(p []byte) uint64 {
	return ByteOrder.Uint64(p)
}
