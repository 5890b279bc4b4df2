// Package endian provides byte order utilities for pixel and payload encoding.
//
// FITS stores every multi-byte value big-endian, so GetFITSEngine is the engine
// used by the tile codecs. NativeEngine serves raw pixel dumps written in host
// order.
//
// # Basic Usage
//
//	engine := endian.GetFITSEngine()
//	buf = engine.AppendUint32(buf, uint32(pixel))
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// NativeEngine returns the byte order of the host.
func NativeEngine() EndianEngine {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// GetFITSEngine returns the byte order mandated by the FITS standard (big-endian).
func GetFITSEngine() EndianEngine {
	return binary.BigEndian
}
