// Package geometry holds the fixed, on-disk geometry constants for the
// OASIS filesystem, plus the small byte-level codecs (timestamp, little
// endian accessors) that every other core package builds on. It is a leaf
// package: nothing here depends on any other internal package.
package geometry

const (
	// SectorSize is the logical sector unit used everywhere above sectorio.
	SectorSize = 256

	// SectorsPerBlock is the number of 256-byte sectors in one 1 KiB
	// allocation block.
	SectorsPerBlock = 4

	// BlockSize is the allocation unit: SectorsPerBlock * SectorSize.
	BlockSize = SectorsPerBlock * SectorSize

	// MaxBlocks is the largest block count a filesystem may address.
	MaxBlocks = 16384

	// MaxAllocationMapBytes bounds the allocation bitmap's size.
	MaxAllocationMapBytes = 2048

	// HeaderSize is the size, in bytes, of the filesystem header block.
	HeaderSize = 32

	// DEBSize is the size, in bytes, of one Directory Entry Block.
	DEBSize = 32

	// DEBsPerSector is how many 32-byte DEBs fit in one 256-byte sector.
	DEBsPerSector = SectorSize / DEBSize
)
