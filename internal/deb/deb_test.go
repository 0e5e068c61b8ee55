package deb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatHostFilenameRoundTrip(t *testing.T) {
	d := DEB{
		Format:               FormatSequential | FileFormat(AttrRead) | FileFormat(AttrWrite),
		FileName:             "REPORT",
		FileType:             "TXT",
		FileFormatDependent1: 80,
	}

	name, err := FormatHostFilename(d)
	require.NoError(t, err)
	require.Equal(t, "REPORT.TXT_SRW_80", name)

	reparsed, err := ParseHostFilename(name)
	require.NoError(t, err)
	require.Equal(t, d.Format, reparsed.Format)
	require.Equal(t, d.FileName, reparsed.FileName)
	require.Equal(t, d.FileType, reparsed.FileType)
	require.Equal(t, d.FileFormatDependent1, reparsed.FileFormatDependent1)
}

func TestFormatHostFilenamePlainSequential(t *testing.T) {
	d := DEB{Format: FormatSequential, FileName: "FOO", FileType: "BAR"}
	name, err := FormatHostFilename(d)
	require.NoError(t, err)
	require.Equal(t, "FOO.BAR_S", name)
}

func TestParseHostFilenameNoSuffixDefaultsSequential(t *testing.T) {
	d, err := ParseHostFilename("FOO.BAR")
	require.NoError(t, err)
	require.Equal(t, FormatSequential, d.Format)
	require.Equal(t, "FOO", d.FileName)
	require.Equal(t, "BAR", d.FileType)
	require.Equal(t, uint16(0), d.FileFormatDependent1)
}

func TestFormatHostFilenameAbsolute(t *testing.T) {
	d := DEB{
		Format:               FormatAbsolute,
		FileName:             "BOOT",
		FileType:             "BIN",
		FileFormatDependent1: 4096,
		FileFormatDependent2: 0x1000,
	}
	name, err := FormatHostFilename(d)
	require.NoError(t, err)
	require.Equal(t, "BOOT.BIN_A_4096_1000", name)

	reparsed, err := ParseHostFilename(name)
	require.NoError(t, err)
	require.Equal(t, d.Format, reparsed.Format)
	require.Equal(t, d.FileFormatDependent1, reparsed.FileFormatDependent1)
	require.Equal(t, d.FileFormatDependent2, reparsed.FileFormatDependent2)
}

func TestFormatHostFilenameIndexedPacksRecordAndKeyLength(t *testing.T) {
	d := DEB{
		Format:               FormatIndexed,
		FileName:             "CUST",
		FileType:             "IDX",
		FileFormatDependent1: 200 | (10 << 9),
	}
	name, err := FormatHostFilename(d)
	require.NoError(t, err)
	require.Equal(t, "CUST.IDX_I_200_10", name)

	reparsed, err := ParseHostFilename(name)
	require.NoError(t, err)
	require.Equal(t, d.FileFormatDependent1, reparsed.FileFormatDependent1)
}

func TestParseHostFilenameRejectsOversizedNameOrType(t *testing.T) {
	_, err := ParseHostFilename("TOOLONGNAME.TXT")
	require.Error(t, err)

	_, err = ParseHostFilename("FOO.TOOLONGTYPE")
	require.Error(t, err)
}

func TestParseHostFilenameRejectsOutOfRangeIndexedFields(t *testing.T) {
	_, err := ParseHostFilename("CUST.IDX_I_600_10")
	require.Error(t, err)

	_, err = ParseHostFilename("CUST.IDX_I_200_200")
	require.Error(t, err)
}

func TestParseHostFilenameRejectsZeroLengthDirect(t *testing.T) {
	_, err := ParseHostFilename("FOO.BAR_D_0")
	require.Error(t, err)
}

func TestFileFormatIsValid(t *testing.T) {
	require.True(t, FormatSequential.IsValid())
	require.True(t, FileFormat(byte(FormatKeyed)|AttrRead).IsValid())
	require.False(t, FormatEmpty.IsValid())
	require.False(t, FormatDeleted.IsValid())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := DEB{
		Format:               FormatDirect | FileFormat(AttrDelete),
		FileName:             "DATA",
		FileType:             "REC",
		FileFormatDependent1: 128,
		FileFormatDependent2: 0,
		RecordCount:          10,
		BlockCount:           2,
		StartSector:          40,
		OwnerID:              3,
		SharedFromOwnerID:    0,
	}

	raw, err := Encode(d)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, d.Format, decoded.Format)
	require.Equal(t, d.FileName, decoded.FileName)
	require.Equal(t, d.FileType, decoded.FileType)
	require.Equal(t, d.FileFormatDependent1, decoded.FileFormatDependent1)
	require.Equal(t, d.RecordCount, decoded.RecordCount)
	require.Equal(t, d.BlockCount, decoded.BlockCount)
	require.Equal(t, d.StartSector, decoded.StartSector)
	require.Equal(t, d.OwnerID, decoded.OwnerID)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := Decode(make([]byte, 16))
	require.Error(t, err)
}
