package section

const (
	// Bit masks of the file header options field.
	EndiannessMask  = 0x0002 // bit 1: 0=little, 1=big
	MagicNumberMask = 0xFFF0 // bits 4-15

	// MagicContainerV1Opt identifies a columnar container file.
	MagicContainerV1Opt = 0xC5D0

	// FormatVersion is the version written by this package.
	FormatVersion = 1
)

const (
	FileHeaderSize   = 16 // fixed file header size in bytes
	RecordHeaderSize = 24 // fixed record header size in bytes
)

// RecordKind identifies what a record creates.
type RecordKind uint8

const (
	RecordGroup     RecordKind = 0x1 // RecordGroup creates a child group.
	RecordDimension RecordKind = 0x2 // RecordDimension binds a dimension length in a group.
	RecordVariable  RecordKind = 0x3 // RecordVariable stores a typed variable.
	RecordAttribute RecordKind = 0x4 // RecordAttribute sets a scalar attribute.
)

func (k RecordKind) Valid() bool {
	return k >= RecordGroup && k <= RecordAttribute
}

func (k RecordKind) String() string {
	switch k {
	case RecordGroup:
		return "Group"
	case RecordDimension:
		return "Dimension"
	case RecordVariable:
		return "Variable"
	case RecordAttribute:
		return "Attribute"
	default:
		return "Unknown"
	}
}

// Record flags.
const (
	// FlagCompound marks a variable whose elements are {real, imag} records.
	FlagCompound uint16 = 0x0001
)
