package datasets

import "strings"

// Kind is the data tier of a dataset, taken from the end of its identifier.
type Kind int

// Kinds
const (
	Unknown Kind = iota
	NanoAOD
	MiniAOD
	User
)

// KindOf returns the data tier of a dataset identifier.
func KindOf(dataset string) Kind {
	switch {
	case strings.HasSuffix(dataset, "NANOAODSIM"):
		return NanoAOD
	case strings.HasSuffix(dataset, "MINIAODSIM"):
		return MiniAOD
	case strings.HasSuffix(dataset, "USER"):
		return User
	default:
		return Unknown
	}
}

// NeedsParent reports whether the dataset must be replaced by its parent
// before processing. NanoAOD is reprocessed from the MiniAOD it was made from.
func (k Kind) NeedsParent() bool {
	return k == NanoAOD
}

func (k Kind) String() string {
	switch k {
	case NanoAOD:
		return "NANOAODSIM"
	case MiniAOD:
		return "MINIAODSIM"
	case User:
		return "USER"
	default:
		return "unknown"
	}
}
